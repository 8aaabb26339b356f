package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/census-market-etl/internal/domain"
	"github.com/couchcryptid/census-market-etl/internal/observability"
)

type mockWriter struct {
	calls  int
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	m.calls++
	m.msgs = append(m.msgs, msgs...)
	return m.err
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func f64(v float64) *float64 { return &v }

func testSnapshot() *domain.Snapshot {
	generated := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	wake := &domain.CountyRecord{FIPS: "37183", Name: "Wake County", State: "North Carolina", MSAName: "Raleigh, NC MSA"}
	wake.TotalPopulation = f64(1150204)
	wake.Classification = domain.MarketClassification{Type: domain.MarketHot, Score: 74.5}
	durham := &domain.CountyRecord{FIPS: "37063", Name: "Durham County", State: "North Carolina"}
	durham.Classification = domain.MarketClassification{Type: domain.MarketUnknown}
	raleigh := &domain.MSARecord{Name: "Raleigh, NC MSA", CountyCount: 1, CountyFIPS: []string{"37183"}}
	raleigh.Classification = domain.MarketClassification{Type: domain.MarketWarm}

	return &domain.Snapshot{
		RunID:       "20260301T060000Z-1",
		GeneratedAt: generated,
		Counties:    map[string]*domain.CountyRecord{"37183": wake, "37063": durham},
		MSAs:        map[string]*domain.MSARecord{"Raleigh, NC MSA": raleigh},
	}
}

func newTestPublisher(w *mockWriter) (*Publisher, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return &Publisher{writer: w, metrics: m, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}, m
}

func headerMap(msg kafkago.Message) map[string]string {
	out := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

func TestPublisher_Publish(t *testing.T) {
	w := &mockWriter{}
	p, metrics := newTestPublisher(w)

	require.NoError(t, p.Publish(context.Background(), testSnapshot()))

	assert.Equal(t, 1, w.calls, "one WriteMessages call per snapshot")
	require.Len(t, w.msgs, 3)
	assert.Equal(t, "county:37063", string(w.msgs[0].Key))
	assert.Equal(t, "county:37183", string(w.msgs[1].Key))
	assert.Equal(t, "msa:Raleigh, NC MSA", string(w.msgs[2].Key))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.RecordsPublished))

	headers := headerMap(w.msgs[1])
	assert.Equal(t, "county", headers["granularity"])
	assert.Equal(t, "hot", headers["market_type"])
	assert.Equal(t, "20260301T060000Z-1", headers["run_id"])
	assert.Equal(t, "2026-03-01T06:00:00Z", headers["generated_at"])
	assert.Equal(t, "msa", headerMap(w.msgs[2])["granularity"])

	var county domain.CountyRecord
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &county))
	assert.Equal(t, "37183", county.FIPS)
	assert.Equal(t, 1150204.0, *county.TotalPopulation)
	assert.Nil(t, county.VacancyRate)
	assert.Contains(t, string(w.msgs[1].Value), `"vacancy_rate":null`)
}

func TestPublisher_WriteError(t *testing.T) {
	w := &mockWriter{err: errors.New("leader not available")}
	p, metrics := newTestPublisher(w)

	err := p.Publish(context.Background(), testSnapshot())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.RecordsPublished))
}

func TestPublisher_EmptySnapshot(t *testing.T) {
	w := &mockWriter{}
	p, _ := newTestPublisher(w)

	require.NoError(t, p.Publish(context.Background(), &domain.Snapshot{}))
	assert.Equal(t, 0, w.calls)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
