package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/census-market-etl/internal/config"
	"github.com/couchcryptid/census-market-etl/internal/domain"
	"github.com/couchcryptid/census-market-etl/internal/observability"
)

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes every enriched record of a snapshot to a Kafka topic.
// It implements pipeline.Publisher.
type Publisher struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured sink topic.
func NewPublisher(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, metrics: metrics, logger: logger}
}

// Publish sends one message per county and per MSA in a single WriteMessages
// call. Counties come first, each group ordered by key.
func (p *Publisher) Publish(ctx context.Context, snap *domain.Snapshot) error {
	msgs, err := snapshotMessages(snap)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d records: %w", len(msgs), err)
	}
	p.metrics.RecordsPublished.Add(float64(len(msgs)))
	p.logger.Info("snapshot published to kafka", "run_id", snap.RunID, "records", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func snapshotMessages(snap *domain.Snapshot) ([]kafkago.Message, error) {
	msgs := make([]kafkago.Message, 0, len(snap.Counties)+len(snap.MSAs))

	for _, fips := range sortedKeys(snap.Counties) {
		c := snap.Counties[fips]
		msg, err := serializeToMessage(snap, "county:"+c.FIPS, domain.GranularityCounty, c.Classification.Type, c)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	for _, name := range sortedKeys(snap.MSAs) {
		m := snap.MSAs[name]
		msg, err := serializeToMessage(snap, "msa:"+m.Name, domain.GranularityMSA, m.Classification.Type, m)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// serializeToMessage marshals one record into a Kafka message.
func serializeToMessage(snap *domain.Snapshot, key string, g domain.Granularity, mt domain.MarketType, record any) (kafkago.Message, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s: %w", key, err)
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "granularity", Value: []byte(g)},
			{Key: "market_type", Value: []byte(mt)},
			{Key: "run_id", Value: []byte(snap.RunID)},
			{Key: "generated_at", Value: []byte(snap.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
