//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/census-market-etl/internal/adapter/kafka"
	"github.com/couchcryptid/census-market-etl/internal/adapter/source"
	"github.com/couchcryptid/census-market-etl/internal/config"
	"github.com/couchcryptid/census-market-etl/internal/domain"
	"github.com/couchcryptid/census-market-etl/internal/observability"
	"github.com/couchcryptid/census-market-etl/internal/pipeline"
)

const testSinkTopic = "test-market-records"

var fixtures = map[domain.Dataset]string{
	domain.DatasetEconomic:             "economic.csv",
	domain.DatasetHousing:              "housing.csv",
	domain.DatasetPopulation:           "population.json",
	domain.DatasetPopulationHistorical: "population_historical.json",
	domain.DatasetEmployment:           "employment.csv",
	domain.DatasetFMR:                  "fmr.csv",
}

var fixtureBodies = map[string]string{
	"economic.csv": "GEO_ID,NAME,DP03_0062E,DP03_0004PE,DP03_0009PE\n" +
		"Geography,Geographic Area Name,Median household income,Employed,Unemployment rate\n" +
		"0500000US37183,\"Wake County, North Carolina\",96734,66.1,4.2\n" +
		"0500000US37063,\"Durham County, North Carolina\",71234,64.0,5.0\n" +
		"0500000US35013,\"Doña Ana County, New Mexico\",47151,52.3,7.9\n",
	"housing.csv": "GEO_ID,DP04_0001E,DP04_0003E,DP04_0046E,DP04_0047E,DP04_0134E\n" +
		"Geography,Total,Vacant,Owner,Renter,Median gross rent\n" +
		"0500000US37183,449012,23895,279561,145556,1402\n" +
		"0500000US37063,146420,10250,75123,61047,1265\n",
	"population.json": `[["NAME","B01003_001E","state","county"],` +
		`["Wake County, North Carolina","1150204","37","183"],` +
		`["Durham County, North Carolina","326126","37","063"],` +
		`["Doña Ana County, New Mexico","219561","35","013"]]`,
	"population_historical.json": `[["NAME","B01003_001E","state","county"],` +
		`["Wake County, North Carolina","1023811","37","183"],` +
		`["Durham County, North Carolina","300865","37","063"]]`,
	"employment.csv": "GEO_ID,S2301_C03_001E,S2301_C04_001E\n" +
		"Geography,Employment/Population Ratio,Unemployment rate\n" +
		"0500000US37063,63.5,N\n",
	"fmr.csv": "countyname,state_alpha,hud_area_name,metro,fmr_0,fmr_1,fmr_2,fmr_3,fmr_4\n" +
		"Wake County,NC,\"Raleigh, NC MSA\",1,1252,1307,1521,1976,2474\n" +
		"Durham County,NC,\"Durham-Chapel Hill, NC MSA\",1,1180,1265,1440,1850,2290\n" +
		"Dona Ana County,NM,\"Las Cruces, NM MSA\",1,722,803,1004,1405,1640\n",
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("market-etl-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func writeFixtures(t *testing.T) pipeline.Sources {
	t.Helper()
	dir := t.TempDir()
	sources := pipeline.Sources{}
	for ds, name := range fixtures {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(fixtureBodies[name]), 0o600))
		sources[ds] = path
	}
	return sources
}

// TestPipelinePublishesSnapshot builds a snapshot from local fixtures through
// the real loader and publishes it to a Kafka container.
func TestPipelinePublishesSnapshot(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}
	metrics := observability.NewMetricsForTesting()

	publisher := kafka.NewPublisher(cfg, metrics, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	router := source.NewRouter(source.FileFetcher{}, nil, nil, metrics)
	loader := source.NewLoader(router, metrics, discardLogger())
	builder := pipeline.NewBuilder(loader, writeFixtures(t), nil, discardLogger())
	runner := pipeline.NewRunner(builder, 0, discardLogger(), metrics, pipeline.WithPublisher(publisher))

	snap, err := runner.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Counties, 3)
	require.Len(t, snap.MSAs, 3)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := map[string]kafkago.Message{}
	for len(received) < 6 {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from sink topic")
		received[string(msg.Key)] = msg
	}

	wakeMsg, ok := received["county:37183"]
	require.True(t, ok)
	headers := map[string]string{}
	for _, h := range wakeMsg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "county", headers["granularity"])
	assert.Equal(t, snap.RunID, headers["run_id"])
	_, err = time.Parse(time.RFC3339, headers["generated_at"])
	assert.NoError(t, err, "generated_at should be valid RFC3339")

	var wake domain.CountyRecord
	require.NoError(t, json.Unmarshal(wakeMsg.Value, &wake))
	assert.Equal(t, "Raleigh, NC MSA", wake.MSAName)
	require.NotNil(t, wake.Rent)
	assert.Equal(t, 1521.0, wake.Rent.FMR)

	var donaAna domain.CountyRecord
	require.NoError(t, json.Unmarshal(received["county:35013"].Value, &donaAna))
	assert.Equal(t, "Las Cruces, NM MSA", donaAna.MSAName, "accented name joins the benchmark")
	assert.Nil(t, donaAna.PopulationGrowth, "no historical population")

	_, ok = received["msa:Durham-Chapel Hill, NC MSA"]
	assert.True(t, ok)
}
