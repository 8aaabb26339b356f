package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/census-market-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/census-market-etl/internal/adapter/kafka"
	"github.com/couchcryptid/census-market-etl/internal/adapter/source"
	"github.com/couchcryptid/census-market-etl/internal/config"
	"github.com/couchcryptid/census-market-etl/internal/domain"
	"github.com/couchcryptid/census-market-etl/internal/observability"
	"github.com/couchcryptid/census-market-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tuning, err := loadTuning(cfg.TuningFile)
	if err != nil {
		logger.Error("failed to load tuning", "file", cfg.TuningFile, "error", err)
		os.Exit(1)
	}

	sources := sourcesFromConfig(cfg)

	// S3 is only wired when a source uses it.
	var s3Fetcher source.Fetcher
	if usesScheme(sources, "s3://") {
		client, err := source.NewS3Client(ctx, cfg.S3Endpoint)
		if err != nil {
			logger.Error("failed to create s3 client", "error", err)
			os.Exit(1)
		}
		s3Fetcher = source.NewS3Fetcher(client, cfg.SourceTimeout)
		logger.Info("s3 sources enabled", "endpoint", cfg.S3Endpoint)
	}

	web := source.NewHTTPFetcher(cfg.SourceTimeout, cfg.SourceRateLimit, cfg.SourceCacheSize, metrics, logger)
	router := source.NewRouter(source.FileFetcher{}, web, s3Fetcher, metrics)
	loader := source.NewLoader(router, metrics, logger)
	builder := pipeline.NewBuilder(loader, sources, tuning, logger)

	var opts []pipeline.Option
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, metrics, logger)
		opts = append(opts, pipeline.WithPublisher(publisher))
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	runner := pipeline.NewRunner(builder, cfg.RefreshInterval, logger, metrics, opts...)
	srv := httpadapter.NewServer(cfg.HTTPAddr, runner, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := runner.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func loadTuning(path string) (*domain.Tuning, error) {
	if path == "" {
		return domain.LoadTuning(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return domain.LoadTuning(data)
}

func sourcesFromConfig(cfg *config.Config) pipeline.Sources {
	return pipeline.Sources{
		domain.DatasetEconomic:             cfg.SourceEconomic,
		domain.DatasetHousing:              cfg.SourceHousing,
		domain.DatasetPopulation:           cfg.SourcePopulation,
		domain.DatasetPopulationHistorical: cfg.SourcePopulationHistorical,
		domain.DatasetEmployment:           cfg.SourceEmployment,
		domain.DatasetFMR:                  cfg.SourceFMR,
	}
}

func usesScheme(sources pipeline.Sources, prefix string) bool {
	for _, uri := range sources {
		if strings.HasPrefix(strings.ToLower(uri), prefix) {
			return true
		}
	}
	return false
}
