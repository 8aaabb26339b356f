package source

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/census-market-etl/internal/domain"
	"github.com/couchcryptid/census-market-etl/internal/observability"
)

// Loader fetches, decodes and parses one source. It never fails: a source that
// cannot be read yields no rows and a status with Loaded false.
type Loader struct {
	fetcher Fetcher
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewLoader creates a Loader on top of a fetcher (usually a Router).
func NewLoader(fetcher Fetcher, metrics *observability.Metrics, logger *slog.Logger) *Loader {
	return &Loader{fetcher: fetcher, metrics: metrics, logger: logger}
}

// Load reads the dataset at uri. A load cancelled through ctx is not counted
// as a failure.
func (l *Loader) Load(ctx context.Context, ds domain.Dataset, uri string) ([]domain.Row, domain.LoadStatus) {
	rows, warnings, err := l.load(ctx, ds, uri)
	if err != nil {
		err = &domain.SourceLoadError{Dataset: ds, Err: err}
		if ctx.Err() != nil {
			l.logger.Debug("source load abandoned", "dataset", ds, "reason", ctx.Err())
			return nil, domain.FailedStatus(ds, err)
		}
		l.metrics.SourceLoads.WithLabelValues(string(ds), "failed").Inc()
		l.metrics.SourceRows.WithLabelValues(string(ds)).Set(0)
		l.logger.Warn("source load failed", "dataset", ds, "uri", uri, "error", err)
		return nil, domain.FailedStatus(ds, err)
	}

	l.metrics.SourceLoads.WithLabelValues(string(ds), "loaded").Inc()
	l.metrics.SourceRows.WithLabelValues(string(ds)).Set(float64(len(rows)))
	if warnings > 0 {
		l.metrics.ParseWarnings.WithLabelValues(string(ds)).Add(float64(warnings))
		l.logger.Warn("malformed rows skipped", "dataset", ds, "count", warnings)
	}
	l.logger.Info("source loaded", "dataset", ds, "rows", len(rows))

	status := domain.LoadedStatus(ds, len(rows))
	status.Warnings = warnings
	return rows, status
}

func (l *Loader) load(ctx context.Context, ds domain.Dataset, uri string) ([]domain.Row, int, error) {
	if uri == "" {
		return nil, 0, domain.ErrEmptySource
	}

	body, err := l.fetcher.Fetch(ctx, uri)
	if err != nil {
		return nil, 0, err
	}

	table, err := Decode(uri, body)
	if err != nil {
		return nil, 0, err
	}

	rows, warnings := domain.ParseTable(ds, table)
	if len(rows) == 0 {
		return nil, warnings, domain.ErrEmptySource
	}
	return rows, warnings, nil
}
