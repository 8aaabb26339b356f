package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/census-market-etl/internal/domain"
)

// Sources maps each dataset to the URI it is loaded from.
type Sources map[domain.Dataset]string

// SourceLoader fetches and parses one dataset. Failures are reported through
// the returned status, never as an error.
type SourceLoader interface {
	Load(ctx context.Context, ds domain.Dataset, uri string) ([]domain.Row, domain.LoadStatus)
}

// Builder runs one load-join-enrich cycle.
type Builder struct {
	loader  SourceLoader
	sources Sources
	tuning  *domain.Tuning
	logger  *slog.Logger
}

// NewBuilder creates a Builder. A nil tuning uses the embedded defaults.
func NewBuilder(loader SourceLoader, sources Sources, tuning *domain.Tuning, logger *slog.Logger) *Builder {
	return &Builder{loader: loader, sources: sources, tuning: tuning, logger: logger}
}

// Build loads every source concurrently, waits for all of them and builds a
// snapshot. A failed economic load is fatal; any other failed source only
// leaves its fields null. A cancelled context abandons the build.
func (b *Builder) Build(ctx context.Context) (*domain.Snapshot, error) {
	tables, statuses := b.loadAll(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, s := range statuses {
		if s.Dataset == domain.DatasetEconomic && !s.Loaded {
			return nil, &FatalError{Err: fmt.Errorf("%w: %s", ErrSeedUnavailable, s.Error)}
		}
	}

	snap := domain.Build(tables, statuses, b.tuning)
	b.logger.Info("snapshot built",
		"run_id", snap.RunID,
		"counties", len(snap.Counties),
		"msas", len(snap.MSAs),
		"unmapped", len(snap.Diagnostics.Unmapped),
	)
	return snap, nil
}

// loadAll runs one goroutine per dataset. Each goroutine writes only its own
// slot, so no locking is needed.
func (b *Builder) loadAll(ctx context.Context) (domain.Tables, []domain.LoadStatus) {
	datasets := domain.AllDatasets
	rows := make([][]domain.Row, len(datasets))
	statuses := make([]domain.LoadStatus, len(datasets))

	var g errgroup.Group
	for i, ds := range datasets {
		g.Go(func() error {
			rows[i], statuses[i] = b.loader.Load(ctx, ds, b.sources[ds])
			return nil
		})
	}
	_ = g.Wait()

	tables := make(domain.Tables, len(datasets))
	for i, ds := range datasets {
		if statuses[i].Loaded {
			tables[ds] = rows[i]
		}
	}
	return tables, statuses
}
