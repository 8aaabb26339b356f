package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/census-market-etl/internal/domain"
	"github.com/couchcryptid/census-market-etl/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// SnapshotBuilder produces a new snapshot.
type SnapshotBuilder interface {
	Build(ctx context.Context) (*domain.Snapshot, error)
}

// Publisher receives every snapshot the runner publishes.
type Publisher interface {
	Publish(ctx context.Context, snap *domain.Snapshot) error
}

// Runner owns the current snapshot and decides when to rebuild it.
// Readers always see a complete snapshot: a new one replaces the old one
// in a single atomic store, and only the newest run may store.
type Runner struct {
	builder   SnapshotBuilder
	publisher Publisher
	interval  time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics

	current  atomic.Pointer[domain.Snapshot]
	triggers chan struct{}

	mu         sync.Mutex
	generation uint64
	cancelRun  context.CancelFunc
}

// Option configures a Runner.
type Option func(*Runner)

// WithPublisher sends each published snapshot to p. Publish errors are logged only.
func WithPublisher(p Publisher) Option {
	return func(r *Runner) { r.publisher = p }
}

// WithClock replaces the clock driving the refresh ticker and backoff.
func WithClock(c clockwork.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// NewRunner creates a Runner that rebuilds every interval. A zero interval
// disables periodic rebuilds; triggers still work.
func NewRunner(b SnapshotBuilder, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Runner {
	r := &Runner{
		builder:  b,
		interval: interval,
		clock:    clockwork.NewRealClock(),
		logger:   logger,
		metrics:  metrics,
		triggers: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Current returns the latest published snapshot, or nil before the first one.
func (r *Runner) Current() *domain.Snapshot {
	return r.current.Load()
}

// CheckReadiness returns nil once a snapshot has been published.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if r.current.Load() == nil {
		return errors.New("no snapshot has been built yet")
	}
	return nil
}

// Trigger requests a rebuild. A run in flight is cancelled and will not publish.
func (r *Runner) Trigger() {
	r.mu.Lock()
	r.generation++
	if r.cancelRun != nil {
		r.cancelRun()
	}
	r.mu.Unlock()

	select {
	case r.triggers <- struct{}{}:
	default:
	}
}

// RunOnce builds and publishes one snapshot. It returns ErrSuperseded when
// Trigger was called while the build was running.
func (r *Runner) RunOnce(ctx context.Context) (*domain.Snapshot, error) {
	r.mu.Lock()
	gen := r.generation
	runCtx, cancel := context.WithCancel(ctx)
	r.cancelRun = cancel
	r.mu.Unlock()
	defer cancel()

	start := r.clock.Now()
	snap, err := r.builder.Build(runCtx)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	r.mu.Lock()
	superseded := gen != r.generation
	if !superseded && err == nil {
		r.current.Store(snap)
	}
	r.cancelRun = nil
	r.mu.Unlock()

	switch {
	case superseded:
		r.metrics.BuildsTotal.WithLabelValues("superseded").Inc()
		r.logger.Info("build superseded by newer trigger")
		return nil, ErrSuperseded
	case err != nil:
		if ctx.Err() != nil {
			return nil, err
		}
		r.metrics.BuildsTotal.WithLabelValues("fatal").Inc()
		r.logger.Error("build failed, keeping previous snapshot", "error", err)
		return nil, err
	}

	r.metrics.BuildsTotal.WithLabelValues("success").Inc()
	r.metrics.BuildDuration.Observe(r.clock.Since(start).Seconds())
	r.recordSnapshot(snap)
	r.publish(ctx, snap)
	return snap, nil
}

// Run performs an initial build, then rebuilds on every refresh tick and
// every trigger until ctx is cancelled. Failed builds are retried with
// exponential backoff.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("pipeline started", "refresh_interval", r.interval)
	r.metrics.PipelineRunning.Set(1)
	defer r.metrics.PipelineRunning.Set(0)

	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := r.clock.NewTicker(r.interval)
		defer ticker.Stop()
		tick = ticker.Chan()
	}

	backoff := initialBackoff
	for {
		_, err := r.RunOnce(ctx)
		if ctx.Err() != nil {
			r.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}

		if err != nil && !errors.Is(err, ErrSuperseded) {
			if !r.sleepOrTrigger(ctx, backoff) {
				r.logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			}
			backoff = retry.NextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = initialBackoff

		select {
		case <-ctx.Done():
			r.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-tick:
			r.logger.Debug("refresh interval elapsed")
		case <-r.triggers:
			r.logger.Debug("rebuild triggered")
		}
	}
}

func (r *Runner) recordSnapshot(snap *domain.Snapshot) {
	r.metrics.Counties.Set(float64(len(snap.Counties)))
	r.metrics.MSAs.Set(float64(len(snap.MSAs)))
	r.metrics.UnmappedCounties.Set(float64(len(snap.Diagnostics.Unmapped)))
	for ds, n := range snap.Diagnostics.JoinMisses {
		if n > 0 {
			r.metrics.JoinMisses.WithLabelValues(string(ds)).Add(float64(n))
		}
	}
	r.logger.Info("snapshot published",
		"run_id", snap.RunID,
		"generated_at", snap.GeneratedAt,
		"counties", len(snap.Counties),
		"msas", len(snap.MSAs),
	)
}

func (r *Runner) publish(ctx context.Context, snap *domain.Snapshot) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, snap); err != nil {
		r.logger.Error("publish snapshot failed", "run_id", snap.RunID, "error", err)
	}
}

// sleepOrTrigger waits for d, returning early on a trigger. Returns false if
// ctx was cancelled.
func (r *Runner) sleepOrTrigger(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := r.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	case <-r.triggers:
		return true
	}
}
