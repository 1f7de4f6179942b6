package usecase

import (
	"bytes"
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/cashbook/internal/infrastructure/metrics"
)

// Reconciler is the polling loop that keeps this device converged with the
// remote store. Each tick fetches the remote snapshot, compares it by content
// to the current local state, and adopts it when they differ — unless a local
// push is in flight, in which case the tick is skipped entirely so the loop
// cannot revert an edit it is itself in the process of publishing.
//
// Fetch failures are silent: the already-loaded state stands and the loop
// retries on the next tick. Sustained failure stretches the effective
// interval with exponential backoff, reset on the first success.
//
// All fields are owned by the single Run goroutine; Tick is exported for
// tests and manual refresh, not for concurrent use.
type Reconciler struct {
	book     *CashbookUseCase
	relay    RelayClient
	cache    CacheStore
	interval time.Duration
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	seeded   bool
	retry    *backoff.ExponentialBackOff
	resumeAt time.Time
}

// NewReconciler creates the polling loop.
func NewReconciler(
	book *CashbookUseCase,
	relay RelayClient,
	cache CacheStore,
	interval time.Duration,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Reconciler {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = interval
	retry.MaxInterval = MaxRetryInterval
	retry.MaxElapsedTime = 0 // retry forever

	return &Reconciler{
		book:     book,
		relay:    relay,
		cache:    cache,
		interval: interval,
		metrics:  m,
		logger:   logger.With().Str("component", "reconciler").Logger(),
		retry:    retry,
	}
}

// Run polls until the context is cancelled. The first pass happens
// immediately so a restarted device converges without waiting a full period.
func (r *Reconciler) Run(ctx context.Context) {
	r.logger.Info().Dur("interval", r.interval).Msg("reconciliation loop started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("reconciliation loop stopped")
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick performs one reconciliation pass.
func (r *Reconciler) Tick(ctx context.Context) {
	if r.book.PushInFlight() {
		r.metrics.TicksTotal.WithLabelValues("suppressed").Inc()
		return
	}
	if time.Now().Before(r.resumeAt) {
		r.metrics.TicksTotal.WithLabelValues("backoff").Inc()
		return
	}

	revision := r.book.Revision()

	start := time.Now()
	fetched, ok := r.relay.Fetch(ctx)
	r.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if !ok {
		r.metrics.FetchesTotal.WithLabelValues("absent").Inc()
		r.metrics.TicksTotal.WithLabelValues("fetch_failed").Inc()
		r.resumeAt = time.Now().Add(r.retry.NextBackOff())
		r.fallbackToCache()
		return
	}
	r.metrics.FetchesTotal.WithLabelValues("ok").Inc()
	r.retry.Reset()
	r.resumeAt = time.Time{}

	if bytes.Equal(fetched.Canonical(), r.book.CanonicalState()) {
		r.seeded = true
		r.metrics.TicksTotal.WithLabelValues("unchanged").Inc()
		return
	}

	if r.book.AdoptRemote(fetched, revision) {
		r.seeded = true
		r.metrics.TicksTotal.WithLabelValues("adopted").Inc()
		r.logger.Debug().Msg("adopted remote snapshot")
		return
	}

	// Local state moved while the fetch was in flight; the result is stale
	// and the next tick will compare fresh.
	r.metrics.TicksTotal.WithLabelValues("stale").Inc()
}

// fallbackToCache restores the last cached snapshot when the remote is absent
// and the device is still on its default empty state. Once any real state has
// been seeded the cache is ignored; prolonged staleness beats regression.
func (r *Reconciler) fallbackToCache() {
	if r.seeded {
		return
	}
	snapshot, ok := r.cache.LoadSnapshot()
	if !ok {
		return
	}
	if r.book.AdoptRemote(snapshot, r.book.Revision()) {
		r.seeded = true
		r.logger.Info().Msg("remote unavailable, restored snapshot from local cache")
	}
}
