package usecase_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/iho/cashbook/internal/domain"
	"github.com/iho/cashbook/internal/infrastructure/metrics"
	"github.com/iho/cashbook/internal/usecase"
)

type loopFixture struct {
	fixture
	loop *usecase.Reconciler
}

func newLoopFixture(t *testing.T, writer bool) *loopFixture {
	t.Helper()
	f := newFixture(t, writer)
	loop := usecase.NewReconciler(
		f.book,
		f.relay,
		f.cache,
		usecase.DefaultPollInterval,
		metrics.New(prometheus.NewRegistry()),
		zerolog.Nop(),
	)
	return &loopFixture{fixture: *f, loop: loop}
}

func remoteSnapshot(date string) *domain.Snapshot {
	s := domain.NewSnapshot(date)
	s.OutPartyEntries = []domain.OutPartyEntry{
		{ID: "r1", Index: 1, Amount: amt("75"), Method: domain.MethodCard},
	}
	return s
}

func TestReconciler_AdoptsChangedRemote(t *testing.T) {
	f := newLoopFixture(t, false)
	f.relay.Seed(remoteSnapshot("10/03/2024"))

	f.loop.Tick(context.Background())

	got := f.book.Current()
	if got.CurrentDate != "10/03/2024" {
		t.Errorf("state date = %q, want adopted remote date", got.CurrentDate)
	}
	if len(got.OutPartyEntries) != 1 {
		t.Errorf("entries = %d, want 1", len(got.OutPartyEntries))
	}
	if f.cache.Cached() == nil {
		t.Error("adopted snapshot not persisted to cache")
	}
}

func TestReconciler_NoChangeNoNotification(t *testing.T) {
	f := newLoopFixture(t, false)
	remote := remoteSnapshot("10/03/2024")
	f.relay.Seed(remote)

	var notifications int
	f.book.Subscribe(func(*domain.Snapshot) { notifications++ })

	f.loop.Tick(context.Background())
	f.loop.Tick(context.Background())
	f.loop.Tick(context.Background())

	if notifications != 1 {
		t.Errorf("notifications = %d, want exactly 1 (identical content must not re-notify)", notifications)
	}
}

func TestReconciler_FetchAbsentLeavesStateUntouched(t *testing.T) {
	f := newLoopFixture(t, false)
	f.relay.Seed(remoteSnapshot("10/03/2024"))
	f.loop.Tick(context.Background())

	f.relay.FetchFunc = func(ctx context.Context) (*domain.Snapshot, bool) {
		return nil, false
	}
	f.loop.Tick(context.Background())

	if got := f.book.Current().CurrentDate; got != "10/03/2024" {
		t.Errorf("state date = %q, want previously adopted state to stand", got)
	}
}

func TestReconciler_FallbackChain(t *testing.T) {
	// Remote absent + valid cached snapshot: one tick must surface the
	// cached state, not the default empty ledger.
	f := newLoopFixture(t, false)
	cached := remoteSnapshot("28/02/2024")
	f.cache.SaveSnapshot(cached)
	f.relay.FetchFunc = func(ctx context.Context) (*domain.Snapshot, bool) {
		return nil, false
	}

	f.loop.Tick(context.Background())

	got := f.book.Current()
	if got.CurrentDate != "28/02/2024" || len(got.OutPartyEntries) != 1 {
		t.Errorf("state after tick = %+v, want cached snapshot", got)
	}
}

func TestReconciler_CacheIgnoredOnceSeeded(t *testing.T) {
	f := newLoopFixture(t, false)
	f.relay.Seed(remoteSnapshot("10/03/2024"))
	f.loop.Tick(context.Background())

	// A later outage must not regress to the (older) cached copy.
	f.cache.SaveSnapshot(remoteSnapshot("01/01/2020"))
	f.relay.FetchFunc = func(ctx context.Context) (*domain.Snapshot, bool) {
		return nil, false
	}
	f.loop.Tick(context.Background())

	if got := f.book.Current().CurrentDate; got != "10/03/2024" {
		t.Errorf("state date = %q, regressed to stale cache", got)
	}
}

func TestReconciler_SuppressionGuardSkipsTick(t *testing.T) {
	f := newLoopFixture(t, true)

	started := make(chan struct{})
	release := make(chan struct{})
	f.relay.PushFunc = func(ctx context.Context, s *domain.Snapshot) bool {
		close(started)
		<-release
		return true
	}
	// Remote differs from local state in every way.
	f.relay.FetchFunc = func(ctx context.Context) (*domain.Snapshot, bool) {
		return remoteSnapshot("31/12/1999"), true
	}

	f.book.AddOutPartyEntry()
	<-started

	localDate := f.book.Current().CurrentDate
	f.loop.Tick(context.Background())

	if got := f.book.Current().CurrentDate; got != localDate {
		t.Errorf("tick during push adopted remote state: date = %q", got)
	}

	close(release)
	f.book.Wait()

	// Guard released: the next tick resumes normal comparison and adopts.
	f.loop.Tick(context.Background())
	if got := f.book.Current().CurrentDate; got != "31/12/1999" {
		t.Errorf("tick after push did not adopt remote: date = %q", got)
	}
}

func TestReconciler_SlowFetchDiscardedAfterLocalEdit(t *testing.T) {
	f := newLoopFixture(t, true)

	f.relay.FetchFunc = func(ctx context.Context) (*domain.Snapshot, bool) {
		// Simulate a local edit landing while this fetch is in flight.
		f.book.AddOutPartyEntry()
		f.book.Wait()
		return remoteSnapshot("31/12/1999"), true
	}
	// The in-fetch mutation pushes through the default path.
	f.relay.PushFunc = nil

	f.loop.Tick(context.Background())

	got := f.book.Current()
	if got.CurrentDate == "31/12/1999" {
		t.Error("stale fetch result stomped the newer local edit")
	}
	if len(got.OutPartyEntries) != 1 {
		t.Errorf("local edit lost: %d entries", len(got.OutPartyEntries))
	}
}

func TestReconciler_BackoffAfterSustainedFailure(t *testing.T) {
	f := newLoopFixture(t, false)

	var fetches int
	f.relay.FetchFunc = func(ctx context.Context) (*domain.Snapshot, bool) {
		fetches++
		return nil, false
	}

	// First failing tick starts a backoff window; immediately following
	// ticks land inside it and must not hit the relay.
	f.loop.Tick(context.Background())
	f.loop.Tick(context.Background())
	f.loop.Tick(context.Background())

	if fetches != 1 {
		t.Errorf("fetches during backoff window = %d, want 1", fetches)
	}
}

func TestReconciler_RunStopsOnCancel(t *testing.T) {
	f := newLoopFixture(t, false)
	f.relay.Seed(remoteSnapshot("10/03/2024"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.loop.Run(ctx)
		close(done)
	}()

	cancel()
	<-done

	if got := f.book.Current().CurrentDate; got != "10/03/2024" {
		t.Errorf("initial pass did not adopt remote before cancel: date = %q", got)
	}
}
