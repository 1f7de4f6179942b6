package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cashbook/internal/domain"
	"github.com/iho/cashbook/internal/infrastructure/metrics"
)

// SyncState describes how the device currently relates to the remote store.
type SyncState string

const (
	SyncStateObserver SyncState = "observer"
	SyncStatePending  SyncState = "pending"
	SyncStateSynced   SyncState = "synced"
)

// CashbookUseCase owns the current snapshot and is the sole entry point for
// state-changing operations. Only a device in writer role may mutate; on an
// observer every mutation is a no-op reported as domain.ErrNotWriter, even if
// a stale UI let the call through.
//
// Each mutation follows a fixed sequence: derive the new snapshot, install it
// locally (so the writer's own UI reflects it without a round trip), notify
// subscribers, persist to the local cache, then push to the relay in the
// background. A failed push never rolls the local edit back; a later
// successful push reconciles the remote store.
type CashbookUseCase struct {
	cache   CacheStore
	relay   RelayClient
	idGen   IDGenerator
	metrics *metrics.Metrics
	logger  zerolog.Logger

	mu          sync.RWMutex
	current     *domain.Snapshot
	revision    uint64
	writer      bool
	pushPending bool
	subscribers []func(*domain.Snapshot)

	// pushing is the suppression guard: while non-zero the reconciliation
	// loop must not adopt remote state, or it could revert a local edit to
	// the stale value the push is about to overwrite.
	pushing atomic.Int32
	pushMu  sync.Mutex
	pushWG  sync.WaitGroup
}

// NewCashbookUseCase creates the state container with a default empty ledger
// dated today.
func NewCashbookUseCase(
	cache CacheStore,
	relay RelayClient,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger zerolog.Logger,
	writer bool,
) *CashbookUseCase {
	return &CashbookUseCase{
		cache:   cache,
		relay:   relay,
		idGen:   idGen,
		metrics: m,
		logger:  logger.With().Str("component", "cashbook").Logger(),
		current: domain.NewSnapshot(domain.Today()),
		writer:  writer,
	}
}

// Current returns a copy of the current snapshot.
func (uc *CashbookUseCase) Current() *domain.Snapshot {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.current.Clone()
}

// Totals derives the financial totals for the current snapshot.
func (uc *CashbookUseCase) Totals() domain.Totals {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return domain.Aggregate(uc.current)
}

// Revision returns the staleness token for the current state. It advances on
// every installed snapshot, local or adopted.
func (uc *CashbookUseCase) Revision() uint64 {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.revision
}

// CanonicalState returns the canonical bytes of the current snapshot for
// content comparison.
func (uc *CashbookUseCase) CanonicalState() []byte {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.current.Canonical()
}

// Subscribe registers a callback invoked after every installed snapshot.
// Callbacks run synchronously on the installing goroutine and receive their
// own copy.
func (uc *CashbookUseCase) Subscribe(fn func(*domain.Snapshot)) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.subscribers = append(uc.subscribers, fn)
}

// IsWriter reports whether this device is in writer role.
func (uc *CashbookUseCase) IsWriter() bool {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.writer
}

// SetWriterRole switches the device role. Role is a per-device convention,
// not an enforced lock: two devices both set to writer can lose updates.
func (uc *CashbookUseCase) SetWriterRole(writer bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.writer = writer
}

// SyncState reports the device's sync status for a UI indicator.
func (uc *CashbookUseCase) SyncState() SyncState {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	switch {
	case !uc.writer:
		return SyncStateObserver
	case uc.pushing.Load() > 0 || uc.pushPending:
		return SyncStatePending
	default:
		return SyncStateSynced
	}
}

// PushInFlight reports whether the suppression guard is active.
func (uc *CashbookUseCase) PushInFlight() bool {
	return uc.pushing.Load() > 0
}

// Archive returns the capped, newest-first day-end history.
func (uc *CashbookUseCase) Archive() []domain.ArchiveRecord {
	return uc.cache.ListArchive()
}

// AddOutPartyEntry appends a zero-amount cash entry and returns it.
func (uc *CashbookUseCase) AddOutPartyEntry() (*domain.OutPartyEntry, error) {
	var created domain.OutPartyEntry
	err := uc.mutate("outparty_add", func(s *domain.Snapshot) error {
		created = domain.OutPartyEntry{
			ID:     uc.idGen.Generate(),
			Index:  len(s.OutPartyEntries) + 1,
			Method: domain.MethodCash,
		}
		s.OutPartyEntries = append(s.OutPartyEntries, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// EditOutPartyEntry updates one field of an out-party entry. Invalid numeric
// input coerces to zero and unknown methods fall back to CASH; only an
// unknown field or id is reported as an error.
func (uc *CashbookUseCase) EditOutPartyEntry(id, field, value string) error {
	return uc.mutate("outparty_edit", func(s *domain.Snapshot) error {
		for i := range s.OutPartyEntries {
			if s.OutPartyEntries[i].ID != id {
				continue
			}
			switch field {
			case "amount":
				s.OutPartyEntries[i].Amount = domain.ParseAmount(value)
			case "method":
				s.OutPartyEntries[i].Method = domain.ParseMethod(value)
			default:
				return domain.ErrUnknownField
			}
			return nil
		}
		return domain.ErrEntryNotFound
	})
}

// RemoveOutPartyEntry deletes an entry; remaining entries are renumbered so
// display indexes stay contiguous.
func (uc *CashbookUseCase) RemoveOutPartyEntry(id string) error {
	return uc.mutate("outparty_remove", func(s *domain.Snapshot) error {
		for i := range s.OutPartyEntries {
			if s.OutPartyEntries[i].ID == id {
				s.OutPartyEntries = append(s.OutPartyEntries[:i], s.OutPartyEntries[i+1:]...)
				return nil
			}
		}
		return domain.ErrEntryNotFound
	})
}

// AddMainEntry appends an empty main ledger line and returns it.
func (uc *CashbookUseCase) AddMainEntry() (*domain.MainEntry, error) {
	var created domain.MainEntry
	err := uc.mutate("main_add", func(s *domain.Snapshot) error {
		created = domain.MainEntry{
			ID:     uc.idGen.Generate(),
			Method: domain.MethodCash,
		}
		s.MainEntries = append(s.MainEntries, created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// EditMainEntry updates one field of a main ledger line with the same
// permissive coercion rules as out-party edits.
func (uc *CashbookUseCase) EditMainEntry(id, field, value string) error {
	return uc.mutate("main_edit", func(s *domain.Snapshot) error {
		for i := range s.MainEntries {
			if s.MainEntries[i].ID != id {
				continue
			}
			switch field {
			case "roomNo":
				s.MainEntries[i].RoomNo = value
			case "description":
				s.MainEntries[i].Description = value
			case "method":
				s.MainEntries[i].Method = domain.ParseMethod(value)
			case "cashIn":
				s.MainEntries[i].CashIn = domain.ParseAmount(value)
			case "cashOut":
				s.MainEntries[i].CashOut = domain.ParseAmount(value)
			default:
				return domain.ErrUnknownField
			}
			return nil
		}
		return domain.ErrEntryNotFound
	})
}

// RemoveMainEntry deletes a main ledger line.
func (uc *CashbookUseCase) RemoveMainEntry(id string) error {
	return uc.mutate("main_remove", func(s *domain.Snapshot) error {
		for i := range s.MainEntries {
			if s.MainEntries[i].ID == id {
				s.MainEntries = append(s.MainEntries[:i], s.MainEntries[i+1:]...)
				return nil
			}
		}
		return domain.ErrEntryNotFound
	})
}

// UpdateExchangeRates merges freshly fetched reference rates into the
// snapshot. Rates ride along with sync but are not part of the totals.
func (uc *CashbookUseCase) UpdateExchangeRates(rates domain.ExchangeRates) error {
	return uc.mutate("rates_update", func(s *domain.Snapshot) error {
		s.ExchangeRates = rates
		return nil
	})
}

// RunDayEnd archives the current snapshot under its date and starts a fresh
// ledger period: empty entry lists, the date advanced one calendar day,
// exchange rates carried forward, and the closing balance carried as the new
// opening balance. There is no undo; confirmation is the caller's concern.
func (uc *CashbookUseCase) RunDayEnd() (*domain.ArchiveRecord, error) {
	uc.mu.Lock()
	if !uc.writer {
		uc.mu.Unlock()
		return nil, domain.ErrNotWriter
	}

	closing := uc.current.Clone()
	totals := domain.Aggregate(closing)
	record := domain.ArchiveRecord{Date: closing.CurrentDate, Data: *closing}

	next := domain.NewSnapshot(domain.NextDate(closing.CurrentDate))
	next.ExchangeRates = closing.ExchangeRates
	next.OpeningBalance = totals.FinalBalance

	uc.current = next
	uc.revision++
	revision := uc.revision
	subs := uc.snapshotSubscribers()
	uc.mu.Unlock()

	uc.cache.AppendArchive(record)
	uc.metrics.DayEndsTotal.Inc()
	uc.metrics.ArchiveRecords.Set(float64(len(uc.cache.ListArchive())))
	uc.logger.Info().
		Str("closed_date", record.Date).
		Str("opening_balance", next.OpeningBalance.String()).
		Msg("day-end completed")

	uc.notify(subs, next)
	uc.persistAndPush(next, revision)
	return &record, nil
}

// AdoptRemote installs a snapshot fetched from the remote store. The adoption
// is rejected when the revision token has moved since the fetch was issued or
// a push is in flight, so a slow fetch can never stomp a newer local edit.
func (uc *CashbookUseCase) AdoptRemote(snapshot *domain.Snapshot, revision uint64) bool {
	if snapshot == nil {
		return false
	}

	uc.mu.Lock()
	if uc.revision != revision || uc.pushing.Load() > 0 {
		uc.mu.Unlock()
		return false
	}

	adopted := snapshot.Clone()
	adopted.Normalize()
	uc.current = adopted
	uc.revision++
	subs := uc.snapshotSubscribers()
	uc.mu.Unlock()

	uc.metrics.SnapshotsAdopted.Inc()
	uc.cache.SaveSnapshot(adopted)
	uc.notify(subs, adopted)
	return true
}

// Wait blocks until all in-flight pushes have completed. Used on shutdown so
// the last edit reaches the remote store when it can.
func (uc *CashbookUseCase) Wait() {
	uc.pushWG.Wait()
}

func (uc *CashbookUseCase) mutate(kind string, apply func(*domain.Snapshot) error) error {
	uc.mu.Lock()
	if !uc.writer {
		uc.mu.Unlock()
		return domain.ErrNotWriter
	}

	next := uc.current.Clone()
	if err := apply(next); err != nil {
		uc.mu.Unlock()
		return err
	}
	next.RenumberOutParty()

	uc.current = next
	uc.revision++
	revision := uc.revision
	subs := uc.snapshotSubscribers()
	uc.mu.Unlock()

	uc.metrics.MutationsTotal.WithLabelValues(kind).Inc()
	uc.notify(subs, next)
	uc.persistAndPush(next, revision)
	return nil
}

// persistAndPush writes the snapshot to the local cache, then pushes it to
// the relay from a background goroutine. The suppression guard is raised
// before the cache write and released when the push finishes, whatever its
// outcome. The push lock serializes workers but grants no order, so each
// worker re-checks the revision its snapshot was installed under and stands
// down when a newer one has been installed since; the newest snapshot is
// therefore always the last to reach the relay.
func (uc *CashbookUseCase) persistAndPush(snapshot *domain.Snapshot, revision uint64) {
	uc.pushing.Add(1)
	uc.cache.SaveSnapshot(snapshot.Clone())

	uc.pushWG.Add(1)
	go func() {
		defer uc.pushWG.Done()
		defer uc.pushing.Add(-1)

		uc.pushMu.Lock()
		defer uc.pushMu.Unlock()

		if uc.Revision() != revision {
			uc.metrics.PushesTotal.WithLabelValues("superseded").Inc()
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), PushTimeout)
		defer cancel()

		start := time.Now()
		ok := uc.relay.Push(ctx, snapshot)
		uc.metrics.PushDuration.Observe(time.Since(start).Seconds())

		uc.mu.Lock()
		uc.pushPending = !ok
		uc.mu.Unlock()

		if ok {
			uc.metrics.PushesTotal.WithLabelValues("ok").Inc()
		} else {
			uc.metrics.PushesTotal.WithLabelValues("failed").Inc()
			uc.logger.Warn().Msg("relay push not confirmed, local edit stands")
		}
	}()
}

func (uc *CashbookUseCase) snapshotSubscribers() []func(*domain.Snapshot) {
	subs := make([]func(*domain.Snapshot), len(uc.subscribers))
	copy(subs, uc.subscribers)
	return subs
}

func (uc *CashbookUseCase) notify(subs []func(*domain.Snapshot), snapshot *domain.Snapshot) {
	for _, fn := range subs {
		fn(snapshot.Clone())
	}
}
