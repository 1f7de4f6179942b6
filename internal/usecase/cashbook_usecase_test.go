package usecase_test

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cashbook/internal/domain"
	"github.com/iho/cashbook/internal/infrastructure/metrics"
	"github.com/iho/cashbook/internal/usecase"
	"github.com/iho/cashbook/internal/usecase/mocks"
)

func amt(s string) domain.Amount {
	d, _ := decimal.NewFromString(s)
	return domain.NewAmount(d)
}

type fixture struct {
	book  *usecase.CashbookUseCase
	relay *mocks.MockRelayClient
	cache *mocks.MockCacheStore
}

func newFixture(t *testing.T, writer bool) *fixture {
	t.Helper()
	relay := mocks.NewMockRelayClient()
	cache := mocks.NewMockCacheStore()
	book := usecase.NewCashbookUseCase(
		cache,
		relay,
		mocks.NewMockIDGenerator(),
		metrics.New(prometheus.NewRegistry()),
		zerolog.Nop(),
		writer,
	)
	return &fixture{book: book, relay: relay, cache: cache}
}

func TestCashbook_AddOutPartyEntry(t *testing.T) {
	f := newFixture(t, true)

	first, err := f.book.AddOutPartyEntry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.book.AddOutPartyEntry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Index != 1 || second.Index != 2 {
		t.Errorf("indexes = %d, %d, want 1, 2", first.Index, second.Index)
	}
	if first.ID == second.ID {
		t.Errorf("duplicate entry id %q", first.ID)
	}
	if first.Method != domain.MethodCash || !first.Amount.IsZero() {
		t.Errorf("new entry not zero-amount cash: %+v", first)
	}

	f.book.Wait()
	if got := f.relay.Pushes(); got != 2 {
		t.Errorf("pushes = %d, want 2", got)
	}
	if f.cache.Cached() == nil {
		t.Error("mutation did not reach local cache")
	}
}

func TestCashbook_RenumberingInvariant(t *testing.T) {
	f := newFixture(t, true)

	var ids []string
	for i := 0; i < 5; i++ {
		e, err := f.book.AddOutPartyEntry()
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		ids = append(ids, e.ID)
	}

	// Delete from the middle, the front, and the back; indexes must stay
	// contiguous 1..N after every removal.
	for _, id := range []string{ids[2], ids[0], ids[3]} {
		if err := f.book.RemoveOutPartyEntry(id); err != nil {
			t.Fatalf("remove %s: %v", id, err)
		}
		entries := f.book.Current().OutPartyEntries
		for i, e := range entries {
			if e.Index != i+1 {
				t.Errorf("after removing %s: entries[%d].Index = %d, want %d", id, i, e.Index, i+1)
			}
		}
	}

	if got := len(f.book.Current().OutPartyEntries); got != 2 {
		t.Errorf("remaining entries = %d, want 2", got)
	}
	f.book.Wait()
}

func TestCashbook_EditCoercion(t *testing.T) {
	f := newFixture(t, true)
	e, _ := f.book.AddOutPartyEntry()

	tests := []struct {
		name       string
		field      string
		value      string
		wantAmount string
		wantMethod domain.Method
	}{
		{"valid amount", "amount", "12.50", "12.5", domain.MethodCash},
		{"garbage amount", "amount", "abc", "0", domain.MethodCash},
		{"negative amount", "amount", "-4", "0", domain.MethodCash},
		{"method paypal", "method", "paypal", "0", domain.MethodPaypal},
		{"unknown method", "method", "bitcoin", "0", domain.MethodCash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.book.EditOutPartyEntry(e.ID, tt.field, tt.value); err != nil {
				t.Fatalf("edit: %v", err)
			}
			got := f.book.Current().OutPartyEntries[0]
			if !got.Amount.Equal(amt(tt.wantAmount)) {
				t.Errorf("amount = %s, want %s", got.Amount, tt.wantAmount)
			}
			if got.Method != tt.wantMethod {
				t.Errorf("method = %s, want %s", got.Method, tt.wantMethod)
			}
		})
	}
	f.book.Wait()
}

func TestCashbook_EditErrors(t *testing.T) {
	f := newFixture(t, true)
	e, _ := f.book.AddOutPartyEntry()

	if err := f.book.EditOutPartyEntry("missing", "amount", "1"); err != domain.ErrEntryNotFound {
		t.Errorf("edit missing id: err = %v, want ErrEntryNotFound", err)
	}
	if err := f.book.EditOutPartyEntry(e.ID, "color", "red"); err != domain.ErrUnknownField {
		t.Errorf("edit unknown field: err = %v, want ErrUnknownField", err)
	}
	if err := f.book.RemoveMainEntry("missing"); err != domain.ErrEntryNotFound {
		t.Errorf("remove missing main entry: err = %v, want ErrEntryNotFound", err)
	}
	f.book.Wait()
}

func TestCashbook_ObserverMutationsAreNoOps(t *testing.T) {
	f := newFixture(t, false)

	if _, err := f.book.AddOutPartyEntry(); err != domain.ErrNotWriter {
		t.Errorf("add: err = %v, want ErrNotWriter", err)
	}
	if _, err := f.book.RunDayEnd(); err != domain.ErrNotWriter {
		t.Errorf("day-end: err = %v, want ErrNotWriter", err)
	}
	if err := f.book.UpdateExchangeRates(domain.ExchangeRates{USD: 2}); err != domain.ErrNotWriter {
		t.Errorf("rates: err = %v, want ErrNotWriter", err)
	}

	f.book.Wait()
	if got := f.relay.Pushes(); got != 0 {
		t.Errorf("observer pushed %d times", got)
	}
	if got := len(f.book.Current().OutPartyEntries); got != 0 {
		t.Errorf("observer state changed: %d entries", got)
	}
	if f.book.SyncState() != usecase.SyncStateObserver {
		t.Errorf("sync state = %s, want observer", f.book.SyncState())
	}
}

func TestCashbook_MainEntryEditAndTotals(t *testing.T) {
	f := newFixture(t, true)

	m, err := f.book.AddMainEntry()
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	for field, value := range map[string]string{
		"roomNo":      "101",
		"description": "late checkout",
		"method":      "card",
		"cashIn":      "40",
	} {
		if err := f.book.EditMainEntry(m.ID, field, value); err != nil {
			t.Fatalf("edit %s: %v", field, err)
		}
	}

	totals := f.book.Totals()
	if !totals.MainCard.Equal(amt("40")) {
		t.Errorf("MainCard = %s, want 40", totals.MainCard)
	}
	if !totals.FinalCashOut.Equal(amt("40")) {
		t.Errorf("FinalCashOut = %s, want 40 (card deducted from drawer)", totals.FinalCashOut)
	}
	f.book.Wait()
}

func TestCashbook_RunDayEnd(t *testing.T) {
	f := newFixture(t, true)

	// Build the documented scenario: final balance 270 on 01/01/2024.
	op1, _ := f.book.AddOutPartyEntry()
	f.book.EditOutPartyEntry(op1.ID, "amount", "100")
	op2, _ := f.book.AddOutPartyEntry()
	f.book.EditOutPartyEntry(op2.ID, "amount", "50")
	f.book.EditOutPartyEntry(op2.ID, "method", "card")

	m1, _ := f.book.AddMainEntry()
	f.book.EditMainEntry(m1.ID, "cashIn", "200")
	f.book.EditMainEntry(m1.ID, "cashOut", "30")
	m2, _ := f.book.AddMainEntry()
	f.book.EditMainEntry(m2.ID, "cashIn", "40")
	f.book.EditMainEntry(m2.ID, "method", "card")

	// Pin the ledger date so the advanced date is predictable.
	before := f.book.Current()
	f.book.Wait()

	rec, err := f.book.RunDayEnd()
	if err != nil {
		t.Fatalf("day-end: %v", err)
	}
	f.book.Wait()

	if rec.Date != before.CurrentDate {
		t.Errorf("archive record date = %q, want %q", rec.Date, before.CurrentDate)
	}
	if len(rec.Data.OutPartyEntries) != 2 || len(rec.Data.MainEntries) != 2 {
		t.Errorf("archived snapshot lost entries: %+v", rec.Data)
	}

	after := f.book.Current()
	if len(after.OutPartyEntries) != 0 || len(after.MainEntries) != 0 {
		t.Error("fresh snapshot has entries")
	}
	if !after.OpeningBalance.Equal(amt("270")) {
		t.Errorf("opening balance = %s, want 270", after.OpeningBalance)
	}
	if after.CurrentDate != domain.NextDate(before.CurrentDate) {
		t.Errorf("date = %q, want %q", after.CurrentDate, domain.NextDate(before.CurrentDate))
	}

	archive := f.book.Archive()
	if len(archive) != 1 || archive[0].Date != before.CurrentDate {
		t.Errorf("archive = %+v, want one record for %s", archive, before.CurrentDate)
	}
}

func TestCashbook_DayEndScenarioDates(t *testing.T) {
	f := newFixture(t, true)

	// Adopt a snapshot with a fixed date, then close it out.
	seed := domain.NewSnapshot("01/01/2024")
	if !f.book.AdoptRemote(seed, f.book.Revision()) {
		t.Fatal("seed adoption failed")
	}

	rec, err := f.book.RunDayEnd()
	if err != nil {
		t.Fatalf("day-end: %v", err)
	}
	f.book.Wait()

	if rec.Date != "01/01/2024" {
		t.Errorf("record date = %q, want 01/01/2024", rec.Date)
	}
	if got := f.book.Current().CurrentDate; got != "02/01/2024" {
		t.Errorf("new date = %q, want 02/01/2024", got)
	}
}

func TestCashbook_SubscribersNotified(t *testing.T) {
	f := newFixture(t, true)

	var seen []*domain.Snapshot
	f.book.Subscribe(func(s *domain.Snapshot) {
		seen = append(seen, s)
	})

	f.book.AddOutPartyEntry()
	f.book.AdoptRemote(domain.NewSnapshot("05/05/2024"), f.book.Revision())
	f.book.Wait()

	if len(seen) != 2 {
		t.Fatalf("notifications = %d, want 2", len(seen))
	}
	if seen[1].CurrentDate != "05/05/2024" {
		t.Errorf("adopted notification date = %q", seen[1].CurrentDate)
	}

	// Subscribers receive copies; mutating one must not affect core state.
	seen[1].CurrentDate = "tampered"
	if f.book.Current().CurrentDate != "05/05/2024" {
		t.Error("subscriber copy aliased core state")
	}
}

func TestCashbook_AdoptRemoteStaleRevisionRejected(t *testing.T) {
	f := newFixture(t, true)

	stale := f.book.Revision()
	f.book.AddOutPartyEntry()
	f.book.Wait()

	if f.book.AdoptRemote(domain.NewSnapshot("01/01/2024"), stale) {
		t.Error("adoption with stale revision token succeeded")
	}
	if got := len(f.book.Current().OutPartyEntries); got != 1 {
		t.Errorf("local edit lost: %d entries", got)
	}
}

func TestCashbook_AdoptRemoteBlockedDuringPush(t *testing.T) {
	f := newFixture(t, true)

	started := make(chan struct{})
	release := make(chan struct{})
	f.relay.PushFunc = func(ctx context.Context, s *domain.Snapshot) bool {
		close(started)
		<-release
		return true
	}

	f.book.AddOutPartyEntry()
	<-started

	if !f.book.PushInFlight() {
		t.Fatal("suppression guard not raised during push")
	}
	if f.book.AdoptRemote(domain.NewSnapshot("09/09/2024"), f.book.Revision()) {
		t.Error("remote snapshot adopted while push in flight")
	}

	close(release)
	f.book.Wait()

	if f.book.PushInFlight() {
		t.Error("suppression guard still raised after push completed")
	}
	if !f.book.AdoptRemote(domain.NewSnapshot("09/09/2024"), f.book.Revision()) {
		t.Error("adoption still blocked after guard release")
	}
}

func TestCashbook_PushFailureKeepsLocalEdit(t *testing.T) {
	f := newFixture(t, true)
	f.relay.PushFunc = func(ctx context.Context, s *domain.Snapshot) bool { return false }

	f.book.AddOutPartyEntry()
	f.book.Wait()

	if got := len(f.book.Current().OutPartyEntries); got != 1 {
		t.Errorf("failed push rolled back local edit: %d entries", got)
	}
	if f.book.SyncState() != usecase.SyncStatePending {
		t.Errorf("sync state = %s, want pending after failed push", f.book.SyncState())
	}
	if f.cache.Cached() == nil {
		t.Error("local cache missing the attempted value")
	}
}

func TestCashbook_NewestSnapshotReachesRelayLast(t *testing.T) {
	f := newFixture(t, true)

	// Gate every push until all mutations are installed, so the workers
	// contend for the relay in whatever order the scheduler picks.
	release := make(chan struct{})
	var mu sync.Mutex
	var pushed []*domain.Snapshot
	f.relay.PushFunc = func(ctx context.Context, s *domain.Snapshot) bool {
		<-release
		mu.Lock()
		defer mu.Unlock()
		pushed = append(pushed, s.Clone())
		return true
	}

	entry, err := f.book.AddOutPartyEntry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.book.EditOutPartyEntry(entry.ID, "amount", "10"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.book.EditOutPartyEntry(entry.ID, "amount", "99"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	close(release)
	f.book.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(pushed) == 0 {
		t.Fatal("no push reached the relay")
	}
	last := pushed[len(pushed)-1]
	if !last.Equal(f.book.Current()) {
		t.Errorf("relay left on a stale snapshot: last push %s, local %s",
			last.Canonical(), f.book.Current().Canonical())
	}
	if got := last.OutPartyEntries[0].Amount; !got.Equal(amt("99")) {
		t.Errorf("last pushed amount = %s, want the newest edit 99", got)
	}
	if f.book.SyncState() != usecase.SyncStateSynced {
		t.Errorf("sync state = %s, want synced", f.book.SyncState())
	}
}
