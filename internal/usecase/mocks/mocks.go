package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/iho/cashbook/internal/domain"
)

// MockRelayClient is a mock implementation of RelayClient backed by an
// in-memory snapshot slot.
type MockRelayClient struct {
	mu     sync.Mutex
	stored *domain.Snapshot
	pushes int

	PushFunc  func(ctx context.Context, snapshot *domain.Snapshot) bool
	FetchFunc func(ctx context.Context) (*domain.Snapshot, bool)
}

func NewMockRelayClient() *MockRelayClient {
	return &MockRelayClient{}
}

func (m *MockRelayClient) Push(ctx context.Context, snapshot *domain.Snapshot) bool {
	if m.PushFunc != nil {
		return m.PushFunc(ctx, snapshot)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = snapshot.Clone()
	m.pushes++
	return true
}

func (m *MockRelayClient) Fetch(ctx context.Context) (*domain.Snapshot, bool) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stored == nil {
		return nil, false
	}
	return m.stored.Clone(), true
}

// Seed places a snapshot in the remote slot without counting a push.
func (m *MockRelayClient) Seed(snapshot *domain.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = snapshot.Clone()
}

// Pushes returns how many default-path pushes occurred.
func (m *MockRelayClient) Pushes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pushes
}

// Stored returns the last pushed snapshot.
func (m *MockRelayClient) Stored() *domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stored == nil {
		return nil
	}
	return m.stored.Clone()
}

// MockCacheStore is an in-memory mock implementation of CacheStore.
type MockCacheStore struct {
	mu       sync.Mutex
	snapshot *domain.Snapshot
	archive  []domain.ArchiveRecord
	saves    int

	SaveSnapshotFunc func(snapshot *domain.Snapshot)
	LoadSnapshotFunc func() (*domain.Snapshot, bool)
}

func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{}
}

func (m *MockCacheStore) SaveSnapshot(snapshot *domain.Snapshot) {
	if m.SaveSnapshotFunc != nil {
		m.SaveSnapshotFunc(snapshot)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = snapshot.Clone()
	m.saves++
}

func (m *MockCacheStore) LoadSnapshot() (*domain.Snapshot, bool) {
	if m.LoadSnapshotFunc != nil {
		return m.LoadSnapshotFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return nil, false
	}
	return m.snapshot.Clone(), true
}

func (m *MockCacheStore) AppendArchive(record domain.ArchiveRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archive = append([]domain.ArchiveRecord{record}, m.archive...)
	if len(m.archive) > domain.MaxArchiveRecords {
		m.archive = m.archive[:domain.MaxArchiveRecords]
	}
}

func (m *MockCacheStore) ListArchive() []domain.ArchiveRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ArchiveRecord, len(m.archive))
	copy(out, m.archive)
	return out
}

// Saves returns how many default-path snapshot saves occurred.
func (m *MockCacheStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Cached returns the last saved snapshot.
func (m *MockCacheStore) Cached() *domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return nil
	}
	return m.snapshot.Clone()
}

// MockRateSource is a mock implementation of RateSource.
type MockRateSource struct {
	Rates          domain.ExchangeRates
	Err            error
	FetchRatesFunc func(ctx context.Context) (domain.ExchangeRates, error)
}

func NewMockRateSource() *MockRateSource {
	return &MockRateSource{Rates: domain.ExchangeRates{USD: 2, EUR: 2}}
}

func (m *MockRateSource) FetchRates(ctx context.Context) (domain.ExchangeRates, error) {
	if m.FetchRatesFunc != nil {
		return m.FetchRatesFunc(ctx)
	}
	return m.Rates, m.Err
}

// MockIDGenerator is a deterministic mock implementation of IDGenerator.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("id-%d", m.counter)
}
