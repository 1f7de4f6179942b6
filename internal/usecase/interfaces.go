package usecase

import (
	"context"

	"github.com/iho/cashbook/internal/domain"
)

// RelayClient talks to the shared remote store holding the authoritative
// snapshot. Implementations never propagate transport errors: a failed push
// reports false and a failed or malformed fetch reports absent, leaving the
// caller to fall back to local state.
type RelayClient interface {
	// Push replaces the remote snapshot wholesale. Returns false when the
	// write could not be confirmed remotely.
	Push(ctx context.Context, snapshot *domain.Snapshot) bool
	// Fetch reads the current remote snapshot, bypassing intermediate
	// caches. Returns (nil, false) when the remote is unreachable or the
	// payload does not look like a snapshot.
	Fetch(ctx context.Context) (*domain.Snapshot, bool)
}

// CacheStore is durable per-device persistence used as an offline fallback.
// It is an optimization path, not a guarantee: saves swallow errors and
// corrupt payloads load as absent.
type CacheStore interface {
	SaveSnapshot(snapshot *domain.Snapshot)
	LoadSnapshot() (*domain.Snapshot, bool)
	AppendArchive(record domain.ArchiveRecord)
	ListArchive() []domain.ArchiveRecord
}

// RateSource is a read-only external feed of reference exchange rates.
type RateSource interface {
	FetchRates(ctx context.Context) (domain.ExchangeRates, error)
}

// IDGenerator generates unique entry IDs.
type IDGenerator interface {
	Generate() string
}
