package relay

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/cashbook/internal/domain"
)

// RedisRelay implements usecase.RelayClient on a shared Redis instance: one
// key holds the whole serialized snapshot. Redis reads are never cached by
// intermediaries, so no cache-busting is needed on this backend.
type RedisRelay struct {
	client *redis.Client
	key    string
	logger zerolog.Logger
}

// NewRedisRelay creates a Redis-backed relay on the given key.
func NewRedisRelay(client *redis.Client, key string, logger zerolog.Logger) *RedisRelay {
	return &RedisRelay{
		client: client,
		key:    key,
		logger: logger.With().Str("component", "relay").Str("backend", "redis").Logger(),
	}
}

// Push replaces the remote snapshot wholesale.
func (r *RedisRelay) Push(ctx context.Context, snapshot *domain.Snapshot) bool {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		r.logger.Error().Err(err).Msg("snapshot serialization failed")
		return false
	}
	if err := r.client.Set(ctx, r.key, payload, 0).Err(); err != nil {
		r.logger.Warn().Err(err).Msg("push failed")
		return false
	}
	return true
}

// Fetch reads the current remote snapshot; a missing key, transport error or
// malformed payload all report absent.
func (r *RedisRelay) Fetch(ctx context.Context) (*domain.Snapshot, bool) {
	payload, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Debug().Err(err).Msg("fetch failed")
		}
		return nil, false
	}

	snapshot, ok := domain.DecodeSnapshot(payload)
	if !ok {
		r.logger.Warn().Msg("stored payload does not look like a snapshot")
		return nil, false
	}
	return snapshot, true
}
