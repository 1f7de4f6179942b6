package relay

import (
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/iho/cashbook/internal/domain"
)

// HTTPRelay implements usecase.RelayClient against a hosted JSON blob
// endpoint (a single pre-provisioned resource shared by all devices).
//
// The endpoint typically sits behind caching infrastructure, so both
// directions defeat cache reuse: pushes replace the blob wholesale with
// no-store semantics, and fetches send no-cache directives plus a
// uniquifying query parameter so every poll sees the latest write.
type HTTPRelay struct {
	client   *resty.Client
	endpoint string
	logger   zerolog.Logger
}

// HTTPConfig holds HTTP relay settings.
type HTTPConfig struct {
	Endpoint  string
	AuthToken string // optional bearer token for hosted bin services
	Timeout   time.Duration
}

// NewHTTPRelay creates an HTTP blob relay.
func NewHTTPRelay(cfg HTTPConfig, logger zerolog.Logger) *HTTPRelay {
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)
	if cfg.AuthToken != "" {
		client.SetAuthToken(cfg.AuthToken)
	}

	return &HTTPRelay{
		client:   client,
		endpoint: cfg.Endpoint,
		logger:   logger.With().Str("component", "relay").Str("backend", "http").Logger(),
	}
}

// Push replaces the remote snapshot. Any transport failure or non-success
// status resolves to false; the local cache already holds the attempted
// value, so an unconfirmed push means "pending", not data loss.
func (r *HTTPRelay) Push(ctx context.Context, snapshot *domain.Snapshot) bool {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Cache-Control", "no-store").
		SetBody(snapshot).
		Put(r.endpoint)
	if err != nil {
		r.logger.Warn().Err(err).Msg("push failed")
		return false
	}
	if !resp.IsSuccess() {
		r.logger.Warn().Int("status", resp.StatusCode()).Msg("push rejected")
		return false
	}
	return true
}

// Fetch reads the current remote snapshot, treating transport errors and
// payloads that do not look like a snapshot as absent.
func (r *HTTPRelay) Fetch(ctx context.Context) (*domain.Snapshot, bool) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Cache-Control", "no-cache").
		SetHeader("Pragma", "no-cache").
		SetQueryParam("t", strconv.FormatInt(time.Now().UnixNano(), 10)).
		Get(r.endpoint)
	if err != nil {
		r.logger.Debug().Err(err).Msg("fetch failed")
		return nil, false
	}
	if !resp.IsSuccess() {
		r.logger.Debug().Int("status", resp.StatusCode()).Msg("fetch rejected")
		return nil, false
	}

	snapshot, ok := domain.DecodeSnapshot(resp.Body())
	if !ok {
		r.logger.Warn().Msg("fetched payload does not look like a snapshot")
		return nil, false
	}
	return snapshot, true
}
