package rates

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/iho/cashbook/internal/domain"
)

// Client fetches reference exchange rates from an open.er-api.com-shaped
// feed. Rates are rounded up to the nearest whole unit before storage; they
// are advisory figures for the till, not settlement rates.
type Client struct {
	client   *resty.Client
	endpoint string
	logger   zerolog.Logger
}

// feedResponse mirrors the relevant part of the feed payload.
type feedResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

// NewClient creates a rate feed client.
func NewClient(endpoint string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		client:   resty.New().SetTimeout(timeout),
		endpoint: endpoint,
		logger:   logger.With().Str("component", "ratefeed").Logger(),
	}
}

// FetchRates returns current USD and EUR reference rates. Unlike the relay,
// this is a plain external call: failures return errors and the caller
// decides that they are non-fatal.
func (c *Client) FetchRates(ctx context.Context) (domain.ExchangeRates, error) {
	var feed feedResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&feed).
		Get(c.endpoint)
	if err != nil {
		return domain.ExchangeRates{}, fmt.Errorf("rate feed request: %w", err)
	}
	if !resp.IsSuccess() {
		return domain.ExchangeRates{}, fmt.Errorf("rate feed status %d", resp.StatusCode())
	}
	if feed.Result != "" && feed.Result != "success" {
		return domain.ExchangeRates{}, fmt.Errorf("rate feed result %q", feed.Result)
	}

	usd, okUSD := feed.Rates["USD"]
	eur, okEUR := feed.Rates["EUR"]
	if !okUSD || !okEUR {
		return domain.ExchangeRates{}, fmt.Errorf("rate feed missing USD/EUR rates")
	}

	return domain.ExchangeRates{
		USD: int64(math.Ceil(usd)),
		EUR: int64(math.Ceil(eur)),
	}, nil
}
