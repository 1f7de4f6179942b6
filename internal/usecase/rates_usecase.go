package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iho/cashbook/internal/infrastructure/metrics"
)

// RatesUseCase refreshes advisory exchange rates from the external feed and
// merges them into the snapshot through the mutation gateway. The merge is a
// regular mutation, so only the writer device performs it; observers pick the
// rates up through sync like any other snapshot change.
type RatesUseCase struct {
	book    *CashbookUseCase
	source  RateSource
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewRatesUseCase creates the rates refresher.
func NewRatesUseCase(book *CashbookUseCase, source RateSource, m *metrics.Metrics, logger zerolog.Logger) *RatesUseCase {
	return &RatesUseCase{
		book:    book,
		source:  source,
		metrics: m,
		logger:  logger.With().Str("component", "rates").Logger(),
	}
}

// Refresh fetches current rates and merges them. Feed failure is non-fatal:
// prior rates stay in place.
func (uc *RatesUseCase) Refresh(ctx context.Context) {
	if !uc.book.IsWriter() {
		return
	}

	rates, err := uc.source.FetchRates(ctx)
	if err != nil {
		uc.metrics.RateRefreshTotal.WithLabelValues("failed").Inc()
		uc.logger.Warn().Err(err).Msg("exchange rate refresh failed, keeping prior rates")
		return
	}

	if err := uc.book.UpdateExchangeRates(rates); err != nil {
		// Role flipped between the check and the merge; nothing to do.
		uc.logger.Debug().Err(err).Msg("rate merge skipped")
		return
	}

	uc.metrics.RateRefreshTotal.WithLabelValues("ok").Inc()
	uc.logger.Info().Int64("usd", rates.USD).Int64("eur", rates.EUR).Msg("exchange rates updated")
}
