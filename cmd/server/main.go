package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/iho/cashbook/internal/adapter/cache"
	httpAdapter "github.com/iho/cashbook/internal/adapter/http"
	"github.com/iho/cashbook/internal/adapter/http/handler"
	"github.com/iho/cashbook/internal/adapter/idgen"
	"github.com/iho/cashbook/internal/adapter/rates"
	"github.com/iho/cashbook/internal/adapter/relay"
	"github.com/iho/cashbook/internal/infrastructure/config"
	"github.com/iho/cashbook/internal/infrastructure/logger"
	"github.com/iho/cashbook/internal/infrastructure/metrics"
	"github.com/iho/cashbook/internal/infrastructure/redis"
	"github.com/iho/cashbook/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	log.Logger = appLogger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Relay backend
	var relayClient usecase.RelayClient
	switch cfg.RelayBackend {
	case "redis":
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		appLogger.Info().Msg("connected to redis")

		relayClient = relay.NewRedisRelay(redisClient, cfg.RelayKey, appLogger)
	case "http":
		relayClient = relay.NewHTTPRelay(relay.HTTPConfig{
			Endpoint:  cfg.RelayURL,
			AuthToken: cfg.RelayAuthToken,
			Timeout:   cfg.RelayTimeout,
		}, appLogger)
	default:
		appLogger.Fatal().Str("backend", cfg.RelayBackend).Msg("unknown relay backend")
	}

	store, err := cache.NewFileStore(cfg.StateDir, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Str("dir", cfg.StateDir).Msg("failed to open state dir")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	book := usecase.NewCashbookUseCase(
		store,
		relayClient,
		idgen.NewULIDGenerator(),
		m,
		appLogger,
		cfg.WriterRole,
	)

	reconciler := usecase.NewReconciler(book, relayClient, store, cfg.PollInterval, m, appLogger)
	go reconciler.Run(ctx)

	// Exchange rate refresh on a schedule, writer only.
	ratesUC := usecase.NewRatesUseCase(book, rates.NewClient(cfg.RatesURL, cfg.RatesTimeout, appLogger), m, appLogger)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RatesRefreshSpec, func() { ratesUC.Refresh(ctx) }); err != nil {
		appLogger.Fatal().Err(err).Str("spec", cfg.RatesRefreshSpec).Msg("invalid rates refresh schedule")
	}
	scheduler.Start()
	defer scheduler.Stop()
	go ratesUC.Refresh(ctx)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		CashbookHandler: handler.NewCashbookHandler(book),
		EntryHandler:    handler.NewEntryHandler(book),
		HealthHandler:   handler.NewHealthHandler(),
		Logger:          appLogger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		appLogger.Info().
			Str("port", cfg.HTTPPort).
			Bool("writer", cfg.WriterRole).
			Str("relay", cfg.RelayBackend).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	appLogger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("server forced to shutdown")
	}

	// Let an in-flight push reach the remote store before exit.
	book.Wait()

	appLogger.Info().Msg("server stopped")
}
