package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"splitter/internal/backend"
	"splitter/internal/cli"
	apphttp "splitter/internal/http"
	"splitter/internal/log"
	"splitter/internal/metrics"
	"splitter/internal/services"
)

func main() {
	cfg, logger := cli.MustBootstrap(log.ComponentApp)
	logger.Info("Starting splitter", log.FieldOperation, log.OpStartup)

	notifyCfg, err := backend.NotifyConfig(cfg)
	if err != nil {
		logger.Error("Invalid notify backend", log.FieldError, err)
		os.Exit(1)
	}
	gw, err := backend.NewFactory(logger).CreateGateway(context.Background(), notifyCfg)
	if err != nil {
		logger.Error("Failed to initialize notify gateway", log.FieldError, err, log.FieldBackend, notifyCfg.Type)
		os.Exit(1)
	}

	m := metrics.New()
	ledger, err := services.NewLedgerService(gw.Gateway, services.Options{
		Currency:          cfg.CurrencySymbol,
		NotificationTitle: cfg.NotificationTitle,
		Concurrency:       cfg.NotifyConcurrency,
		Seed:              cfg.SeedParticipants,
		Logger:            logger,
		Metrics:           m,
	})
	if err != nil {
		logger.Error("Failed to initialize ledger", log.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, ledger, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
		Metrics:            m,
	})
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if gw.Cleanup != nil {
			if err := gw.Cleanup(); err != nil {
				logger.Warn("Gateway cleanup failed", log.FieldError, err)
			}
		}
	})

	logger.Info("Listening",
		"port", cfg.Port,
		log.FieldBackend, notifyCfg.Type,
		"participants", len(cfg.SeedParticipants))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
