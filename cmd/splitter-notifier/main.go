package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"splitter/internal/amqp"
	"splitter/internal/backend"
	"splitter/internal/cli"
	"splitter/internal/log"
	"splitter/internal/metrics"
	"splitter/internal/worker"
)

func main() {
	cfg, logger := cli.MustBootstrap(log.ComponentWorker)
	logger.Info("Starting splitter-notifier", log.FieldOperation, log.OpStartup)

	deliveryCfg, err := backend.DeliveryConfig(cfg)
	if err != nil {
		logger.Error("Invalid delivery backend", log.FieldError, err)
		os.Exit(1)
	}
	downstream, err := backend.NewFactory(logger).CreateGateway(context.Background(), deliveryCfg)
	if err != nil {
		logger.Error("Failed to initialize delivery gateway", log.FieldError, err, log.FieldBackend, deliveryCfg.Type)
		os.Exit(1)
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	m := metrics.New()
	dw := worker.NewDeliveryWorker(downstream.Gateway, 0, logger, m)

	// The worker only exposes probes and metrics.
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	probe := &http.Server{
		Addr:              ":" + cfg.NotifierPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := probe.Shutdown(ctx); err != nil {
			logger.Warn("Probe server shutdown error", log.FieldError, err)
		}
		if err := consumer.Close(); err != nil {
			logger.Warn("AMQP close failed", log.FieldError, err)
		}
		if downstream.Cleanup != nil {
			if err := downstream.Cleanup(); err != nil {
				logger.Warn("Gateway cleanup failed", log.FieldError, err)
			}
		}
	})

	go func() {
		if err := probe.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Probe server error", log.FieldError, err)
		}
	}()
	go dw.CleanupLoop(ctx, time.Minute)

	logger.Info("Consuming notifications",
		"queue", cfg.AMQPQueue,
		log.FieldBackend, deliveryCfg.Type)
	if err := consumer.ConsumeWithReconnect(ctx, dw.HandleNotification); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Notifier stopped gracefully")
}
