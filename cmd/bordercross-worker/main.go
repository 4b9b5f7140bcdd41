package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"bordercross/internal/amqp"
	"bordercross/internal/backend"
	appcli "bordercross/internal/cli"
	applog "bordercross/internal/log"
	"bordercross/internal/services"
	"bordercross/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	appcli.LoadEnvFile()
	appcli.SetupLogger("info", "text")

	cfg := appcli.LoadAndValidateConfig(slog.Default())
	logger := appcli.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("Starting bordercross-worker",
		"exchange", cfg.AMQPExchange,
		"request_queue", cfg.AMQPRequestQueue,
		"result_queue", cfg.AMQPResultQueue,
		"backend", cfg.OutputBackend)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRequestQueue, cfg.AMQPResultQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	defaults, err := backend.FromAppConfig(cfg, "")
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	order, _ := cfg.Order()

	svc := services.NewReportService(services.ReportServiceConfig{
		Layout:            cfg.DateLayout,
		Shards:            cfg.AccumulateShards,
		ParseCacheSize:    cfg.ParseCacheSize,
		SkipInvalidValues: cfg.SkipInvalidValues,
	}, logger.WithComponent(applog.ComponentReport).Slog())
	factory := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog())
	reportWorker := worker.NewReportWorker(svc, factory, amqpClient, defaults, order)

	ctx, done := appcli.GracefulShutdown(logger.Slog(), 30*time.Second, func() {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", "error", err)
		}
	})

	if err := amqpClient.ConsumeReportRequests(ctx, reportWorker.HandleRequest); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		amqpClient.Close()
		os.Exit(1)
	}

	appcli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
