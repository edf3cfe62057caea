// cmd/sentiment-api/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"review-sentiment/internal/api"
	"review-sentiment/internal/app"
	"review-sentiment/internal/common/camunda"
	"review-sentiment/internal/common/config"
	"review-sentiment/internal/common/logger"
	"review-sentiment/internal/common/observability"
	aar "review-sentiment/internal/workers/analyze-app-reviews"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.FromZap(zapLog)

	zapLog.Info("Starting sentiment API...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name, prometheus.DefaultRegisterer)
	if err != nil {
		zapLog.Warn("otel metrics exporter unavailable", zap.Error(err))
	}
	defer obs.Shutdown()

	components, err := app.Build(context.Background(), cfg, log, obs, app.BuildOptions{})
	if err != nil {
		zapLog.Fatal("service wiring failed", zap.Error(err))
	}
	defer components.Close()

	// --- Optional workflow worker ---
	var jobWorker *camunda.CamundaWorker
	if cfg.Camunda.Enabled {
		zeebe, err := camunda.NewClient(cfg.Camunda.BrokerAddress)
		if err != nil {
			zapLog.Fatal("zeebe client failed", zap.Error(err))
		}
		defer zeebe.Close()
		zapLog.Info("Zeebe client connected successfully")

		handler := aar.NewHandler(aar.LoadConfig(), components.Service, log)
		jobWorker = camunda.NewWorker(zeebe.GetClient(), aar.TaskType, camunda.WorkerConfig{
			MaxJobsActive:  cfg.Camunda.MaxJobsActive,
			Timeout:        config.GetDuration(cfg.Camunda.Timeout),
			RequestTimeout: config.GetDuration(cfg.Camunda.RequestTimeout),
		}, handler, log)
		components.Checks["zeebe"] = zeebe.HealthCheck
	}

	// --- HTTP server ---
	server := api.NewServer(cfg.Server, components.Service, log, api.Options{
		ServiceName:     cfg.App.Name,
		Gatherer:        prometheus.DefaultGatherer,
		ReadinessChecks: components.Checks,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLog.Error("HTTP server stopped", zap.Error(err))
		}
	}

	if jobWorker != nil {
		jobWorker.Stop()
	}
	if err := server.Shutdown(context.Background()); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	zapLog.Info("Sentiment API stopped")
}
