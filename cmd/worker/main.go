package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ParadoxTwo/energy-bill-reader/internal/bootstrap"
	"github.com/ParadoxTwo/energy-bill-reader/internal/config"
	"github.com/ParadoxTwo/energy-bill-reader/internal/core/domain"
	"github.com/ParadoxTwo/energy-bill-reader/internal/observability/logging"
	"github.com/ParadoxTwo/energy-bill-reader/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewJSONLogger(serviceName, "info").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("worker metrics listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	stageTimeout := time.Duration(cfg.StageTimeoutSeconds) * time.Second

	handler := func(ctx context.Context, delivery domain.StageDelivery) (*domain.StageResult, error) {
		workerMetrics.StartStage()
		workerMetrics.ObserveQueueLag(serviceName, time.Since(delivery.EnqueuedAt))

		stageCtx := ctx
		if stageTimeout > 0 {
			var cancel context.CancelFunc
			stageCtx, cancel = context.WithTimeout(ctx, stageTimeout)
			defer cancel()
		}

		start := time.Now()
		result, err := app.Runner.Run(stageCtx, delivery.JobID, delivery.Task)
		workerMetrics.FinishStage(serviceName, string(delivery.Task.Stage()), time.Since(start), err)
		return result, err
	}

	logger.Info("worker consuming", "subject", cfg.NATSSubject)
	if err := app.Consumer.Subscribe(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
