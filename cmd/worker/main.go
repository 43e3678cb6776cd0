package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ekuzmina/wardrobe-assistant/internal/bootstrap"
	"github.com/ekuzmina/wardrobe-assistant/internal/config"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
	"github.com/ekuzmina/wardrobe-assistant/internal/observability/logging"
	"github.com/ekuzmina/wardrobe-assistant/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:        ":" + cfg.WorkerMetricsPort,
		Handler:     metricsMux,
		ReadTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	// The worker never touches the collection stores: it runs the remote
	// calls for each stage task and reports the outcome back over the
	// queue, so the API process stays the single writer.
	logger.Info("worker_subscribed", "queue_driver", cfg.QueueDriver)
	err = app.Queue.SubscribeStages(ctx, func(handlerCtx context.Context, task domain.StageTask) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		started := domain.StageResult{ItemID: task.ItemID, Stage: task.Stage, Started: true}
		if err := app.Queue.PublishStageResult(processCtx, started); err != nil {
			return err
		}

		workerMetrics.StartStage()
		start := time.Now()
		result := app.EnrichUC.ExecuteStage(processCtx, task)
		var stageErr error
		if result.ErrorMessage != "" {
			stageErr = errors.New(result.ErrorMessage)
		}
		workerMetrics.FinishStage(string(task.Stage), time.Since(start), stageErr)

		return app.Queue.PublishStageResult(processCtx, result)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
