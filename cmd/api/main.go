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

	httpadapter "github.com/ekuzmina/wardrobe-assistant/internal/adapters/http"
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
	logger := logging.NewJSONLogger("api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	httpMetrics := metrics.NewHTTPMetrics("api")
	router := httpadapter.NewRouter(
		cfg,
		app.WardrobeUC,
		app.CaptureUC,
		app.OutfitUC,
		app.TryOnUC,
		app.ExportUC,
		app.Storage,
		httpMetrics,
		logger,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", httpMetrics.Handler())
	mux.Handle("/", router.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// The API owns the collection stores, so it is the one process that
	// merges stage results, whichever queue backend delivers them.
	go func() {
		err := app.Queue.SubscribeStageResults(ctx, func(handlerCtx context.Context, result domain.StageResult) error {
			applyCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Second)
			defer cancel()
			return app.EnrichUC.ApplyResult(applyCtx, result)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("stage_result_subscriber_stopped", "error", err)
		}
	}()

	// With the in-process queue there is no worker binary; the API also
	// runs the remote calls behind its own publishes.
	if cfg.QueueDriver == "inproc" {
		go func() {
			err := app.Queue.SubscribeStages(ctx, func(handlerCtx context.Context, task domain.StageTask) error {
				processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
				defer cancel()
				return app.EnrichUC.ProcessStage(processCtx, task.ItemID, task.Stage)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("enrichment_subscriber_stopped", "error", err)
			}
		}()
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_error", "error", err)
	}
}
