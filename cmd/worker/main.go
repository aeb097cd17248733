package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mockmate/interview-engine/internal/bootstrap"
	"github.com/mockmate/interview-engine/internal/config"
	"github.com/mockmate/interview-engine/internal/observability/logging"
	"github.com/mockmate/interview-engine/internal/observability/metrics"
)

const (
	serviceName = "worker"
	jobTimeout  = 2 * time.Minute
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	if err := run(cfg); err != nil {
		slog.Error("worker_exit", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	queued, err := app.Warmup.EnqueueMissing(ctx)
	if err != nil {
		slog.Warn("embedding_warmup_enqueue_failed", "error", err)
	}
	workerMetrics.RecordEnqueued(serviceName, queued)

	slog.Info("worker_subscribed", "subject", cfg.NATSEmbedSubject, "queued", queued)
	err = app.Queue.SubscribeQuestionEmbedding(ctx, func(handlerCtx context.Context, questionNumber string) error {
		jobCtx, cancel := context.WithTimeout(handlerCtx, jobTimeout)
		defer cancel()

		start := time.Now()
		workerMetrics.StartJob()
		err := app.Warmup.WarmQuestion(jobCtx, questionNumber)
		workerMetrics.FinishJob(serviceName, time.Since(start), err)
		return err
	})
	if err != nil {
		return fmt.Errorf("worker subscribe: %w", err)
	}
	slog.Info("worker_stopped")
	return nil
}
