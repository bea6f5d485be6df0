// The worker records completed analyses published by the api: it persists
// the result to Postgres and archives the raw text on disk.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/iamdbstjd/DC-TermProject3/internal/bootstrap"
	"github.com/iamdbstjd/DC-TermProject3/internal/config"
	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
	"github.com/iamdbstjd/DC-TermProject3/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewRecorder(ctx, cfg)
	if err != nil {
		slog.Error("worker_bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	handler := func(ctx context.Context, record domain.AnalysisRecord) error {
		if record.RawText != "" {
			if err := app.Archive.Save(ctx, record.ContentHash, strings.NewReader(record.RawText)); err != nil {
				slog.Warn("raw_text_archive_failed", "content_hash", record.ContentHash, "error", err)
			}
		}
		if err := app.Store.Save(ctx, &record); err != nil {
			return err
		}
		slog.Info("analysis_recorded",
			"content_hash", record.ContentHash,
			"doc_type", record.Result.Classification.DocType,
			"risk_level", record.Result.Risk.String(),
		)
		return nil
	}

	if err := app.Bus.SubscribeAnalysisCompleted(ctx, handler); err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
	slog.Info("worker_listening", "subject", cfg.NATSSubject)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", app.Metrics)
		mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		addr := ":" + cfg.WorkerMetricsPort
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_serve_failed", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("worker_shutting_down")
}
