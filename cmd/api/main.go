package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iamdbstjd/DC-TermProject3/internal/bootstrap"
	"github.com/iamdbstjd/DC-TermProject3/internal/config"
	"github.com/iamdbstjd/DC-TermProject3/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewAPI(ctx, cfg)
	if err != nil {
		slog.Error("api_bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	go func() {
		slog.Info("api_listening", "addr", app.Server.Addr)
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api_serve_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("api_shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_failed", "error", err)
	}
}
