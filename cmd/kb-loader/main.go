// kb-loader indexes the YAML knowledge base into the vector collection.
// It is run offline whenever the curated reference documents change.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/iamdbstjd/DC-TermProject3/internal/bootstrap"
	"github.com/iamdbstjd/DC-TermProject3/internal/config"
	"github.com/iamdbstjd/DC-TermProject3/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	dir := flag.String("dir", cfg.KnowledgeDir, "directory of knowledge YAML files")
	vectorSize := flag.Int("vector-size", 768, "embedding dimension of the collection")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall loading deadline")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	app := bootstrap.NewKnowledgeLoader(cfg)

	if err := app.Vector.EnsureCollection(ctx, *vectorSize); err != nil {
		slog.Error("kb_collection_failed", "error", err)
		os.Exit(1)
	}

	total, err := app.Loader.LoadDir(ctx, *dir)
	if err != nil {
		slog.Error("kb_load_failed", "dir", *dir, "error", err)
		os.Exit(1)
	}
	slog.Info("kb_load_complete", "dir", *dir, "passages", total)
}
