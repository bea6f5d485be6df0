// Package bootstrap assembles the application from configuration.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	apihttp "github.com/iamdbstjd/DC-TermProject3/internal/adapters/http"
	"github.com/iamdbstjd/DC-TermProject3/internal/config"
	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
	"github.com/iamdbstjd/DC-TermProject3/internal/core/usecase"
	"github.com/iamdbstjd/DC-TermProject3/internal/infrastructure/cache"
	"github.com/iamdbstjd/DC-TermProject3/internal/infrastructure/chunking"
	"github.com/iamdbstjd/DC-TermProject3/internal/infrastructure/extractor/pdftext"
	"github.com/iamdbstjd/DC-TermProject3/internal/infrastructure/knowledge"
	"github.com/iamdbstjd/DC-TermProject3/internal/infrastructure/llm/ollama"
	"github.com/iamdbstjd/DC-TermProject3/internal/infrastructure/queue/nats"
	"github.com/iamdbstjd/DC-TermProject3/internal/infrastructure/repository/postgres"
	"github.com/iamdbstjd/DC-TermProject3/internal/infrastructure/resilience"
	"github.com/iamdbstjd/DC-TermProject3/internal/infrastructure/storage/localfs"
	"github.com/iamdbstjd/DC-TermProject3/internal/infrastructure/vector/qdrant"
	"github.com/iamdbstjd/DC-TermProject3/internal/observability/metrics"
)

// API is the fully wired analysis service.
type API struct {
	Server   *http.Server
	EventBus *nats.EventBus
	DB       *sql.DB
}

func NewAPI(ctx context.Context, cfg config.Config) (*API, error) {
	policy, err := config.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	llm := ollama.NewClient(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel,
		ollama.WithExecutor(resilience.NewExecutor(resilience.DefaultConfig())),
	)
	vector := qdrant.NewClient(cfg.QdrantURL, cfg.QdrantCollection, nil)

	db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	store := postgres.NewAnalysisRepository(db)

	bus, err := nats.Connect(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		db.Close()
		return nil, err
	}

	pipelineMetrics := metrics.NewPipelineMetrics()
	httpMetrics := metrics.NewHTTPServerMetrics(pipelineMetrics.Registry())

	analyzer := usecase.NewAnalyzeUseCase(
		usecase.NewClassifier(policy, llm, cfg.ModelTimeout),
		usecase.NewHybridExtractor(policy, usecase.NewPatternExtractor(policy), llm, cfg.ModelTimeout),
		usecase.NewRetriever(policy, llm, vector, cfg.RetrieveTimeout, cfg.RetrieveTopK),
		usecase.NewActionPlanner(policy),
		usecase.NewSimplifier(policy, llm, cfg.ModelTimeout),
		cache.New[*domain.AnalysisResult](cfg.CacheTTL),
		bus,
		pipelineMetrics,
	)

	server := apihttp.NewServer(
		analyzer,
		store,
		pdftext.NewExtractor(0),
		pipelineMetrics.Handler(),
		httpMetrics,
		apihttp.ServerConfig{RateLimitRPS: cfg.RateLimitRPS, RateLimitBurst: cfg.RateLimitBurst},
	)

	return &API{
		Server:   apihttp.NewHTTPServer(":"+cfg.APIPort, server.Handler()),
		EventBus: bus,
		DB:       db,
	}, nil
}

func (a *API) Close() {
	if a.EventBus != nil {
		a.EventBus.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// Recorder is the worker side: it consumes completed-analysis events,
// persists them and archives the raw text.
type Recorder struct {
	Bus     *nats.EventBus
	Store   *postgres.AnalysisRepository
	Archive *localfs.Archive
	Metrics http.Handler
	DB      *sql.DB
}

func NewRecorder(ctx context.Context, cfg config.Config) (*Recorder, error) {
	db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	bus, err := nats.Connect(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		db.Close()
		return nil, err
	}

	archive, err := localfs.NewArchive(cfg.ArchivePath)
	if err != nil {
		bus.Close()
		db.Close()
		return nil, err
	}

	pipelineMetrics := metrics.NewPipelineMetrics()

	return &Recorder{
		Bus:     bus,
		Store:   postgres.NewAnalysisRepository(db),
		Archive: archive,
		Metrics: pipelineMetrics.Handler(),
		DB:      db,
	}, nil
}

func (r *Recorder) Close() {
	if r.Bus != nil {
		r.Bus.Close()
	}
	if r.DB != nil {
		r.DB.Close()
	}
}

// KnowledgeLoader wires the offline knowledge-base indexing path.
type KnowledgeLoader struct {
	Loader *knowledge.Loader
	Vector *qdrant.Client
}

func NewKnowledgeLoader(cfg config.Config) *KnowledgeLoader {
	llm := ollama.NewClient(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel)
	vector := qdrant.NewClient(cfg.QdrantURL, cfg.QdrantCollection, &http.Client{Timeout: 30 * time.Second})
	return &KnowledgeLoader{
		Loader: knowledge.NewLoader(chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap), llm, vector),
		Vector: vector,
	}
}
