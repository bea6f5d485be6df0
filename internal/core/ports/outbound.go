package ports

import (
	"context"
	"io"

	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
)

// TextGenerator is the generative-model collaborator. Failures are typed
// domain.ModelError values; every caller has a documented fallback.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Embedder builds vectors for knowledge chunks and retrieval queries.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher performs nearest-neighbor search over indexed passages.
// Failures are typed domain.IndexError values.
type VectorSearcher interface {
	Search(ctx context.Context, queryVector []float32, limit int, filter domain.ChunkFilter) ([]domain.RetrievedChunk, error)
}

// KnowledgeIndexer upserts knowledge-base passages into the vector index.
type KnowledgeIndexer interface {
	IndexPassages(ctx context.Context, passages []domain.KnowledgePassage, vectors [][]float32) error
}

// Chunker splits knowledge text into indexable passages.
type Chunker interface {
	Split(text string) []string
}

// AnalysisStore persists completed analyses outside the core.
type AnalysisStore interface {
	Save(ctx context.Context, record *domain.AnalysisRecord) error
	GetByHash(ctx context.Context, contentHash string) (*domain.AnalysisRecord, error)
	ListRecent(ctx context.Context, limit int) ([]domain.AnalysisRecord, error)
}

// AnalysisEvents publishes/consumes completed-analysis events between the
// api and the recorder worker.
type AnalysisEvents interface {
	PublishAnalysisCompleted(ctx context.Context, record domain.AnalysisRecord) error
	SubscribeAnalysisCompleted(ctx context.Context, handler func(context.Context, domain.AnalysisRecord) error) error
}

// TextArchive stores raw recognized text keyed by content hash.
type TextArchive interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
