package ports

import (
	"context"

	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
)

// NoticeAnalyzer is the inbound contract of the analysis pipeline: exactly
// one operation, idempotent per content hash.
type NoticeAnalyzer interface {
	Analyze(ctx context.Context, doc domain.RawDocument) (*domain.AnalysisResult, error)
}

// AnalysisReader is the inbound read model for stored analysis history.
type AnalysisReader interface {
	GetByHash(ctx context.Context, contentHash string) (*domain.AnalysisRecord, error)
	ListRecent(ctx context.Context, limit int) ([]domain.AnalysisRecord, error)
}
