package usecase

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/iamdbstjd/DC-TermProject3/internal/config"
	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
	"github.com/iamdbstjd/DC-TermProject3/internal/core/ports"
)

// Retriever pulls reference passages for the classified document from the
// vector index. It is strictly best-effort: any embedding or index failure
// collapses to an empty context within its own timeout.
type Retriever struct {
	policy   config.Policy
	embedder ports.Embedder
	searcher ports.VectorSearcher
	timeout  time.Duration
	topK     int
}

func NewRetriever(policy config.Policy, embedder ports.Embedder, searcher ports.VectorSearcher, timeout time.Duration, topK int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{
		policy:   policy,
		embedder: embedder,
		searcher: searcher,
		timeout:  timeout,
		topK:     topK,
	}
}

// Retrieve returns up to topK deduplicated chunks and whether retrieval
// degraded to an empty context.
func (r *Retriever) Retrieve(ctx context.Context, cls domain.ClassificationResult, er domain.ExtractionResult) ([]domain.RetrievedChunk, bool) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := r.buildQuery(cls, er)
	vector, err := r.embedder.EmbedQuery(callCtx, query)
	if err != nil {
		slog.Warn("retrieval_degraded", "stage", "embed", "error", err)
		return nil, true
	}

	filter := domain.ChunkFilter{}
	if cls.DocType != domain.DocTypeUnknown && cls.Confidence >= r.policy.LowConfidenceThreshold {
		filter.DocType = cls.DocType
	}

	chunks, err := r.searcher.Search(callCtx, vector, r.topK, filter)
	if err != nil {
		slog.Warn("retrieval_degraded", "stage", "search", "error", err)
		return nil, true
	}

	return r.dedupe(chunks), false
}

// buildQuery combines the doc type with the extracted field signals, the
// same way a clerk would phrase the lookup.
func (r *Retriever) buildQuery(cls domain.ClassificationResult, er domain.ExtractionResult) string {
	parts := []string{cls.DocTypeName}
	if cls.DocTypeName == "" {
		parts = []string{string(cls.DocType)}
	}
	if org, ok := er.Organization(); ok {
		parts = append(parts, org)
	}
	if _, ok := er.Amount(); ok {
		parts = append(parts, "납부 방법 안내")
	}
	if _, ok := er.DueDate(); ok {
		parts = append(parts, "처리 절차 기한")
	}
	if er.PenaltyRisk().Rank() >= domain.PenaltyMedium.Rank() {
		parts = append(parts, "연체 불이익 주의사항")
	}
	return strings.Join(parts, " ")
}

// dedupe collapses exact chunk-id duplicates and near-duplicate texts to
// the higher-relevance instance, keeping descending-score order.
func (r *Retriever) dedupe(chunks []domain.RetrievedChunk) []domain.RetrievedChunk {
	if len(chunks) == 0 {
		return nil
	}

	sorted := make([]domain.RetrievedChunk, len(chunks))
	copy(sorted, chunks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].ChunkID < sorted[j].ChunkID
	})

	seen := make(map[string]struct{}, len(sorted))
	kept := make([]domain.RetrievedChunk, 0, len(sorted))
	for _, chunk := range sorted {
		if _, dup := seen[chunk.ChunkID]; dup {
			continue
		}
		nearDup := false
		for _, existing := range kept {
			if tokenSimilarity(existing.Text, chunk.Text) >= r.policy.NearDuplicateSimilarity {
				nearDup = true
				break
			}
		}
		if nearDup {
			continue
		}
		seen[chunk.ChunkID] = struct{}{}
		kept = append(kept, chunk)
	}
	return kept
}

// tokenSimilarity is the Jaccard similarity of the two token sets.
func tokenSimilarity(a, b string) float64 {
	setA := toTokenSet(a)
	setB := toTokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func toTokenSet(text string) map[string]struct{} {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}
