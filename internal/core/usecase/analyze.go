package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
	"github.com/iamdbstjd/DC-TermProject3/internal/core/ports"
	"github.com/iamdbstjd/DC-TermProject3/internal/infrastructure/cache"
)

// PipelineObserver receives pipeline telemetry. A nil observer is valid.
type PipelineObserver interface {
	AnalysisStarted()
	AnalysisFinished(degraded bool, duration time.Duration)
	StageDegraded(stage string)
	CacheLookup(hit bool)
}

// AnalyzeUseCase is the pipeline orchestrator. It owns sequencing, the
// partial-failure policy and the idempotence cache; every stage below it
// degrades instead of failing, so the only fatal condition is unreadable
// input.
type AnalyzeUseCase struct {
	classifier *Classifier
	extractor  *HybridExtractor
	retriever  *Retriever
	planner    *ActionPlanner
	simplifier *Simplifier

	cache    *cache.TTLCache[*domain.AnalysisResult]
	events   ports.AnalysisEvents
	observer PipelineObserver

	now func() time.Time
}

func NewAnalyzeUseCase(
	classifier *Classifier,
	extractor *HybridExtractor,
	retriever *Retriever,
	planner *ActionPlanner,
	simplifier *Simplifier,
	resultCache *cache.TTLCache[*domain.AnalysisResult],
	events ports.AnalysisEvents,
	observer PipelineObserver,
) *AnalyzeUseCase {
	return &AnalyzeUseCase{
		classifier: classifier,
		extractor:  extractor,
		retriever:  retriever,
		planner:    planner,
		simplifier: simplifier,
		cache:      resultCache,
		events:     events,
		observer:   observer,
		now:        time.Now,
	}
}

// Analyze is idempotent per content hash: within the cache TTL the same
// document returns the previously assembled result, and concurrent calls
// for one hash share a single computation.
func (uc *AnalyzeUseCase) Analyze(ctx context.Context, doc domain.RawDocument) (*domain.AnalysisResult, error) {
	text := strings.TrimSpace(doc.Text)
	if text == "" {
		return nil, domain.WrapError(domain.ErrUnreadableInput, "analyze", errors.New("empty document text"))
	}

	hash := doc.Hash
	if hash == "" {
		hash = domain.ContentHash(text)
	}

	computed := false
	result, err := uc.cache.GetOrCompute(ctx, hash, func(flightCtx context.Context) (*domain.AnalysisResult, error) {
		computed = true
		return uc.analyzeOnce(flightCtx, text, hash), nil
	})
	if uc.observer != nil {
		uc.observer.CacheLookup(!computed)
	}
	return result, err
}

func (uc *AnalyzeUseCase) analyzeOnce(ctx context.Context, text, hash string) *domain.AnalysisResult {
	start := uc.now()
	if uc.observer != nil {
		uc.observer.AnalysisStarted()
	}

	var degraded []string
	flag := func(stage string) {
		degraded = append(degraded, stage)
		if uc.observer != nil {
			uc.observer.StageDegraded(stage)
		}
	}

	cls, clsDegraded := uc.classifier.Classify(ctx, text)
	if clsDegraded {
		flag(domain.DegradedClassification)
	}

	extraction, disagreements, exDegraded := uc.extractor.Extract(ctx, text, cls)
	if exDegraded {
		flag(domain.DegradedExtraction)
	}

	// Retrieval only augments context; the planner does not need it, so
	// both run concurrently over the shared immutable extraction.
	var (
		chunks      []domain.RetrievedChunk
		retDegraded bool
		plan        domain.ActionPlan
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		chunks, retDegraded = uc.retriever.Retrieve(groupCtx, cls, extraction)
		return nil
	})
	group.Go(func() error {
		plan = uc.planner.Plan(cls, extraction, uc.now())
		return nil
	})
	_ = group.Wait()
	if retDegraded {
		flag(domain.DegradedRetrieval)
	}

	// conservative default: a classification that degraded all the way to
	// UNKNOWN must not present itself as low risk
	if clsDegraded && cls.DocType == domain.DocTypeUnknown {
		plan.Risk = domain.MaxRisk(plan.Risk, domain.RiskMedium)
	}

	simplified, simDegraded := uc.simplifier.Simplify(ctx, cls, extraction, plan)
	if simDegraded {
		flag(domain.DegradedSimplifier)
	}

	result := &domain.AnalysisResult{
		ContentHash:    hash,
		Classification: cls,
		Fields:         extraction,
		Disagreements:  disagreements,
		Risk:           plan.Risk,
		PlanState:      plan.State,
		Advisory:       plan.Advisory,
		Steps:          plan.Steps,
		Chunks:         chunks,
		SummaryOneLine: simplified.SummaryOneLine,
		StepsEasy:      simplified.StepsEasy,
		Degraded:       degraded,
		ProcessingMS:   uc.now().Sub(start).Milliseconds(),
	}

	if uc.observer != nil {
		uc.observer.AnalysisFinished(result.IsDegraded(), uc.now().Sub(start))
	}

	uc.publish(text, result)
	return result
}

// publish hands the finished analysis to the recorder worker, best-effort:
// history is an external concern and must never fail an analysis.
func (uc *AnalyzeUseCase) publish(text string, result *domain.AnalysisResult) {
	if uc.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	record := domain.AnalysisRecord{
		ID:          uuid.NewString(),
		ContentHash: result.ContentHash,
		RawText:     text,
		Result:      *result,
		CreatedAt:   uc.now(),
	}
	if err := uc.events.PublishAnalysisCompleted(ctx, record); err != nil {
		slog.Warn("analysis_event_publish_failed", "content_hash", result.ContentHash, "error", err)
	}
}
