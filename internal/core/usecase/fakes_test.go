package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
)

// fakeGenerator scripts model replies per prompt. With a nil respond func
// every call fails, which exercises the deterministic fallbacks.
type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	respond func(prompt string) (string, error)
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.GenerateJSON(ctx, prompt)
}

func (g *fakeGenerator) GenerateJSON(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.calls++
	respond := g.respond
	g.mu.Unlock()

	if respond == nil {
		return "", domain.NewModelError(domain.ModelTimeout, "fake", errors.New("model unavailable"))
	}
	return respond(prompt)
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (e *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = e.vector
	}
	return out, nil
}

func (e *fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vector, nil
}

type fakeSearcher struct {
	chunks    []domain.RetrievedChunk
	err       error
	gotLimit  int
	gotFilter domain.ChunkFilter
}

func (s *fakeSearcher) Search(_ context.Context, _ []float32, limit int, filter domain.ChunkFilter) ([]domain.RetrievedChunk, error) {
	s.gotLimit = limit
	s.gotFilter = filter
	if s.err != nil {
		return nil, s.err
	}
	return s.chunks, nil
}

type fakeEvents struct {
	mu      sync.Mutex
	records []domain.AnalysisRecord
	err     error
}

func (e *fakeEvents) PublishAnalysisCompleted(_ context.Context, record domain.AnalysisRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.records = append(e.records, record)
	return nil
}

func (e *fakeEvents) SubscribeAnalysisCompleted(context.Context, func(context.Context, domain.AnalysisRecord) error) error {
	return nil
}

func (e *fakeEvents) published() []domain.AnalysisRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.AnalysisRecord, len(e.records))
	copy(out, e.records)
	return out
}

type fakeObserver struct {
	mu       sync.Mutex
	started  int
	finished int
	hits     int
	misses   int
	stages   []string
}

func (o *fakeObserver) AnalysisStarted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *fakeObserver) AnalysisFinished(bool, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished++
}

func (o *fakeObserver) StageDegraded(stage string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages = append(o.stages, stage)
}

func (o *fakeObserver) CacheLookup(hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func (o *fakeObserver) startedCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.started
}

func (o *fakeObserver) hitCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hits
}
