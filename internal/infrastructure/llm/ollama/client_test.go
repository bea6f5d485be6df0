package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
	"github.com/iamdbstjd/DC-TermProject3/internal/infrastructure/resilience"
)

func noRetryExecutor() *resilience.Executor {
	cfg := resilience.DefaultConfig()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerEnabled = false
	return resilience.NewExecutor(cfg)
}

func TestGenerateJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Model != "test-model" || req.Stream {
			t.Errorf("request = %+v", req)
		}
		if req.Format != "json" {
			t.Errorf("format = %q, want json", req.Format)
		}
		json.NewEncoder(w).Encode(generateResponse{Response: `{"doc_type": "세금_통지서"}`, Done: true})
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-model", "embed-model", WithExecutor(noRetryExecutor()))
	got, err := c.GenerateJSON(context.Background(), "분류하세요")
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if got != `{"doc_type": "세금_통지서"}` {
		t.Errorf("got %q", got)
	}
}

func TestGenerateJSONStripsFencing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{
			Response: "```json\n{\"confidence\": 0.9}\n```", Done: true,
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "m", "e", WithExecutor(noRetryExecutor()))
	got, err := c.GenerateJSON(context.Background(), "p")
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"confidence": 0.9}` {
		t.Errorf("got %q", got)
	}
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(generateResponse{Response: "답변", Done: true})
	}))
	defer server.Close()

	cfg := resilience.DefaultConfig()
	cfg.RetryMaxAttempts = 2
	cfg.RetryInitialBackoff = 1
	cfg.BreakerEnabled = false

	c := NewClient(server.URL, "m", "e", WithExecutor(resilience.NewExecutor(cfg)))
	got, err := c.Generate(context.Background(), "p")
	if err != nil {
		t.Fatalf("Generate after retry: %v", err)
	}
	if got != "답변" || calls.Load() != 2 {
		t.Errorf("got %q after %d calls", got, calls.Load())
	}
}

func TestGenerateMapsRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient(server.URL, "m", "e", WithExecutor(noRetryExecutor()))
	_, err := c.Generate(context.Background(), "p")

	me, ok := domain.AsModelError(err)
	if !ok {
		t.Fatalf("error = %v, want ModelError", err)
	}
	if me.Kind != domain.ModelRateLimit {
		t.Errorf("kind = %s, want RATE_LIMIT", me.Kind)
	}
}

func TestGenerateMapsBadRequestToInvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unknown model", http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(server.URL, "m", "e", WithExecutor(noRetryExecutor()))
	_, err := c.Generate(context.Background(), "p")

	me, ok := domain.AsModelError(err)
	if !ok || me.Kind != domain.ModelInvalidResponse {
		t.Errorf("error = %v, want INVALID_RESPONSE kind", err)
	}
}

func TestGenerateEmptyCompletionIsInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Response: "   ", Done: true})
	}))
	defer server.Close()

	c := NewClient(server.URL, "m", "e", WithExecutor(noRetryExecutor()))
	_, err := c.Generate(context.Background(), "p")

	me, ok := domain.AsModelError(err)
	if !ok || me.Kind != domain.ModelInvalidResponse {
		t.Errorf("error = %v, want INVALID_RESPONSE kind", err)
	}
}

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req embedRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "embed-model" || len(req.Input) != 2 {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{0.1}, {0.2}}})
	}))
	defer server.Close()

	c := NewClient(server.URL, "gen", "embed-model", WithExecutor(noRetryExecutor()))
	vectors, err := c.Embed(context.Background(), []string{"하나", "둘"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 2 || vectors[1][0] != 0.2 {
		t.Errorf("vectors = %v", vectors)
	}
}

func TestEmbedCountMismatchIsInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{0.1}}})
	}))
	defer server.Close()

	c := NewClient(server.URL, "g", "e", WithExecutor(noRetryExecutor()))
	_, err := c.Embed(context.Background(), []string{"하나", "둘"})

	me, ok := domain.AsModelError(err)
	if !ok || me.Kind != domain.ModelInvalidResponse {
		t.Errorf("error = %v, want INVALID_RESPONSE kind", err)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct{ in, want string }{
		{`{"a": 1}`, `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"물론입니다! {\"a\": 1} 입니다.", `{"a": 1}`},
		{"[1, 2, 3]", "[1, 2, 3]"},
		{"no json here", "no json here"},
	}
	for _, tt := range tests {
		if got := extractJSON(tt.in); got != tt.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
