// Package ollama implements the text generation and embedding ports
// against a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
	"github.com/iamdbstjd/DC-TermProject3/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func WithExecutor(executor *resilience.Executor) Option {
	return func(c *Client) { c.executor = executor }
}

func NewClient(baseURL, genModel, embedModel string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   resilience.NewExecutor(resilience.DefaultConfig()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Generate runs one non-streaming completion.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, "")
}

// GenerateJSON constrains the completion to a single JSON value and strips
// any fencing the model wraps around it anyway.
func (c *Client) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	raw, err := c.generate(ctx, prompt, "json")
	if err != nil {
		return "", err
	}
	return extractJSON(raw), nil
}

func (c *Client) generate(ctx context.Context, prompt, format string) (string, error) {
	const operation = "ollama.generate"

	if strings.TrimSpace(prompt) == "" {
		return "", domain.NewModelError(domain.ModelInvalidResponse, operation, fmt.Errorf("empty prompt"))
	}

	req := generateRequest{
		Model:  c.genModel,
		Prompt: prompt,
		Stream: false,
		Format: format,
		Options: map[string]any{
			"temperature": 0.0,
		},
	}

	var out generateResponse
	err := c.executor.Execute(ctx, operation, func(callCtx context.Context) error {
		return c.post(callCtx, "/api/generate", req, &out)
	}, classifyModelError)
	if err != nil {
		return "", mapModelError(operation, err)
	}
	if strings.TrimSpace(out.Response) == "" {
		return "", domain.NewModelError(domain.ModelInvalidResponse, operation, fmt.Errorf("empty completion"))
	}
	return out.Response, nil
}

// Embed returns one vector per input text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	const operation = "ollama.embed"

	if len(texts) == 0 {
		return nil, nil
	}
	req := embedRequest{Model: c.embedModel, Input: texts}

	var out embedResponse
	err := c.executor.Execute(ctx, operation, func(callCtx context.Context) error {
		return c.post(callCtx, "/api/embed", req, &out)
	}, classifyModelError)
	if err != nil {
		return nil, mapModelError(operation, err)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, domain.NewModelError(domain.ModelInvalidResponse, operation,
			fmt.Errorf("%d embeddings for %d inputs", len(out.Embeddings), len(texts)))
	}
	return out.Embeddings, nil
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.NewModelError(domain.ModelInvalidResponse, "ollama.embed", fmt.Errorf("no embedding returned"))
	}
	return vectors[0], nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// extractJSON trims markdown fences and any prose around the outermost
// JSON object or array.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if after, ok := strings.CutPrefix(s, "```json"); ok {
		s = after
	} else if after, ok := strings.CutPrefix(s, "```"); ok {
		s = after
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	s = strings.TrimSpace(s)

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndex(s, "}")
	} else {
		end = strings.LastIndex(s, "]")
	}
	if end <= start {
		return s
	}
	return s[start : end+1]
}
