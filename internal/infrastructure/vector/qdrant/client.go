// Package qdrant implements the vector search and knowledge indexing ports
// over the Qdrant HTTP API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
)

type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
}

func NewClient(baseURL, collection string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: httpClient,
	}
}

type searchRequest struct {
	Vector      []float32      `json:"vector"`
	Limit       int            `json:"limit"`
	WithPayload bool           `json:"with_payload"`
	Filter      map[string]any `json:"filter,omitempty"`
}

type searchResponse struct {
	Result []searchHit `json:"result"`
}

type searchHit struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload chunkPayload    `json:"payload"`
}

type chunkPayload struct {
	DocType    string `json:"doc_type"`
	Topic      string `json:"topic"`
	Source     string `json:"source"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
}

// Search returns up to limit passages nearest to the query vector, most
// relevant first. An unset filter searches the whole collection.
func (c *Client) Search(ctx context.Context, queryVector []float32, limit int, filter domain.ChunkFilter) ([]domain.RetrievedChunk, error) {
	const operation = "qdrant.search"

	if len(queryVector) == 0 {
		return nil, domain.NewIndexError(domain.IndexUnavailable, operation, fmt.Errorf("empty query vector"))
	}
	if limit <= 0 {
		limit = 5
	}

	req := searchRequest{
		Vector:      queryVector,
		Limit:       limit,
		WithPayload: true,
	}
	if filter.DocType != "" {
		req.Filter = map[string]any{
			"must": []map[string]any{
				{"key": "doc_type", "match": map[string]any{"value": string(filter.DocType)}},
			},
		}
	}

	var out searchResponse
	path := fmt.Sprintf("/collections/%s/points/search", c.collection)
	if err := c.call(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, mapIndexError(operation, err)
	}

	chunks := make([]domain.RetrievedChunk, 0, len(out.Result))
	for _, hit := range out.Result {
		chunks = append(chunks, domain.RetrievedChunk{
			ChunkID:       string(bytes.Trim(hit.ID, `"`)),
			Text:          hit.Payload.Text,
			Score:         hit.Score,
			OriginDocType: domain.DocType(hit.Payload.DocType),
			Topic:         hit.Payload.Topic,
			Source:        hit.Payload.Source,
		})
	}
	return chunks, nil
}

type upsertRequest struct {
	Points []upsertPoint `json:"points"`
}

type upsertPoint struct {
	ID      string       `json:"id"`
	Vector  []float32    `json:"vector"`
	Payload chunkPayload `json:"payload"`
}

// IndexPassages upserts passages with their vectors. Point IDs are derived
// from source and chunk index, so reloading the same knowledge file
// overwrites instead of duplicating.
func (c *Client) IndexPassages(ctx context.Context, passages []domain.KnowledgePassage, vectors [][]float32) error {
	const operation = "qdrant.upsert"

	if len(passages) != len(vectors) {
		return domain.NewIndexError(domain.IndexUnavailable, operation,
			fmt.Errorf("%d passages with %d vectors", len(passages), len(vectors)))
	}
	if len(passages) == 0 {
		return nil
	}

	points := make([]upsertPoint, len(passages))
	for i, p := range passages {
		points[i] = upsertPoint{
			ID:     passagePointID(p),
			Vector: vectors[i],
			Payload: chunkPayload{
				DocType:    string(p.DocType),
				Topic:      p.Topic,
				Source:     p.Source,
				ChunkIndex: p.ChunkIndex,
				Text:       p.Text,
			},
		}
	}

	path := fmt.Sprintf("/collections/%s/points?wait=true", c.collection)
	if err := c.call(ctx, http.MethodPut, path, upsertRequest{Points: points}, nil); err != nil {
		return mapIndexError(operation, err)
	}
	return nil
}

type createCollectionRequest struct {
	Vectors vectorParams `json:"vectors"`
}

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

// EnsureCollection creates the collection when it does not exist yet.
func (c *Client) EnsureCollection(ctx context.Context, vectorSize int) error {
	const operation = "qdrant.ensure_collection"

	path := "/collections/" + c.collection
	err := c.call(ctx, http.MethodGet, path, nil, nil)
	if err == nil {
		return nil
	}
	var statusErr *statusError
	if !errors.As(err, &statusErr) || statusErr.code != http.StatusNotFound {
		return mapIndexError(operation, err)
	}

	req := createCollectionRequest{
		Vectors: vectorParams{Size: vectorSize, Distance: "Cosine"},
	}
	if err := c.call(ctx, http.MethodPut, path, req, nil); err != nil {
		return mapIndexError(operation, err)
	}
	return nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant: http %d: %s", e.code, e.body)
}

func (c *Client) call(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, body: string(snippet)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// passagePointID is stable per (source, chunk index) so reindexing is
// idempotent. Qdrant point IDs must be integers or UUIDs.
func passagePointID(p domain.KnowledgePassage) string {
	seed := fmt.Sprintf("%s:%s:%d", p.DocType, p.Source, p.ChunkIndex)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

func mapIndexError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := domain.AsIndexError(err); ok {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return domain.NewIndexError(domain.IndexTimeout, operation, err)
	}
	return domain.NewIndexError(domain.IndexUnavailable, operation, err)
}
