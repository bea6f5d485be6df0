package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
)

type fakeAnalyzer struct {
	result *domain.AnalysisResult
	err    error
	gotDoc domain.RawDocument
}

func (a *fakeAnalyzer) Analyze(_ context.Context, doc domain.RawDocument) (*domain.AnalysisResult, error) {
	a.gotDoc = doc
	if a.err != nil {
		return nil, a.err
	}
	return a.result, nil
}

type fakeReader struct {
	record *domain.AnalysisRecord
	err    error
}

func (r *fakeReader) GetByHash(context.Context, string) (*domain.AnalysisRecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.record, nil
}

func (r *fakeReader) ListRecent(context.Context, int) ([]domain.AnalysisRecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.record == nil {
		return nil, nil
	}
	return []domain.AnalysisRecord{*r.record}, nil
}

func sampleResult() *domain.AnalysisResult {
	return &domain.AnalysisResult{
		ContentHash: "hash123",
		Classification: domain.ClassificationResult{
			DocType:     domain.DocTypeHealthInsuranceBill,
			DocTypeName: "건강보험료 납부 고지서",
			Confidence:  0.9,
			Method:      domain.MethodRule,
		},
		Fields: domain.ExtractionResult{
			domain.FieldAmount: {Name: domain.FieldAmount, Text: "50,000원", Amount: 50000, Confidence: 0.95, Source: domain.SourcePattern},
		},
		Risk:      domain.RiskHigh,
		PlanState: domain.StatePaymentDue,
		Steps: []domain.ActionStep{
			{Order: 1, Kind: domain.StepPay, Description: "납부하세요."},
		},
		SummaryOneLine: "5만원을 내야 해요.",
		StepsEasy:      []string{"은행에서 5만원을 내세요."},
	}
}

func newTestServer(analyzer *fakeAnalyzer, reader *fakeReader) *Server {
	return NewServer(analyzer, reader, nil, nil, nil, ServerConfig{RateLimitRPS: 100, RateLimitBurst: 100})
}

func TestCreateAnalysisJSON(t *testing.T) {
	analyzer := &fakeAnalyzer{result: sampleResult()}
	server := newTestServer(analyzer, &fakeReader{})

	body := `{"text": "건강보험료 납부금액: 50,000원"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/analyses", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp analysisResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.DocType != string(domain.DocTypeHealthInsuranceBill) {
		t.Errorf("doc_type = %q", resp.DocType)
	}
	if resp.RiskLevel != "HIGH" || resp.PlanState != "PAYMENT_DUE" {
		t.Errorf("risk/state = %s/%s", resp.RiskLevel, resp.PlanState)
	}
	if resp.KeyInfo.Amount == nil || *resp.KeyInfo.Amount != 50000 {
		t.Errorf("key_info.amount = %v", resp.KeyInfo.Amount)
	}
	if len(resp.StepsEasy) != 1 {
		t.Errorf("steps_easy = %v", resp.StepsEasy)
	}
	if analyzer.gotDoc.Hash == "" {
		t.Error("document hash not derived from text")
	}
}

func TestCreateAnalysisEmptyTextRejected(t *testing.T) {
	server := newTestServer(&fakeAnalyzer{result: sampleResult()}, &fakeReader{})

	req := httptest.NewRequest(http.MethodPost, "/v1/analyses", strings.NewReader(`{"text": "   "}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp errorResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error.Code != "INPUT_ERROR" {
		t.Errorf("error code = %q", resp.Error.Code)
	}
}

func TestCreateAnalysisMalformedJSONRejected(t *testing.T) {
	server := newTestServer(&fakeAnalyzer{result: sampleResult()}, &fakeReader{})

	req := httptest.NewRequest(http.MethodPost, "/v1/analyses", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetAnalysisByHash(t *testing.T) {
	createdAt := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	reader := &fakeReader{record: &domain.AnalysisRecord{
		ID:          "id-1",
		ContentHash: "hash123",
		Result:      *sampleResult(),
		CreatedAt:   createdAt,
	}}
	server := newTestServer(&fakeAnalyzer{}, reader)

	req := httptest.NewRequest(http.MethodGet, "/v1/analyses/hash123", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp analysisResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ContentHash != "hash123" {
		t.Errorf("content_hash = %q", resp.ContentHash)
	}
	if resp.CreatedAt == nil || !resp.CreatedAt.Equal(createdAt) {
		t.Errorf("created_at = %v", resp.CreatedAt)
	}
}

func TestGetAnalysisNotFound(t *testing.T) {
	reader := &fakeReader{err: domain.WrapError(domain.ErrAnalysisNotFound, "test", errors.New("no rows"))}
	server := newTestServer(&fakeAnalyzer{}, reader)

	req := httptest.NewRequest(http.MethodGet, "/v1/analyses/missing", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListAnalysesLimitValidation(t *testing.T) {
	server := newTestServer(&fakeAnalyzer{}, &fakeReader{})

	req := httptest.NewRequest(http.MethodGet, "/v1/analyses?limit=0", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("limit=0 status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/analyses?limit=101", nil)
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("limit=101 status = %d, want 400", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	server := newTestServer(&fakeAnalyzer{}, &fakeReader{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	server := newTestServer(&fakeAnalyzer{}, &fakeReader{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "given-id")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "given-id" {
		t.Errorf("X-Request-ID = %q, want the caller's id echoed", got)
	}
}

func TestRateLimitExceeded(t *testing.T) {
	server := NewServer(&fakeAnalyzer{}, &fakeReader{}, nil, nil, nil,
		ServerConfig{RateLimitRPS: 1, RateLimitBurst: 1})
	handler := server.Handler()

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", second.Code)
	}
}
