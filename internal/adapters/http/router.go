// Package http is the API surface of the notice analysis service.
package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
	"github.com/iamdbstjd/DC-TermProject3/internal/core/ports"
	"github.com/iamdbstjd/DC-TermProject3/internal/observability/metrics"
)

const maxUploadBytes = 20 << 20

// PDFTextExtractor pulls the text layer out of an uploaded PDF.
type PDFTextExtractor interface {
	ExtractText(r io.Reader) (string, error)
}

type Server struct {
	analyzer    ports.NoticeAnalyzer
	reader      ports.AnalysisReader
	pdfText     PDFTextExtractor
	metricsPage http.Handler
	httpMetrics *metrics.HTTPServerMetrics
	limiter     *ipRateLimiter
}

type ServerConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewServer(
	analyzer ports.NoticeAnalyzer,
	reader ports.AnalysisReader,
	pdfText PDFTextExtractor,
	metricsPage http.Handler,
	httpMetrics *metrics.HTTPServerMetrics,
	cfg ServerConfig,
) *Server {
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 5
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 10
	}
	return &Server{
		analyzer:    analyzer,
		reader:      reader,
		pdfText:     pdfText,
		metricsPage: metricsPage,
		httpMetrics: httpMetrics,
		limiter:     newIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /v1/analyses", s.route("create_analysis", http.HandlerFunc(s.handleCreateAnalysis)))
	mux.Handle("GET /v1/analyses/{hash}", s.route("get_analysis", http.HandlerFunc(s.handleGetAnalysis)))
	mux.Handle("GET /v1/analyses", s.route("list_analyses", http.HandlerFunc(s.handleListAnalyses)))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metricsPage != nil {
		mux.Handle("GET /metrics", s.metricsPage)
	}

	var handler http.Handler = mux
	handler = s.limiter.middleware(handler)
	handler = accessLog(handler)
	handler = recoverPanic(handler)
	handler = requestID(handler)
	return handler
}

func (s *Server) route(name string, next http.Handler) http.Handler {
	if s.httpMetrics == nil {
		return next
	}
	return s.httpMetrics.Middleware(name, next)
}

type createAnalysisRequest struct {
	Text   string              `json:"text"`
	Layout []domain.LayoutHint `json:"layout,omitempty"`
}

// handleCreateAnalysis accepts either application/json with recognized text
// or multipart/form-data with a PDF under the "file" field.
func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	doc, err := s.readDocument(r)
	if err != nil {
		mapError(w, r, err)
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), doc)
	if err != nil {
		mapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAnalysisResponse(result, nil))
}

func (s *Server) readDocument(r *http.Request) (domain.RawDocument, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if s.pdfText == nil {
			return domain.RawDocument{}, domain.WrapError(domain.ErrUnreadableInput, "read_document",
				fmt.Errorf("pdf uploads not enabled"))
		}
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return domain.RawDocument{}, domain.WrapError(domain.ErrUnreadableInput, "read_document", err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return domain.RawDocument{}, domain.WrapError(domain.ErrUnreadableInput, "read_document", err)
		}
		defer file.Close()

		text, err := s.pdfText.ExtractText(file)
		if err != nil {
			return domain.RawDocument{}, err
		}
		return domain.NewRawDocument(text, nil), nil
	}

	var req createAnalysisRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		return domain.RawDocument{}, domain.WrapError(domain.ErrUnreadableInput, "read_document", err)
	}
	if strings.TrimSpace(req.Text) == "" {
		return domain.RawDocument{}, domain.WrapError(domain.ErrUnreadableInput, "read_document",
			fmt.Errorf("empty text field"))
	}
	return domain.NewRawDocument(req.Text, req.Layout), nil
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	if hash == "" {
		writeError(w, http.StatusBadRequest, "INPUT_ERROR", "content hash가 필요합니다.")
		return
	}

	record, err := s.reader.GetByHash(r.Context(), hash)
	if err != nil {
		mapError(w, r, err)
		return
	}
	createdAt := record.CreatedAt
	writeJSON(w, http.StatusOK, toAnalysisResponse(&record.Result, &createdAt))
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			writeError(w, http.StatusBadRequest, "INPUT_ERROR", "limit은 1~100 사이여야 합니다.")
			return
		}
		limit = parsed
	}

	records, err := s.reader.ListRecent(r.Context(), limit)
	if err != nil {
		mapError(w, r, err)
		return
	}

	items := make([]analysisResponse, 0, len(records))
	for i := range records {
		createdAt := records[i].CreatedAt
		items = append(items, toAnalysisResponse(&records[i].Result, &createdAt))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// NewHTTPServer wraps the handler with production timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
