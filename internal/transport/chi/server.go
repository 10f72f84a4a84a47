// Package chi exposes the retrieval pipeline over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/policyrag/internal/domain"
	"github.com/kailas-cloud/policyrag/internal/domain/answer"
	"github.com/kailas-cloud/policyrag/internal/domain/evidence"
	"github.com/kailas-cloud/policyrag/internal/logger"
	"github.com/kailas-cloud/policyrag/internal/repository/answercache"
	healthuc "github.com/kailas-cloud/policyrag/internal/usecase/health"
	"github.com/kailas-cloud/policyrag/internal/usecase/retrieval"
)

// maxBodyBytes bounds request bodies; queries are capped far below this.
const maxBodyBytes = 64 << 10

// Pipeline answers and searches questions.
type Pipeline interface {
	Search(ctx context.Context, req retrieval.SearchRequest) (retrieval.SearchResult, error)
	Answer(ctx context.Context, raw, scope string) (answer.Answer, error)
}

// CacheAdmin reports and clears the answer cache.
type CacheAdmin interface {
	Stats(ctx context.Context) (answercache.Stats, error)
	Clear(ctx context.Context) (int, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	pipeline      Pipeline
	cache         CacheAdmin
	health        HealthChecker
	suggestions   func() []string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. cache can be nil when caching is off.
func NewServer(
	pipeline Pipeline,
	cache CacheAdmin,
	health HealthChecker,
	suggestions func() []string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		pipeline:    pipeline,
		cache:       cache,
		health:      health,
		suggestions: suggestions,
		logger:      logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrExternalService, http.StatusBadGateway, CodeExternalServiceError),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, CodeTimeout),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/search", s.Search)
	r.Post("/answer", s.Answer)
	r.Get("/suggestions", s.Suggestions)
	r.Get("/cache/stats", s.CacheStats)
	r.Delete("/cache", s.ClearCache)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// SearchRequest is the POST /search body.
type SearchRequest struct {
	Query      string `json:"query"`
	TopK       int    `json:"top_k,omitempty"`
	CandidateK int    `json:"candidate_k,omitempty"`
	Scope      string `json:"scope,omitempty"`
}

// SearchResultItem is one ranked passage.
type SearchResultItem struct {
	ID              string          `json:"id"`
	Text            string          `json:"text"`
	ConfidenceScore float64         `json:"confidence_score"`
	Origin          evidence.Origin `json:"origin"`
	SourceMetadata  evidence.Source `json:"source_metadata"`
}

// SearchResponse is the POST /search reply.
type SearchResponse struct {
	Results         []SearchResultItem `json:"results"`
	TotalCandidates int                `json:"total_candidates"`
	Degraded        bool               `json:"degraded,omitempty"`
	Company         string             `json:"company,omitempty"`
}

// AnswerRequest is the POST /answer body.
type AnswerRequest struct {
	Query string `json:"query"`
	Scope string `json:"scope,omitempty"`
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.pipeline.Search(r.Context(), retrieval.SearchRequest{
		Query:      req.Query,
		TopK:       req.TopK,
		CandidateK: req.CandidateK,
		Scope:      req.Scope,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]SearchResultItem, len(res.Results))
	for i, c := range res.Results {
		items[i] = SearchResultItem{
			ID:              c.ID,
			Text:            c.Text,
			ConfidenceScore: c.Confidence,
			Origin:          c.Origin,
			SourceMetadata:  c.Source,
		}
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Results:         items,
		TotalCandidates: res.TotalCandidates,
		Degraded:        res.Degraded,
		Company:         res.Company,
	})
}

// Answer handles POST /answer.
func (s *Server) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !s.decode(w, r, &req) {
		return
	}

	a, err := s.pipeline.Answer(r.Context(), req.Query, req.Scope)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Suggestions handles GET /suggestions.
func (s *Server) Suggestions(w http.ResponseWriter, _ *http.Request) {
	var list []string
	if s.suggestions != nil {
		list = s.suggestions()
	}
	if list == nil {
		list = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": list})
}

// CacheStats handles GET /cache/stats.
func (s *Server) CacheStats(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "answer cache is disabled")
		return
	}
	stats, err := s.cache.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ClearCache handles DELETE /cache.
func (s *Server) ClearCache(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "answer cache is disabled")
		return
	}
	n, err := s.cache.Clear(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("Answer cache cleared", zap.Int("deleted", n))
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.logger.With(zap.String("request_id", chiMiddleware.GetReqID(r.Context())))
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrExternalService,
		domain.ErrNotFound,
		context.DeadlineExceeded,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}
