// Package chi exposes the assistant over HTTP with a chi router.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrirag/internal/domain"
	domrag "github.com/kailas-cloud/nutrirag/internal/domain/rag"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/request"
	"github.com/kailas-cloud/nutrirag/internal/domain/search/strategy"
	domusage "github.com/kailas-cloud/nutrirag/internal/domain/usage"
	"github.com/kailas-cloud/nutrirag/internal/logger"
	convuc "github.com/kailas-cloud/nutrirag/internal/usecase/conversation"
	healthuc "github.com/kailas-cloud/nutrirag/internal/usecase/health"
	"github.com/kailas-cloud/nutrirag/internal/version"
)

// Request body and field limits.
const (
	maxBodyBytes   = 64 << 10
	maxQueryRunes  = 2000
	maxHistoryList = 100
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	pipeline      Pipeline
	search        Searcher
	sessions      Sessions
	health        HealthChecker
	usage         UsageReporter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	pipeline Pipeline,
	search Searcher,
	sessions Sessions,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		pipeline: pipeline,
		search:   search,
		sessions: sessions,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound, CodeSessionNotFound),
		sentinelHandler(domain.ErrSessionClosed, http.StatusConflict, CodeSessionClosed),
		sentinelHandler(domain.ErrSessionExpired, http.StatusGone, CodeSessionExpired),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, CodeIndexUnavailable),
		sentinelHandler(domain.ErrBudgetExceeded, http.StatusTooManyRequests, CodeBudgetExceeded),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProvider),
		sentinelHandler(domain.ErrGenerationFailed, http.StatusBadGateway, CodeGenerationFailed),
	}
	return s
}

// WithUsage enables GET /v1/usage. Without it the endpoint reports no budgets.
func (s *Server) WithUsage(u UsageReporter) *Server {
	s.usage = u
	return s
}

// Register mounts all routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/ask", s.Ask)
		r.Post("/search", s.Search)
		r.Get("/stats", s.Stats)
		r.Get("/usage", s.Usage)

		r.Post("/sessions", s.CreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Use(tagSession)
			r.Get("/", s.GetSession)
			r.Delete("/", s.EndSession)
			r.Post("/turns", s.AddTurn)
			r.Get("/history", s.GetHistory)
			r.Get("/analysis", s.GetAnalysis)
		})
	})
}

// tagSession adds the path session ID to the request logger.
func tagSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.With(r.Context(), zap.String("session_id", chi.URLParam(r, "sessionID")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Ask handles POST /v1/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !decode(w, r, &req) {
		return
	}
	if msg := validateQuery(req.Query); msg != "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, msg)
		return
	}

	resp := s.pipeline.Process(r.Context(), domrag.Request{Query: req.Query, Profile: req.Profile})
	logger.FromContext(r.Context()).Debug("Answered",
		zap.String("state", string(resp.State())),
		zap.String("intent", string(resp.Intent())),
		zap.Float64("quality", resp.Quality()),
	)
	writeJSON(w, http.StatusOK, askToDTO(&resp))
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decode(w, r, &req) {
		return
	}
	if msg := validateQuery(req.Query); msg != "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, msg)
		return
	}

	cfg, err := s.searchConfig(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	results, err := s.search.Search(r.Context(), req.Query, cfg)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Items: sourcesToDTO(results), Total: len(results)})
}

// searchConfig overlays the request fields on the retriever defaults.
func (s *Server) searchConfig(req SearchRequest) (request.Config, error) {
	def := s.search.Defaults()
	st := def.Strategy()
	if req.Strategy != "" {
		st = strategy.Strategy(req.Strategy)
	}
	threshold := def.Threshold()
	if req.Threshold != 0 {
		threshold = req.Threshold
	}
	topK := req.TopK
	if topK == 0 {
		topK = def.TopK()
	}
	maxLen := req.MaxContentLength
	if maxLen == 0 {
		maxLen = def.MaxContentLength()
	}
	rerank := def.Rerank()
	if req.Rerank != nil {
		rerank = *req.Rerank
	}
	cfg, err := request.New(st, topK, threshold, maxLen, rerank)
	if err != nil {
		return request.Config{}, fmt.Errorf("search config: %w", err)
	}
	return cfg, nil
}

// Stats handles GET /v1/stats.
func (s *Server) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatsResponse{
		Pipeline:  s.pipeline.Stats(),
		Retrieval: s.search.Stats(),
		Sessions:  s.sessions.GlobalStats(),
	})
}

// Usage handles GET /v1/usage?period=day|month.
func (s *Server) Usage(w http.ResponseWriter, r *http.Request) {
	period, err := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "period must be \"day\" or \"month\"")
		return
	}
	var reports []domusage.Report
	if s.usage != nil {
		reports = s.usage.Reports(r.Context(), period)
	}
	writeJSON(w, http.StatusOK, UsageResponse{Period: string(period), Budgets: usageToDTO(reports)})
}

// CreateSession handles POST /v1/sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	id := s.sessions.CreateSession(req.UserID, req.Profile)
	w.Header().Set("Location", "/v1/sessions/"+id)
	writeJSON(w, http.StatusCreated, CreateSessionResponse{SessionID: id})
}

// AddTurn handles POST /v1/sessions/{sessionID}/turns.
func (s *Server) AddTurn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	var req TurnRequest
	if !decode(w, r, &req) {
		return
	}
	if msg := validateQuery(req.Input); msg != "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, msg)
		return
	}

	reply := s.sessions.Process(r.Context(), id, req.Input)
	if reply.Rejection != "" {
		logger.FromContext(r.Context()).Info("Turn rejected", zap.String("rejection", string(reply.Rejection)))
		s.writeRejection(w, reply)
		return
	}
	writeJSON(w, http.StatusOK, turnReplyToDTO(reply))
}

func (s *Server) writeRejection(w http.ResponseWriter, reply convuc.Reply) {
	status, code := http.StatusNotFound, CodeSessionNotFound
	switch reply.Rejection {
	case convuc.RejectClosed:
		status, code = http.StatusConflict, CodeSessionClosed
	case convuc.RejectExpired:
		status, code = http.StatusGone, CodeSessionExpired
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: reply.Answer, SessionID: reply.SessionID})
}

// GetSession handles GET /v1/sessions/{sessionID}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.sessions.SessionInfo(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infoToDTO(info))
}

// GetHistory handles GET /v1/sessions/{sessionID}/history.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	maxTurns := 0
	if v := r.URL.Query().Get("max_turns"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHistoryList {
			writeError(w, http.StatusBadRequest, CodeValidationFailed,
				fmt.Sprintf("max_turns must be between 1 and %d", maxHistoryList))
			return
		}
		maxTurns = n
	}

	turns, err := s.sessions.History(r.Context(), id, maxTurns)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{SessionID: id, Turns: turnsToDTO(turns)})
}

// GetAnalysis handles GET /v1/sessions/{sessionID}/analysis.
func (s *Server) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := s.sessions.Analyze(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysisToDTO(a))
}

// EndSession handles DELETE /v1/sessions/{sessionID}.
func (s *Server) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.EndSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Version: version.String(),
		Checks:  checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func validateQuery(q string) string {
	q = strings.TrimSpace(q)
	switch {
	case q == "":
		return "query is required"
	case len([]rune(q)) > maxQueryRunes:
		return fmt.Sprintf("query must be at most %d characters", maxQueryRunes)
	default:
		return ""
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrSessionNotFound,
		domain.ErrSessionClosed,
		domain.ErrSessionExpired,
		domain.ErrNotFound,
		domain.ErrInvalidInput,
		domain.ErrIndexUnavailable,
		domain.ErrBudgetExceeded,
		domain.ErrEmbeddingProviderError,
		domain.ErrGenerationFailed,
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

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
