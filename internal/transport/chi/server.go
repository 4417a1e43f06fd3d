package chi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/docubrain/ragdex/internal/domain"
	analysisuc "github.com/docubrain/ragdex/internal/usecase/analysis"
	chatuc "github.com/docubrain/ragdex/internal/usecase/chat"
	healthuc "github.com/docubrain/ragdex/internal/usecase/health"
	ingestuc "github.com/docubrain/ragdex/internal/usecase/ingest"
	retrievaluc "github.com/docubrain/ragdex/internal/usecase/retrieval"
)

// errorCode is the machine-readable error identifier in ErrorResponse.
type errorCode string

const (
	codeBadRequest        errorCode = "bad_request"
	codeValidationFailed  errorCode = "validation_failed"
	codeUnauthorized      errorCode = "unauthorized"
	codeParseFailed       errorCode = "parse_failed"
	codeUnknownKind       errorCode = "unknown_analysis_kind"
	codeJobNotFound       errorCode = "job_not_found"
	codeEmbeddingProvider errorCode = "embedding_provider_error"
	codeSynthesisFailed   errorCode = "synthesis_failed"
	codeIndexCorrupted    errorCode = "index_corrupted"
	codeInternalError     errorCode = "internal_error"
)

// ErrorResponse is the JSON error envelope for every non-2xx response.
type ErrorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type addDocumentRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	// Content is the raw document payload, base64 encoded.
	Content string `json:"content"`
}

type documentResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	ChunksAdded int    `json:"chunks_added"`
}

type enqueueResponse struct {
	JobID string `json:"job_id"`
}

type jobResponse struct {
	JobID        string `json:"job_id"`
	DocumentName string `json:"document_name"`
	State        string `json:"state"`
	Status       string `json:"status,omitempty"`
	Message      string `json:"message,omitempty"`
	Error        string `json:"error,omitempty"`
}

type queryRequest struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
	K      int    `json:"k"`
}

type queryResult struct {
	DocumentName string  `json:"document_name"`
	Content      string  `json:"content"`
	Score        float64 `json:"score"`
}

type queryResponse struct {
	Results []queryResult `json:"results"`
}

type chatTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type chatRequest struct {
	UserID       string     `json:"user_id"`
	Query        string     `json:"query"`
	History      []chatTurn `json:"history,omitempty"`
	SystemPrompt string     `json:"system_prompt,omitempty"`
}

type chatSource struct {
	Citation     int     `json:"citation"`
	DocumentName string  `json:"document_name"`
	Score        float64 `json:"score"`
}

type chatResponse struct {
	Answer   string       `json:"answer"`
	Thinking string       `json:"thinking,omitempty"`
	Sources  []chatSource `json:"sources"`
}

type analyzeRequest struct {
	DocumentText string `json:"document_text"`
	Kind         string `json:"kind"`
}

type analyzeResponse struct {
	Content string `json:"content"`
}

type healthResponse struct {
	Status             string            `json:"status"`
	Checks             map[string]string `json:"checks"`
	EmbeddingModel     string            `json:"embedding_model"`
	EmbeddingProvider  string            `json:"embedding_provider"`
	DefaultIndexLoaded bool              `json:"default_index_loaded"`
	Warning            string            `json:"warning,omitempty"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the RAG engine over HTTP.
type Server struct {
	ingest        *ingestuc.Service
	retrieval     *retrievaluc.Service
	chat          *chatuc.Service
	analysis      *analysisuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest *ingestuc.Service,
	retrieval *retrievaluc.Service,
	chat *chatuc.Service,
	analysis *analysisuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ingest:    ingest,
		retrieval: retrieval,
		chat:      chat,
		analysis:  analysis,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		synthesisFailedHandler,
		sentinelHandler(domain.ErrParse, http.StatusBadRequest, codeParseFailed),
		sentinelHandler(domain.ErrUnknownAnalysisKind, http.StatusBadRequest, codeUnknownKind),
		sentinelHandler(domain.ErrJobNotFound, http.StatusNotFound, codeJobNotFound),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProvider),
		sentinelHandler(domain.ErrIndexCorrupted, http.StatusInternalServerError, codeIndexCorrupted),
	}
	return s
}

// Register mounts all API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Post("/documents", s.AddDocument)
	r.Post("/documents/async", s.AddDocumentAsync)
	r.Get("/documents/jobs/{jobID}", s.GetIngestJob)
	r.Post("/query", s.Query)
	r.Post("/chat", s.Chat)
	r.Post("/analyze", s.Analyze)
}

// AddDocument handles POST /documents.
func (s *Server) AddDocument(w http.ResponseWriter, r *http.Request) {
	req, content, ok := s.decodeDocumentRequest(w, r)
	if !ok {
		return
	}

	result, err := s.ingest.AddDocument(r.Context(), req.UserID, req.Name, content)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, documentResponse{
		Status:      string(result.Status),
		Message:     result.Message,
		ChunksAdded: result.ChunkCount,
	})
}

// AddDocumentAsync handles POST /documents/async.
func (s *Server) AddDocumentAsync(w http.ResponseWriter, r *http.Request) {
	req, content, ok := s.decodeDocumentRequest(w, r)
	if !ok {
		return
	}

	jobID := s.ingest.EnqueueAdd(req.UserID, req.Name, content)
	writeJSON(w, http.StatusAccepted, enqueueResponse{JobID: jobID})
}

// GetIngestJob handles GET /documents/jobs/{jobID}.
func (s *Server) GetIngestJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.ingest.Job(chi.URLParam(r, "jobID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jobResponse{
		JobID:        job.ID,
		DocumentName: job.DocumentName,
		State:        string(job.Status),
		Status:       string(job.Result.Status),
		Message:      job.Result.Message,
		Error:        job.Error,
	})
}

// Query handles POST /query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "user_id is required")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query is required")
		return
	}

	candidates, err := s.retrieval.Retrieve(r.Context(), req.UserID, req.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if req.K > 0 && len(candidates) > req.K {
		candidates = candidates[:req.K]
	}

	results := make([]queryResult, len(candidates))
	for i, c := range candidates {
		results[i] = queryResult{
			DocumentName: c.DocumentName,
			Content:      c.Text,
			Score:        c.Relevance(),
		}
	}

	writeJSON(w, http.StatusOK, queryResponse{Results: results})
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "user_id is required")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query is required")
		return
	}

	history := make([]chatuc.Turn, len(req.History))
	for i, turn := range req.History {
		history[i] = chatuc.Turn{Role: turn.Role, Text: turn.Text}
	}

	result, err := s.chat.Chat(r.Context(), chatuc.Request{
		UserID:       req.UserID,
		History:      history,
		Message:      req.Query,
		SystemPrompt: req.SystemPrompt,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	sources := make([]chatSource, len(result.Sources))
	for i, src := range result.Sources {
		sources[i] = chatSource{
			Citation:     src.Citation,
			DocumentName: src.DocumentName,
			Score:        src.Score,
		}
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Answer:   result.Answer,
		Thinking: result.Thinking,
		Sources:  sources,
	})
}

// Analyze handles POST /analyze.
func (s *Server) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.DocumentText == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "document_text is required")
		return
	}

	content, err := s.analysis.Analyze(r.Context(), domain.AnalysisKind(req.Kind), req.DocumentText)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{Content: content})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:             string(report.Status),
		Checks:             checks,
		EmbeddingModel:     report.EmbeddingModel,
		EmbeddingProvider:  report.EmbeddingProvider,
		DefaultIndexLoaded: report.DefaultIndexLoaded,
		Warning:            report.Warning,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decodeDocumentRequest validates the shared ingest request shape and
// decodes the base64 payload. Writes the error response itself on failure.
func (s *Server) decodeDocumentRequest(w http.ResponseWriter, r *http.Request) (addDocumentRequest, []byte, bool) {
	var req addDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return req, nil, false
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "user_id is required")
		return req, nil, false
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "name is required")
		return req, nil, false
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "content is required")
		return req, nil, false
	}

	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "content must be base64 encoded")
		return req, nil, false
	}
	return req, content, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrParse,
		domain.ErrEmbeddingProviderError,
		domain.ErrIndexCorrupted,
		domain.ErrSynthesisFailed,
		domain.ErrUnknownAnalysisKind,
		domain.ErrJobNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// synthesisFailedHandler handles ErrSynthesisFailed with the failure reason in the message.
func synthesisFailedHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrSynthesisFailed) {
		return false
	}
	if reason := domain.SynthesisReason(err); reason != "" {
		msg = reason
	}
	writeError(w, http.StatusBadGateway, codeSynthesisFailed, msg)
	return true
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
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
