// Package chi exposes the document QA service over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	logpkg "github.com/kailas-cloud/docqa/internal/logger"
	healthuc "github.com/kailas-cloud/docqa/internal/usecase/health"
	qauc "github.com/kailas-cloud/docqa/internal/usecase/qa"
	questionsuc "github.com/kailas-cloud/docqa/internal/usecase/questions"
	sessionuc "github.com/kailas-cloud/docqa/internal/usecase/session"
)

const userIDHeader = "userId"

const suggestedQuestions = 3

// Error codes returned in the JSON error body.
const (
	codeBadRequest    = "bad_request"
	codeValidation    = "validation_failed"
	codeNoDocument    = "no_document"
	codeFileType      = "file_type_not_allowed"
	codeProviderError = "provider_error"
	codeInternalError = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers for the QA API.
type Server struct {
	sessions       *sessionuc.Service
	qa             *qauc.Service
	questions      *questionsuc.Service
	health         *healthuc.Service
	maxUploadBytes int64
	logger         *zap.Logger
	errorHandlers  []errorHandler
}

// NewServer creates an HTTP API server. maxUploadBytes bounds the multipart
// body on /upload.
func NewServer(
	sessions *sessionuc.Service,
	qa *qauc.Service,
	questions *questionsuc.Service,
	health *healthuc.Service,
	maxUploadBytes int64,
	logger *zap.Logger,
) *Server {
	s := &Server{
		sessions:       sessions,
		qa:             qa,
		questions:      questions,
		health:         health,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuestion, http.StatusBadRequest, codeValidation),
		sentinelHandler(domain.ErrNoDocument, http.StatusBadRequest, codeNoDocument),
		sentinelHandler(domain.ErrFileTypeNotAllowed, http.StatusBadRequest, codeFileType),
		sentinelHandler(domain.ErrExtractionEmpty, http.StatusBadRequest, codeValidation),
		sentinelHandler(domain.ErrChunkingFailed, http.StatusBadRequest, codeValidation),
		sentinelHandler(domain.ErrIndexBuild, http.StatusBadRequest, codeValidation),
		sentinelHandler(domain.ErrLLMProvider, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, codeProviderError),
	}
	return s
}

// Register mounts all routes on the router.
func (s *Server) Register(r chirouter.Router) {
	r.Post("/upload", s.Upload)
	r.Post("/ask", s.Ask)
	r.Get("/get-questions", s.GetQuestions)
	r.Post("/flush", s.Flush)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Upload handles POST /upload.
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "multipart field 'file' is required")
		return
	}
	defer func() { _ = file.Close() }()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "failed to read uploaded file")
		return
	}

	splits, err := s.sessions.Upload(r.Context(), userID, header.Filename, raw)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "File uploaded and processed successfully",
		"splits":  splits,
	})
}

// Ask handles POST /ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	answer, err := s.qa.Answer(r.Context(), userID, req.Question)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

// GetQuestions handles GET /get-questions. Failures keep the legacy shape:
// 500 with {"status":"error","message":...}.
func (s *Server) GetQuestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	suggestions, err := s.questions.Generate(r.Context(), userID, suggestedQuestions)
	if err != nil {
		if errors.Is(err, domain.ErrNoDocument) {
			writeError(w, http.StatusBadRequest, codeNoDocument, domain.ErrNoDocument.Error())
			return
		}
		s.requestLogger(r).Warn("Question generation failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": safeDomainMessage(err),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"questions": suggestions,
	})
}

// Flush handles POST /flush.
func (s *Server) Flush(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	if err := s.sessions.Flush(r.Context(), userID); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Session flushed"})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
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

// userID extracts the required userId header, writing a 400 when absent.
func (s *Server) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(userIDHeader)
	if id == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "userId header is required")
		return "", false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuestion,
		domain.ErrNoDocument,
		domain.ErrFileTypeNotAllowed,
		domain.ErrExtractionEmpty,
		domain.ErrChunkingFailed,
		domain.ErrIndexBuild,
		domain.ErrLLMProvider,
		domain.ErrEmbeddingProvider,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.requestLogger(r)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// requestLogger prefers the per-request logger placed in the context by the
// wide-event middleware, so error logs carry the request_id.
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	return logpkg.FromContext(r.Context(), s.logger)
}
