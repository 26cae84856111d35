package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/lodge"
	"github.com/aretw0/lodge/internal/logging"
	"github.com/aretw0/lodge/internal/presentation/graph"
	"github.com/aretw0/lodge/pkg/domain"
	"github.com/aretw0/lodge/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Service is the conversation lifecycle the handlers drive.
type Service interface {
	Initiate(ctx context.Context, req domain.InitiateRequest) (*domain.Reply, error)
	Submit(ctx context.Context, sessionID, text string) (*domain.Reply, error)
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Edges() []domain.Edge
}

// Server holds the HTTP handlers.
type Server struct {
	Service Service

	logger  *slog.Logger
	origins []string
	metrics http.Handler
	streams *StreamManager
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAllowedOrigins restricts CORS and websocket origins. "*" allows any.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// MessageRequest is the body of POST /api/v1/chat/{id}/messages.
type MessageRequest struct {
	Message string `json:"message"`
}

// SessionResponse is the body of GET /api/v1/chat/{id}.
type SessionResponse struct {
	SessionID  string              `json:"sessionId"`
	Step       domain.Step         `json:"step"`
	Active     bool                `json:"active"`
	Completed  bool                `json:"completed"`
	Messages   int                 `json:"messages"`
	Filters    domain.FinalFilters `json:"filters"`
	Transcript []domain.Turn       `json:"transcript"`
	CreatedAt  string              `json:"createdAt"`
	ClosedAt   string              `json:"closedAt,omitempty"`
	Prefs      domain.Preferences  `json:"preferences"`
	Criteria   map[string]any      `json:"initialCriteria,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler creates the HTTP handler for the chat API.
func NewHandler(svc Service, opts ...Option) http.Handler {
	s := &Server{
		Service: svc,
		logger:  logging.NewNop(),
		origins: []string{"*"},
		streams: NewStreamManager(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetGraph)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/api/v1/chat", func(r chi.Router) {
		r.Post("/initiate", s.Initiate)
		r.Get("/{id}", s.GetSession)
		r.Post("/{id}/messages", s.PostMessage)
		r.Get("/{id}/ws", s.ServeWS)
	})

	return r
}

func (s *Server) allowed(origin string) bool {
	return slices.Contains(s.origins, "*") || slices.Contains(s.origins, origin)
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.allowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Initiate handles POST /api/v1/chat/initiate.
func (s *Server) Initiate(w http.ResponseWriter, r *http.Request) {
	var req domain.InitiateRequest
	// An empty body starts a fresh conversation.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.logger.Warn("initiate: invalid request body", "err", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := s.Service.Initiate(r.Context(), req)
	if err != nil {
		s.fail(w, r, "initiate", err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

// PostMessage handles POST /api/v1/chat/{id}/messages.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("message: invalid request body", "session_id", id, "err", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := s.Service.Submit(r.Context(), id, req.Message)
	if err != nil {
		s.fail(w, r, "message", err)
		return
	}
	s.publish(reply)
	writeJSON(w, http.StatusOK, reply)
}

// GetSession handles GET /api/v1/chat/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, "get session", err)
		return
	}

	resp := SessionResponse{
		SessionID:  sess.ID,
		Step:       sess.State.Step,
		Active:     sess.Active,
		Completed:  sess.State.Step.Terminal(),
		Messages:   sess.Messages,
		Filters:    sess.State.Filters.Sparse(),
		Prefs:      sess.State.Preferences,
		Transcript: sess.Transcript,
		Criteria:   sess.InitialCriteria,
		CreatedAt:  sess.CreatedAt.UTC().Format(time.RFC3339),
	}
	if sess.ClosedAt != nil {
		resp.ClosedAt = sess.ClosedAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetGraph handles GET /graph. ?format=mermaid returns the flowchart text.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	edges := s.Service.Edges()
	if strings.EqualFold(r.URL.Query().Get("format"), "mermaid") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(graph.GenerateMermaid(edges, nil)))
		return
	}
	writeJSON(w, http.StatusOK, edges)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "lodge-http",
		"version": strings.TrimSpace(lodge.Version),
	})
}

// fail maps lifecycle errors to status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, status, "internal error")
		return
	}
	s.logger.Info(op+" rejected", "err", err, "status", status)
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSeed),
		errors.Is(err, runner.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, runner.ErrInputTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrSessionCompleted),
		errors.Is(err, domain.ErrSessionExpired):
		return http.StatusGone
	case errors.Is(err, domain.ErrMessageLimit):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
