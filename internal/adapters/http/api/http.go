// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/okian/valuematrix/internal/adapters/http/swagger"
	service "github.com/okian/valuematrix/internal/app"
	"github.com/okian/valuematrix/internal/domain/ranking"
	"github.com/okian/valuematrix/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	CreateSession(ctx context.Context, in types.CreateSessionInput) (types.SessionView, error)
	Session(ctx context.Context, id string) (types.SessionView, error)
	DeleteSession(ctx context.Context, id string) error
	NextComparison(ctx context.Context, id string) (types.ComparisonView, bool, error)
	RecordDecision(ctx context.Context, id string, in types.DecisionInput) (types.DecisionAck, error)
	Decisions(ctx context.Context, id string) ([]types.DecisionView, error)
	PersistedDecisions(ctx context.Context, id string) ([]types.DecisionView, error)
	TopK(ctx context.Context, id string, k int) ([]types.Entry, error)
	Progress(ctx context.Context, id string) (types.ProgressView, error)
	StartRefinement(ctx context.Context, id string) (types.SessionView, error)
	GoverningValues(ctx context.Context, id string) ([]types.Entry, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler

	corsOrigins  []string
	defaultTopK  int
	maxBodyBytes int64
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		defaultTopK:  defaultTopK,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.sessionsHandler = NewSessionsHandler(deps, s.defaultTopK, s.maxBodyBytes)
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(ctx context.Context, r *mux.Router) {
	h := s.sessionsHandler
	r.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz")).Methods(http.MethodGet)
	r.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats")).Methods(http.MethodGet)

	r.HandleFunc("/sessions", MetricsMiddleware(h.HandleCreate, "sessions_create")).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}", MetricsMiddleware(h.HandleGet, "sessions_get")).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}", MetricsMiddleware(h.HandleDelete, "sessions_delete")).Methods(http.MethodDelete)
	r.HandleFunc("/sessions/{id}/comparison", MetricsMiddleware(h.HandleComparison, "comparison")).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}/decisions", MetricsMiddleware(h.HandleRecordDecision, "decisions_post")).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/decisions", MetricsMiddleware(h.HandleListDecisions, "decisions_list")).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}/top", MetricsMiddleware(h.HandleTop, "top")).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}/progress", MetricsMiddleware(h.HandleProgress, "progress")).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}/refinement", MetricsMiddleware(h.HandleRefinement, "refinement")).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/governing", MetricsMiddleware(h.HandleGoverning, "governing")).Methods(http.MethodGet)

	swagger.Register(ctx, r)
}

// Handler builds the router with every route registered, wrapped in CORS
// when origins are configured.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := mux.NewRouter()
	s.Register(ctx, r)
	if len(s.corsOrigins) == 0 {
		return r
	}
	c := cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", idempotencyHeader},
		ExposedHeaders: []string{"Content-Length", "Content-Type"},
	})
	return c.Handler(r)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// statusFor translates service and engine errors into an HTTP status and
// error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ranking.ErrInvalidDecision):
		return http.StatusUnprocessableEntity, "invalid_decision"
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrSessionIncomplete):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrTooFewItems),
		errors.Is(err, service.ErrTooManyItems),
		errors.Is(err, service.ErrDuplicateItem),
		errors.Is(err, ranking.ErrUnknownStrategy):
		return http.StatusBadRequest, "bad_request"
	}
	return http.StatusInternalServerError, "internal_error"
}

func writeServiceError(w http.ResponseWriter, op string, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, Wrap(op, err))
}
