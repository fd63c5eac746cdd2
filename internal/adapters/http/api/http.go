// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/okian/vigil/internal/broker"
	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/internal/registry"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// CreateSession registers a new monitoring session and returns its
	// public view plus the bearer token handed to the client runtime.
	CreateSession(ctx context.Context, candidateName string) (model.SessionView, string, error)

	// IngestReport authenticates and stores a detection report, returning
	// the refreshed session view.
	IngestReport(ctx context.Context, report model.DetectionReport) (model.SessionView, error)

	// Read operations expose session state to dashboards.
	Sessions(ctx context.Context) map[string]model.SessionView
	Session(ctx context.Context, id string) (model.SessionView, error)

	// EndSession finalizes a session and returns its summary.
	EndSession(ctx context.Context, id string) (model.Summary, error)

	// Subscribe attaches a push-channel subscriber.
	Subscribe() (<-chan broker.Event, func())
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	sessionsHandler *SessionsHandler
	reportHandler   *ReportHandler
	pushHandler     *PushHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		sessionsHandler: NewSessionsHandler(deps),
		reportHandler:   NewReportHandler(deps),
		pushHandler:     NewPushHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleHealth)
	mux.HandleFunc("/ws", s.pushHandler.HandleUpgrade)
	mux.HandleFunc("/api/create-session", MetricsMiddleware(s.sessionsHandler.HandleCreateSession, "create-session"))
	mux.HandleFunc("/download", MetricsMiddleware(s.sessionsHandler.HandleDownload, "download"))
	mux.HandleFunc("/api/report", MetricsMiddleware(s.reportHandler.HandlePostReport, "report"))
	mux.HandleFunc("/api/sessions", MetricsMiddleware(s.sessionsHandler.HandleListSessions, "sessions"))
	mux.HandleFunc("/api/session/", MetricsMiddleware(s.sessionsHandler.HandleGetSession, "session"))
	mux.HandleFunc("/api/end-session/", MetricsMiddleware(s.sessionsHandler.HandleEndSession, "end-session"))
}

// createSessionRequest mirrors the wire schema for POST /api/create-session.
type createSessionRequest struct {
	CandidateName string `json:"candidate_name"`
}

func (c createSessionRequest) validate() error {
	if strings.TrimSpace(c.CandidateName) == "" {
		return errors.New("missing candidate_name")
	}
	return nil
}

type createSessionResponse struct {
	SessionID     string `json:"session_id"`
	Token         string `json:"token"`
	CandidateName string `json:"candidate_name"`
	DownloadURL   string `json:"download_url"`
}

type ackResponse struct {
	Status string `json:"status"`
}

type sessionListResponse struct {
	ActiveSessions map[string]model.SessionView `json:"active_sessions"`
	TotalSessions  int                          `json:"total_sessions"`
}

type historyResponse struct {
	SessionID string              `json:"session_id"`
	History   []model.SessionView `json:"history"`
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

// writeDomainError translates registry error kinds to HTTP statuses. Auth
// failures stay deliberately generic so callers cannot probe which half of
// the credential pair was wrong.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrUnauthorized) || errors.Is(err, ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
	case errors.Is(err, registry.ErrNotFound) || errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", ErrNotFound)
	case errors.Is(err, registry.ErrSessionEnded) || errors.Is(err, ErrSessionEnded):
		writeError(w, http.StatusConflict, "session_ended", ErrSessionEnded)
	case errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", nil)
	}
}
