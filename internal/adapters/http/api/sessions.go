package api

import (
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/pkg/logger"
)

// SessionsHandler handles session lifecycle and query requests.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleCreateSession handles POST /api/create-session requests.
func (h *SessionsHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("decode create-session", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("validate create-session", ErrBadRequest, err))
		return
	}

	view, token, err := h.deps.CreateSession(ctx, strings.TrimSpace(req.CandidateName))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	logger.Get().Info(ctx, "session created",
		logger.String("session_id", view.SessionID),
		logger.String("candidate_name", view.CandidateName))
	writeJSON(w, http.StatusOK, createSessionResponse{
		SessionID:     view.SessionID,
		Token:         token,
		CandidateName: view.CandidateName,
		DownloadURL:   "/download",
	})
}

// HandleDownload handles GET /download requests. The endpoint runtime is a
// separate binary; this serves the launch instructions the interviewer
// hands to the candidate along with the credentials.
func (h *SessionsHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Run the monitoring agent on the interview machine:\n\n" +
		"  sentinel -server <this server URL> -session <session_id> -token <token>\n"))
}

// HandleListSessions handles GET /api/sessions requests.
func (h *SessionsHandler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	all := h.deps.Sessions(r.Context())
	writeJSON(w, http.StatusOK, sessionListResponse{ActiveSessions: all, TotalSessions: len(all)})
}

// HandleGetSession handles GET /api/session/{id} and
// GET /api/session/{id}/history requests.
func (h *SessionsHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/session/")
	id, tail, _ := strings.Cut(rest, "/")
	if strings.TrimSpace(id) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("parse session id", ErrBadRequest))
		return
	}

	switch tail {
	case "":
		view, err := h.deps.Session(ctx, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case "history":
		// Per-cycle history retention is not implemented yet; the shape is
		// served so dashboards do not need a version switch.
		if _, err := h.deps.Session(ctx, id); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, historyResponse{SessionID: id, History: []model.SessionView{}})
	default:
		writeError(w, http.StatusNotFound, "not_found", nil)
	}
}

// HandleEndSession handles POST /api/end-session/{id} requests.
func (h *SessionsHandler) HandleEndSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/end-session/")
	if strings.TrimSpace(id) == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("parse session id", ErrBadRequest))
		return
	}

	summary, err := h.deps.EndSession(ctx, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	logger.Get().Info(ctx, "session ended",
		logger.String("session_id", summary.SessionID),
		logger.Float64("final_score", summary.FinalScore),
		logger.Int("total_alerts", summary.TotalAlerts))
	writeJSON(w, http.StatusOK, summary)
}
