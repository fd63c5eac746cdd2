package api

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

// ReportHandler handles detection report ingestion.
type ReportHandler struct {
	deps Dependencies
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps Dependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

// HandlePostReport handles POST /api/report requests.
func (h *ReportHandler) HandlePostReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	var report model.DetectionReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		metrics.RecordReportRejected("malformed")
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("decode report", ErrBadRequest, err))
		return
	}
	if err := report.Validate(); err != nil {
		metrics.RecordReportRejected("invalid")
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind("validate report", ErrBadRequest, err))
		return
	}

	view, err := h.deps.IngestReport(ctx, report)
	if err != nil {
		logger.Get().Debug(ctx, "report rejected",
			logger.String("session_id", report.SessionID),
			logger.Error(err))
		writeDomainError(w, err)
		return
	}

	logger.Get().Debug(ctx, "report ingested",
		logger.String("session_id", view.SessionID),
		logger.Float64("detection_score", view.DetectionScore))
	writeJSON(w, http.StatusOK, ackResponse{Status: "success"})
}
