package sentinel

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"github.com/okian/vigil/internal/domain/model"
)

// Summary is the endpoint-side record of a finished monitoring run,
// written to disk when the runner stops.
type Summary struct {
	SessionID        string                 `json:"session_id"`
	StartedAt        time.Time              `json:"started_at"`
	EndedAt          time.Time              `json:"ended_at"`
	MeanScore        float64                `json:"mean_score"`
	Samples          int                    `json:"samples"`
	TotalAlerts      int                    `json:"total_alerts"`
	AlertsBySeverity map[model.Severity]int `json:"alerts_by_severity"`
	Alerts           []model.Alert          `json:"alerts"`
}

// File permissions for the written report.
const summaryFileMode = 0o600

// summary assembles the final record from the runner's state.
func (r *Runner) summary() Summary {
	return Summary{
		SessionID:        r.session,
		StartedAt:        r.started,
		EndedAt:          time.Now(),
		MeanScore:        r.history.Mean(),
		Samples:          r.history.Len(),
		TotalAlerts:      r.log.Len(),
		AlertsBySeverity: r.log.CountBySeverity(),
		Alerts:           r.log.All(),
	}
}

// WriteFile persists the summary as indented JSON under dir, named after
// the session and end time. Returns the written path.
func (s Summary) WriteFile(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	name := fmt.Sprintf("detection_report_%s_%s.json", s.SessionID, s.EndedAt.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	buf, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(path, buf, summaryFileMode); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return path, nil
}
