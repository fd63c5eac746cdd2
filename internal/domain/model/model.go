// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"strings"
	"time"
)

// AlertType identifies which detection rule produced an alert.
type AlertType string

// Alert types. Values mirror the wire protocol.
const (
	AlertProcessDetection   AlertType = "PROCESS_DETECTION"
	AlertAudioAnomaly       AlertType = "AUDIO_ANOMALY"
	AlertClipboardDetection AlertType = "CLIPBOARD_DETECTION"
	AlertTypingAnomaly      AlertType = "TYPING_ANOMALY"
	AlertAIDetection        AlertType = "AI_DETECTION"
)

// Severity ranks how urgent an alert is.
type Severity string

// Alert severities.
const (
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// SessionStatus tracks the lifecycle of a monitoring session.
type SessionStatus string

// Session statuses. "disconnected" is a read-time classification applied
// when a session has not reported within the staleness window; it is never
// stored.
const (
	StatusWaiting      SessionStatus = "waiting"
	StatusActive       SessionStatus = "active"
	StatusEnded        SessionStatus = "ended"
	StatusDisconnected SessionStatus = "disconnected"
)

// FeatureVector is one polling cycle's snapshot of the three suspicion
// signals. It is ephemeral: recomputed every cycle and never persisted.
type FeatureVector struct {
	ProcessScore  float64   `json:"process_score"`
	AudioScore    float64   `json:"audio_score"`
	BehaviorScore float64   `json:"behavior_score"`
	CapturedAt    time.Time `json:"captured_at"`
}

// Clamp forces every score into [0,1]. Collaborators are expected to emit
// clamped scores already; this is the boundary guarantee.
func (f *FeatureVector) Clamp() {
	f.ProcessScore = ClampScore(f.ProcessScore)
	f.AudioScore = ClampScore(f.AudioScore)
	f.BehaviorScore = ClampScore(f.BehaviorScore)
}

// ClampScore bounds a single suspicion score to [0,1].
func ClampScore(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}

// Alert is an immutable record of one detection rule firing. Once appended
// to the alert log it is never mutated.
type Alert struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      AlertType `json:"type"`
	Severity  Severity  `json:"severity"`
	Details   string    `json:"details"`
}

// MaxReportAlerts bounds how many alerts a DetectionReport carries. The
// client-side alert log is unbounded; it is truncated to the newest
// MaxReportAlerts entries on transmit.
const MaxReportAlerts = 10

// DetectionReport is the wire payload sent from the monitored endpoint to
// the supervising server. Each report is a full-state snapshot, not a
// delta; the server always overwrites the previous snapshot.
type DetectionReport struct {
	SessionID           string    `json:"session_id"`
	Token               string    `json:"token"`
	DetectionScore      float64   `json:"detection_score"`
	ProcessScore        float64   `json:"process_score"`
	AudioScore          float64   `json:"audio_score"`
	BehaviorScore       float64   `json:"behavior_score"`
	Alerts              []Alert   `json:"alerts"`
	SuspiciousProcesses []string  `json:"suspicious_processes"`
	Timestamp           time.Time `json:"timestamp"`
}

// Validate checks required fields and normalizes score ranges in place.
// Scores outside [0,1] are clamped rather than rejected; a snapshot with a
// slightly off score is still worth ingesting.
func (r *DetectionReport) Validate() error {
	switch {
	case strings.TrimSpace(r.SessionID) == "":
		return errors.New("missing session_id")
	case strings.TrimSpace(r.Token) == "":
		return errors.New("missing token")
	}
	r.DetectionScore = ClampScore(r.DetectionScore)
	r.ProcessScore = ClampScore(r.ProcessScore)
	r.AudioScore = ClampScore(r.AudioScore)
	r.BehaviorScore = ClampScore(r.BehaviorScore)
	if len(r.Alerts) > MaxReportAlerts {
		r.Alerts = r.Alerts[len(r.Alerts)-MaxReportAlerts:]
	}
	return nil
}

// SessionView is the read shape returned by session queries and carried on
// the push channel. It never includes the session token.
type SessionView struct {
	SessionID           string        `json:"session_id"`
	CandidateName       string        `json:"candidate_name"`
	Status              SessionStatus `json:"status"`
	DetectionScore      float64       `json:"detection_score"`
	ProcessScore        float64       `json:"process_score"`
	AudioScore          float64       `json:"audio_score"`
	BehaviorScore       float64       `json:"behavior_score"`
	Alerts              []Alert       `json:"alerts"`
	SuspiciousProcesses []string      `json:"suspicious_processes"`
	CreatedAt           time.Time     `json:"created_at"`
	LastUpdate          time.Time     `json:"last_update"`
}

// Summary is the end-of-session report emitted by an explicit end.
type Summary struct {
	SessionID     string    `json:"session_id"`
	CandidateName string    `json:"candidate_name"`
	FinalScore    float64   `json:"final_score"`
	TotalAlerts   int       `json:"total_alerts"`
	EndedAt       time.Time `json:"ended_at"`
}
