// Package alerting turns signal readings and fused risk scores into
// discrete alerts.
//
// Rules are evaluated independently every cycle and are not mutually
// exclusive. There is no deduplication or rate limiting: a condition that
// keeps holding re-emits its alert on every polling cycle. The server
// overwrites snapshots, so repeats cost log noise rather than state, and
// suppressing them would change the alert counts reported in session
// summaries.
package alerting

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/internal/domain/signal"
)

// Threshold constants for the detection rules.
const (
	pauseScoreThreshold     = 0.7
	fluencyScoreThreshold   = 0.8
	clipboardScoreThreshold = 0.7
	rapidTypingMeanMillis   = 50.0
	rapidTypingMinSamples   = 20
	fusedScoreThreshold     = 0.75
	fusedWindow             = 10
	maxMatchesInDetails     = 3
)

// Evaluator applies the threshold rules to one polling cycle.
type Evaluator struct {
	now func() time.Time
}

// EvaluatorOption applies a configuration option to the Evaluator.
type EvaluatorOption func(*Evaluator)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process emits a HIGH alert when the collaborator reported keyword
// matches against running processes.
func (e *Evaluator) Process(matches []string) (model.Alert, bool) {
	if len(matches) == 0 {
		return model.Alert{}, false
	}
	shown := matches
	if len(shown) > maxMatchesInDetails {
		shown = shown[:maxMatchesInDetails]
	}
	return e.alert(model.AlertProcessDetection, model.SeverityHigh,
		"Detected: "+strings.Join(shown, ", ")), true
}

// Audio emits a MEDIUM alert when the pause-pattern score crosses its
// threshold. The compound case (high pause AND high fluency) also stays
// MEDIUM, matching observed behavior; escalation to HIGH is an open
// product question, deliberately not taken here.
func (e *Evaluator) Audio(features signal.AudioFeatures, ok bool) (model.Alert, bool) {
	if !ok || features.PausePatternScore <= pauseScoreThreshold {
		return model.Alert{}, false
	}
	details := fmt.Sprintf("Suspicious speech pattern (pause: %.2f)", features.PausePatternScore)
	if features.FluencyScore > fluencyScoreThreshold {
		details = fmt.Sprintf("Suspicious speech pattern (pause: %.2f, fluency: %.2f)",
			features.PausePatternScore, features.FluencyScore)
	}
	return e.alert(model.AlertAudioAnomaly, model.SeverityMedium, details), true
}

// Behavior emits up to two alerts: HIGH on a clipboard AI-text match and
// MEDIUM on unnaturally fast typing over a sufficient sample.
func (e *Evaluator) Behavior(summary signal.ActivitySummary) []model.Alert {
	var alerts []model.Alert
	if summary.ClipboardAIScore > clipboardScoreThreshold {
		alerts = append(alerts, e.alert(model.AlertClipboardDetection, model.SeverityHigh,
			fmt.Sprintf("AI-generated text detected in clipboard (confidence: %.2f)", summary.ClipboardAIScore)))
	}
	rapid := summary.RapidTypingDetected ||
		(summary.KeystrokeSampleCount >= rapidTypingMinSamples && summary.MeanInterKeyMillis < rapidTypingMeanMillis)
	if rapid {
		alerts = append(alerts, e.alert(model.AlertTypingAnomaly, model.SeverityMedium,
			"Unnaturally fast typing detected"))
	}
	return alerts
}

// Fused emits a CRITICAL alert when the rolling average of the last 10
// risk scores crosses the fused threshold. Fewer than 10 samples never
// fire.
func (e *Evaluator) Fused(history *RiskHistory) (model.Alert, bool) {
	avg, ok := history.RollingAverage(fusedWindow)
	if !ok || avg <= fusedScoreThreshold {
		return model.Alert{}, false
	}
	return e.alert(model.AlertAIDetection, model.SeverityCritical,
		fmt.Sprintf("High probability of AI assistance (confidence: %.0f%%)", avg*100)), true
}

func (e *Evaluator) alert(t model.AlertType, sev model.Severity, details string) model.Alert {
	return model.Alert{
		ID:        uuid.NewString(),
		Timestamp: e.now(),
		Type:      t,
		Severity:  sev,
		Details:   details,
	}
}

// RiskHistory is a fixed-capacity ring of risk scores, oldest evicted,
// kept client-side to drive the rolling-average rule. Safe for one writer
// and concurrent readers.
type RiskHistory struct {
	mu     sync.RWMutex
	scores []float64
	cap    int
}

// Default history capacity.
const defaultHistoryCapacity = 100

// NewRiskHistory creates a ring with the given capacity (default 100).
func NewRiskHistory(capacity int) *RiskHistory {
	if capacity <= 0 {
		capacity = defaultHistoryCapacity
	}
	return &RiskHistory{cap: capacity}
}

// Append records a score, evicting the oldest once at capacity.
func (h *RiskHistory) Append(score float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.scores) == h.cap {
		copy(h.scores, h.scores[1:])
		h.scores[len(h.scores)-1] = score
		return
	}
	h.scores = append(h.scores, score)
}

// RollingAverage returns the mean of the newest window scores. The bool
// is false until at least window samples exist.
func (h *RiskHistory) RollingAverage(window int) (float64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if window <= 0 || len(h.scores) < window {
		return 0, false
	}
	var sum float64
	for _, s := range h.scores[len(h.scores)-window:] {
		sum += s
	}
	return sum / float64(window), true
}

// Mean returns the average over everything recorded, 0 when empty.
func (h *RiskHistory) Mean() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range h.scores {
		sum += s
	}
	return sum / float64(len(h.scores))
}

// Len returns the number of recorded scores.
func (h *RiskHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.scores)
}

// Log is the append-only alert log. Alerts are immutable once appended;
// the log grows without bound and is truncated only on transmit.
type Log struct {
	mu     sync.RWMutex
	alerts []model.Alert
}

// NewLog creates an empty alert log.
func NewLog() *Log {
	return &Log{}
}

// Append records alerts in arrival order.
func (l *Log) Append(alerts ...model.Alert) {
	if len(alerts) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.alerts = append(l.alerts, alerts...)
}

// Last returns the newest n alerts, the transmit truncation.
func (l *Log) Last(n int) []model.Alert {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 || len(l.alerts) == 0 {
		return nil
	}
	if n > len(l.alerts) {
		n = len(l.alerts)
	}
	out := make([]model.Alert, n)
	copy(out, l.alerts[len(l.alerts)-n:])
	return out
}

// Len returns the total number of alerts ever appended.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.alerts)
}

// CountBySeverity tallies the full log for the final report.
func (l *Log) CountBySeverity() map[model.Severity]int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[model.Severity]int, 3)
	for _, a := range l.alerts {
		out[a.Severity]++
	}
	return out
}

// All returns a copy of the full log in chronological order.
func (l *Log) All() []model.Alert {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Alert, len(l.alerts))
	copy(out, l.alerts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}
