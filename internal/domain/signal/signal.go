// Package signal defines the contracts for the suspicion-signal
// collaborators and the aggregator that assembles their scores into a
// feature vector.
//
// Raw acquisition (process enumeration, audio capture, input hooks) lives
// behind these interfaces. Each collaborator owns its own score: it is the
// only writer, and the value must be safe for concurrent readers.
package signal

// AudioFeatures is the per-cycle analysis result of the audio collaborator.
type AudioFeatures struct {
	PausePatternScore float64 `json:"pause_pattern_score"`
	FluencyScore      float64 `json:"fluency_score"`
}

// ActivitySummary is the per-cycle snapshot from the behavior collaborator.
type ActivitySummary struct {
	ClipboardAIScore     float64 `json:"clipboard_ai_score"`
	RapidTypingDetected  bool    `json:"rapid_typing_detected"`
	MeanInterKeyMillis   float64 `json:"mean_inter_key_ms"`
	KeystrokeSampleCount int     `json:"keystroke_sample_count"`
}

// ProcessSignal reports suspicion derived from running processes.
type ProcessSignal interface {
	// SuspicionScore returns the current score in [0,1].
	SuspicionScore() float64

	// Matches returns the process names that matched the suspicious
	// keyword list on the most recent scan. Empty when nothing matched.
	Matches() []string
}

// AudioSignal reports suspicion derived from speech cadence.
type AudioSignal interface {
	// Analyze returns the latest audio features. The second return is
	// false when no capture backend is available or no speech was heard.
	Analyze() (AudioFeatures, bool)

	// SuspicionScore returns the current score in [0,1].
	SuspicionScore() float64
}

// BehaviorSignal reports suspicion derived from keyboard, mouse, and
// clipboard activity.
type BehaviorSignal interface {
	// ActivitySummary returns the latest behavioral snapshot.
	ActivitySummary() ActivitySummary

	// SuspicionScore returns the current score in [0,1].
	SuspicionScore() float64
}
