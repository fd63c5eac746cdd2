package signal

import (
	"context"
	"time"

	"github.com/okian/vigil/internal/domain/model"
)

// Aggregator polls the three collaborators and assembles a FeatureVector.
// It performs no transformation beyond clamping and timestamping.
//
// A nil collaborator degrades its signal to 0.0. This is a behavioral
// floor, not a failure: an endpoint with no microphone simply never
// raises its audio score.
type Aggregator struct {
	process  ProcessSignal
	audio    AudioSignal
	behavior BehaviorSignal
	now      func() time.Time
}

// AggregatorOption applies a configuration option to the Aggregator.
type AggregatorOption func(*Aggregator)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAggregator creates an Aggregator over the given collaborators. Any of
// them may be nil.
func NewAggregator(process ProcessSignal, audio AudioSignal, behavior BehaviorSignal, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		process:  process,
		audio:    audio,
		behavior: behavior,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Collect reads the current suspicion scores and returns the assembled
// vector. It never fails; missing collaborators contribute 0.0.
func (a *Aggregator) Collect(ctx context.Context) model.FeatureVector {
	fv := model.FeatureVector{CapturedAt: a.now()}
	if a.process != nil {
		fv.ProcessScore = a.process.SuspicionScore()
	}
	if a.audio != nil {
		fv.AudioScore = a.audio.SuspicionScore()
	}
	if a.behavior != nil {
		fv.BehaviorScore = a.behavior.SuspicionScore()
	}
	fv.Clamp()
	return fv
}
