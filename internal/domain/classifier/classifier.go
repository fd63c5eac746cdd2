// Package classifier maps a feature vector to a fused risk probability.
//
// Two interchangeable variants share the Predict contract: a deterministic
// rule-based fusion that is always available, and a trained ensemble loaded
// from paired on-disk artifacts. Selection happens once at construction;
// callers never branch on which variant is active.
package classifier

import (
	"math"

	"github.com/okian/vigil/internal/domain/model"
)

// Rule-based fusion constants. Weights reflect signal reliability: process
// detection is the strongest indicator, audio cadence next, behavior last.
const (
	defaultProcessWeight  = 0.4
	defaultAudioWeight    = 0.35
	defaultBehaviorWeight = 0.25

	maxScoreBoostTrigger = 0.9  // any single signal above this
	maxScoreBoostFloor   = 0.85 // floors the combined score
	highScoreThreshold   = 0.6  // signals above this count as "high"
	highScorePairBoost   = 0.15 // added when at least two signals are high
	highScorePairCount   = 2
)

// Classifier produces a risk probability in [0,1] from a feature vector.
type Classifier interface {
	Predict(fv model.FeatureVector) float64
}

// RuleBased is the default fusion variant. It needs no training data and
// is the fallback whenever no trained model pair can be loaded.
type RuleBased struct {
	processWeight  float64
	audioWeight    float64
	behaviorWeight float64
}

// RuleOption applies a configuration option to a RuleBased classifier.
type RuleOption func(*RuleBased)

// WithWeights overrides the per-signal fusion weights. Non-positive
// weights are ignored.
func WithWeights(process, audio, behavior float64) RuleOption {
	return func(r *RuleBased) {
		if process > 0 && audio > 0 && behavior > 0 {
			r.processWeight = process
			r.audioWeight = audio
			r.behaviorWeight = behavior
		}
	}
}

// NewRuleBased creates the rule-based variant with default weights.
func NewRuleBased(opts ...RuleOption) *RuleBased {
	r := &RuleBased{
		processWeight:  defaultProcessWeight,
		audioWeight:    defaultAudioWeight,
		behaviorWeight: defaultBehaviorWeight,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Predict fuses the three signals into a probability. The two boosts apply
// in fixed order and may both fire for the same input:
//  1. any signal above 0.9 floors the result at 0.85
//  2. two or more signals above 0.6 add 0.15, capped at 1.0
func (r *RuleBased) Predict(fv model.FeatureVector) float64 {
	p := model.ClampScore(fv.ProcessScore)
	a := model.ClampScore(fv.AudioScore)
	b := model.ClampScore(fv.BehaviorScore)

	combined := p*r.processWeight + a*r.audioWeight + b*r.behaviorWeight

	if math.Max(p, math.Max(a, b)) > maxScoreBoostTrigger {
		combined = math.Max(combined, maxScoreBoostFloor)
	}

	high := 0
	for _, s := range [...]float64{p, a, b} {
		if s > highScoreThreshold {
			high++
		}
	}
	if high >= highScorePairCount {
		combined = math.Min(1.0, combined+highScorePairBoost)
	}

	return model.ClampScore(combined)
}
