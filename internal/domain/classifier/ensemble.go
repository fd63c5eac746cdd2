package classifier

import (
	"errors"
	"math"
	"sort"

	"github.com/okian/vigil/internal/domain/model"
)

// Training hyperparameters for the boosted ensemble. Chosen to match the
// offline training contract: 3-feature input, binary label, 100 boosting
// rounds with a 0.1 learning rate over depth-1 trees.
const (
	numFeatures         = 3
	defaultEstimators   = 100
	defaultLearningRate = 0.1
)

// Sentinel kinds for training errors.
var (
	ErrEmptyTrainingSet = errors.New("empty training set")
	ErrBadFeatureWidth  = errors.New("training rows must have exactly 3 features")
	ErrLabelMismatch    = errors.New("label count must match row count")
	ErrSingleClass      = errors.New("training set must contain both classes")
)

// Scaler standardizes features to zero mean and unit variance. It is
// fitted on the same distribution as the model and persisted alongside it;
// the pair must be loaded together or not at all.
type Scaler struct {
	Mean [numFeatures]float64
	Std  [numFeatures]float64
}

// Fit computes per-feature mean and standard deviation.
func (s *Scaler) Fit(rows [][]float64) {
	n := float64(len(rows))
	for j := 0; j < numFeatures; j++ {
		var sum float64
		for _, row := range rows {
			sum += row[j]
		}
		s.Mean[j] = sum / n

		var sq float64
		for _, row := range rows {
			d := row[j] - s.Mean[j]
			sq += d * d
		}
		s.Std[j] = math.Sqrt(sq / n)
		if s.Std[j] == 0 {
			s.Std[j] = 1 // constant feature; avoid division by zero
		}
	}
}

// Transform returns the standardized copy of one row.
func (s *Scaler) Transform(row []float64) [numFeatures]float64 {
	var out [numFeatures]float64
	for j := 0; j < numFeatures; j++ {
		out[j] = (row[j] - s.Mean[j]) / s.Std[j]
	}
	return out
}

// Stump is a depth-1 regression tree: one feature, one threshold, two leaf
// values. Exported fields so gob can persist the model artifact.
type Stump struct {
	Feature   int
	Threshold float64
	Left      float64 // leaf for feature value <= threshold
	Right     float64 // leaf for feature value > threshold
}

func (t Stump) predict(x [numFeatures]float64) float64 {
	if x[t.Feature] <= t.Threshold {
		return t.Left
	}
	return t.Right
}

// Ensemble is the trained variant: a gradient-boosted stump ensemble over
// the standardized 3-feature input, returning the positive-class
// probability through the logistic link.
type Ensemble struct {
	Bias         float64 // initial log-odds of the positive class
	LearningRate float64
	Stumps       []Stump

	scaler *Scaler
}

// EnsembleOption applies a configuration option to training.
type EnsembleOption func(*trainConfig)

type trainConfig struct {
	estimators   int
	learningRate float64
}

// WithEstimators sets the number of boosting rounds.
func WithEstimators(n int) EnsembleOption {
	return func(c *trainConfig) {
		if n > 0 {
			c.estimators = n
		}
	}
}

// WithLearningRate sets the shrinkage applied to each round.
func WithLearningRate(lr float64) EnsembleOption {
	return func(c *trainConfig) {
		if lr > 0 {
			c.learningRate = lr
		}
	}
}

// Train fits a scaler and a boosted ensemble on rows X against binary
// labels y (0 or 1). It returns the fitted pair; the caller decides
// whether to persist them.
func Train(x [][]float64, y []float64, opts ...EnsembleOption) (*Ensemble, error) {
	cfg := trainConfig{estimators: defaultEstimators, learningRate: defaultLearningRate}
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(x) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if len(x) != len(y) {
		return nil, ErrLabelMismatch
	}
	for _, row := range x {
		if len(row) != numFeatures {
			return nil, ErrBadFeatureWidth
		}
	}

	var positives float64
	for _, label := range y {
		positives += label
	}
	if positives == 0 || positives == float64(len(y)) {
		return nil, ErrSingleClass
	}

	scaler := &Scaler{}
	scaler.Fit(x)
	scaled := make([][numFeatures]float64, len(x))
	for i, row := range x {
		scaled[i] = scaler.Transform(row)
	}

	prior := positives / float64(len(y))
	ens := &Ensemble{
		Bias:         math.Log(prior / (1 - prior)),
		LearningRate: cfg.learningRate,
		Stumps:       make([]Stump, 0, cfg.estimators),
		scaler:       scaler,
	}

	// Boost with logistic loss: each round fits a least-squares stump to
	// the current residuals y - sigmoid(F).
	raw := make([]float64, len(y))
	for i := range raw {
		raw[i] = ens.Bias
	}
	residuals := make([]float64, len(y))
	for round := 0; round < cfg.estimators; round++ {
		for i := range y {
			residuals[i] = y[i] - sigmoid(raw[i])
		}
		st := fitStump(scaled, residuals)
		ens.Stumps = append(ens.Stumps, st)
		for i := range raw {
			raw[i] += cfg.learningRate * st.predict(scaled[i])
		}
	}

	return ens, nil
}

// Scaler returns the paired fitted scaler.
func (e *Ensemble) Scaler() *Scaler { return e.scaler }

// Predict implements Classifier: scale, sum the ensemble, apply the
// logistic link.
func (e *Ensemble) Predict(fv model.FeatureVector) float64 {
	x := e.scaler.Transform([]float64{
		model.ClampScore(fv.ProcessScore),
		model.ClampScore(fv.AudioScore),
		model.ClampScore(fv.BehaviorScore),
	})
	raw := e.Bias
	for _, st := range e.Stumps {
		raw += e.LearningRate * st.predict(x)
	}
	return sigmoid(raw)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// fitStump finds the single split minimizing squared error against the
// targets, scanning midpoints between consecutive sorted values per
// feature. Leaf values are the mean target on each side.
func fitStump(x [][numFeatures]float64, target []float64) Stump {
	n := len(x)

	var total float64
	for _, t := range target {
		total += t
	}
	mean := total / float64(n)

	best := Stump{Feature: 0, Threshold: 0, Left: mean, Right: mean}
	bestSSE := math.Inf(1)

	idx := make([]int, n)
	for j := 0; j < numFeatures; j++ {
		for i := range idx {
			idx[i] = i
		}
		sort.Slice(idx, func(a, b int) bool { return x[idx[a]][j] < x[idx[b]][j] })

		// Prefix sums over the sorted order let each candidate split be
		// evaluated in O(1).
		var leftSum, leftSq float64
		rightSum, rightSq := total, 0.0
		for _, t := range target {
			rightSq += t * t
		}

		for k := 0; k < n-1; k++ {
			t := target[idx[k]]
			leftSum += t
			leftSq += t * t
			rightSum -= t
			rightSq -= t * t

			if x[idx[k]][j] == x[idx[k+1]][j] {
				continue // not a valid split point
			}

			nl, nr := float64(k+1), float64(n-k-1)
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if sse < bestSSE {
				bestSSE = sse
				best = Stump{
					Feature:   j,
					Threshold: (x[idx[k]][j] + x[idx[k+1]][j]) / 2,
					Left:      leftSum / nl,
					Right:     rightSum / nr,
				}
			}
		}
	}

	return best
}
