package classifier

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Synthetic bootstrap parameters. Each feature is drawn from a Beta
// distribution; the assisted class skews high, the genuine class low.
//
// This dataset exists only to exercise the trained path when no ground
// truth is available. It is synthetic-only and must never be presented as
// calibrated real-world accuracy.
const (
	defaultSyntheticSamples = 1000
	defaultSyntheticSeed    = 42
)

// Beta shape pairs per feature, assisted class then genuine class.
var (
	assistedShapes = [numFeatures][2]float64{{8, 2}, {7, 3}, {6, 4}}
	genuineShapes  = [numFeatures][2]float64{{2, 8}, {3, 7}, {4, 6}}
)

// SyntheticOption applies a configuration option to dataset generation.
type SyntheticOption func(*syntheticConfig)

type syntheticConfig struct {
	samples int
	seed    uint64
}

// WithSampleCount sets the total dataset size (split evenly per class).
func WithSampleCount(n int) SyntheticOption {
	return func(c *syntheticConfig) {
		if n > 1 {
			c.samples = n
		}
	}
}

// WithSyntheticSeed fixes the rng seed for reproducible datasets.
func WithSyntheticSeed(seed uint64) SyntheticOption {
	return func(c *syntheticConfig) {
		c.seed = seed
	}
}

// SyntheticDataset generates a balanced, shuffled dataset: the first half
// samples the assisted class (label 1), the second the genuine class
// (label 0).
func SyntheticDataset(opts ...SyntheticOption) (x [][]float64, y []float64) {
	cfg := syntheticConfig{samples: defaultSyntheticSamples, seed: defaultSyntheticSeed}
	for _, opt := range opts {
		opt(&cfg)
	}

	src := rand.NewSource(cfg.seed)
	assisted := betaSamplers(assistedShapes, src)
	genuine := betaSamplers(genuineShapes, src)

	nAssisted := cfg.samples / 2
	x = make([][]float64, 0, cfg.samples)
	y = make([]float64, 0, cfg.samples)

	for i := 0; i < nAssisted; i++ {
		x = append(x, sampleRow(assisted))
		y = append(y, 1)
	}
	for i := nAssisted; i < cfg.samples; i++ {
		x = append(x, sampleRow(genuine))
		y = append(y, 0)
	}

	// Shuffle rows and labels together.
	rng := rand.New(src)
	rng.Shuffle(len(x), func(i, j int) {
		x[i], x[j] = x[j], x[i]
		y[i], y[j] = y[j], y[i]
	})

	return x, y
}

// Bootstrap trains an ensemble on a freshly generated synthetic dataset.
func Bootstrap(opts ...SyntheticOption) (*Ensemble, error) {
	x, y := SyntheticDataset(opts...)
	return Train(x, y)
}

func betaSamplers(shapes [numFeatures][2]float64, src rand.Source) [numFeatures]distuv.Beta {
	var out [numFeatures]distuv.Beta
	for j, s := range shapes {
		out[j] = distuv.Beta{Alpha: s[0], Beta: s[1], Src: src}
	}
	return out
}

func sampleRow(dists [numFeatures]distuv.Beta) []float64 {
	row := make([]float64, numFeatures)
	for j := range dists {
		row[j] = dists[j].Rand()
	}
	return row
}
