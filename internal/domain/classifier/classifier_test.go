package classifier_test

import (
	"testing"

	"github.com/okian/vigil/internal/domain/classifier"
	"github.com/okian/vigil/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func fv(p, a, b float64) model.FeatureVector {
	return model.FeatureVector{ProcessScore: p, AudioScore: a, BehaviorScore: b}
}

func TestRuleBasedPredict(t *testing.T) {
	Convey("Given the rule-based classifier", t, func() {
		c := classifier.NewRuleBased()

		Convey("When all signals are low", func() {
			score := c.Predict(fv(0.1, 0.1, 0.1))

			Convey("Then the result is the plain weighted sum", func() {
				So(score, ShouldAlmostEqual, 0.1, 1e-9)
			})
		})

		Convey("When one signal is very high with the rest silent", func() {
			score := c.Predict(fv(0.95, 0.0, 0.0))

			Convey("Then the max-score boost floors the result at 0.85", func() {
				// Weighted sum alone would be 0.38.
				So(score, ShouldBeGreaterThanOrEqualTo, 0.85)
			})
		})

		Convey("When two signals are moderately high", func() {
			score := c.Predict(fv(0.7, 0.7, 0.0))

			Convey("Then the pair boost adds 0.15 on top of the weighted sum", func() {
				want := 0.7*0.4 + 0.7*0.35 + 0.15
				So(score, ShouldAlmostEqual, want, 1e-9)
			})
		})

		Convey("When both boosts apply to the same input", func() {
			score := c.Predict(fv(0.95, 0.95, 0.0))

			Convey("Then the floor applies first and the pair boost stacks, capped at 1", func() {
				// Weighted sum 0.7125 -> floored to 0.85 -> +0.15 = 1.0.
				So(score, ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		Convey("When sweeping the input space", func() {
			values := []float64{0, 0.25, 0.5, 0.61, 0.75, 0.91, 1}

			Convey("Then every output stays inside [0,1]", func() {
				for _, p := range values {
					for _, a := range values {
						for _, b := range values {
							score := c.Predict(fv(p, a, b))
							So(score, ShouldBeBetweenOrEqual, 0, 1)
						}
					}
				}
			})
		})

		Convey("When inputs arrive outside [0,1]", func() {
			score := c.Predict(fv(5.0, -2.0, 0.5))

			Convey("Then they are clamped before fusion", func() {
				So(score, ShouldBeBetweenOrEqual, 0, 1)
			})
		})
	})

	Convey("Given custom fusion weights", t, func() {
		c := classifier.NewRuleBased(classifier.WithWeights(0.5, 0.3, 0.2))

		Convey("Then the weighted sum honors them", func() {
			So(c.Predict(fv(0.4, 0.0, 0.0)), ShouldAlmostEqual, 0.2, 1e-9)
		})
	})
}
