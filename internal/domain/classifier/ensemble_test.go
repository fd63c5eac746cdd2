package classifier_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/vigil/internal/domain/classifier"
	"github.com/okian/vigil/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTrainValidation(t *testing.T) {
	Convey("Given invalid training inputs", t, func() {
		Convey("An empty set is rejected", func() {
			_, err := classifier.Train(nil, nil)
			So(err, ShouldWrap, classifier.ErrEmptyTrainingSet)
		})

		Convey("Mismatched label count is rejected", func() {
			_, err := classifier.Train([][]float64{{0.1, 0.2, 0.3}}, []float64{1, 0})
			So(err, ShouldWrap, classifier.ErrLabelMismatch)
		})

		Convey("Rows with the wrong width are rejected", func() {
			_, err := classifier.Train([][]float64{{0.1, 0.2}}, []float64{1})
			So(err, ShouldWrap, classifier.ErrBadFeatureWidth)
		})

		Convey("A single-class set is rejected", func() {
			x := [][]float64{{0.9, 0.8, 0.7}, {0.8, 0.9, 0.6}}
			_, err := classifier.Train(x, []float64{1, 1})
			So(err, ShouldWrap, classifier.ErrSingleClass)
		})
	})
}

func TestEnsembleOnSyntheticData(t *testing.T) {
	Convey("Given an ensemble trained on the synthetic bootstrap", t, func() {
		ens, err := classifier.Bootstrap(classifier.WithSampleCount(600), classifier.WithSyntheticSeed(42))
		So(err, ShouldBeNil)

		Convey("Then it separates the two classes", func() {
			assisted := ens.Predict(model.FeatureVector{ProcessScore: 0.9, AudioScore: 0.85, BehaviorScore: 0.8})
			genuine := ens.Predict(model.FeatureVector{ProcessScore: 0.1, AudioScore: 0.15, BehaviorScore: 0.2})

			So(assisted, ShouldBeGreaterThan, 0.7)
			So(genuine, ShouldBeLessThan, 0.3)
			So(assisted, ShouldBeGreaterThan, genuine)
		})

		Convey("And outputs are probabilities", func() {
			grid := []float64{0, 0.3, 0.6, 1}
			for _, p := range grid {
				for _, a := range grid {
					score := ens.Predict(model.FeatureVector{ProcessScore: p, AudioScore: a, BehaviorScore: 0.5})
					So(score, ShouldBeBetweenOrEqual, 0, 1)
				}
			}
		})
	})

	Convey("Given the same seed twice", t, func() {
		x1, y1 := classifier.SyntheticDataset(classifier.WithSyntheticSeed(7), classifier.WithSampleCount(100))
		x2, y2 := classifier.SyntheticDataset(classifier.WithSyntheticSeed(7), classifier.WithSampleCount(100))

		Convey("Then the datasets are identical", func() {
			So(len(x1), ShouldEqual, len(x2))
			So(y1, ShouldResemble, y2)
			So(x1[0], ShouldResemble, x2[0])
			So(x1[len(x1)-1], ShouldResemble, x2[len(x2)-1])
		})

		Convey("And the dataset is balanced", func() {
			var positives float64
			for _, label := range y1 {
				positives += label
			}
			So(positives, ShouldEqual, 50)
		})
	})
}

func TestPersistRoundTrip(t *testing.T) {
	Convey("Given a trained ensemble persisted to disk", t, func() {
		dir := t.TempDir()
		ens, err := classifier.Bootstrap(classifier.WithSampleCount(400))
		So(err, ShouldBeNil)
		So(classifier.Save(dir, ens), ShouldBeNil)

		Convey("When reloaded", func() {
			loaded, err := classifier.Load(dir)
			So(err, ShouldBeNil)

			Convey("Then predictions are identical for a fixed vector set", func() {
				vectors := []model.FeatureVector{
					{ProcessScore: 0.9, AudioScore: 0.2, BehaviorScore: 0.1},
					{ProcessScore: 0.1, AudioScore: 0.1, BehaviorScore: 0.1},
					{ProcessScore: 0.5, AudioScore: 0.7, BehaviorScore: 0.6},
				}
				for _, v := range vectors {
					So(loaded.Predict(v), ShouldEqual, ens.Predict(v))
				}
			})
		})

		Convey("When half of the artifact pair is missing", func() {
			So(os.Remove(filepath.Join(dir, classifier.ScalerArtifact)), ShouldBeNil)

			Convey("Then loading reports no model", func() {
				_, err := classifier.Load(dir)
				So(err, ShouldWrap, classifier.ErrNoModel)
			})

			Convey("And selection silently falls back to the rule-based variant", func() {
				c, trained := classifier.Select(dir)
				So(trained, ShouldBeFalse)
				So(c.Predict(model.FeatureVector{ProcessScore: 0.95}), ShouldBeGreaterThanOrEqualTo, 0.85)
			})
		})
	})

	Convey("Given an empty model directory", t, func() {
		c, trained := classifier.Select(t.TempDir())

		Convey("Then the rule-based fallback is selected", func() {
			So(trained, ShouldBeFalse)
			So(c, ShouldNotBeNil)
		})
	})
}
