package signal_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/vigil/internal/domain/signal"
	. "github.com/smartystreets/goconvey/convey"
)

// fixedProcess is a stub collaborator with a constant score.
type fixedProcess struct {
	score   float64
	matches []string
}

func (f *fixedProcess) SuspicionScore() float64 { return f.score }
func (f *fixedProcess) Matches() []string       { return f.matches }

func TestAggregatorCollect(t *testing.T) {
	Convey("Given an aggregator over simulated collaborators", t, func() {
		src := signal.NewSimulatedSource(signal.WithSeed(7), signal.WithProfile(signal.ProfileAssisted))
		now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		agg := signal.NewAggregator(src, src.Audio(), src.Behavior(),
			signal.WithClock(func() time.Time { return now }))

		Convey("When collecting", func() {
			fv := agg.Collect(context.Background())

			Convey("Then scores are clamped and the vector is timestamped", func() {
				So(fv.ProcessScore, ShouldBeBetweenOrEqual, 0, 1)
				So(fv.AudioScore, ShouldBeBetweenOrEqual, 0, 1)
				So(fv.BehaviorScore, ShouldBeBetweenOrEqual, 0, 1)
				So(fv.CapturedAt, ShouldEqual, now)
			})

			Convey("And the assisted profile produces elevated scores", func() {
				So(fv.ProcessScore, ShouldBeGreaterThan, 0.5)
				So(fv.AudioScore, ShouldBeGreaterThan, 0.5)
			})
		})
	})

	Convey("Given an aggregator with a missing collaborator", t, func() {
		agg := signal.NewAggregator(&fixedProcess{score: 0.9}, nil, nil)

		Convey("When collecting", func() {
			fv := agg.Collect(context.Background())

			Convey("Then the missing signals degrade to zero instead of failing", func() {
				So(fv.ProcessScore, ShouldEqual, 0.9)
				So(fv.AudioScore, ShouldEqual, 0.0)
				So(fv.BehaviorScore, ShouldEqual, 0.0)
			})
		})
	})

	Convey("Given a collaborator reporting an out-of-range score", t, func() {
		agg := signal.NewAggregator(&fixedProcess{score: 1.6}, nil, nil)

		Convey("Then the aggregator clamps it at the boundary", func() {
			fv := agg.Collect(context.Background())
			So(fv.ProcessScore, ShouldEqual, 1.0)
		})
	})
}

func TestSimulatedSourceDeterminism(t *testing.T) {
	Convey("Given two simulated sources with the same seed and profile", t, func() {
		a := signal.NewSimulatedSource(signal.WithSeed(99), signal.WithProfile(signal.ProfileGenuine))
		b := signal.NewSimulatedSource(signal.WithSeed(99), signal.WithProfile(signal.ProfileGenuine))

		Convey("Then their readings agree", func() {
			So(a.SuspicionScore(), ShouldEqual, b.SuspicionScore())
			So(a.Audio().SuspicionScore(), ShouldEqual, b.Audio().SuspicionScore())
			So(a.Behavior().SuspicionScore(), ShouldEqual, b.Behavior().SuspicionScore())
		})
	})

	Convey("Given a genuine-profile source", t, func() {
		src := signal.NewSimulatedSource(signal.WithSeed(3))

		Convey("Then scores stay low and no process matches are produced", func() {
			So(src.SuspicionScore(), ShouldBeLessThan, 0.3)
			So(src.Matches(), ShouldBeEmpty)
			summary := src.Behavior().ActivitySummary()
			So(summary.RapidTypingDetected, ShouldBeFalse)
			So(summary.ClipboardAIScore, ShouldBeLessThan, 0.7)
		})
	})
}
