package model_test

import (
	"testing"
	"time"

	"github.com/okian/vigil/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFeatureVectorClamp(t *testing.T) {
	Convey("Given feature vectors with out-of-range scores", t, func() {
		fv := model.FeatureVector{
			ProcessScore:  1.7,
			AudioScore:    -0.3,
			BehaviorScore: 0.5,
			CapturedAt:    time.Now(),
		}

		Convey("When clamped", func() {
			fv.Clamp()

			Convey("Then every score is inside [0,1]", func() {
				So(fv.ProcessScore, ShouldEqual, 1.0)
				So(fv.AudioScore, ShouldEqual, 0.0)
				So(fv.BehaviorScore, ShouldEqual, 0.5)
			})
		})
	})
}

func TestDetectionReportValidate(t *testing.T) {
	Convey("Given a detection report", t, func() {
		report := model.DetectionReport{
			SessionID:      "sess-1",
			Token:          "tok-1",
			DetectionScore: 0.4,
			Timestamp:      time.Now(),
		}

		Convey("When required fields are present", func() {
			So(report.Validate(), ShouldBeNil)
		})

		Convey("When session_id is missing", func() {
			report.SessionID = "  "
			err := report.Validate()
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "session_id")
		})

		Convey("When token is missing", func() {
			report.Token = ""
			So(report.Validate(), ShouldNotBeNil)
		})

		Convey("When scores are out of range they are clamped, not rejected", func() {
			report.DetectionScore = 3.2
			report.AudioScore = -1
			So(report.Validate(), ShouldBeNil)
			So(report.DetectionScore, ShouldEqual, 1.0)
			So(report.AudioScore, ShouldEqual, 0.0)
		})

		Convey("When more than 10 alerts are attached only the newest 10 survive", func() {
			for i := 0; i < 14; i++ {
				report.Alerts = append(report.Alerts, model.Alert{
					Type:      model.AlertProcessDetection,
					Severity:  model.SeverityHigh,
					Timestamp: time.Now().Add(time.Duration(i) * time.Second),
				})
			}
			newest := report.Alerts[len(report.Alerts)-1]
			So(report.Validate(), ShouldBeNil)
			So(len(report.Alerts), ShouldEqual, model.MaxReportAlerts)
			So(report.Alerts[len(report.Alerts)-1].Timestamp, ShouldEqual, newest.Timestamp)
		})
	})
}
