package config_test

import (
	"context"
	"testing"

	"github.com/okian/vigil/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.StaleAfterSeconds, convey.ShouldEqual, 300)
			convey.So(cfg.SubscriberBuffer, convey.ShouldEqual, 64)
			convey.So(cfg.ModelDir, convey.ShouldEqual, "models")
			convey.So(cfg.ServerURL, convey.ShouldEqual, "http://localhost:8080")
			convey.So(cfg.ProcessIntervalSeconds, convey.ShouldEqual, 5)
			convey.So(cfg.AudioIntervalSeconds, convey.ShouldEqual, 2)
			convey.So(cfg.BehaviorIntervalSeconds, convey.ShouldEqual, 1)
			convey.So(cfg.ReportIntervalSeconds, convey.ShouldEqual, 5)
			convey.So(cfg.ReportTimeoutSeconds, convey.ShouldEqual, 5)
		})
	})
}
