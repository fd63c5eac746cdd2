package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/okian/vigil/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			// Clear any existing environment variables
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StaleAfterSeconds, convey.ShouldEqual, 300)
				convey.So(cfg.SubscriberBuffer, convey.ShouldEqual, 64)
				convey.So(cfg.ReportIntervalSeconds, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("VIGIL_ADDR", ":9090")
			_ = os.Setenv("VIGIL_STALE_AFTER_SECONDS", "120")
			_ = os.Setenv("VIGIL_SUBSCRIBER_BUFFER", "128")
			_ = os.Setenv("VIGIL_REPORT_INTERVAL_SECONDS", "10")
			_ = os.Setenv("VIGIL_MODEL_DIR", "/var/lib/vigil/models")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.StaleAfterSeconds, convey.ShouldEqual, 120)
				convey.So(cfg.SubscriberBuffer, convey.ShouldEqual, 128)
				convey.So(cfg.ReportIntervalSeconds, convey.ShouldEqual, 10)
				convey.So(cfg.ModelDir, convey.ShouldEqual, "/var/lib/vigil/models")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":7070"
stale_after_seconds: 60
subscriber_buffer: 32
server_url: "http://supervisor:7070"
report_timeout_seconds: 3
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("VIGIL_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.StaleAfterSeconds, convey.ShouldEqual, 60)
				convey.So(cfg.SubscriberBuffer, convey.ShouldEqual, 32)
				convey.So(cfg.ServerURL, convey.ShouldEqual, "http://supervisor:7070")
				convey.So(cfg.ReportTimeoutSeconds, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":7070"
stale_after_seconds: 60
subscriber_buffer: 32
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("VIGIL_CONFIG", tmpFile)
			_ = os.Setenv("VIGIL_ADDR", ":9090") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")         // Overridden by env
				convey.So(cfg.StaleAfterSeconds, convey.ShouldEqual, 60) // From file
				convey.So(cfg.SubscriberBuffer, convey.ShouldEqual, 32)  // From file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			invalidYaml := `invalid: yaml: content: [`
			tmpFile := createTempConfigFile(invalidYaml)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("VIGIL_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("VIGIL_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("VIGIL_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a zero staleness window", func() {
			_ = os.Setenv("VIGIL_STALE_AFTER_SECONDS", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a negative poll interval", func() {
			_ = os.Setenv("VIGIL_AUDIO_INTERVAL_SECONDS", "-2")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("VIGIL_SUBSCRIBER_BUFFER", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with partial YAML file", func() {
			yamlContent := `
addr: ":7070"
report_interval_seconds: 2
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("VIGIL_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should merge with defaults for missing fields", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")            // From file
				convey.So(cfg.ReportIntervalSeconds, convey.ShouldEqual, 2) // From file
				convey.So(cfg.StaleAfterSeconds, convey.ShouldEqual, 300)   // From defaults
				convey.So(cfg.SubscriberBuffer, convey.ShouldEqual, 64)     // From defaults
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"VIGIL_CONFIG",
		"VIGIL_ADDR",
		"VIGIL_LOG_LEVEL",
		"VIGIL_STALE_AFTER_SECONDS",
		"VIGIL_SUBSCRIBER_BUFFER",
		"VIGIL_MODEL_DIR",
		"VIGIL_SERVER_URL",
		"VIGIL_PROCESS_INTERVAL_SECONDS",
		"VIGIL_AUDIO_INTERVAL_SECONDS",
		"VIGIL_BEHAVIOR_INTERVAL_SECONDS",
		"VIGIL_REPORT_INTERVAL_SECONDS",
		"VIGIL_REPORT_TIMEOUT_SECONDS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "vigil-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
