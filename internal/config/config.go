// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration for both the supervising server and
// the monitored-endpoint runtime. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StaleAfterSeconds is how long an active session may stay silent
	// before queries report it as disconnected.
	StaleAfterSeconds int `koanf:"stale_after_seconds"`

	// SubscriberBuffer bounds each push subscriber's event channel.
	SubscriberBuffer int `koanf:"subscriber_buffer"`

	// ModelDir is where trained classifier artifacts are stored.
	ModelDir string `koanf:"model_dir"`

	// ServerURL is the supervising server base URL used by the endpoint
	// runtime, e.g. "http://localhost:8080".
	ServerURL string `koanf:"server_url"`

	// Signal polling cadences for the endpoint runtime, in seconds.
	ProcessIntervalSeconds  int `koanf:"process_interval_seconds"`
	AudioIntervalSeconds    int `koanf:"audio_interval_seconds"`
	BehaviorIntervalSeconds int `koanf:"behavior_interval_seconds"`
	ReportIntervalSeconds   int `koanf:"report_interval_seconds"`

	// ReportTimeoutSeconds bounds each report transmission.
	ReportTimeoutSeconds int `koanf:"report_timeout_seconds"`
}

// New creates a Config using defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and currently
// unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":8080",
		StaleAfterSeconds:       300,
		SubscriberBuffer:        64,
		ModelDir:                "models",
		ServerURL:               "http://localhost:8080",
		ProcessIntervalSeconds:  5,
		AudioIntervalSeconds:    2,
		BehaviorIntervalSeconds: 1,
		ReportIntervalSeconds:   5,
		ReportTimeoutSeconds:    5,
	}
}
