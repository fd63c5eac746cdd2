// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/vigil/internal/broker"
	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/internal/registry"
	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

// HighRiskThreshold is the fused score above which a report triggers a
// high-risk push event in addition to the regular update.
const HighRiskThreshold = 0.75

// Default service configuration constants.
const (
	defaultStaleAfter       = 5 * time.Minute
	defaultSubscriberBuffer = 64
)

// Service implements the API dependencies for the detection system.
type Service struct {
	mu sync.RWMutex

	// Core components
	sessions *registry.Registry
	events   *broker.Broker

	// Configuration
	staleAfter       time.Duration
	subscriberBuffer int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStaleAfter sets the window after which a silent session is reported
// as disconnected.
func WithStaleAfter(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.staleAfter = d
		}
	}
}

// WithSubscriberBuffer sets the per-subscriber push channel buffer.
func WithSubscriberBuffer(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.subscriberBuffer = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		staleAfter:       defaultStaleAfter,
		subscriberBuffer: defaultSubscriberBuffer,
		logger:           nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting detection service...")

	s.sessions = registry.New(registry.WithStaleAfter(s.staleAfter))
	s.events = broker.New(broker.WithSubscriberBuffer(s.subscriberBuffer))

	s.started = true
	s.logger.Info(ctx, "detection service started",
		logger.Any("stale_after", s.staleAfter),
		logger.Int("subscriber_buffer", s.subscriberBuffer),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping detection service...")

	if s.events != nil {
		s.events.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "detection service stopped")
}

// CreateSession registers a new monitoring session.
func (s *Service) CreateSession(ctx context.Context, candidateName string) (model.SessionView, string, error) {
	view, token, err := s.sessions.Create(ctx, candidateName)
	if err != nil {
		return model.SessionView{}, "", err
	}
	metrics.RecordSessionCreated()
	s.refreshStatusGauges(ctx)
	return view, token, nil
}

// IngestReport authenticates and stores one detection report, then pushes
// the update to subscribers. Reports on high-risk scores emit a second
// event so dashboards can escalate without diffing snapshots.
func (s *Service) IngestReport(ctx context.Context, report model.DetectionReport) (model.SessionView, error) {
	view, err := s.sessions.Ingest(ctx, report)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrSessionEnded):
			metrics.RecordReportRejected("session_ended")
		default:
			metrics.RecordReportRejected("unauthorized")
		}
		return model.SessionView{}, err
	}

	metrics.RecordReportIngested()
	s.events.Publish(broker.Event{Type: broker.EventCandidateUpdate, Payload: view})

	if view.DetectionScore > HighRiskThreshold {
		metrics.RecordHighRiskReport()
		s.logger.Warn(ctx, "high risk report",
			logger.String("session_id", view.SessionID),
			logger.String("candidate_name", view.CandidateName),
			logger.Float64("detection_score", view.DetectionScore),
		)
		s.events.Publish(broker.Event{Type: broker.EventHighRiskAlert, Payload: view})
	}

	s.refreshStatusGauges(ctx)
	return view, nil
}

// Sessions returns every session keyed by id.
func (s *Service) Sessions(ctx context.Context) map[string]model.SessionView {
	return s.sessions.List(ctx)
}

// Session returns one session by id.
func (s *Service) Session(ctx context.Context, id string) (model.SessionView, error) {
	return s.sessions.Get(ctx, id)
}

// EndSession finalizes a session, pushes the session_ended event and
// returns the summary.
func (s *Service) EndSession(ctx context.Context, id string) (model.Summary, error) {
	summary, err := s.sessions.End(ctx, id)
	if err != nil {
		return model.Summary{}, err
	}

	metrics.RecordSessionEnded()
	s.events.Publish(broker.Event{Type: broker.EventSessionEnded, Payload: summary})
	s.refreshStatusGauges(ctx)

	s.logger.Info(ctx, "session ended",
		logger.String("session_id", summary.SessionID),
		logger.Float64("final_score", summary.FinalScore),
		logger.Int("total_alerts", summary.TotalAlerts),
	)
	return summary, nil
}

// Subscribe attaches a push-channel subscriber.
func (s *Service) Subscribe() (<-chan broker.Event, func()) {
	return s.events.Subscribe()
}

// refreshStatusGauges recomputes the per-status session gauges from the
// registry's read-time classification.
func (s *Service) refreshStatusGauges(ctx context.Context) {
	counts := map[model.SessionStatus]int{
		model.StatusWaiting:      0,
		model.StatusActive:       0,
		model.StatusEnded:        0,
		model.StatusDisconnected: 0,
	}
	for _, v := range s.sessions.List(ctx) {
		counts[v.Status]++
	}
	for status, n := range counts {
		metrics.UpdateSessionsByStatus(string(status), n)
	}
}
