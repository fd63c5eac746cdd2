// Package registry owns the server-side session state: creation,
// authentication, report ingestion, and lifecycle queries.
//
// The raw session map is never exposed; all access goes through the
// Registry methods, which guard the map with a RWMutex. Staleness is a
// read-time classification: a session that has not reported within the
// staleness window is *reported* as disconnected, but nothing is mutated,
// and a late report moves it straight back to active.
package registry

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/vigil/internal/domain/model"
)

// Default registry configuration constants.
const (
	defaultStaleAfter = 5 * time.Minute
	tokenBytes        = 32
)

// session is the internal record. The token never leaves the registry
// after creation and is immutable.
type session struct {
	token         string
	candidateName string
	status        model.SessionStatus
	createdAt     time.Time
	lastUpdate    time.Time

	detectionScore      float64
	processScore        float64
	audioScore          float64
	behaviorScore       float64
	alerts              []model.Alert
	suspiciousProcesses []string
}

// Registry tracks all monitoring sessions.
type Registry struct {
	mu         sync.RWMutex
	sessions   map[string]*session
	staleAfter time.Duration
	now        func() time.Time
}

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithStaleAfter overrides the staleness window (default 5 minutes).
func WithStaleAfter(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.staleAfter = d
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		sessions:   make(map[string]*session),
		staleAfter: defaultStaleAfter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create registers a new session in the waiting state and returns its
// view plus the one-time token. The id/token pair is generated together
// from a large random space and never reused.
func (r *Registry) Create(ctx context.Context, candidateName string) (model.SessionView, string, error) {
	token, err := newToken()
	if err != nil {
		return model.SessionView{}, "", err
	}
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	s := &session{
		token:         token,
		candidateName: candidateName,
		status:        model.StatusWaiting,
		createdAt:     now,
		lastUpdate:    now,
	}
	r.sessions[id] = s
	return r.view(id, s), token, nil
}

// Authenticate reports whether the id/token pair matches a known session.
// Unknown id and wrong token are indistinguishable to the caller; the
// compare is constant-time.
func (r *Registry) Authenticate(ctx context.Context, id, token string) bool {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		// Burn a compare anyway so unknown ids cost the same as bad tokens.
		subtle.ConstantTimeCompare([]byte(token), []byte(token))
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.token), []byte(token)) == 1
}

// Ingest overwrites the session's last-known state with the report
// snapshot after authenticating it. The waiting -> active transition is
// idempotent: once active a session never reverts to waiting. The newest
// *received* report wins regardless of its embedded timestamp.
func (r *Registry) Ingest(ctx context.Context, report model.DetectionReport) (model.SessionView, error) {
	if !r.Authenticate(ctx, report.SessionID, report.Token) {
		return model.SessionView{}, ErrUnauthorized
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[report.SessionID]
	if !ok {
		return model.SessionView{}, ErrUnauthorized
	}
	if s.status == model.StatusEnded {
		return model.SessionView{}, ErrSessionEnded
	}

	s.status = model.StatusActive
	s.lastUpdate = r.now()
	s.detectionScore = report.DetectionScore
	s.processScore = report.ProcessScore
	s.audioScore = report.AudioScore
	s.behaviorScore = report.BehaviorScore
	s.alerts = append([]model.Alert(nil), report.Alerts...)
	s.suspiciousProcesses = append([]string(nil), report.SuspiciousProcesses...)

	return r.view(report.SessionID, s), nil
}

// Get returns the session view or ErrNotFound. Staleness classification
// applies.
func (r *Registry) Get(ctx context.Context, id string) (model.SessionView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return model.SessionView{}, ErrNotFound
	}
	return r.view(id, s), nil
}

// List returns every session keyed by id, with staleness applied at read
// time.
func (r *Registry) List(ctx context.Context) map[string]model.SessionView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]model.SessionView, len(r.sessions))
	for id, s := range r.sessions {
		out[id] = r.view(id, s)
	}
	return out
}

// End explicitly transitions the session to ended and returns the final
// summary.
func (r *Registry) End(ctx context.Context, id string) (model.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return model.Summary{}, ErrNotFound
	}
	s.status = model.StatusEnded
	return model.Summary{
		SessionID:     id,
		CandidateName: s.candidateName,
		FinalScore:    s.detectionScore,
		TotalAlerts:   len(s.alerts),
		EndedAt:       r.now(),
	}, nil
}

// Count returns the number of tracked sessions.
func (r *Registry) Count(ctx context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// view builds the read shape, applying the read-time staleness rule.
// Callers must hold at least the read lock.
func (r *Registry) view(id string, s *session) model.SessionView {
	status := s.status
	if status == model.StatusActive && r.now().Sub(s.lastUpdate) > r.staleAfter {
		status = model.StatusDisconnected
	}
	return model.SessionView{
		SessionID:           id,
		CandidateName:       s.candidateName,
		Status:              status,
		DetectionScore:      s.detectionScore,
		ProcessScore:        s.processScore,
		AudioScore:          s.audioScore,
		BehaviorScore:       s.behaviorScore,
		Alerts:              append([]model.Alert(nil), s.alerts...),
		SuspiciousProcesses: append([]string(nil), s.suspiciousProcesses...),
		CreatedAt:           s.createdAt,
		LastUpdate:          s.lastUpdate,
	}
}

// newToken draws a 32-byte hex token from crypto/rand.
func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
