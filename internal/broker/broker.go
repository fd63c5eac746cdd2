// Package broker fans session events out to subscribers on a single
// global channel.
//
// Delivery is fire-and-forget: a subscriber that cannot keep up has the
// frame dropped rather than blocking report ingestion. There is no
// per-session subscription; every subscriber sees every event.
package broker

import (
	"sync"

	"github.com/okian/vigil/pkg/metrics"
)

// Event types carried on the channel. Names mirror the wire protocol.
const (
	EventCandidateUpdate = "candidate_update"
	EventHighRiskAlert   = "high_risk_alert"
	EventSessionEnded    = "session_ended"
)

// Default broker configuration constants.
const defaultSubscriberBuffer = 64

// Event is one broadcast frame.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Broker is the in-process pub/sub hub.
type Broker struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	buffer int
	closed bool
}

// Option applies a configuration option to the Broker.
type Option func(*Broker)

// WithSubscriberBuffer sets the per-subscriber channel buffer.
func WithSubscriberBuffer(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// New creates a Broker.
func New(opts ...Option) *Broker {
	b := &Broker{
		subs:   make(map[chan Event]struct{}),
		buffer: defaultSubscriberBuffer,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a new subscriber and returns its event channel plus
// a cancel function. The channel is closed on cancel or broker close.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber without blocking. Full
// subscriber buffers drop the frame and count it.
func (b *Broker) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for ch := range b.subs {
		select {
		case ch <- e:
			metrics.RecordBroadcastEvent(e.Type)
		default:
			metrics.RecordBroadcastDropped(e.Type)
		}
	}
}

// Subscribers returns the current subscriber count.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close shuts the broker down and closes every subscriber channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		close(ch)
		delete(b.subs, ch)
	}
}
