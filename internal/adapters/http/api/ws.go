package api

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/vigil/internal/broker"
	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

// Websocket timing constants.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// PushHandler upgrades dashboard connections and relays broker events to
// them. Each connection gets its own broker subscription; a connection that
// cannot keep up has frames dropped by the broker, never blocking ingestion.
type PushHandler struct {
	deps      Dependencies
	upgrader  websocket.Upgrader
	connected atomic.Int64
}

// NewPushHandler creates a new push handler.
func NewPushHandler(deps Dependencies) *PushHandler {
	return &PushHandler{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Dashboards are served from anywhere on the interviewer's side.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// HandleUpgrade handles GET /ws requests.
func (h *PushHandler) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Get().Warn(ctx, "websocket upgrade failed", logger.Error(WrapKind("upgrade", ErrUpgrade, err)))
		return
	}

	events, cancel := h.deps.Subscribe()
	metrics.UpdatePushSubscribers(int(h.connected.Add(1)))
	logger.Get().Info(ctx, "push subscriber connected", logger.String("remote", conn.RemoteAddr().String()))

	go h.writePump(conn, events, cancel)
	go h.readPump(conn, cancel)
}

// writePump relays broker events to the connection and keeps it alive with
// pings. It exits when the subscription or the connection closes.
func (h *PushHandler) writePump(conn *websocket.Conn, events <-chan broker.Event, cancel func()) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		_ = conn.Close()
		metrics.UpdatePushSubscribers(int(h.connected.Add(-1)))
		logger.Get().Info(context.Background(), "push subscriber disconnected",
			logger.String("remote", conn.RemoteAddr().String()))
	}()

	for {
		select {
		case e, ok := <-events:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains inbound frames so control messages are processed and the
// connection close is noticed promptly. The push channel is one-way; client
// payloads are discarded.
func (h *PushHandler) readPump(conn *websocket.Conn, cancel func()) {
	defer func() {
		cancel()
		_ = conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
