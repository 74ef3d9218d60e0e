package handlers

import (
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/markdave123-py/Paperlens/internal/core/streaming"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// StreamSocketHandler upgrades listeners to websockets and forwards stream
// events for one session, or for every session when no session is given.
type StreamSocketHandler struct {
	broadcaster *streaming.Broadcaster
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

func NewStreamSocketHandler(b *streaming.Broadcaster, allowedOrigins []string, logger *zap.Logger) *StreamSocketHandler {
	return &StreamSocketHandler{
		broadcaster: b,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, "*") {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}

// Listen serves GET /stream/ws?session=<id>.
func (h *StreamSocketHandler) Listen(w http.ResponseWriter, r *http.Request) {
	session := r.URL.Query().Get("session")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Info("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	l := h.broadcaster.Subscribe(session)
	defer l.Close()

	log := h.logger.With(zap.String("session", session))
	log.Debug("stream listener connected")

	gone := make(chan struct{})
	go readPump(conn, gone)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-l.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// evicted or shutting down
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream closed"))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				log.Debug("stream listener write failed", zap.Error(err))
				return
			}
			if ev.Terminal() && session != "" {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ev.Event))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			log.Debug("stream listener disconnected")
			return
		}
	}
}

// readPump discards inbound frames and closes gone once the peer goes away.
func readPump(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	conn.SetReadLimit(512)
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
