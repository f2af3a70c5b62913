// Package ws exposes the event bus over WebSocket: each connection
// subscribes to the bus and streams AssignmentEvents (and lag markers) to
// the browser as JSON, one object per line. There is no inbound message
// handling; this is a read-only fan-out transport.
package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"dispatchsvc/internal/eventbus"
	"dispatchsvc/internal/logx"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP connections on /ws/events and streams the bus to
// each client.
type Handler struct {
	bus    *eventbus.Bus
	logger logx.Logger
}

// NewHandler builds a ws.Handler bound to bus.
func NewHandler(bus *eventbus.Bus, logger logx.Logger) *Handler {
	return &Handler{bus: bus, logger: logger}
}

// ServeHTTP implements http.Handler so it can be mounted directly on a
// chi route.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", logx.Any("error", err))
		return
	}

	sub := h.bus.Subscribe()
	c := &client{conn: conn, sub: sub, logger: h.logger}

	go c.readPump()
	c.writePump()
}

// client pumps bus events to one WebSocket connection. ReadPump only
// drains and discards inbound frames to process control frames (pong);
// clients never send data this transport acts on.
type client struct {
	conn   *websocket.Conn
	sub    *eventbus.Subscription
	logger logx.Logger
}

func (c *client) readPump() {
	defer func() {
		c.sub.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.sub.Events():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(evt); err != nil {
				return
			}

		case marker, ok := <-c.sub.Lag():
			if !ok {
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			payload := map[string]any{
				"type":   "lag",
				"missed": marker.Missed,
				"at":     marker.At,
			}
			if err := c.conn.WriteJSON(payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
