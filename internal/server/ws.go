package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/scriptsensei/videoforge/internal/metrics"
	"github.com/scriptsensei/videoforge/internal/push"
)

const (
	// writeWait is the deadline for one outbound frame.
	writeWait = 10 * time.Second
	// pongWait is how long a client may stay silent before it is dropped.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize bounds inbound control messages.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the CORS middleware in front.
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsCommand is one inbound control message from a websocket client.
type wsCommand struct {
	// Action is "subscribe" or "unsubscribe".
	Action string `json:"action"`
	// JobID is the room the action applies to.
	JobID string `json:"job_id"`
}

// wsClient couples one websocket connection with its hub subscription.
type wsClient struct {
	hub    *push.Hub
	sub    *push.Subscriber
	conn   *websocket.Conn
	logger *slog.Logger
}

// Watch handles GET /api/v1/ws requests. Clients pick the jobs they observe
// with subscribe/unsubscribe messages; an optional job_id query parameter
// subscribes immediately on connect.
func (h *Handlers) Watch(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := &wsClient{
		hub:    h.hub,
		sub:    h.hub.Attach(),
		conn:   conn,
		logger: h.logger,
	}
	if jobID := r.URL.Query().Get("job_id"); jobID != "" {
		h.hub.Subscribe(client.sub, jobID)
	}

	metrics.WSClientsConnected.Inc()
	go client.writePump()
	go client.readPump()
}

// readPump consumes control messages until the connection dies. It owns the
// connection teardown: detaching the subscription closes the event channel,
// which in turn stops the write pump.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.Detach(c.sub)
		_ = c.conn.Close()
		metrics.WSClientsConnected.Dec()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket closed unexpectedly", slog.String("error", err.Error()))
			}
			return
		}

		var cmd wsCommand
		if err := json.Unmarshal(payload, &cmd); err != nil || cmd.JobID == "" {
			continue
		}
		switch cmd.Action {
		case "subscribe":
			c.hub.Subscribe(c.sub, cmd.JobID)
		case "unsubscribe":
			c.hub.Unsubscribe(c.sub, cmd.JobID)
		}
	}
}

// writePump forwards hub events to the connection and keeps it alive with
// pings. It exits when the subscription channel closes.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.sub.Events():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
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
