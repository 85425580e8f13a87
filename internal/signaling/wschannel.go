package signaling

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// envelope is the wire frame: one event name plus its JSON payload.
type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WSChannel is the production Channel: a websocket to the marketplace
// signaling server carrying JSON envelopes both ways. Reconnection
// policy is owned by the connection manager that dials it; a dead
// socket simply reports not-connected and refuses emits.
type WSChannel struct {
	log     *slog.Logger
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu        sync.Mutex
	connected bool
	closed    bool
	seq       int
	handlers  map[string]map[int]Handler
}

// DialWS connects to the signaling server and starts dispatching
// inbound events. header typically carries the session auth token.
func DialWS(ctx context.Context, url string, header http.Header, log *slog.Logger) (*WSChannel, error) {
	if log == nil {
		log = slog.Default()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial signaling server: %w", err)
	}
	c := &WSChannel{
		log:       log,
		conn:      conn,
		connected: true,
		handlers:  make(map[string]map[int]Handler),
	}
	go c.readPump()
	log.Info("[Signaling] connected", "url", url)
	return c, nil
}

// Emit sends one event. Returns false when the channel is not ready or
// the write fails; the caller must treat false as a hard failure.
func (c *WSChannel) Emit(event string, payload any) bool {
	c.mu.Lock()
	ok := c.connected && !c.closed
	c.mu.Unlock()
	if !ok {
		return false
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		c.log.Warn("[Signaling] emit payload not marshalable", "event", event, "error", err)
		return false
	}

	c.writeMu.Lock()
	err = c.conn.WriteJSON(envelope{Event: event, Payload: raw})
	c.writeMu.Unlock()
	if err != nil {
		c.log.Warn("[Signaling] emit failed", "event", event, "error", err)
		c.markDisconnected()
		return false
	}
	return true
}

// Subscribe registers a handler for one event name and returns the
// unsubscribe function.
func (c *WSChannel) Subscribe(event string, h Handler) func() {
	c.mu.Lock()
	c.seq++
	id := c.seq
	m := c.handlers[event]
	if m == nil {
		m = make(map[int]Handler)
		c.handlers[event] = m
	}
	m[id] = h
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		if m := c.handlers[event]; m != nil {
			delete(m, id)
		}
		c.mu.Unlock()
	}
}

// IsConnected reports whether the socket is up.
func (c *WSChannel) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected && !c.closed
}

// Close shuts the socket down. Pending handlers stop firing once the
// read pump exits.
func (c *WSChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	c.mu.Unlock()
	return c.conn.Close()
}

func (c *WSChannel) markDisconnected() {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
}

func (c *WSChannel) readPump() {
	for {
		var env envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			c.mu.Lock()
			closed := c.closed
			c.connected = false
			c.mu.Unlock()
			if !closed {
				c.log.Warn("[Signaling] connection lost", "error", err)
			}
			return
		}
		c.dispatch(env.Event, env.Payload)
	}
}

func (c *WSChannel) dispatch(event string, payload json.RawMessage) {
	c.mu.Lock()
	m := c.handlers[event]
	fns := make([]Handler, 0, len(m))
	for _, h := range m {
		fns = append(fns, h)
	}
	c.mu.Unlock()
	for _, h := range fns {
		h(payload)
	}
}
