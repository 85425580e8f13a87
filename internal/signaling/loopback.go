package signaling

import (
	"encoding/json"
	"sync"
)

// LoopbackChannel is an in-memory Channel. Emits on one end are
// delivered synchronously to the other end's subscribers, which makes
// test interleavings deterministic. The demo runner uses a pair to
// stand in for the signaling server.
type LoopbackChannel struct {
	mu        sync.Mutex
	peer      *LoopbackChannel
	connected bool
	seq       int
	handlers  map[string]map[int]Handler
}

// NewLoopbackPair creates two connected channel ends.
func NewLoopbackPair() (*LoopbackChannel, *LoopbackChannel) {
	a := &LoopbackChannel{connected: true, handlers: make(map[string]map[int]Handler)}
	b := &LoopbackChannel{connected: true, handlers: make(map[string]map[int]Handler)}
	a.peer = b
	b.peer = a
	return a, b
}

func (c *LoopbackChannel) Emit(event string, payload any) bool {
	c.mu.Lock()
	ok := c.connected
	peer := c.peer
	c.mu.Unlock()
	if !ok || peer == nil {
		return false
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	peer.Deliver(event, raw)
	return true
}

// Deliver injects one inbound event on this end, as if the server had
// pushed it.
func (c *LoopbackChannel) Deliver(event string, payload json.RawMessage) {
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

func (c *LoopbackChannel) Subscribe(event string, h Handler) func() {
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

func (c *LoopbackChannel) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// SetConnected flips the liveness flag. Tests use it to simulate a dead
// socket at initiate time.
func (c *LoopbackChannel) SetConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

// HandlerCount returns the number of live subscriptions for event.
func (c *LoopbackChannel) HandlerCount(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers[event])
}

func (c *LoopbackChannel) Close() error {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	return nil
}
