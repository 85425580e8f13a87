package signaling

import "encoding/json"

// Handler receives the raw payload of one inbound event. Handlers run on
// the channel's dispatch goroutine; keep them fast and never block.
type Handler func(payload json.RawMessage)

// Channel is the bidirectional event channel contract. One channel is
// owned by at most one active call session at a time.
//
// Emit returns false when the channel is not ready; callers must treat
// that as a hard failure of the attempt, not a queued retry.
//
// Subscribe returns an unsubscribe function. Every call site must keep it
// and invoke it on cleanup: a handler left registered across session
// remounts would double-fire state transitions.
type Channel interface {
	Emit(event string, payload any) bool
	Subscribe(event string, h Handler) (unsubscribe func())
	IsConnected() bool
	Close() error
}

// decode unmarshals an event payload into v, returning false on error.
// Shared by the typed role bindings.
func decode(raw json.RawMessage, v any) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}
