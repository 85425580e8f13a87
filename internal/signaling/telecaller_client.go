package signaling

import (
	"encoding/json"
	"log/slog"
)

// TelecallerClient is the receiver-side binding. Incoming calls are
// accepted or rejected here; once accepted, the active-call flow uses
// the same ended/error/end vocabulary as the initiator side.
type TelecallerClient struct {
	ch Channel
}

// NewTelecallerClient wraps ch with the receiver-side event vocabulary.
func NewTelecallerClient(ch Channel) *TelecallerClient {
	return &TelecallerClient{ch: ch}
}

// IsConnected reports whether the underlying channel is ready.
func (c *TelecallerClient) IsConnected() bool {
	return c.ch.IsConnected()
}

// EmitAccept accepts an incoming call.
func (c *TelecallerClient) EmitAccept(callID string) bool {
	return c.ch.Emit(EventAccept, AcceptPayload{CallID: callID})
}

// EmitReject declines an incoming call.
func (c *TelecallerClient) EmitReject(callID string) bool {
	return c.ch.Emit(EventReject, RejectPayload{CallID: callID})
}

// EmitEnd hangs up a connected call.
func (c *TelecallerClient) EmitEnd(callID string) bool {
	return c.ch.Emit(EventEnd, EndPayload{CallID: callID})
}

// OnIncoming subscribes to inbound call announcements.
func (c *TelecallerClient) OnIncoming(fn func(IncomingPayload)) func() {
	return c.ch.Subscribe(EventIncoming, func(raw json.RawMessage) {
		var p IncomingPayload
		if decode(raw, &p) {
			fn(p)
		} else {
			slog.Warn("[Signaling] incoming event with undecodable payload")
		}
	})
}

// OnAccepted subscribes to the acceptance confirmation carrying media
// credentials. Fired after this side emits accept; some server versions
// include the grant in the incoming announcement instead, in which case
// this never fires.
func (c *TelecallerClient) OnAccepted(fn func(AcceptedPayload)) func() {
	return c.ch.Subscribe(EventAccepted, func(raw json.RawMessage) {
		var p AcceptedPayload
		if decode(raw, &p) {
			fn(p)
		}
	})
}

// OnError subscribes to server-reported call errors.
func (c *TelecallerClient) OnError(fn func(ErrorPayload)) func() {
	return c.ch.Subscribe(EventError, func(raw json.RawMessage) {
		var p ErrorPayload
		decode(raw, &p)
		fn(p)
	})
}

// OnEnded subscribes to remote hangup.
func (c *TelecallerClient) OnEnded(fn func(EndedPayload)) func() {
	return c.ch.Subscribe(EventEnded, func(raw json.RawMessage) {
		var p EndedPayload
		decode(raw, &p)
		fn(p)
	})
}
