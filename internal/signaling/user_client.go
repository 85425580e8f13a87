package signaling

import (
	"encoding/json"
	"log/slog"
)

// UserClient is the initiator-side binding: typed emits for placing and
// withdrawing calls, typed subscriptions for the server's responses.
type UserClient struct {
	ch Channel
}

// NewUserClient wraps ch with the initiator-side event vocabulary.
func NewUserClient(ch Channel) *UserClient {
	return &UserClient{ch: ch}
}

// IsConnected reports whether the underlying channel is ready.
func (c *UserClient) IsConnected() bool {
	return c.ch.IsConnected()
}

// EmitInitiate asks the server to call the given telecaller. Returns
// false if the channel refused the emit.
func (c *UserClient) EmitInitiate(participantID string, callType string) bool {
	return c.ch.Emit(EventInitiate, InitiatePayload{
		ParticipantID: participantID,
		CallType:      callType,
	})
}

// EmitCancel withdraws a ringing call.
func (c *UserClient) EmitCancel(callID string) bool {
	return c.ch.Emit(EventCancel, CancelPayload{CallID: callID})
}

// EmitEnd hangs up a connected call.
func (c *UserClient) EmitEnd(callID string) bool {
	return c.ch.Emit(EventEnd, EndPayload{CallID: callID})
}

// OnRinging subscribes to the ringing notification.
func (c *UserClient) OnRinging(fn func(RingingPayload)) func() {
	return c.subscribe(EventRinging, func(raw json.RawMessage) {
		var p RingingPayload
		if decode(raw, &p) {
			fn(p)
		}
	})
}

// OnAccepted subscribes to call acceptance with media credentials.
func (c *UserClient) OnAccepted(fn func(AcceptedPayload)) func() {
	return c.subscribe(EventAccepted, func(raw json.RawMessage) {
		var p AcceptedPayload
		if decode(raw, &p) {
			fn(p)
		} else {
			slog.Warn("[Signaling] accepted event with undecodable payload")
		}
	})
}

// OnRejected subscribes to call rejection.
func (c *UserClient) OnRejected(fn func()) func() {
	return c.subscribe(EventRejected, func(json.RawMessage) { fn() })
}

// OnMissed subscribes to the server-side no-answer timeout.
func (c *UserClient) OnMissed(fn func()) func() {
	return c.subscribe(EventMissed, func(json.RawMessage) { fn() })
}

// OnError subscribes to server-reported call errors.
func (c *UserClient) OnError(fn func(ErrorPayload)) func() {
	return c.subscribe(EventError, func(raw json.RawMessage) {
		var p ErrorPayload
		decode(raw, &p)
		fn(p)
	})
}

// OnEnded subscribes to remote hangup.
func (c *UserClient) OnEnded(fn func(EndedPayload)) func() {
	return c.subscribe(EventEnded, func(raw json.RawMessage) {
		var p EndedPayload
		decode(raw, &p)
		fn(p)
	})
}

func (c *UserClient) subscribe(event string, h Handler) func() {
	return c.ch.Subscribe(event, h)
}
