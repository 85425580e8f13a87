// Package signaling defines the bidirectional event channel the call
// orchestration layer uses to negotiate call setup and teardown with the
// marketplace server, plus role-specific typed bindings over it.
package signaling

// Event names on the wire. The server relays each client's intents to the
// other party as the corresponding inbound events.
const (
	// Emitted by clients.
	EventInitiate = "call:initiate"
	EventAccept   = "call:accept"
	EventReject   = "call:reject"
	EventCancel   = "call:cancel"
	EventEnd      = "call:end"

	// Pushed by the server.
	EventIncoming = "call:incoming"
	EventRinging  = "call:ringing"
	EventAccepted = "call:accepted"
	EventRejected = "call:rejected"
	EventMissed   = "call:missed"
	EventError    = "call:error"
	EventEnded    = "call:ended"
)

// MediaGrant carries the credentials for joining the media room. The
// wire field is named for the media provider.
type MediaGrant struct {
	Token     string `json:"token"`
	ServerURL string `json:"url"`
	RoomName  string `json:"roomName"`
}

// Participant identifies the other party of a call.
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	ProfileRef  string `json:"profile,omitempty"`
}

// InitiatePayload asks the server to place a call to a telecaller.
type InitiatePayload struct {
	ParticipantID string `json:"participantId"`
	CallType      string `json:"callType"` // "audio" or "video"
}

// AcceptPayload accepts an incoming call.
type AcceptPayload struct {
	CallID string `json:"callId"`
}

// RejectPayload declines an incoming call.
type RejectPayload struct {
	CallID string `json:"callId"`
}

// CancelPayload withdraws a not-yet-accepted outbound call.
type CancelPayload struct {
	CallID string `json:"callId"`
}

// EndPayload hangs up a connected call.
type EndPayload struct {
	CallID string `json:"callId"`
}

// IncomingPayload announces an inbound call to a telecaller. Servers
// that pre-authorize the room include the media grant here; otherwise it
// arrives in a later accepted push.
type IncomingPayload struct {
	CallID   string      `json:"callId"`
	Caller   Participant `json:"caller"`
	CallType string      `json:"callType"`
	Media    *MediaGrant `json:"livekit,omitempty"`
}

// RingingPayload tells the initiator the remote party is being alerted.
// This is the first event carrying the server-assigned call ID.
type RingingPayload struct {
	CallID string `json:"callId"`
}

// AcceptedPayload tells a client the call is accepted and carries the
// media room credentials.
type AcceptedPayload struct {
	CallID string     `json:"callId,omitempty"`
	Media  MediaGrant `json:"livekit"`
}

// ErrorPayload surfaces a server-side call failure.
type ErrorPayload struct {
	Message string `json:"message"`
}

// EndedPayload tells a client the remote party ended the call.
type EndedPayload struct {
	CallID string `json:"callId"`
}
