// Package media wraps the real-time media transport behind a small
// session contract: connect with server-issued credentials, observe
// connection state and remote-participant presence, toggle local tracks,
// disconnect. The call orchestrator depends only on the Session
// interface; the WebRTC engine and the scripted in-memory session are
// the two implementations.
package media

import (
	"context"
	"fmt"
)

// ConnectionState represents the media transport connection state.
type ConnectionState int

const (
	// StateIdle means no connection has been attempted.
	StateIdle ConnectionState = iota
	// StateConnecting means the transport is negotiating.
	StateConnecting
	// StateConnected means media is flowing.
	StateConnected
	// StateDisconnected means the transport has closed or failed.
	StateDisconnected
)

// String returns the string representation of ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateDisconnected:
		return "Disconnected"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// Credentials grants access to one media room. Issued by the signaling
// server on call acceptance; opaque to the orchestrator.
type Credentials struct {
	Token     string
	ServerURL string
	RoomName  string
}

// Stats is a snapshot of inbound media counters for the session.
type Stats struct {
	PacketsReceived uint64
	BytesReceived   uint64
	RemoteTracks    int
}

// Session is the media transport contract consumed by the orchestrator.
//
// Connect is invoked at most once per session; a second call returns an
// error. Disconnect is idempotent and safe before Connect. The toggle
// methods return the new local flag state (true = muted / speaker on /
// camera off).
//
// The On* observers return unsubscribe functions. Callbacks fire on the
// session's own goroutine; handlers must not block.
type Session interface {
	Connect(ctx context.Context, creds Credentials) error
	Disconnect(ctx context.Context) error

	State() ConnectionState
	RemoteParticipantPresent() bool
	Err() error
	Stats() Stats

	ToggleMute() bool
	ToggleSpeaker() bool
	ToggleCamera() bool

	OnStateChange(fn func(ConnectionState)) func()
	OnRemoteParticipant(fn func(present bool)) func()
	OnError(fn func(err error)) func()
}
