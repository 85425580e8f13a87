// Package callsession owns the call lifecycle state machine: it consumes
// signaling events and media session signals, gates the elapsed-time
// counter, and guarantees exactly-once teardown with a single navigation
// handoff.
package callsession

import "fmt"

// State represents the signaling-level state of a call session.
type State int

const (
	// StateConnecting indicates the call has been initiated but not yet
	// accepted by the remote party.
	StateConnecting State = iota
	// StateConnected indicates the call has been accepted at the
	// signaling layer (media may still be connecting).
	StateConnected
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// Role indicates which side of the call this client plays.
type Role int

const (
	// RoleInitiator is the user placing the call. Starts in Connecting
	// and waits for acceptance.
	RoleInitiator Role = iota
	// RoleReceiver is the telecaller answering the call. Acceptance
	// happened upstream, so the session starts in Connected.
	RoleReceiver
)

// String returns the string representation of Role.
func (r Role) String() string {
	switch r {
	case RoleInitiator:
		return "Initiator"
	case RoleReceiver:
		return "Receiver"
	default:
		return fmt.Sprintf("Unknown(%d)", r)
	}
}

// CallType distinguishes audio-only from video calls.
type CallType int

const (
	// CallTypeAudio is a voice-only call.
	CallTypeAudio CallType = iota
	// CallTypeVideo is an audio+video call.
	CallTypeVideo
)

// String returns the string representation of CallType.
func (t CallType) String() string {
	switch t {
	case CallTypeAudio:
		return "Audio"
	case CallTypeVideo:
		return "Video"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// WireName returns the lowercase name used on the signaling wire.
func (t CallType) WireName() string {
	if t == CallTypeVideo {
		return "video"
	}
	return "audio"
}

// CallTypeFromWire parses a wire name. Anything but "video" is audio.
func CallTypeFromWire(s string) CallType {
	if s == "video" {
		return CallTypeVideo
	}
	return CallTypeAudio
}

// EndCause indicates why a call session was terminated.
type EndCause int

const (
	// EndCauseNone indicates no termination has occurred.
	EndCauseNone EndCause = iota
	// EndCauseLocalHangup indicates the local user ended a connected call.
	EndCauseLocalHangup
	// EndCauseRemoteHangup indicates the remote party ended the call.
	EndCauseRemoteHangup
	// EndCauseCancel indicates the caller canceled before acceptance.
	EndCauseCancel
	// EndCauseRejected indicates the remote party declined the call.
	EndCauseRejected
	// EndCauseMissed indicates the server timed the call out unanswered.
	EndCauseMissed
	// EndCauseSignalingError indicates the server reported a call error.
	EndCauseSignalingError
	// EndCauseMediaError indicates the media session failed.
	EndCauseMediaError
	// EndCauseMediaLost indicates media dropped after the call was live.
	EndCauseMediaLost
)

// String returns the string representation of EndCause.
func (c EndCause) String() string {
	switch c {
	case EndCauseNone:
		return "None"
	case EndCauseLocalHangup:
		return "LocalHangup"
	case EndCauseRemoteHangup:
		return "RemoteHangup"
	case EndCauseCancel:
		return "Cancel"
	case EndCauseRejected:
		return "Rejected"
	case EndCauseMissed:
		return "Missed"
	case EndCauseSignalingError:
		return "SignalingError"
	case EndCauseMediaError:
		return "MediaError"
	case EndCauseMediaLost:
		return "MediaLost"
	default:
		return fmt.Sprintf("Unknown(%d)", c)
	}
}
