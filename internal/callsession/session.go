package callsession

import (
	"time"

	"github.com/tanmay/callkit/internal/media"
	"github.com/tanmay/callkit/internal/signaling"
)

// CallSession is the mutable record of one call attempt. It is owned
// exclusively by its Orchestrator; all access goes through the
// orchestrator's lock.
//
// callID is set at most once, when the first signaling event carrying it
// arrives (the receiver may have it from the incoming announcement).
// creds is set at most once; a duplicate accepted event is ignored.
// terminated flips false→true exactly once and gates every transition
// after it.
type CallSession struct {
	callID      string
	role        Role
	callType    CallType
	participant signaling.Participant

	state      State
	creds      *media.Credentials
	terminated bool
	cause      EndCause

	createdAt    time.Time
	ringingAt    time.Time
	connectedAt  time.Time
	terminatedAt time.Time
}

func newCallSession(role Role, callType CallType, participant signaling.Participant) *CallSession {
	state := StateConnecting
	if role == RoleReceiver {
		// Acceptance happened upstream; signaling is already connected.
		state = StateConnected
	}
	return &CallSession{
		role:        role,
		callType:    callType,
		participant: participant,
		state:       state,
		createdAt:   time.Now(),
	}
}

// Info is a point-in-time snapshot of a call session, safe to retain
// after the session terminates.
type Info struct {
	CallID      string                `json:"call_id"`
	Role        Role                  `json:"role"`
	CallType    CallType              `json:"call_type"`
	Participant signaling.Participant `json:"participant"`

	State         State                 `json:"state"`
	Terminated    bool                  `json:"terminated"`
	Cause         EndCause              `json:"cause"`
	MediaState    media.ConnectionState `json:"media_state"`
	RemotePresent bool                  `json:"remote_present"`
	TimerRunning  bool                  `json:"timer_running"`

	ElapsedSeconds int         `json:"elapsed_seconds"`
	MediaStats     media.Stats `json:"media_stats"`

	CreatedAt    time.Time `json:"created_at"`
	RingingAt    time.Time `json:"ringing_at,omitempty"`
	ConnectedAt  time.Time `json:"connected_at,omitempty"`
	TerminatedAt time.Time `json:"terminated_at,omitempty"`
}

// RingDuration returns how long the call spent ringing before it was
// accepted or abandoned. Zero if it never rang.
func (i Info) RingDuration() time.Duration {
	if i.RingingAt.IsZero() {
		return 0
	}
	end := i.ConnectedAt
	if end.IsZero() {
		end = i.TerminatedAt
	}
	if end.IsZero() {
		return 0
	}
	return end.Sub(i.RingingAt)
}

// TalkDuration returns how long the call was connected at the signaling
// layer. Zero if it never connected or is still up.
func (i Info) TalkDuration() time.Duration {
	if i.ConnectedAt.IsZero() || i.TerminatedAt.IsZero() {
		return 0
	}
	return i.TerminatedAt.Sub(i.ConnectedAt)
}
