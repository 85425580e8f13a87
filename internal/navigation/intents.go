// Package navigation carries the orchestrator's single post-call
// handoff: either to the feedback screen with the call metadata, or to
// the role-appropriate home screen. The UI layer consumes intents; this
// package only defines and delivers them.
package navigation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Destination identifies the screen an intent routes to.
type Destination int

const (
	// DestinationFeedback is the post-call rating screen.
	DestinationFeedback Destination = iota
	// DestinationUserHome is the marketplace home for users.
	DestinationUserHome
	// DestinationTelecallerDashboard is the telecaller's dashboard.
	DestinationTelecallerDashboard
)

// String returns the string representation of Destination.
func (d Destination) String() string {
	switch d {
	case DestinationFeedback:
		return "Feedback"
	case DestinationUserHome:
		return "UserHome"
	case DestinationTelecallerDashboard:
		return "TelecallerDashboard"
	default:
		return fmt.Sprintf("Unknown(%d)", d)
	}
}

// Intent is one navigation handoff.
type Intent interface {
	// IntentID is unique per emitted intent.
	IntentID() string
	// Destination is the target screen.
	Destination() Destination
	// Timestamp is when the intent was created.
	Timestamp() time.Time
}

// BaseIntent carries the fields common to all intents.
type BaseIntent struct {
	ID   string      `json:"intent_id"`
	Dest Destination `json:"destination"`
	Time time.Time   `json:"timestamp"`
}

func (b BaseIntent) IntentID() string { return b.ID }

func (b BaseIntent) Destination() Destination { return b.Dest }

func (b BaseIntent) Timestamp() time.Time { return b.Time }

func newBase(dest Destination) BaseIntent {
	return BaseIntent{
		ID:   uuid.New().String(),
		Dest: dest,
		Time: time.Now().UTC(),
	}
}

// FeedbackIntent routes to the feedback screen with the finished call's
// metadata. Duration is whole seconds rendered as a string, matching the
// screen's parameter contract.
type FeedbackIntent struct {
	BaseIntent
	CallID             string `json:"call_id"`
	ParticipantID      string `json:"participant_id"`
	ParticipantName    string `json:"participant_name"`
	ParticipantProfile string `json:"participant_profile,omitempty"`
	Duration           string `json:"duration"`
	CallType           string `json:"call_type"`
	Role               string `json:"role"`

	// Inbound media counters for the session, when the engine tracked
	// them. Zero values when media never connected.
	PacketsReceived uint64 `json:"packets_received,omitempty"`
	BytesReceived   uint64 `json:"bytes_received,omitempty"`
}

// NewFeedbackIntent creates a feedback handoff.
func NewFeedbackIntent(callID string, durationSeconds int) *FeedbackIntent {
	return &FeedbackIntent{
		BaseIntent: newBase(DestinationFeedback),
		CallID:     callID,
		Duration:   fmt.Sprintf("%d", durationSeconds),
	}
}

// HomeIntent routes to the role-appropriate home screen. No payload.
type HomeIntent struct {
	BaseIntent
	// Reason is a short human-readable note for logging ("declined",
	// "no answer", ...). Not rendered by the UI.
	Reason string `json:"reason,omitempty"`
}

// NewHomeIntent creates a home handoff for the given role. forTelecaller
// selects the telecaller dashboard over the user home.
func NewHomeIntent(forTelecaller bool, reason string) *HomeIntent {
	dest := DestinationUserHome
	if forTelecaller {
		dest = DestinationTelecallerDashboard
	}
	return &HomeIntent{BaseIntent: newBase(dest), Reason: reason}
}
