// Package app owns the client's call lifecycle at the process level:
// one signaling channel, one media engine, and at most one active call
// session at a time.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/tanmay/callkit/internal/callsession"
	"github.com/tanmay/callkit/internal/media"
	"github.com/tanmay/callkit/internal/navigation"
	"github.com/tanmay/callkit/internal/signaling"
)

var (
	// ErrCallInProgress means a second call was attempted while one is
	// still active. The signaling channel and media engine are owned by
	// one session at a time.
	ErrCallInProgress = errors.New("another call is in progress")

	// ErrNoIncomingCall means accept/reject was invoked with nothing
	// ringing.
	ErrNoIncomingCall = errors.New("no incoming call")

	// ErrNoActiveCall means a call control was invoked with no session.
	ErrNoActiveCall = errors.New("no active call")
)

// MediaFactory builds one media session per call attempt.
type MediaFactory func(video bool) media.Session

// IncomingCall is a ringing inbound call awaiting accept or reject.
type IncomingCall struct {
	CallID   string
	Caller   signaling.Participant
	CallType callsession.CallType
	Grant    *media.Credentials
}

// Client wires the signaling channel, media engine, and navigation sink
// into call sessions. All methods are safe for concurrent use.
type Client struct {
	log        *slog.Logger
	ch         signaling.Channel
	telecaller bool
	nav        navigation.Publisher
	newMedia   MediaFactory

	mu       sync.Mutex
	active   *callsession.Orchestrator
	incoming *IncomingCall
	unsubs   []func()

	ringMu  sync.Mutex
	ringFns []func(IncomingCall)
}

// New creates a client. telecaller selects the receiver role: the
// client listens for incoming call announcements.
func New(ch signaling.Channel, telecaller bool, nav navigation.Publisher, newMedia MediaFactory, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if nav == nil {
		nav = navigation.NewNoopPublisher()
	}
	if newMedia == nil {
		newMedia = func(video bool) media.Session {
			return media.NewWebRTCSession(video, log)
		}
	}
	return &Client{
		log:        log,
		ch:         ch,
		telecaller: telecaller,
		nav:        nav,
		newMedia:   newMedia,
	}
}

// Start installs the role-level subscriptions. For telecallers that is
// the incoming-call listener; users have nothing standing.
func (c *Client) Start() {
	if !c.telecaller {
		return
	}
	tc := signaling.NewTelecallerClient(c.ch)
	un := tc.OnIncoming(c.handleIncoming)
	c.mu.Lock()
	c.unsubs = append(c.unsubs, un)
	c.mu.Unlock()
}

// OnIncoming registers a callback fired when a call starts ringing.
func (c *Client) OnIncoming(fn func(IncomingCall)) {
	c.ringMu.Lock()
	c.ringFns = append(c.ringFns, fn)
	c.ringMu.Unlock()
}

func (c *Client) handleIncoming(p signaling.IncomingPayload) {
	ic := &IncomingCall{
		CallID:   p.CallID,
		Caller:   p.Caller,
		CallType: callsession.CallTypeFromWire(p.CallType),
	}
	if p.Media != nil {
		ic.Grant = &media.Credentials{
			Token:     p.Media.Token,
			ServerURL: p.Media.ServerURL,
			RoomName:  p.Media.RoomName,
		}
	}

	c.mu.Lock()
	busy := c.active != nil && !c.active.Terminated()
	if !busy {
		c.incoming = ic
	}
	c.mu.Unlock()

	if busy {
		// Already on a call; decline so the caller is not left ringing.
		c.log.Info("[App] busy, rejecting incoming call", "call_id", p.CallID)
		signaling.NewTelecallerClient(c.ch).EmitReject(p.CallID)
		return
	}

	c.log.Info("[App] incoming call", "call_id", p.CallID,
		"caller", p.Caller.ID, "call_type", p.CallType)

	c.ringMu.Lock()
	fns := make([]func(IncomingCall), len(c.ringFns))
	copy(fns, c.ringFns)
	c.ringMu.Unlock()
	for _, fn := range fns {
		fn(*ic)
	}
}

// PlaceCall initiates an outbound call to the given telecaller.
func (c *Client) PlaceCall(ctx context.Context, participant signaling.Participant, callType callsession.CallType) (*callsession.Orchestrator, error) {
	c.mu.Lock()
	if c.active != nil && !c.active.Terminated() {
		c.mu.Unlock()
		return nil, ErrCallInProgress
	}
	sess := c.newMedia(callType == callsession.CallTypeVideo)
	orch := callsession.NewInitiator(c.ch, callsession.Config{
		CallType:    callType,
		Participant: participant,
		Media:       sess,
		Navigator:   c.nav,
		Logger:      c.log,
	})
	c.active = orch
	c.mu.Unlock()

	if err := orch.Start(ctx); err != nil {
		return nil, err
	}
	return orch, nil
}

// Accept answers the pending incoming call.
func (c *Client) Accept(ctx context.Context) (*callsession.Orchestrator, error) {
	c.mu.Lock()
	ic := c.incoming
	if ic == nil {
		c.mu.Unlock()
		return nil, ErrNoIncomingCall
	}
	if c.active != nil && !c.active.Terminated() {
		c.mu.Unlock()
		return nil, ErrCallInProgress
	}
	c.incoming = nil

	sess := c.newMedia(ic.CallType == callsession.CallTypeVideo)
	orch := callsession.NewReceiver(c.ch, ic.CallID, ic.Grant, callsession.Config{
		CallType:    ic.CallType,
		Participant: ic.Caller,
		Media:       sess,
		Navigator:   c.nav,
		Logger:      c.log,
	})
	c.active = orch
	c.mu.Unlock()

	// Subscriptions must exist before the accept emit: when the incoming
	// announcement carried no grant, the server's accepted push answers
	// the emit and may arrive immediately.
	if err := orch.Start(ctx); err != nil {
		return nil, err
	}
	if !signaling.NewTelecallerClient(c.ch).EmitAccept(ic.CallID) {
		c.log.Warn("[App] accept emit refused", "call_id", ic.CallID)
	}
	return orch, nil
}

// Reject declines the pending incoming call.
func (c *Client) Reject() error {
	c.mu.Lock()
	ic := c.incoming
	c.incoming = nil
	c.mu.Unlock()
	if ic == nil {
		return ErrNoIncomingCall
	}
	signaling.NewTelecallerClient(c.ch).EmitReject(ic.CallID)
	c.log.Info("[App] incoming call rejected", "call_id", ic.CallID)
	return nil
}

// Hangup ends or cancels the active call, whichever its state requires.
func (c *Client) Hangup() error {
	orch := c.Active()
	if orch == nil {
		return ErrNoActiveCall
	}
	orch.BackPressed()
	return nil
}

// Active returns the current call session, or nil.
func (c *Client) Active() *callsession.Orchestrator {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	return c.active
}

// Incoming returns the pending incoming call, or nil.
func (c *Client) Incoming() *IncomingCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.incoming
}

// Close hangs up any active call and drops subscriptions. The channel
// itself is owned by the caller.
func (c *Client) Close() {
	c.mu.Lock()
	orch := c.active
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()

	for _, un := range unsubs {
		un()
	}
	if orch != nil && !orch.Terminated() {
		orch.BackPressed()
	}
}
