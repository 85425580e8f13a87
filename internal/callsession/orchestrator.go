package callsession

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tanmay/callkit/internal/media"
	"github.com/tanmay/callkit/internal/navigation"
	"github.com/tanmay/callkit/internal/signaling"
)

const (
	mediaConnectTimeout    = 15 * time.Second
	mediaDisconnectTimeout = 5 * time.Second
)

// Config carries the collaborators for one call attempt.
type Config struct {
	CallType    CallType
	Participant signaling.Participant
	Media       media.Session
	Navigator   navigation.Publisher
	Logger      *slog.Logger
}

// Orchestrator drives one call attempt from initiation to teardown. It
// reconciles the signaling event stream and the media session signals
// into the single CallSession state machine, gates the timer, and emits
// exactly one navigation intent when the session ends.
//
// One orchestrator serves one call attempt; it is not reusable.
type Orchestrator struct {
	mu   sync.Mutex
	sess *CallSession

	timer *Timer
	media media.Session
	nav   navigation.Publisher
	log   *slog.Logger

	// Role-specific signaling bindings, installed by the constructors.
	sigConnected func() bool
	emitInitiate func() bool              // nil for receiver
	emitCancel   func(callID string) bool // nil for receiver
	emitEnd      func(callID string) bool
	installSubs  func()

	started            bool
	credsApplied       bool
	mediaEverConnected bool
	pendingCreds       *media.Credentials

	unsubs []func()

	obsMu  sync.Mutex
	obsSeq int
	obsFns map[int]func(Info)
}

func newOrchestrator(role Role, cfg Config) *Orchestrator {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	nav := cfg.Navigator
	if nav == nil {
		nav = navigation.NewNoopPublisher()
	}
	return &Orchestrator{
		sess:   newCallSession(role, cfg.CallType, cfg.Participant),
		timer:  NewTimer(),
		media:  cfg.Media,
		nav:    nav,
		log:    log,
		obsFns: make(map[int]func(Info)),
	}
}

// NewInitiator creates the orchestrator for an outbound call. The call
// is not placed until Start.
func NewInitiator(ch signaling.Channel, cfg Config) *Orchestrator {
	client := signaling.NewUserClient(ch)
	o := newOrchestrator(RoleInitiator, cfg)
	o.sigConnected = client.IsConnected
	o.emitInitiate = func() bool {
		return client.EmitInitiate(cfg.Participant.ID, cfg.CallType.WireName())
	}
	o.emitCancel = client.EmitCancel
	o.emitEnd = client.EmitEnd
	o.installSubs = func() {
		o.unsubs = append(o.unsubs,
			client.OnRinging(o.handleRinging),
			client.OnAccepted(o.handleAccepted),
			client.OnRejected(func() { o.handleOutcome(EndCauseRejected, "declined") }),
			client.OnMissed(func() { o.handleOutcome(EndCauseMissed, "no answer") }),
			client.OnError(o.handleError),
			client.OnEnded(func(signaling.EndedPayload) { o.handleEnded() }),
		)
	}
	return o
}

// NewReceiver creates the orchestrator for an accepted inbound call.
// creds may already be known from the incoming announcement; when nil,
// the session waits for the accepted push.
func NewReceiver(ch signaling.Channel, callID string, creds *media.Credentials, cfg Config) *Orchestrator {
	client := signaling.NewTelecallerClient(ch)
	o := newOrchestrator(RoleReceiver, cfg)
	o.sess.callID = callID
	o.sess.connectedAt = o.sess.createdAt
	o.pendingCreds = creds
	o.sigConnected = client.IsConnected
	o.emitEnd = client.EmitEnd
	o.installSubs = func() {
		o.unsubs = append(o.unsubs,
			client.OnAccepted(o.handleAccepted),
			client.OnError(o.handleError),
			client.OnEnded(func(signaling.EndedPayload) { o.handleEnded() }),
		)
	}
	return o
}

// Start wires subscriptions and places (or joins) the call.
//
// Subscriptions are installed before the initiate emit so a fast ringing
// or accepted response cannot be missed. A dead channel or a refused
// emit fails the attempt immediately: one intent to home, no retry.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return ErrAlreadyStarted
	}
	o.started = true
	o.mu.Unlock()

	if !o.sigConnected() {
		o.log.Warn("[CallSession] signaling not connected at start",
			"role", o.sess.role, "participant", o.sess.participant.ID)
		if o.begin(EndCauseSignalingError) {
			o.finish(o.homeIntent("connection issue"))
		}
		return ErrSignalingUnavailable
	}

	o.installSubs()
	o.unsubs = append(o.unsubs,
		o.media.OnStateChange(o.handleMediaState),
		o.media.OnRemoteParticipant(func(bool) { o.evaluateTimer(); o.notifyUpdate() }),
		o.media.OnError(o.handleMediaFailure),
	)

	if o.sess.role == RoleInitiator {
		if !o.emitInitiate() {
			o.log.Warn("[CallSession] initiate emit refused")
			if o.begin(EndCauseSignalingError) {
				o.finish(o.homeIntent("connection issue"))
			}
			return ErrInitiateFailed
		}
		o.log.Info("[CallSession] call initiated",
			"participant", o.sess.participant.ID, "call_type", o.sess.callType)
	} else if o.pendingCreds != nil {
		creds := *o.pendingCreds
		o.pendingCreds = nil
		o.applyCredentials("", creds)
	}

	o.notifyUpdate()
	return nil
}

// --- Signaling event handlers ---

func (o *Orchestrator) handleRinging(p signaling.RingingPayload) {
	o.mu.Lock()
	if o.sess.terminated {
		o.mu.Unlock()
		return
	}
	if o.sess.callID == "" {
		o.sess.callID = p.CallID
		o.sess.ringingAt = time.Now()
	}
	o.mu.Unlock()
	o.log.Info("[CallSession] ringing", "call_id", p.CallID)
	o.notifyUpdate()
}

func (o *Orchestrator) handleAccepted(p signaling.AcceptedPayload) {
	o.applyCredentials(p.CallID, media.Credentials{
		Token:     p.Media.Token,
		ServerURL: p.Media.ServerURL,
		RoomName:  p.Media.RoomName,
	})
}

// applyCredentials records the media grant and connects media. The grant
// is applied at most once; duplicate accepted events are ignored so a
// replay cannot reconnect media or reset elapsed time.
func (o *Orchestrator) applyCredentials(callID string, creds media.Credentials) {
	o.mu.Lock()
	if o.sess.terminated {
		o.mu.Unlock()
		return
	}
	if o.credsApplied {
		known := o.sess.callID
		o.mu.Unlock()
		o.log.Warn("[CallSession] duplicate accepted event ignored",
			"call_id", known)
		return
	}
	o.credsApplied = true
	o.sess.creds = &creds
	if o.sess.callID == "" && callID != "" {
		o.sess.callID = callID
	}
	if o.sess.state != StateConnected {
		o.sess.state = StateConnected
		o.sess.connectedAt = time.Now()
	}
	id := o.sess.callID
	o.mu.Unlock()

	o.log.Info("[CallSession] accepted", "call_id", id,
		"room", creds.RoomName)
	go o.connectMedia(creds)
	o.notifyUpdate()
}

func (o *Orchestrator) handleOutcome(cause EndCause, reason string) {
	if !o.begin(cause) {
		return
	}
	o.log.Info("[CallSession] call not established", "cause", cause, "reason", reason)
	o.finish(o.homeIntent(reason))
}

func (o *Orchestrator) handleError(p signaling.ErrorPayload) {
	msg := p.Message
	if msg == "" {
		msg = "call failed"
	}
	o.handleOutcome(EndCauseSignalingError, msg)
}

func (o *Orchestrator) handleEnded() {
	if !o.begin(EndCauseRemoteHangup) {
		return
	}
	o.log.Info("[CallSession] remote party ended the call", "call_id", o.CallID())
	o.finish(o.feedbackIntent())
}

// --- Media signal handlers ---

func (o *Orchestrator) connectMedia(creds media.Credentials) {
	ctx, cancel := context.WithTimeout(context.Background(), mediaConnectTimeout)
	defer cancel()
	if err := o.media.Connect(ctx, creds); err != nil {
		o.handleMediaFailure(err)
	}
}

func (o *Orchestrator) handleMediaState(s media.ConnectionState) {
	switch s {
	case media.StateConnected:
		o.mu.Lock()
		o.mediaEverConnected = true
		o.mu.Unlock()
		o.evaluateTimer()
	case media.StateDisconnected:
		o.mu.Lock()
		terminated := o.sess.terminated
		o.mu.Unlock()
		if terminated {
			// Expected during teardown.
			return
		}
		o.handleMediaFailure(errors.New("media transport disconnected"))
	default:
		o.evaluateTimer()
	}
	o.notifyUpdate()
}

// handleMediaFailure is always terminal. A failure after the call was
// fully live routes to feedback so the elapsed duration is preserved;
// a failure before that routes home.
func (o *Orchestrator) handleMediaFailure(err error) {
	o.mu.Lock()
	live := o.mediaEverConnected && o.sess.state == StateConnected
	o.mu.Unlock()

	cause := EndCauseMediaError
	if live {
		cause = EndCauseMediaLost
	}
	if !o.begin(cause) {
		return
	}
	o.log.Warn("[CallSession] media failure", "error", err, "cause", cause)
	if live {
		o.finish(o.feedbackIntent())
	} else {
		o.finish(o.homeIntent("media connection failed"))
	}
}

// evaluateTimer applies the gating rule: the timer runs if and only if
// signaling is connected, media is connected, and the remote participant
// is present. The check and the timer transition happen under the session
// lock so teardown, which flips terminated under the same lock before
// stopping the timer, can never be interleaved with a late restart.
func (o *Orchestrator) evaluateTimer() {
	o.mu.Lock()
	defer o.mu.Unlock()
	live := !o.sess.terminated && o.sess.state == StateConnected
	if live && o.media.State() == media.StateConnected && o.media.RemoteParticipantPresent() {
		o.timer.Start()
	} else {
		o.timer.Stop()
	}
}

// --- User actions ---

// Cancel withdraws a not-yet-accepted call. Routes home.
func (o *Orchestrator) Cancel() error {
	if !o.begin(EndCauseCancel) {
		return ErrTerminated
	}
	if o.emitCancel != nil {
		o.emitCancel(o.CallID())
	}
	o.log.Info("[CallSession] call canceled", "call_id", o.CallID())
	o.finish(o.homeIntent(""))
	return nil
}

// End hangs up a connected call. Routes to feedback.
func (o *Orchestrator) End() error {
	if !o.begin(EndCauseLocalHangup) {
		return ErrTerminated
	}
	o.emitEnd(o.CallID())
	o.log.Info("[CallSession] call ended locally", "call_id", o.CallID())
	o.finish(o.feedbackIntent())
	return nil
}

// BackPressed maps the platform back button onto the correct hangup:
// cancel while connecting, end once connected. Never the default
// dismissal.
func (o *Orchestrator) BackPressed() {
	o.mu.Lock()
	st := o.sess.state
	o.mu.Unlock()
	if st == StateConnecting {
		_ = o.Cancel()
	} else {
		_ = o.End()
	}
}

// ToggleMute flips the local microphone. Returns true when muted.
func (o *Orchestrator) ToggleMute() bool {
	return o.media.ToggleMute()
}

// ToggleSpeaker flips the loudspeaker route. Returns true when on.
func (o *Orchestrator) ToggleSpeaker() bool {
	return o.media.ToggleSpeaker()
}

// ToggleCamera flips the local camera on video calls. Returns true when
// the camera is off. No-op on audio calls.
func (o *Orchestrator) ToggleCamera() bool {
	o.mu.Lock()
	t := o.sess.callType
	o.mu.Unlock()
	if t != CallTypeVideo {
		return false
	}
	return o.media.ToggleCamera()
}

// --- Teardown ---

// begin marks the session terminated. Returns false if it already was.
// This check-and-set is the first action of every termination path, so
// concurrent triggers (remote ended racing a local hangup) collapse to
// one teardown.
func (o *Orchestrator) begin(cause EndCause) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sess.terminated {
		return false
	}
	o.sess.terminated = true
	o.sess.cause = cause
	o.sess.terminatedAt = time.Now()
	return true
}

// finish performs the teardown steps after begin has won the race: stop
// the timer, drop subscriptions, disconnect media, publish exactly one
// navigation intent.
func (o *Orchestrator) finish(intent navigation.Intent) {
	o.timer.Stop()

	o.mu.Lock()
	unsubs := o.unsubs
	o.unsubs = nil
	o.mu.Unlock()
	for _, un := range unsubs {
		un()
	}

	ctx, cancel := context.WithTimeout(context.Background(), mediaDisconnectTimeout)
	defer cancel()
	if err := o.media.Disconnect(ctx); err != nil {
		o.log.Warn("[CallSession] media disconnect failed", "error", err)
	}

	if err := o.nav.Publish(context.Background(), intent); err != nil {
		o.log.Warn("[CallSession] navigation intent not delivered", "error", err)
	}
	o.notifyUpdate()
}

func (o *Orchestrator) homeIntent(reason string) *navigation.HomeIntent {
	o.mu.Lock()
	tc := o.sess.role == RoleReceiver
	o.mu.Unlock()
	return navigation.NewHomeIntent(tc, reason)
}

func (o *Orchestrator) feedbackIntent() *navigation.FeedbackIntent {
	info := o.Info()
	fi := navigation.NewFeedbackIntent(info.CallID, info.ElapsedSeconds)
	fi.ParticipantID = info.Participant.ID
	fi.ParticipantName = info.Participant.DisplayName
	fi.ParticipantProfile = info.Participant.ProfileRef
	fi.CallType = info.CallType.WireName()
	fi.Role = info.Role.String()
	fi.PacketsReceived = info.MediaStats.PacketsReceived
	fi.BytesReceived = info.MediaStats.BytesReceived
	return fi
}

// --- Introspection ---

// CallID returns the server-assigned call ID, or "" before assignment.
func (o *Orchestrator) CallID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sess.callID
}

// Terminated reports whether teardown has begun.
func (o *Orchestrator) Terminated() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sess.terminated
}

// Elapsed returns the timer's whole-seconds count.
func (o *Orchestrator) Elapsed() int {
	return o.timer.Elapsed()
}

// Info returns a snapshot of the session.
func (o *Orchestrator) Info() Info {
	o.mu.Lock()
	s := o.sess
	info := Info{
		CallID:       s.callID,
		Role:         s.role,
		CallType:     s.callType,
		Participant:  s.participant,
		State:        s.state,
		Terminated:   s.terminated,
		Cause:        s.cause,
		CreatedAt:    s.createdAt,
		RingingAt:    s.ringingAt,
		ConnectedAt:  s.connectedAt,
		TerminatedAt: s.terminatedAt,
	}
	o.mu.Unlock()

	info.MediaState = o.media.State()
	info.RemotePresent = o.media.RemoteParticipantPresent()
	info.MediaStats = o.media.Stats()
	info.ElapsedSeconds = o.timer.Elapsed()
	info.TimerRunning = o.timer.Running()
	return info
}

// OnUpdate registers a callback fired after every observable transition.
// Returns a function to unregister it.
func (o *Orchestrator) OnUpdate(fn func(Info)) func() {
	o.obsMu.Lock()
	o.obsSeq++
	id := o.obsSeq
	o.obsFns[id] = fn
	o.obsMu.Unlock()
	return func() {
		o.obsMu.Lock()
		delete(o.obsFns, id)
		o.obsMu.Unlock()
	}
}

func (o *Orchestrator) notifyUpdate() {
	o.obsMu.Lock()
	fns := make([]func(Info), 0, len(o.obsFns))
	for _, fn := range o.obsFns {
		fns = append(fns, fn)
	}
	o.obsMu.Unlock()
	if len(fns) == 0 {
		return
	}
	info := o.Info()
	for _, fn := range fns {
		fn(info)
	}
}
