package media

import (
	"context"
	"sync"
)

// ScriptedSession is an in-memory Session driven by the test (or the
// demo runner) instead of a real transport. State, remote presence, and
// errors are injected through the Set* methods; observers fire
// synchronously on the injecting goroutine.
type ScriptedSession struct {
	// AutoConnect makes Connect go straight to Connected with a remote
	// participant present. Set before use.
	AutoConnect bool

	mu        sync.Mutex
	state     ConnectionState
	remote    bool
	err       error
	stats     Stats
	creds     *Credentials
	muted     bool
	speakerOn bool
	cameraOff bool

	connectCalls    int
	disconnectCalls int

	hub *hub
}

// NewScriptedSession creates an idle scripted session.
func NewScriptedSession() *ScriptedSession {
	return &ScriptedSession{hub: newHub()}
}

func (s *ScriptedSession) Connect(ctx context.Context, creds Credentials) error {
	s.mu.Lock()
	if s.connectCalls > 0 {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.connectCalls++
	s.creds = &creds
	auto := s.AutoConnect
	s.mu.Unlock()

	s.SetState(StateConnecting)
	if auto {
		s.SetState(StateConnected)
		s.SetRemotePresent(true)
	}
	return nil
}

func (s *ScriptedSession) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	s.disconnectCalls++
	first := s.disconnectCalls == 1 && s.state != StateIdle
	s.mu.Unlock()
	if first {
		s.SetState(StateDisconnected)
	}
	return nil
}

func (s *ScriptedSession) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *ScriptedSession) RemoteParticipantPresent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remote
}

func (s *ScriptedSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *ScriptedSession) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *ScriptedSession) ToggleMute() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = !s.muted
	return s.muted
}

func (s *ScriptedSession) ToggleSpeaker() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speakerOn = !s.speakerOn
	return s.speakerOn
}

func (s *ScriptedSession) ToggleCamera() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameraOff = !s.cameraOff
	return s.cameraOff
}

func (s *ScriptedSession) OnStateChange(fn func(ConnectionState)) func() {
	return s.hub.onState(fn)
}

func (s *ScriptedSession) OnRemoteParticipant(fn func(bool)) func() {
	return s.hub.onRemote(fn)
}

func (s *ScriptedSession) OnError(fn func(error)) func() {
	return s.hub.onError(fn)
}

// --- Script controls ---

// SetState injects a connection state transition.
func (s *ScriptedSession) SetState(state ConnectionState) {
	s.mu.Lock()
	if s.state == state {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.mu.Unlock()
	s.hub.fireState(state)
}

// SetRemotePresent injects a remote-participant presence change.
func (s *ScriptedSession) SetRemotePresent(present bool) {
	s.mu.Lock()
	if s.remote == present {
		s.mu.Unlock()
		return
	}
	s.remote = present
	s.mu.Unlock()
	s.hub.fireRemote(present)
}

// FailWith injects an asynchronous media error.
func (s *ScriptedSession) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.hub.fireError(err)
}

// SetStats injects media counters.
func (s *ScriptedSession) SetStats(st Stats) {
	s.mu.Lock()
	s.stats = st
	s.mu.Unlock()
}

// ConnectCalls returns how many times Connect was invoked.
func (s *ScriptedSession) ConnectCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectCalls
}

// DisconnectCalls returns how many times Disconnect was invoked.
func (s *ScriptedSession) DisconnectCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnectCalls
}

// Credentials returns the credentials passed to Connect, if any.
func (s *ScriptedSession) Credentials() *Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}
