package media

import (
	"context"
	"errors"
	"testing"
)

func TestScriptedSessionConnectOnce(t *testing.T) {
	s := NewScriptedSession()
	creds := Credentials{Token: "t", ServerURL: "wss://m", RoomName: "r"}

	if err := s.Connect(context.Background(), creds); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := s.Connect(context.Background(), creds); !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("second Connect() error = %v, want ErrAlreadyConnected", err)
	}
	if got := s.ConnectCalls(); got != 1 {
		t.Errorf("ConnectCalls() = %d, want 1", got)
	}
	if got := s.Credentials(); got == nil || got.RoomName != "r" {
		t.Errorf("Credentials() = %+v, want room r", got)
	}
}

func TestScriptedSessionAutoConnect(t *testing.T) {
	s := NewScriptedSession()
	s.AutoConnect = true

	var states []ConnectionState
	s.OnStateChange(func(st ConnectionState) { states = append(states, st) })

	var remote []bool
	s.OnRemoteParticipant(func(p bool) { remote = append(remote, p) })

	if err := s.Connect(context.Background(), Credentials{}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	want := []ConnectionState{StateConnecting, StateConnected}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("states[%d] = %v, want %v", i, states[i], want[i])
		}
	}
	if len(remote) != 1 || !remote[0] {
		t.Errorf("remote notifications = %v, want [true]", remote)
	}
	if !s.RemoteParticipantPresent() {
		t.Error("RemoteParticipantPresent() = false after auto connect")
	}
}

func TestScriptedSessionDisconnectIdempotent(t *testing.T) {
	s := NewScriptedSession()
	s.AutoConnect = true
	s.Connect(context.Background(), Credentials{})

	var states []ConnectionState
	s.OnStateChange(func(st ConnectionState) { states = append(states, st) })

	s.Disconnect(context.Background())
	s.Disconnect(context.Background())

	if got := s.DisconnectCalls(); got != 2 {
		t.Errorf("DisconnectCalls() = %d, want 2", got)
	}
	if len(states) != 1 || states[0] != StateDisconnected {
		t.Errorf("states = %v, want [Disconnected]", states)
	}
}

func TestScriptedSessionObserverUnsubscribe(t *testing.T) {
	s := NewScriptedSession()

	var calls int
	un := s.OnStateChange(func(ConnectionState) { calls++ })

	s.SetState(StateConnecting)
	un()
	s.SetState(StateConnected)

	if calls != 1 {
		t.Errorf("observer calls = %d, want 1", calls)
	}
}

func TestScriptedSessionFailWith(t *testing.T) {
	s := NewScriptedSession()

	var got error
	s.OnError(func(err error) { got = err })

	s.FailWith(ErrTokenExpired)

	if !errors.Is(got, ErrTokenExpired) {
		t.Errorf("observed error = %v, want ErrTokenExpired", got)
	}
	if !errors.Is(s.Err(), ErrTokenExpired) {
		t.Errorf("Err() = %v, want ErrTokenExpired", s.Err())
	}
}

func TestScriptedSessionToggles(t *testing.T) {
	s := NewScriptedSession()

	if !s.ToggleMute() {
		t.Error("first ToggleMute() = false, want true")
	}
	if s.ToggleMute() {
		t.Error("second ToggleMute() = true, want false")
	}
	if !s.ToggleSpeaker() {
		t.Error("first ToggleSpeaker() = false, want true")
	}
	if !s.ToggleCamera() {
		t.Error("first ToggleCamera() = false, want true")
	}
}

func TestConnectionStateString(t *testing.T) {
	tests := []struct {
		state ConnectionState
		want  string
	}{
		{StateIdle, "Idle"},
		{StateConnecting, "Connecting"},
		{StateConnected, "Connected"},
		{StateDisconnected, "Disconnected"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("ConnectionState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
