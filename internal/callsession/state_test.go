package callsession

import "testing"

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateConnecting, "Connecting"},
		{StateConnected, "Connected"},
		{State(99), "Unknown(99)"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestEndCauseString(t *testing.T) {
	tests := []struct {
		cause EndCause
		want  string
	}{
		{EndCauseNone, "None"},
		{EndCauseLocalHangup, "LocalHangup"},
		{EndCauseRemoteHangup, "RemoteHangup"},
		{EndCauseCancel, "Cancel"},
		{EndCauseRejected, "Rejected"},
		{EndCauseMissed, "Missed"},
		{EndCauseSignalingError, "SignalingError"},
		{EndCauseMediaError, "MediaError"},
		{EndCauseMediaLost, "MediaLost"},
	}
	for _, tt := range tests {
		if got := tt.cause.String(); got != tt.want {
			t.Errorf("EndCause(%d).String() = %q, want %q", tt.cause, got, tt.want)
		}
	}
}

func TestCallTypeWire(t *testing.T) {
	if got := CallTypeAudio.WireName(); got != "audio" {
		t.Errorf("CallTypeAudio.WireName() = %q, want %q", got, "audio")
	}
	if got := CallTypeVideo.WireName(); got != "video" {
		t.Errorf("CallTypeVideo.WireName() = %q, want %q", got, "video")
	}

	if got := CallTypeFromWire("video"); got != CallTypeVideo {
		t.Errorf("CallTypeFromWire(video) = %v, want CallTypeVideo", got)
	}
	if got := CallTypeFromWire("audio"); got != CallTypeAudio {
		t.Errorf("CallTypeFromWire(audio) = %v, want CallTypeAudio", got)
	}
	if got := CallTypeFromWire("garbage"); got != CallTypeAudio {
		t.Errorf("CallTypeFromWire(garbage) = %v, want CallTypeAudio", got)
	}
}
