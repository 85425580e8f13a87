package media

import "testing"

const answerSDP = `v=0
o=- 5505662280491037104 2 IN IP4 127.0.0.1
s=-
t=0 0
m=audio 9 UDP/TLS/RTP/SAVPF 111 0
c=IN IP4 0.0.0.0
a=rtpmap:111 opus/48000/2
a=rtpmap:0 PCMU/8000
m=video 9 UDP/TLS/RTP/SAVPF 96
c=IN IP4 0.0.0.0
a=rtpmap:96 VP8/90000
`

func TestInspectAnswer(t *testing.T) {
	got, err := inspectAnswer(answerSDP)
	if err != nil {
		t.Fatalf("inspectAnswer() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("sections = %d, want 2", len(got))
	}

	if got[0].Kind != "audio" {
		t.Errorf("sections[0].Kind = %q, want audio", got[0].Kind)
	}
	if len(got[0].Codecs) != 2 || got[0].Codecs[0] != "opus/48000/2" {
		t.Errorf("audio codecs = %v, want [opus/48000/2 PCMU/8000]", got[0].Codecs)
	}

	if got[1].Kind != "video" {
		t.Errorf("sections[1].Kind = %q, want video", got[1].Kind)
	}
	if len(got[1].Codecs) != 1 || got[1].Codecs[0] != "VP8/90000" {
		t.Errorf("video codecs = %v, want [VP8/90000]", got[1].Codecs)
	}
}

func TestInspectAnswerMalformed(t *testing.T) {
	if _, err := inspectAnswer("not sdp"); err == nil {
		t.Error("inspectAnswer() error = nil for malformed input")
	}
}
