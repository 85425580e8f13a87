package media

import (
	"fmt"
	"strings"

	"github.com/pion/sdp/v3"
)

// NegotiatedMedia summarizes one media section of the answer SDP.
type NegotiatedMedia struct {
	Kind   string   // "audio" or "video"
	Codecs []string // rtpmap entries, e.g. "opus/48000/2"
}

// inspectAnswer extracts the negotiated media sections from an answer
// SDP. Used for logging and session info only; Pion owns the actual
// negotiation.
func inspectAnswer(raw string) ([]NegotiatedMedia, error) {
	var desc sdp.SessionDescription
	if err := desc.Unmarshal([]byte(raw)); err != nil {
		return nil, fmt.Errorf("parse answer sdp: %w", err)
	}

	out := make([]NegotiatedMedia, 0, len(desc.MediaDescriptions))
	for _, m := range desc.MediaDescriptions {
		nm := NegotiatedMedia{Kind: m.MediaName.Media}
		for _, a := range m.Attributes {
			if a.Key != "rtpmap" {
				continue
			}
			// "111 opus/48000/2" -> "opus/48000/2"
			if _, codec, ok := strings.Cut(a.Value, " "); ok {
				nm.Codecs = append(nm.Codecs, codec)
			}
		}
		out = append(out, nm)
	}
	return out, nil
}
