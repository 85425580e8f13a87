package media

import (
	"sync/atomic"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// trackCounter drains one remote track, counting inbound packets and
// bytes. The drain loop doubles as the keepalive read Pion requires on
// remote tracks.
type trackCounter struct {
	packets atomic.Uint64
	bytes   atomic.Uint64
}

func (c *trackCounter) consume(track *webrtc.TrackRemote) {
	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			return
		}
		c.record(pkt)
	}
}

func (c *trackCounter) record(p *rtp.Packet) {
	c.packets.Add(1)
	c.bytes.Add(uint64(p.Header.MarshalSize()) + uint64(len(p.Payload)))
}
