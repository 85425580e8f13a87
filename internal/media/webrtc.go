package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
)

// rtcMessage is the JSON envelope on the media server's control socket.
type rtcMessage struct {
	Type        string                   `json:"type"`
	SDP         string                   `json:"sdp,omitempty"`
	Candidate   *webrtc.ICECandidateInit `json:"candidate,omitempty"`
	Participant string                   `json:"participant,omitempty"`
	Message     string                   `json:"message,omitempty"`
	Enabled     *bool                    `json:"enabled,omitempty"`
}

// WebRTCSession implements Session against the media server: a
// websocket control channel for join/offer/answer/ICE, a Pion peer
// connection for the transport itself. Local capture devices are
// attached by the platform layer; this session receives remote media
// and reports mute/camera intent to the server.
type WebRTCSession struct {
	video bool
	log   *slog.Logger
	hub   *hub

	mu         sync.Mutex
	state      ConnectionState
	remote     bool
	lastErr    error
	muted      bool
	speakerOn  bool
	cameraOff  bool
	dialed     bool
	closed     bool
	negotiated []NegotiatedMedia
	counters   []*trackCounter

	pc      *webrtc.PeerConnection
	ws      *websocket.Conn
	writeMu sync.Mutex
}

// NewWebRTCSession creates an idle session. video controls whether a
// video transceiver is negotiated alongside audio.
func NewWebRTCSession(video bool, log *slog.Logger) *WebRTCSession {
	if log == nil {
		log = slog.Default()
	}
	return &WebRTCSession{video: video, log: log, hub: newHub()}
}

// Connect dials the media server and starts negotiation. Invoked at
// most once; the Connected state arrives asynchronously through the
// state observer once ICE completes.
func (s *WebRTCSession) Connect(ctx context.Context, creds Credentials) error {
	s.mu.Lock()
	if s.dialed {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.dialed = true
	s.mu.Unlock()

	claims, err := ParseToken(creds.Token)
	if err != nil {
		return err
	}
	if claims.Expired(time.Now()) {
		return ErrTokenExpired
	}

	wsURL, err := controlURL(creds.ServerURL, creds.RoomName)
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+creds.Token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return fmt.Errorf("dial media server: %w", err)
	}

	s.setState(StateConnecting)
	s.log.Info("[Media] joining room",
		"room", creds.RoomName, "identity", claims.Identity, "video", s.video)

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: []string{"stun:stun.l.google.com:19302"}},
		},
	})
	if err != nil {
		conn.Close()
		return fmt.Errorf("create peer connection: %w", err)
	}

	s.mu.Lock()
	s.ws = conn
	s.pc = pc
	s.mu.Unlock()

	// Local capture is attached by the platform layer; negotiate
	// receive-only transceivers here.
	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	}); err != nil {
		s.teardownTransport()
		return fmt.Errorf("add audio transceiver: %w", err)
	}
	if s.video {
		if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionRecvonly,
		}); err != nil {
			s.teardownTransport()
			return fmt.Errorf("add video transceiver: %w", err)
		}
	}

	pc.OnConnectionStateChange(func(st webrtc.PeerConnectionState) {
		switch st {
		case webrtc.PeerConnectionStateConnected:
			s.setState(StateConnected)
		case webrtc.PeerConnectionStateDisconnected,
			webrtc.PeerConnectionStateFailed,
			webrtc.PeerConnectionStateClosed:
			s.setState(StateDisconnected)
		}
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		counter := &trackCounter{}
		s.mu.Lock()
		s.counters = append(s.counters, counter)
		s.mu.Unlock()
		s.log.Debug("[Media] remote track", "kind", track.Kind().String(), "id", track.ID())
		s.setRemote(true)
		go counter.consume(track)
	})

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		init := c.ToJSON()
		s.send(rtcMessage{Type: "ice", Candidate: &init})
	})

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		s.teardownTransport()
		return fmt.Errorf("create offer: %w", err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		s.teardownTransport()
		return fmt.Errorf("set local description: %w", err)
	}
	if err := s.send(rtcMessage{Type: "offer", SDP: offer.SDP}); err != nil {
		s.teardownTransport()
		return err
	}

	go s.readPump(conn, pc)
	return nil
}

// controlURL derives the websocket control endpoint from the granted
// server URL. http(s) schemes are upgraded to ws(s).
func controlURL(serverURL, room string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse media server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported media server scheme %q", u.Scheme)
	}
	u.Path = "/rtc"
	q := u.Query()
	q.Set("room", room)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *WebRTCSession) readPump(conn *websocket.Conn, pc *webrtc.PeerConnection) {
	for {
		var m rtcMessage
		if err := conn.ReadJSON(&m); err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if !closed {
				s.fail(fmt.Errorf("media control socket: %w", err))
			}
			return
		}

		switch m.Type {
		case "answer":
			if err := pc.SetRemoteDescription(webrtc.SessionDescription{
				Type: webrtc.SDPTypeAnswer,
				SDP:  m.SDP,
			}); err != nil {
				s.fail(fmt.Errorf("apply answer: %w", err))
				continue
			}
			if negotiated, err := inspectAnswer(m.SDP); err == nil {
				s.mu.Lock()
				s.negotiated = negotiated
				s.mu.Unlock()
				for _, nm := range negotiated {
					s.log.Info("[Media] negotiated", "kind", nm.Kind, "codecs", nm.Codecs)
				}
			}
		case "ice":
			if m.Candidate != nil {
				if err := pc.AddICECandidate(*m.Candidate); err != nil {
					s.log.Warn("[Media] add remote candidate failed", "error", err)
				}
			}
		case "participant_joined":
			s.setRemote(true)
		case "participant_left":
			s.setRemote(false)
		case "error":
			s.fail(errors.New(m.Message))
		}
	}
}

// Disconnect leaves the room and releases the transport. Idempotent,
// safe before Connect.
func (s *WebRTCSession) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	dialed := s.dialed
	s.mu.Unlock()

	if !dialed {
		return nil
	}
	_ = s.send(rtcMessage{Type: "leave"})
	s.teardownTransport()
	s.setState(StateDisconnected)
	return nil
}

func (s *WebRTCSession) teardownTransport() {
	s.mu.Lock()
	pc := s.pc
	ws := s.ws
	s.mu.Unlock()
	if pc != nil {
		if err := pc.Close(); err != nil {
			s.log.Warn("[Media] peer connection close failed", "error", err)
		}
	}
	if ws != nil {
		ws.Close()
	}
}

func (s *WebRTCSession) send(m rtcMessage) error {
	s.mu.Lock()
	ws := s.ws
	s.mu.Unlock()
	if ws == nil {
		return errors.New("media control socket not connected")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return ws.WriteJSON(m)
}

func (s *WebRTCSession) fail(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	s.hub.fireError(err)
}

func (s *WebRTCSession) setState(state ConnectionState) {
	s.mu.Lock()
	if s.state == state {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.mu.Unlock()
	s.hub.fireState(state)
}

func (s *WebRTCSession) setRemote(present bool) {
	s.mu.Lock()
	if s.remote == present {
		s.mu.Unlock()
		return
	}
	s.remote = present
	s.mu.Unlock()
	s.hub.fireRemote(present)
}

// --- Session contract ---

func (s *WebRTCSession) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *WebRTCSession) RemoteParticipantPresent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remote
}

func (s *WebRTCSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *WebRTCSession) Stats() Stats {
	s.mu.Lock()
	counters := s.counters
	s.mu.Unlock()
	var st Stats
	st.RemoteTracks = len(counters)
	for _, c := range counters {
		st.PacketsReceived += c.packets.Load()
		st.BytesReceived += c.bytes.Load()
	}
	return st
}

// Negotiated returns the media sections of the answer SDP, once known.
func (s *WebRTCSession) Negotiated() []NegotiatedMedia {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.negotiated
}

// ToggleMute flips the microphone flag and reports it to the server.
func (s *WebRTCSession) ToggleMute() bool {
	s.mu.Lock()
	s.muted = !s.muted
	muted := s.muted
	s.mu.Unlock()
	enabled := !muted
	_ = s.send(rtcMessage{Type: "mute", Enabled: &enabled})
	return muted
}

// ToggleSpeaker flips the loudspeaker flag. Output routing itself is a
// platform concern; this only tracks intent.
func (s *WebRTCSession) ToggleSpeaker() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speakerOn = !s.speakerOn
	return s.speakerOn
}

// ToggleCamera flips the camera flag and reports it to the server.
func (s *WebRTCSession) ToggleCamera() bool {
	s.mu.Lock()
	s.cameraOff = !s.cameraOff
	off := s.cameraOff
	s.mu.Unlock()
	enabled := !off
	_ = s.send(rtcMessage{Type: "camera", Enabled: &enabled})
	return off
}

func (s *WebRTCSession) OnStateChange(fn func(ConnectionState)) func() {
	return s.hub.onState(fn)
}

func (s *WebRTCSession) OnRemoteParticipant(fn func(bool)) func() {
	return s.hub.onRemote(fn)
}

func (s *WebRTCSession) OnError(fn func(error)) func() {
	return s.hub.onError(fn)
}
