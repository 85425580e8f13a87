// Package httpapi exposes a localhost control surface for the call
// client. A UI shell drives calls over plain JSON endpoints and follows
// live state over an SSE stream.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/tanmay/callkit/internal/app"
	"github.com/tanmay/callkit/internal/callsession"
	"github.com/tanmay/callkit/internal/navigation"
	"github.com/tanmay/callkit/internal/signaling"
)

// Server serves the control API on a loopback address.
type Server struct {
	log    *slog.Logger
	client *app.Client
	nav    *navigation.ChannelPublisher
	srv    *http.Server

	subMu  sync.Mutex
	subSeq int
	subs   map[int]chan event
}

type event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// New builds the server. nav may be nil; without it the event stream
// carries no navigation events.
func New(bind string, client *app.Client, nav *navigation.ChannelPublisher, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		log:    log,
		client: client,
		nav:    nav,
		subs:   make(map[int]chan event),
	}
	mux := http.NewServeMux()
	s.register(mux)
	s.srv = &http.Server{
		Addr:         bind,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE connections stay open
	}
	return s
}

// Handler returns the route mux, for serving through another listener.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start begins serving and pumping events. It returns when the listener
// fails or Shutdown is called.
func (s *Server) Start() error {
	s.client.OnIncoming(func(ic app.IncomingCall) {
		s.broadcast(event{Type: "incoming-call", Data: map[string]any{
			"call_id":   ic.CallID,
			"caller":    ic.Caller,
			"call_type": ic.CallType.WireName(),
		}})
	})
	if s.nav != nil {
		go s.pumpNavigation()
	}

	s.log.Info("[API] control API listening", "addr", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the HTTP listener and closes event streams.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)

	s.subMu.Lock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.subMu.Unlock()
	return err
}

func (s *Server) pumpNavigation() {
	for intent := range s.nav.Intents() {
		data := map[string]any{
			"destination": intent.Destination().String(),
			"intent_id":   intent.IntentID(),
		}
		switch it := intent.(type) {
		case *navigation.FeedbackIntent:
			data["call_id"] = it.CallID
			data["duration"] = it.Duration
		case *navigation.HomeIntent:
			data["reason"] = it.Reason
		}
		s.broadcast(event{Type: "navigate", Data: data})
	}
}

func (s *Server) register(mux *http.ServeMux) {
	// GET /api/call/status returns the active session snapshot, or idle.
	handleGet(mux, "/api/call/status", func(w http.ResponseWriter, r *http.Request) {
		orch := s.client.Active()
		if orch == nil || orch.Terminated() {
			resp := map[string]any{"state": "idle"}
			if ic := s.client.Incoming(); ic != nil {
				resp["state"] = "ringing"
				resp["incoming"] = map[string]any{
					"call_id":   ic.CallID,
					"caller":    ic.Caller,
					"call_type": ic.CallType.WireName(),
				}
			}
			writeJSON(w, resp)
			return
		}
		writeJSON(w, orch.Info())
	})

	// POST /api/call/start
	handlePost(mux, "/api/call/start", func(w http.ResponseWriter, r *http.Request, req struct {
		ParticipantID string `json:"participant_id"`
		DisplayName   string `json:"display_name"`
		CallType      string `json:"call_type"`
	}) {
		if req.ParticipantID == "" {
			http.Error(w, "missing participant_id", http.StatusBadRequest)
			return
		}
		orch, err := s.client.PlaceCall(r.Context(), signaling.Participant{
			ID:          req.ParticipantID,
			DisplayName: req.DisplayName,
		}, callsession.CallTypeFromWire(req.CallType))
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, app.ErrCallInProgress) {
				status = http.StatusConflict
			}
			http.Error(w, fmt.Sprintf("start call failed: %v", err), status)
			return
		}
		s.watchSession(orch)
		writeJSON(w, map[string]string{"status": "started", "call_id": orch.CallID()})
	})

	// POST /api/call/accept
	handlePost(mux, "/api/call/accept", func(w http.ResponseWriter, r *http.Request, req struct{}) {
		orch, err := s.client.Accept(r.Context())
		if err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, app.ErrNoIncomingCall):
				status = http.StatusNotFound
			case errors.Is(err, app.ErrCallInProgress):
				status = http.StatusConflict
			}
			http.Error(w, fmt.Sprintf("accept failed: %v", err), status)
			return
		}
		s.watchSession(orch)
		writeJSON(w, map[string]string{"status": "accepted", "call_id": orch.CallID()})
	})

	// POST /api/call/reject
	handlePost(mux, "/api/call/reject", func(w http.ResponseWriter, r *http.Request, req struct{}) {
		if err := s.client.Reject(); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]string{"status": "rejected"})
	})

	// POST /api/call/hangup
	handlePost(mux, "/api/call/hangup", func(w http.ResponseWriter, r *http.Request, req struct{}) {
		if err := s.client.Hangup(); err != nil {
			writeJSON(w, map[string]string{"status": "not_found"})
			return
		}
		writeJSON(w, map[string]string{"status": "hung_up"})
	})

	// POST /api/call/toggle-mute
	handlePost(mux, "/api/call/toggle-mute", func(w http.ResponseWriter, r *http.Request, req struct{}) {
		orch := s.client.Active()
		if orch == nil {
			http.Error(w, "no active call", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]bool{"muted": orch.ToggleMute()})
	})

	// POST /api/call/toggle-speaker
	handlePost(mux, "/api/call/toggle-speaker", func(w http.ResponseWriter, r *http.Request, req struct{}) {
		orch := s.client.Active()
		if orch == nil {
			http.Error(w, "no active call", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]bool{"speaker": orch.ToggleSpeaker()})
	})

	// POST /api/call/toggle-camera
	handlePost(mux, "/api/call/toggle-camera", func(w http.ResponseWriter, r *http.Request, req struct{}) {
		orch := s.client.Active()
		if orch == nil {
			http.Error(w, "no active call", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]bool{"enabled": orch.ToggleCamera()})
	})

	// GET /api/call/events streams incoming calls, session updates, and
	// navigation events over SSE. Each connection gets its own buffered
	// channel and is unsubscribed on disconnect.
	handleGet(mux, "/api/call/events", func(w http.ResponseWriter, r *http.Request) {
		sseHeaders(w)
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}

		ch, cancel := s.subscribe()
		defer cancel()

		fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"ok\"}\n\n")
		flusher.Flush()

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				data, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
				flusher.Flush()
			}
		}
	})
}

// watchSession relays a session's state snapshots to the event stream
// until the session terminates. Unsubscription runs in its own goroutine
// so the update callback never touches the handle it was registered by.
func (s *Server) watchSession(orch *callsession.Orchestrator) {
	done := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(done) }) }

	un := orch.OnUpdate(func(info callsession.Info) {
		s.broadcast(event{Type: "call-update", Data: info})
		if info.Terminated {
			finish()
		}
	})
	// The session may have terminated before the observer was installed,
	// in which case no further update will fire.
	if orch.Terminated() {
		finish()
	}
	go func() {
		<-done
		un()
	}()
}

func (s *Server) subscribe() (<-chan event, func()) {
	ch := make(chan event, 16)
	s.subMu.Lock()
	s.subSeq++
	id := s.subSeq
	s.subs[id] = ch
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
		s.subMu.Unlock()
	}
}

func (s *Server) broadcast(ev event) {
	s.subMu.Lock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			// Slow consumer; drop rather than block call handling.
		}
	}
	s.subMu.Unlock()
}
