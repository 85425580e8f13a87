package httpapi

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tanmay/callkit/internal/app"
	"github.com/tanmay/callkit/internal/media"
	"github.com/tanmay/callkit/internal/signaling"
)

func newTestServer(t *testing.T) (*httptest.Server, *signaling.LoopbackChannel) {
	t.Helper()
	ch, server := signaling.NewLoopbackPair()

	factory := func(video bool) media.Session {
		s := media.NewScriptedSession()
		s.AutoConnect = true
		return s
	}
	client := app.New(ch, false, nil, factory, nil)
	client.Start()
	t.Cleanup(client.Close)

	api := New("127.0.0.1:0", client, nil, nil)
	ts := httptest.NewServer(api.Handler())
	t.Cleanup(ts.Close)
	return ts, server
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	resp, err := http.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return m
}

func TestStatusIdle(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/call/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()

	m := decodeBody(t, resp)
	if m["state"] != "idle" {
		t.Errorf("state = %v, want idle", m["state"])
	}
}

func TestStartCallAndStatus(t *testing.T) {
	ts, server := newTestServer(t)

	server.Subscribe(signaling.EventInitiate, func(json.RawMessage) {
		server.Emit(signaling.EventRinging, signaling.RingingPayload{CallID: "call-1"})
	})

	resp := postJSON(t, ts.URL+"/api/call/start", map[string]string{
		"participant_id": "tc-1",
		"display_name":   "Asha",
		"call_type":      "audio",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d, want 200", resp.StatusCode)
	}
	m := decodeBody(t, resp)
	if m["call_id"] != "call-1" {
		t.Errorf("call_id = %v, want call-1", m["call_id"])
	}

	statusResp, err := http.Get(ts.URL + "/api/call/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer statusResp.Body.Close()
	sm := decodeBody(t, statusResp)
	if sm["call_id"] != "call-1" {
		t.Errorf("status call_id = %v, want call-1", sm["call_id"])
	}
}

func TestStartCallConflict(t *testing.T) {
	ts, server := newTestServer(t)

	server.Subscribe(signaling.EventInitiate, func(json.RawMessage) {
		server.Emit(signaling.EventRinging, signaling.RingingPayload{CallID: "call-1"})
	})

	postJSON(t, ts.URL+"/api/call/start", map[string]string{"participant_id": "tc-1"})
	resp := postJSON(t, ts.URL+"/api/call/start", map[string]string{"participant_id": "tc-2"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second start status = %d, want 409", resp.StatusCode)
	}
}

func TestStartCallMissingParticipant(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := postJSON(t, ts.URL+"/api/call/start", map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHangup(t *testing.T) {
	ts, server := newTestServer(t)

	server.Subscribe(signaling.EventInitiate, func(json.RawMessage) {
		server.Emit(signaling.EventRinging, signaling.RingingPayload{CallID: "call-1"})
	})

	postJSON(t, ts.URL+"/api/call/start", map[string]string{"participant_id": "tc-1"})

	resp := postJSON(t, ts.URL+"/api/call/hangup", nil)
	m := decodeBody(t, resp)
	if m["status"] != "hung_up" {
		t.Errorf("status = %v, want hung_up", m["status"])
	}
}

func TestHangupWithoutCall(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := postJSON(t, ts.URL+"/api/call/hangup", nil)
	m := decodeBody(t, resp)
	if m["status"] != "not_found" {
		t.Errorf("status = %v, want not_found", m["status"])
	}
}

func TestTogglesRequireActiveCall(t *testing.T) {
	ts, _ := newTestServer(t)
	for _, path := range []string{"toggle-mute", "toggle-speaker", "toggle-camera"} {
		resp := postJSON(t, ts.URL+"/api/call/"+path, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s status = %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestEventStreamReportsTermination(t *testing.T) {
	ts, server := newTestServer(t)

	server.Subscribe(signaling.EventInitiate, func(json.RawMessage) {
		server.Emit(signaling.EventRinging, signaling.RingingPayload{CallID: "call-1"})
	})

	resp, err := http.Get(ts.URL + "/api/call/events")
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()

	lines := make(chan string, 64)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	waitLine := func(substr string) {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					t.Fatalf("stream closed waiting for %q", substr)
				}
				if strings.Contains(line, substr) {
					return
				}
			case <-deadline:
				t.Fatalf("timeout waiting for %q", substr)
			}
		}
	}

	waitLine("event: connected")

	postJSON(t, ts.URL+"/api/call/start", map[string]string{"participant_id": "tc-1"})
	postJSON(t, ts.URL+"/api/call/hangup", nil)

	// The session watch forwards the final snapshot and then drops its
	// observer in a separate goroutine.
	waitLine(`"terminated":true`)
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/call/hangup")
	if err != nil {
		t.Fatalf("GET hangup: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET hangup status = %d, want 405", resp.StatusCode)
	}
}
