package signaling

import (
	"encoding/json"
	"testing"
)

func TestLoopbackDelivery(t *testing.T) {
	a, b := NewLoopbackPair()

	var got []string
	b.Subscribe(EventInitiate, func(raw json.RawMessage) {
		var p InitiatePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		got = append(got, p.ParticipantID)
	})

	if ok := a.Emit(EventInitiate, InitiatePayload{ParticipantID: "tc-1", CallType: "audio"}); !ok {
		t.Fatal("Emit() = false on connected channel")
	}
	if len(got) != 1 || got[0] != "tc-1" {
		t.Errorf("delivered = %v, want [tc-1]", got)
	}
}

func TestLoopbackEmitWhileDisconnected(t *testing.T) {
	a, b := NewLoopbackPair()
	a.SetConnected(false)

	var delivered int
	b.Subscribe(EventInitiate, func(json.RawMessage) { delivered++ })

	if ok := a.Emit(EventInitiate, InitiatePayload{ParticipantID: "tc-1"}); ok {
		t.Error("Emit() = true on disconnected channel")
	}
	if delivered != 0 {
		t.Errorf("delivered = %d, want 0", delivered)
	}
	if a.IsConnected() {
		t.Error("IsConnected() = true after SetConnected(false)")
	}
}

func TestLoopbackUnsubscribe(t *testing.T) {
	a, _ := NewLoopbackPair()

	var calls int
	un := a.Subscribe(EventEnded, func(json.RawMessage) { calls++ })

	a.Deliver(EventEnded, json.RawMessage(`{}`))
	un()
	a.Deliver(EventEnded, json.RawMessage(`{}`))

	if calls != 1 {
		t.Errorf("handler calls = %d, want 1", calls)
	}
	if got := a.HandlerCount(EventEnded); got != 0 {
		t.Errorf("HandlerCount() = %d, want 0", got)
	}
}

func TestLoopbackMultipleHandlers(t *testing.T) {
	a, _ := NewLoopbackPair()

	var first, second int
	a.Subscribe(EventRinging, func(json.RawMessage) { first++ })
	a.Subscribe(EventRinging, func(json.RawMessage) { second++ })

	a.Deliver(EventRinging, json.RawMessage(`{"callId":"c1"}`))

	if first != 1 || second != 1 {
		t.Errorf("handler calls = %d/%d, want 1/1", first, second)
	}
	if got := a.HandlerCount(EventRinging); got != 2 {
		t.Errorf("HandlerCount() = %d, want 2", got)
	}
}

func TestUserClientRoundTrip(t *testing.T) {
	userCh, serverCh := NewLoopbackPair()
	user := NewUserClient(userCh)

	var initiated []InitiatePayload
	serverCh.Subscribe(EventInitiate, func(raw json.RawMessage) {
		var p InitiatePayload
		json.Unmarshal(raw, &p)
		initiated = append(initiated, p)
	})

	var accepted []AcceptedPayload
	user.OnAccepted(func(p AcceptedPayload) { accepted = append(accepted, p) })

	if !user.EmitInitiate("tc-7", "video") {
		t.Fatal("EmitInitiate() = false")
	}
	if len(initiated) != 1 || initiated[0].CallType != "video" {
		t.Fatalf("initiate payloads = %+v", initiated)
	}

	serverCh.Emit(EventAccepted, AcceptedPayload{
		CallID: "call-7",
		Media:  MediaGrant{Token: "tok", ServerURL: "wss://m", RoomName: "r7"},
	})

	if len(accepted) != 1 {
		t.Fatalf("accepted payloads = %d, want 1", len(accepted))
	}
	if accepted[0].Media.RoomName != "r7" {
		t.Errorf("RoomName = %q, want r7", accepted[0].Media.RoomName)
	}
}

func TestTelecallerClientIncoming(t *testing.T) {
	tcCh, serverCh := NewLoopbackPair()
	tc := NewTelecallerClient(tcCh)

	var incoming []IncomingPayload
	tc.OnIncoming(func(p IncomingPayload) { incoming = append(incoming, p) })

	serverCh.Emit(EventIncoming, IncomingPayload{
		CallID:   "call-3",
		Caller:   Participant{ID: "user-3", DisplayName: "Ravi"},
		CallType: "audio",
		Media:    &MediaGrant{Token: "tok", ServerURL: "wss://m", RoomName: "r3"},
	})

	if len(incoming) != 1 {
		t.Fatalf("incoming payloads = %d, want 1", len(incoming))
	}
	p := incoming[0]
	if p.CallID != "call-3" || p.Caller.ID != "user-3" {
		t.Errorf("payload = %+v", p)
	}
	if p.Media == nil || p.Media.RoomName != "r3" {
		t.Errorf("Media = %+v, want room r3", p.Media)
	}

	var rejected []RejectPayload
	serverCh.Subscribe(EventReject, func(raw json.RawMessage) {
		var rp RejectPayload
		json.Unmarshal(raw, &rp)
		rejected = append(rejected, rp)
	})
	tc.EmitReject("call-3")
	if len(rejected) != 1 || rejected[0].CallID != "call-3" {
		t.Errorf("reject payloads = %+v", rejected)
	}
}

func TestEnvelopeWireFormat(t *testing.T) {
	raw, err := json.Marshal(AcceptedPayload{
		CallID: "c1",
		Media:  MediaGrant{Token: "t", ServerURL: "wss://m", RoomName: "r"},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	grant, ok := m["livekit"].(map[string]any)
	if !ok {
		t.Fatalf("livekit field missing: %v", m)
	}
	for _, k := range []string{"token", "url", "roomName"} {
		if _, ok := grant[k]; !ok {
			t.Errorf("grant field %q missing: %v", k, grant)
		}
	}
}
