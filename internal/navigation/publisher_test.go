package navigation

import (
	"context"
	"testing"
	"time"
)

func TestNoopPublisher(t *testing.T) {
	pub := NewNoopPublisher()

	if err := pub.Publish(context.Background(), NewHomeIntent(false, "")); err != nil {
		t.Errorf("NoopPublisher.Publish() error = %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("NoopPublisher.Close() error = %v", err)
	}
}

func TestChannelPublisher(t *testing.T) {
	pub := NewChannelPublisher(10)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := pub.Publish(ctx, NewFeedbackIntent("call-1", i)); err != nil {
			t.Errorf("Publish() error = %v", err)
		}
	}

	ch := pub.Intents()
	for i := 0; i < 5; i++ {
		select {
		case intent := <-ch:
			if intent.Destination() != DestinationFeedback {
				t.Errorf("destination = %v, want DestinationFeedback", intent.Destination())
			}
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for intent")
		}
	}

	pub.Close()
}

func TestChannelPublisherDropsOnFull(t *testing.T) {
	pub := NewChannelPublisher(2)

	ctx := context.Background()
	pub.Publish(ctx, NewHomeIntent(false, "one"))
	pub.Publish(ctx, NewHomeIntent(false, "two"))

	// Buffer is full; this one is dropped.
	pub.Publish(ctx, NewHomeIntent(false, "three"))

	if got := pub.DroppedCount(); got != 1 {
		t.Errorf("DroppedCount() = %d, want 1", got)
	}

	pub.Close()
}

func TestMultiPublisher(t *testing.T) {
	ch1 := NewChannelPublisher(10)
	ch2 := NewChannelPublisher(10)

	multi := NewMultiPublisher(ch1, ch2)

	if err := multi.Publish(context.Background(), NewFeedbackIntent("call-1", 30)); err != nil {
		t.Errorf("MultiPublisher.Publish() error = %v", err)
	}

	select {
	case <-ch1.Intents():
	case <-time.After(time.Second):
		t.Error("ch1 did not receive intent")
	}

	select {
	case <-ch2.Intents():
	case <-time.After(time.Second):
		t.Error("ch2 did not receive intent")
	}

	multi.Close()
}

func TestIntentIdentity(t *testing.T) {
	a := NewFeedbackIntent("call-1", 10)
	b := NewFeedbackIntent("call-1", 10)
	if a.IntentID() == b.IntentID() {
		t.Error("two intents share an ID")
	}
	if a.IntentID() == "" {
		t.Error("intent ID is empty")
	}
}

func TestHomeIntentDestinationByRole(t *testing.T) {
	if got := NewHomeIntent(false, "").Destination(); got != DestinationUserHome {
		t.Errorf("user home destination = %v, want DestinationUserHome", got)
	}
	if got := NewHomeIntent(true, "").Destination(); got != DestinationTelecallerDashboard {
		t.Errorf("telecaller home destination = %v, want DestinationTelecallerDashboard", got)
	}
}

func TestFeedbackIntentDuration(t *testing.T) {
	fi := NewFeedbackIntent("call-1", 42)
	if fi.Duration != "42" {
		t.Errorf("Duration = %q, want %q", fi.Duration, "42")
	}
	if fi.CallID != "call-1" {
		t.Errorf("CallID = %q, want %q", fi.CallID, "call-1")
	}
}
