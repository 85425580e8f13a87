package callsession

import (
	"testing"
	"time"
)

func TestTimerCounts(t *testing.T) {
	timer := NewTimer()
	timer.tick = 5 * time.Millisecond

	timer.Start()
	deadline := time.Now().Add(2 * time.Second)
	for timer.Elapsed() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	timer.Stop()

	if got := timer.Elapsed(); got < 3 {
		t.Errorf("Elapsed() = %d, want >= 3", got)
	}
}

func TestTimerStopPreservesCount(t *testing.T) {
	timer := NewTimer()
	timer.advance(10)
	timer.Stop()

	if got := timer.Elapsed(); got != 10 {
		t.Errorf("Elapsed() after Stop = %d, want 10", got)
	}
}

func TestTimerStartStopIdempotent(t *testing.T) {
	timer := NewTimer()

	timer.Start()
	timer.Start()
	if !timer.Running() {
		t.Error("Running() = false after Start")
	}

	timer.Stop()
	timer.Stop()
	if timer.Running() {
		t.Error("Running() = true after Stop")
	}
}

func TestTimerStopDoesNotCount(t *testing.T) {
	timer := NewTimer()
	timer.tick = time.Millisecond

	timer.Start()
	timer.Stop()
	before := timer.Elapsed()
	time.Sleep(20 * time.Millisecond)

	if got := timer.Elapsed(); got != before {
		t.Errorf("Elapsed() = %d, want %d while stopped", got, before)
	}
}

func TestTimerReset(t *testing.T) {
	timer := NewTimer()
	timer.advance(42)
	timer.Start()
	timer.Reset()

	if timer.Running() {
		t.Error("Running() = true after Reset")
	}
	if got := timer.Elapsed(); got != 0 {
		t.Errorf("Elapsed() after Reset = %d, want 0", got)
	}
}
