package callsession

import (
	"sync"
	"time"
)

// Timer is an elapsed-seconds counter for a live call. It only counts
// while running; the orchestrator starts and stops it according to the
// gating rule (signaling connected, media connected, remote present).
//
// All methods are safe for concurrent use. Start and Stop are idempotent.
type Timer struct {
	mu      sync.Mutex
	running bool
	elapsed int
	stop    chan struct{}

	// tick is the counting interval. Overridable in tests.
	tick time.Duration
}

// NewTimer creates a stopped timer at zero seconds.
func NewTimer() *Timer {
	return &Timer{tick: time.Second}
}

// Start begins counting. No-op if already running.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.running = true
	t.stop = make(chan struct{})
	go t.run(t.stop)
}

func (t *Timer) run(stop <-chan struct{}) {
	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.mu.Lock()
			if t.running {
				t.elapsed++
			}
			t.mu.Unlock()
		case <-stop:
			return
		}
	}
}

// Stop halts counting without resetting the count. No-op if not running.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	close(t.stop)
	t.stop = nil
}

// Reset stops the timer and zeroes the elapsed count.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		t.running = false
		close(t.stop)
		t.stop = nil
	}
	t.elapsed = 0
}

// Running reports whether the timer is currently counting.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Elapsed returns the number of whole seconds counted so far.
func (t *Timer) Elapsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

// advance adds n seconds directly. Test hook for deterministic duration
// checks without waiting on the wall clock.
func (t *Timer) advance(n int) {
	t.mu.Lock()
	t.elapsed += n
	t.mu.Unlock()
}
