package navigation

import (
	"context"
	"log/slog"
	"sync"
)

// Publisher delivers navigation intents to the UI layer. Implementations
// may be no-op (headless runs), logging, in-memory channel (tests and
// the local control API), or fan-out.
type Publisher interface {
	// Publish delivers one intent. Returns error only for transport
	// failures, never for the intent's content.
	Publish(ctx context.Context, intent Intent) error

	// Close releases resources.
	Close() error
}

// NoopPublisher discards all intents.
type NoopPublisher struct{}

// NewNoopPublisher creates a publisher that silently discards intents.
func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (p *NoopPublisher) Publish(ctx context.Context, intent Intent) error { return nil }

func (p *NoopPublisher) Close() error { return nil }

// LoggingPublisher logs intents at info level. Useful headless.
type LoggingPublisher struct {
	logger *slog.Logger
}

// NewLoggingPublisher creates a publisher that logs intents.
func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, intent Intent) error {
	p.logger.Info("navigation intent",
		"destination", intent.Destination(),
		"intent_id", intent.IntentID(),
	)
	return nil
}

func (p *LoggingPublisher) Close() error { return nil }

// ChannelPublisher publishes to an in-memory channel. Used by tests and
// by the local control API's event stream.
type ChannelPublisher struct {
	mu        sync.RWMutex
	ch        chan Intent
	closed    bool
	dropCount int64
}

// NewChannelPublisher creates a publisher backed by a buffered channel.
// Intents are dropped, with a warning, if the buffer is full.
func NewChannelPublisher(bufferSize int) *ChannelPublisher {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &ChannelPublisher{ch: make(chan Intent, bufferSize)}
}

func (p *ChannelPublisher) Publish(ctx context.Context, intent Intent) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil
	}
	p.mu.RUnlock()

	select {
	case p.ch <- intent:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.mu.Lock()
		p.dropCount++
		p.mu.Unlock()
		slog.Warn("navigation intent dropped: buffer full",
			"destination", intent.Destination(),
		)
		return nil
	}
}

func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}

// Intents returns the channel for consuming intents.
func (p *ChannelPublisher) Intents() <-chan Intent {
	return p.ch
}

// DroppedCount returns the number of intents dropped on buffer overflow.
func (p *ChannelPublisher) DroppedCount() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dropCount
}

// MultiPublisher fans out intents to multiple publishers.
type MultiPublisher struct {
	publishers []Publisher
}

// NewMultiPublisher creates a publisher that sends to all provided
// publishers and returns the last error seen, if any.
func NewMultiPublisher(publishers ...Publisher) *MultiPublisher {
	return &MultiPublisher{publishers: publishers}
}

func (p *MultiPublisher) Publish(ctx context.Context, intent Intent) error {
	var lastErr error
	for _, pub := range p.publishers {
		if err := pub.Publish(ctx, intent); err != nil {
			lastErr = err
			slog.Warn("multi-publisher: one publisher failed", "error", err)
		}
	}
	return lastErr
}

func (p *MultiPublisher) Close() error {
	var lastErr error
	for _, pub := range p.publishers {
		if err := pub.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
