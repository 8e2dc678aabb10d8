// Package publisher emits audit events to a configured store, synchronously
// by default or through a bounded buffer when async mode is enabled.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	id "claimcheck/pkg/domain"
	audit "claimcheck/pkg/platform/audit"
)

// ErrBufferFull is returned when async mode drops an event because the
// buffer is saturated. Callers treat audit emission as best-effort unless
// the action is compliance-critical.
var ErrBufferFull = errors.New("audit buffer full")

// ErrClosed is returned when emitting after Close.
var ErrClosed = errors.New("audit publisher closed")

// Publisher writes audit events to a store. In sync mode Emit blocks until
// the store accepts the event. In async mode Emit enqueues and a background
// worker drains the buffer; Close flushes remaining events.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics

	mu     sync.RWMutex
	closed bool
	inbox  chan audit.Event
	wg     sync.WaitGroup
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables async mode with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan audit.Event, size)
		}
	}
}

// WithLogger sets a logger for persistence failures in async mode.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// NewPublisher creates a publisher over the given store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an audit event. The timestamp is stamped when unset and the
// category derived from the action when unset, so call sites only fill what
// they know.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	if p.inbox == nil {
		if err := p.store.Append(ctx, event); err != nil {
			p.metrics.IncrementFailures()
			return err
		}
		p.metrics.IncrementEmitted(string(event.Category))
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	select {
	case p.inbox <- event:
		return nil
	default:
		p.metrics.IncrementDropped()
		return ErrBufferFull
	}
}

// List returns the audit trail for a user.
func (p *Publisher) List(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	return p.store.ListByUser(ctx, userID)
}

// Close stops accepting events and drains the async buffer. Safe to call in
// sync mode and more than once.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.inbox != nil {
		close(p.inbox)
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		// Detached context: events already accepted must not be dropped
		// because the originating request ended.
		if err := p.store.Append(context.Background(), event); err != nil {
			p.metrics.IncrementFailures()
			p.logger.Error("audit event persistence failed",
				"action", event.Action,
				"session_id", event.SessionID,
				"error", err,
			)
			continue
		}
		p.metrics.IncrementEmitted(string(event.Category))
	}
}
