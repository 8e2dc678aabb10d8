// Package outbox publishes audit events from the transactional outbox to
// Kafka. Rows are claimed with FOR UPDATE SKIP LOCKED so multiple replicas
// can relay concurrently without double-claiming a batch.
package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Producer publishes one record to a topic.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// Relay moves unpublished outbox rows to Kafka on a fixed interval.
type Relay struct {
	db        *sql.DB
	producer  Producer
	topic     string
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

// Option configures the Relay.
type Option func(*Relay)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithBatchSize bounds how many rows one pass claims.
func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithLogger sets the relay logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

// NewRelay builds a relay for the given topic.
func NewRelay(db *sql.DB, producer Producer, topic string, opts ...Option) *Relay {
	r := &Relay{
		db:        db,
		producer:  producer,
		topic:     topic,
		interval:  2 * time.Second,
		batchSize: 100,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled. Failed passes are logged and retried on
// the next tick; publishing is at-least-once and the consumer deduplicates.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if n, err := r.RelayOnce(ctx); err != nil {
			r.logger.ErrorContext(ctx, "outbox relay pass failed", "error", err)
		} else if n > 0 {
			r.logger.DebugContext(ctx, "relayed outbox entries", "count", n)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RelayOnce claims one batch of unpublished rows, publishes them, and marks
// them published. Returns how many rows were relayed.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin relay tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("claim outbox rows: %w", err)
	}

	type entry struct {
		id      string
		payload []byte
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.id, &e.payload); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan outbox row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterate outbox rows: %w", err)
	}
	rows.Close()

	if len(entries) == 0 {
		return 0, nil
	}

	for _, e := range entries {
		if err := r.producer.Produce(ctx, r.topic, []byte(e.id), e.payload); err != nil {
			return 0, fmt.Errorf("publish outbox entry %s: %w", e.id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE outbox SET published_at = NOW() WHERE id = $1`, e.id,
		); err != nil {
			return 0, fmt.Errorf("mark outbox entry %s published: %w", e.id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit relay tx: %w", err)
	}
	return len(entries), nil
}
