package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "claimcheck/pkg/domain"
	audit "claimcheck/pkg/platform/audit"
	txcontext "claimcheck/pkg/platform/tx"
)

// Schema is the DDL for the outbox and its queryable materialization.
// Applied by deploy tooling and by the integration test container.
const Schema = `
CREATE TABLE IF NOT EXISTS outbox (
	id             UUID PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id   TEXT NOT NULL,
	event_type     TEXT NOT NULL,
	payload        JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	published_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS outbox_unpublished_idx
	ON outbox (created_at) WHERE published_at IS NULL;

CREATE TABLE IF NOT EXISTS audit_events (
	id         UUID PRIMARY KEY,
	category   TEXT NOT NULL,
	timestamp  TIMESTAMPTZ NOT NULL,
	user_id    TEXT,
	session_id TEXT NOT NULL DEFAULT '',
	receipt_id TEXT NOT NULL DEFAULT '',
	action     TEXT NOT NULL,
	decision   TEXT NOT NULL DEFAULT '',
	reason     TEXT NOT NULL DEFAULT '',
	request_id TEXT NOT NULL DEFAULT '',
	ip         TEXT NOT NULL DEFAULT '',
	actor_id   TEXT NOT NULL DEFAULT '',
	payload    JSONB
);

CREATE INDEX IF NOT EXISTS audit_events_user_idx ON audit_events (user_id, timestamp DESC);
CREATE INDEX IF NOT EXISTS audit_events_session_idx ON audit_events (session_id, timestamp ASC);
`

// Store implements audit.Store using the transactional outbox pattern.
// Events are written to the outbox table and published to Kafka by the outbox
// relay. Kafka is the source of truth for audit events; the audit_events
// table is a queryable materialization written by the consumer.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// OutboxPayload is the JSON structure published to Kafka. Field names match
// audit.Event for proper deserialization by the consumer.
type OutboxPayload struct {
	ID        string          `json:"ID"`
	Category  string          `json:"Category"`
	Timestamp string          `json:"Timestamp"`
	UserID    string          `json:"UserID,omitempty"`
	SessionID string          `json:"SessionID,omitempty"`
	ReceiptID string          `json:"ReceiptID,omitempty"`
	Action    string          `json:"Action"`
	Decision  string          `json:"Decision,omitempty"`
	Reason    string          `json:"Reason,omitempty"`
	RequestID string          `json:"RequestID,omitempty"`
	IP        string          `json:"IP,omitempty"`
	ActorID   string          `json:"ActorID,omitempty"`
	Payload   json.RawMessage `json:"Payload,omitempty"`
}

// Append writes an audit event to the outbox table for Kafka publishing.
// Joins an ambient transaction from ctx, so a submission and its audit
// record commit or roll back together.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	// Always derive category from action - eventCategories map is the source of truth
	category := audit.AuditEvent(event.Action).Category()

	payload := OutboxPayload{
		ID:        eventID.String(),
		Category:  string(category),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		UserID:    event.UserID.String(),
		SessionID: event.SessionID,
		ReceiptID: event.ReceiptID,
		Action:    event.Action,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
		IP:        event.IP,
		ActorID:   event.ActorID,
		Payload:   event.Payload,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType := "audit"
	aggregateID := eventID.String()
	if event.SessionID != "" {
		aggregateType = "session"
		aggregateID = event.SessionID
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		eventID,
		aggregateType,
		aggregateID,
		event.Action,
		payloadBytes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// AppendWithID inserts an audit event into the audit_events table with a
// specific ID. Used by the Kafka consumer to materialize events for querying.
// This is idempotent - duplicate inserts are ignored via ON CONFLICT DO NOTHING.
func (s *Store) AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, category, timestamp, user_id, session_id, receipt_id,
			action, decision, reason, request_id, ip, actor_id, payload
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`

	var userID sql.NullString
	if !event.UserID.IsNil() {
		userID = sql.NullString{String: event.UserID.String(), Valid: true}
	}

	var payload []byte
	if len(event.Payload) > 0 {
		payload = event.Payload
	}

	_, err := s.db.ExecContext(ctx, query,
		eventID,
		string(event.Category),
		event.Timestamp,
		userID,
		event.SessionID,
		event.ReceiptID,
		event.Action,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.IP,
		event.ActorID,
		payload,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByUser returns events for a specific user, most recent first.
func (s *Store) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, user_id, session_id, receipt_id,
			   action, decision, reason, request_id, ip, actor_id, payload
		FROM audit_events
		WHERE user_id = $1
		ORDER BY timestamp DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

// ListBySession returns events for one review session in emission order.
func (s *Store) ListBySession(ctx context.Context, sessionID string) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, user_id, session_id, receipt_id,
			   action, decision, reason, request_id, ip, actor_id, payload
		FROM audit_events
		WHERE session_id = $1
		ORDER BY timestamp ASC
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

// scanEvents scans multiple rows into audit.Event slice.
func (s *Store) scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event

	for rows.Next() {
		var (
			category string
			event    audit.Event
			userID   sql.NullString
			payload  []byte
		)

		err := rows.Scan(
			&category,
			&event.Timestamp,
			&userID,
			&event.SessionID,
			&event.ReceiptID,
			&event.Action,
			&event.Decision,
			&event.Reason,
			&event.RequestID,
			&event.IP,
			&event.ActorID,
			&payload,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		event.Category = audit.EventCategory(category)
		if userID.Valid {
			event.UserID = id.UserID(userID.String)
		}
		if len(payload) > 0 {
			event.Payload = json.RawMessage(payload)
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}

	return events, nil
}
