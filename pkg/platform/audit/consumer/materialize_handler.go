package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"claimcheck/internal/platform/kafka/consumer"
	id "claimcheck/pkg/domain"
	audit "claimcheck/pkg/platform/audit"
)

// MaterializeHandler processes audit events from Kafka and writes them to
// the audit_events table, making the Kafka log queryable.
type MaterializeHandler struct {
	store  MaterializeStore
	logger *slog.Logger
}

// MaterializeStore defines the storage interface for materialized events.
// Writes must be idempotent on event ID since Kafka delivery is at-least-once.
type MaterializeStore interface {
	AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

// NewMaterializeHandler creates an audit materialization handler.
func NewMaterializeHandler(store MaterializeStore, logger *slog.Logger) *MaterializeHandler {
	return &MaterializeHandler{
		store:  store,
		logger: logger,
	}
}

// eventPayload matches the JSON structure the outbox relay publishes.
type eventPayload struct {
	ID        string          `json:"ID"`
	Category  string          `json:"Category"`
	Timestamp string          `json:"Timestamp"`
	UserID    string          `json:"UserID"`
	SessionID string          `json:"SessionID"`
	ReceiptID string          `json:"ReceiptID"`
	Action    string          `json:"Action"`
	Decision  string          `json:"Decision"`
	Reason    string          `json:"Reason"`
	RequestID string          `json:"RequestID"`
	IP        string          `json:"IP"`
	ActorID   string          `json:"ActorID"`
	Payload   json.RawMessage `json:"Payload"`
}

// Handle materializes one audit event.
func (h *MaterializeHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	eventID, err := uuid.Parse(string(msg.Key))
	if err != nil {
		h.logger.Error("failed to parse audit event ID",
			"key", string(msg.Key),
			"error", err,
		)
		// Return nil to commit - malformed messages should not block
		return nil
	}

	var payload eventPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		h.logger.Error("failed to unmarshal audit payload",
			"event_id", eventID,
			"error", err,
		)
		return nil
	}

	if payload.Action == "" {
		h.logger.Error("audit event missing action",
			"event_id", eventID,
		)
		return nil
	}

	event := audit.Event{
		Category:  audit.EventCategory(payload.Category),
		UserID:    id.UserID(payload.UserID),
		SessionID: payload.SessionID,
		ReceiptID: payload.ReceiptID,
		Action:    payload.Action,
		Decision:  payload.Decision,
		Reason:    payload.Reason,
		RequestID: payload.RequestID,
		IP:        payload.IP,
		ActorID:   payload.ActorID,
		Payload:   payload.Payload,
	}

	if payload.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339Nano, payload.Timestamp); err == nil {
			event.Timestamp = ts
		}
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := h.store.AppendWithID(ctx, eventID, event); err != nil {
		h.logger.Error("failed to materialize audit event",
			"event_id", eventID,
			"action", event.Action,
			"error", err,
		)
		return fmt.Errorf("materialize audit event: %w", err)
	}

	h.logger.Debug("materialized audit event",
		"event_id", eventID,
		"action", event.Action,
		"session_id", event.SessionID,
	)

	return nil
}
