package audit

import (
	"encoding/json"
	"time"

	id "claimcheck/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require tamper-proof storage and long retention (e.g., 7 years).
	// Examples: submissions, policy justifications.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and forensics.
	// These feed into SIEM systems and alerting pipelines.
	// Examples: blocked submissions, cross-user session access attempts.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational visibility.
	// These can be sampled or aggregated with shorter retention.
	// Examples: session lifecycle, validation round-trips, field edits.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	UserID    id.UserID
	SessionID string
	ReceiptID string
	Action    string
	Decision  string
	Reason    string
	RequestID string
	// IP is the client address the action came from, kept for security
	// forensics on blocked submissions and access denials.
	IP string
	// ActorID tracks who performed the action when different from UserID.
	// Used when a lead acts on a reviewer's session.
	ActorID string
	// Payload carries action-specific detail, e.g. the submission snapshot
	// (issues, edits, rule IDs, review state). Stored verbatim.
	Payload json.RawMessage
}

type AuditEvent string

const (
	// Session lifecycle events
	EventSessionStarted   AuditEvent = "session_started"
	EventReceiptExtracted AuditEvent = "receipt_extracted"
	EventSessionCleared   AuditEvent = "session_cleared"

	// Review events
	EventFieldEdited           AuditEvent = "field_edited"
	EventEditReverted          AuditEvent = "edit_reverted"
	EventJustificationRecorded AuditEvent = "justification_recorded"
	EventValidationRequested   AuditEvent = "validation_requested"
	EventValidationCompleted   AuditEvent = "validation_completed"
	EventValidationFailed      AuditEvent = "validation_failed"
	EventExplanationRequested  AuditEvent = "explanation_requested"
	EventExplanationCompleted  AuditEvent = "explanation_completed"
	EventExplanationFailed     AuditEvent = "explanation_failed"
	EventCategorySuggested     AuditEvent = "category_suggested"

	// Submission events. expense_submitted is the flow-level event carrying
	// request context; submission_recorded is written by the durable store
	// in the same transaction as the submission row.
	EventExpenseSubmitted   AuditEvent = "expense_submitted"
	EventSubmissionRecorded AuditEvent = "submission_recorded"
	EventSubmissionBlocked  AuditEvent = "submission_blocked"

	// Access events
	EventAccessDenied AuditEvent = "access_denied"
)

// eventCategories maps each audit event to its category.
// Compliance: legal/regulatory significance, long retention required.
// Security: security monitoring, SIEM integration, alerting.
// Operations: debugging, operational visibility, can be sampled.
var eventCategories = map[AuditEvent]EventCategory{
	// Compliance events - require tamper-proof storage
	EventJustificationRecorded: CategoryCompliance,
	EventExpenseSubmitted:      CategoryCompliance,
	EventSubmissionRecorded:    CategoryCompliance,

	// Security events - feed into SIEM and alerting
	EventSubmissionBlocked: CategorySecurity,
	EventAccessDenied:      CategorySecurity,

	// Operations events - routine activity, can be sampled
	EventSessionStarted:       CategoryOperations,
	EventReceiptExtracted:     CategoryOperations,
	EventSessionCleared:       CategoryOperations,
	EventFieldEdited:          CategoryOperations,
	EventEditReverted:         CategoryOperations,
	EventValidationRequested:  CategoryOperations,
	EventValidationCompleted:  CategoryOperations,
	EventValidationFailed:     CategoryOperations,
	EventExplanationRequested: CategoryOperations,
	EventExplanationCompleted: CategoryOperations,
	EventExplanationFailed:    CategoryOperations,
	EventCategorySuggested:    CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
