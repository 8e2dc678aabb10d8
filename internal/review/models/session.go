package models

import (
	"time"

	id "claimcheck/pkg/domain"
	dErrors "claimcheck/pkg/domain-errors"
)

// Session is the aggregate root for one review pass: from receipt intake
// until the expense is submitted or the reviewer starts over.
//
// Invariants:
//   - Originals holds the field values as of session start (after defaults
//     and category suggestion) and is never written again; the edit ledger
//     is tracked relative to it
//   - ReviewState is derived, never assigned: call ReviewState() and it is
//     recomputed from the current fields and compliance response
//   - the orchestrator exclusively owns Compliance and Cycle; the reviewer
//     (through the transport layer) exclusively owns fields, edits, and
//     justifications
//   - once Submission reports SUBMITTED the session is sealed: every
//     mutation is rejected and only an explicit clear makes room for a new
//     expense. Double-submits are structurally impossible.
type Session struct {
	ID        id.SessionID
	UserID    id.UserID
	ReceiptID id.ReceiptID
	CreatedAt time.Time
	UpdatedAt time.Time

	Extraction *ExtractionResult
	Fields     FieldSet
	Originals  FieldSet
	Note       string

	Compliance     *ValidationResponse
	Cycle          CycleState
	Edits          EditLedger
	Justifications *JustificationLedger
	Submission     *SubmissionResult
}

// NewSession starts a review pass over prepared fields. The fields passed
// in are adopted as both the working set and the session-start originals,
// so callers apply defaults and category suggestion before construction.
func NewSession(sessionID id.SessionID, userID id.UserID, extraction *ExtractionResult, fields FieldSet, note string, now time.Time) (*Session, error) {
	if sessionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "session id cannot be nil")
	}
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "session owner cannot be empty")
	}
	if extraction == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "session requires an extraction result")
	}
	if fields == nil {
		fields = make(FieldSet)
	}
	return &Session{
		ID:             sessionID,
		UserID:         userID,
		ReceiptID:      extraction.ReceiptID,
		CreatedAt:      now,
		UpdatedAt:      now,
		Extraction:     extraction,
		Fields:         fields,
		Originals:      fields.Clone(),
		Note:           note,
		Cycle:          CycleState{Phase: CyclePhaseIdle},
		Edits:          NewEditLedger(),
		Justifications: NewJustificationLedger(),
	}, nil
}

// ReviewState derives the current tri-state verdict.
func (s *Session) ReviewState() ReviewState {
	return ComputeReviewState(s.Fields, s.Compliance)
}

// Sealed reports whether a terminal submission closed this session.
func (s *Session) Sealed() bool {
	return s.Submission.Submitted()
}

// EnsureMutable rejects writes against a sealed session.
func (s *Session) EnsureMutable() error {
	if s.Sealed() {
		return dErrors.New(dErrors.CodeConflict, "session is already submitted")
	}
	return nil
}

// ApplyEdit sets a field to a manually corrected value and books it against
// the edit ledger. Returns reverted=true when the correction landed back on
// the session-start value and removed a live edit record.
func (s *Session) ApplyEdit(field id.FieldName, value any, at time.Time) (reverted bool, err error) {
	if err := s.EnsureMutable(); err != nil {
		return false, err
	}

	var original any
	if v, ok := s.Originals.Get(field); ok {
		original = v.Value
	}

	hadEdit := s.Edits.IsEdited(field)
	s.Fields.SetManual(field, value)
	s.Edits.Record(field, original, value, at)
	s.UpdatedAt = at

	return hadEdit && !s.Edits.IsEdited(field), nil
}

// ApplyJustification upserts reviewer justification text for one flagged
// (field, rule) pair.
func (s *Session) ApplyJustification(field id.FieldName, ruleID, text string, at time.Time) error {
	if err := s.EnsureMutable(); err != nil {
		return err
	}
	if err := s.Justifications.Save(field, ruleID, text, at); err != nil {
		return err
	}
	s.UpdatedAt = at
	return nil
}

// Evidence returns the distinct rule IDs behind the current verdict.
func (s *Session) Evidence() []string {
	return s.Compliance.RuleIDs()
}
