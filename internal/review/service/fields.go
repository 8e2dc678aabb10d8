package service

import (
	"context"

	"claimcheck/internal/review/models"
	"claimcheck/internal/review/store"
	id "claimcheck/pkg/domain"
	"claimcheck/pkg/platform/audit"
	"claimcheck/pkg/requestcontext"
)

// EditField applies a manual correction to one field. The edit ledger
// collapses a value written back to its session-start original, and that
// revert is audited distinctly from a plain edit.
func (s *Service) EditField(ctx context.Context, sessionID id.SessionID, field id.FieldName, value any) (*models.Session, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	reverted, err := session.ApplyEdit(field, value, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, session, store.RecordFields, store.RecordEdits); err != nil {
		return nil, err
	}

	event := audit.EventFieldEdited
	if reverted {
		event = audit.EventEditReverted
	}
	s.logAudit(ctx, event, session, nil, "field", string(field))

	return session, nil
}

// SaveJustification records the reviewer's reason for proceeding despite a
// flagged rule. The ledger enforces the justifiable-rule allowlist and
// rejects blank text; one record per (field, rule) pair, upserted.
func (s *Service) SaveJustification(ctx context.Context, sessionID id.SessionID, field id.FieldName, ruleID, text string) (*models.Session, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := session.ApplyJustification(field, ruleID, text, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}

	if err := s.save(ctx, session, store.RecordJustifications); err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.EventJustificationRecorded, session, nil,
		"field", string(field),
		"rule_id", ruleID)

	return session, nil
}
