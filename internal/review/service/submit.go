package service

import (
	"context"
	"encoding/json"
	"strings"

	"claimcheck/internal/review/models"
	"claimcheck/internal/review/store"
	id "claimcheck/pkg/domain"
	dErrors "claimcheck/pkg/domain-errors"
	"claimcheck/pkg/platform/audit"
)

// Submit drives the single-use submission gate. It requires a stored
// verdict and the reviewer's explicit confirmation; without confirmation
// the gate blocks locally and the submission store is never called. A
// SUBMITTED result seals the session; a BLOCKED one leaves the gate armed
// for another attempt. A store failure records nothing, so no partial or
// duplicate submission can exist.
func (s *Service) Submit(ctx context.Context, sessionID id.SessionID, userConfirmed bool) (*models.Session, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.EnsureMutable(); err != nil {
		return nil, err
	}
	if session.Compliance == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "validation required before submission")
	}

	if !userConfirmed {
		session.Submission = &models.SubmissionResult{
			Status: models.SubmissionStatusBlocked,
			Reason: models.ReasonConfirmationRequired,
		}
		if err := s.save(ctx, session, store.RecordSubmission); err != nil {
			return nil, err
		}
		s.metrics.IncrementSubmission(strings.ToLower(string(models.SubmissionStatusBlocked)))
		s.logAudit(ctx, audit.EventSubmissionBlocked, session, nil,
			"reason", session.Submission.Reason)
		return session, nil
	}

	req := models.SubmissionRequest{
		ReceiptID:      session.ReceiptID,
		FinalFields:    session.Fields.Clone(),
		UserConfirmed:  true,
		PolicyRuleIDs:  session.Evidence(),
		Issues:         session.Compliance.Issues,
		ReviewState:    session.ReviewState(),
		Edits:          session.Edits.Snapshot(),
		Justifications: session.Justifications.Snapshot(),
	}

	result, err := s.submissions.Create(ctx, req)
	if err != nil {
		s.metrics.IncrementSubmission("error")
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "submission store call failed",
				"session_id", session.ID.String(), "error", err)
		}
		return nil, coded(err, dErrors.CodeUnavailable, "submission failed")
	}

	session.Submission = result
	if err := s.save(ctx, session, store.RecordSubmission); err != nil {
		return nil, err
	}
	s.metrics.IncrementSubmission(strings.ToLower(string(result.Status)))

	if result.Submitted() {
		s.logAudit(ctx, audit.EventExpenseSubmitted, session, submissionPayload(req, result),
			"decision", string(result.Status),
			"submission_id", result.SubmissionID.String())
	} else {
		s.logAudit(ctx, audit.EventSubmissionBlocked, session, nil,
			"decision", string(result.Status),
			"reason", result.Reason)
	}

	return session, nil
}

// submissionPayload snapshots what was submitted for the audit trail:
// verdict evidence, the reviewer's edits, and the final review state.
func submissionPayload(req models.SubmissionRequest, result *models.SubmissionResult) json.RawMessage {
	payload, err := json.Marshal(struct {
		SubmissionID  id.SubmissionID      `json:"submission_id"`
		ReviewState   models.ReviewState   `json:"review_state"`
		PolicyRuleIDs []string             `json:"policy_rule_ids"`
		Issues        []models.PolicyIssue `json:"issues"`
		Edits         []models.EditRecord  `json:"edits"`
	}{
		SubmissionID:  result.SubmissionID,
		ReviewState:   req.ReviewState,
		PolicyRuleIDs: req.PolicyRuleIDs,
		Issues:        req.Issues,
		Edits:         req.Edits,
	})
	if err != nil {
		return nil
	}
	return payload
}
