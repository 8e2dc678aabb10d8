package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"claimcheck/internal/review/models"
	"claimcheck/internal/review/store"
	id "claimcheck/pkg/domain"
	dErrors "claimcheck/pkg/domain-errors"
	"claimcheck/pkg/platform/audit"
	"claimcheck/pkg/requestcontext"
)

// autoExplainQuestion is the fixed question for the explanation chained
// automatically after a validation that came back with issues.
const autoExplainQuestion = "Explain what is flagged and what to do next."

// Validate sends the current fields to the rule evaluator and stores the
// verdict. When the verdict carries issues, an explanation is chained
// automatically; its failure is advisory and never fails the validation.
//
// Overlapping validations are not serialized: a second call may start while
// one is in flight, and the later-completing response wins. Field edits made
// while a call is in flight are never clobbered, because only the compliance
// and cycle records are written back.
func (s *Service) Validate(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.EnsureMutable(); err != nil {
		return nil, err
	}

	session.Cycle = models.CycleState{
		Phase:       models.CyclePhaseValidating,
		Explanation: session.Cycle.Explanation,
	}
	if err := s.save(ctx, session, store.RecordCycle); err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.EventValidationRequested, session, nil)

	req := s.buildValidationRequest(ctx, session)
	start := time.Now()
	resp, err := s.evaluator.Validate(ctx, req)
	s.metrics.ObserveValidationDuration(time.Since(start))

	if err != nil {
		s.metrics.IncrementValidation("error")
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "rule evaluation failed",
				"session_id", session.ID.String(), "error", err)
		}
		// Previous verdict stays: only the cycle records the failure, so
		// the review state is untouched and the call is retriable.
		session.Cycle = models.CycleState{
			Phase:       models.CyclePhaseValidationFailed,
			Err:         errorMessage(err),
			Explanation: session.Cycle.Explanation,
		}
		if saveErr := s.save(ctx, session, store.RecordCycle); saveErr != nil {
			return nil, saveErr
		}
		s.logAudit(ctx, audit.EventValidationFailed, session, nil,
			"reason", errorMessage(err))
		return nil, coded(err, dErrors.CodeUnavailable, "rule evaluation failed")
	}

	// Reload before writing: edits made while the evaluator ran must feed
	// the derived review state, and a concurrent clear or submit wins.
	fresh, err := s.load(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if err := fresh.EnsureMutable(); err != nil {
		return nil, err
	}

	fresh.Compliance = resp
	fresh.Cycle = models.CycleState{
		Phase:       models.CyclePhaseValidated,
		Explanation: fresh.Cycle.Explanation,
	}
	if err := s.save(ctx, fresh, store.RecordCompliance, store.RecordCycle); err != nil {
		return nil, err
	}
	s.metrics.IncrementValidation(strings.ToLower(string(resp.Compliance)))
	s.logAudit(ctx, audit.EventValidationCompleted, fresh, nil,
		"decision", string(resp.Compliance),
		"issue_count", len(resp.Issues))

	if resp.HasIssues() {
		if err := s.runExplanation(ctx, fresh, autoExplainQuestion, models.ExplainTriggerAuto); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "auto explanation failed",
				"session_id", fresh.ID.String(), "error", err)
		}
	}

	return fresh, nil
}

// Explain answers a reviewer's question about the current verdict. It is
// rejected while a validate or explain call is in flight; the auto-chained
// variant drives the same path with a fixed question.
func (s *Service) Explain(ctx context.Context, sessionID id.SessionID, question string) (*models.Session, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.EnsureMutable(); err != nil {
		return nil, err
	}
	if session.Cycle.Phase.InFlight() {
		return nil, dErrors.New(dErrors.CodeConflict, "another call is in flight for this session")
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "question cannot be blank")
	}

	if err := s.runExplanation(ctx, session, question, models.ExplainTriggerManual); err != nil {
		return nil, err
	}
	return session, nil
}

// runExplanation drives one EXPLAINING round on the session in hand. Only
// the cycle record is written, so it can run against a snapshot without
// clobbering concurrent edits.
func (s *Service) runExplanation(ctx context.Context, session *models.Session, question string, trigger string) error {
	session.Cycle = models.CycleState{
		Phase:       models.CyclePhaseExplaining,
		Explanation: session.Cycle.Explanation,
	}
	if err := s.save(ctx, session, store.RecordCycle); err != nil {
		return err
	}
	s.logAudit(ctx, audit.EventExplanationRequested, session, nil,
		"trigger", trigger)

	req := models.ExplainRequest{
		Fields:       session.Fields.Clone(),
		UserQuestion: question,
	}
	if session.Compliance != nil {
		req.Issues = session.Compliance.Issues
		req.RuleSummaries = session.Compliance.RuleSummaries
	}

	resp, err := s.explainer.Explain(ctx, req)
	if err != nil {
		s.metrics.IncrementExplanation(trigger, "failed")
		// Advisory failure: the verdict stands, only the cycle shows it.
		session.Cycle = models.CycleState{
			Phase:       models.CyclePhaseExplainFailed,
			Err:         errorMessage(err),
			Explanation: session.Cycle.Explanation,
		}
		if saveErr := s.save(ctx, session, store.RecordCycle); saveErr != nil {
			return saveErr
		}
		s.logAudit(ctx, audit.EventExplanationFailed, session, nil,
			"trigger", trigger,
			"reason", errorMessage(err))
		return coded(err, dErrors.CodeUnavailable, "explanation failed")
	}

	session.Cycle = models.CycleState{
		Phase: models.CyclePhaseExplained,
		Explanation: &models.Explanation{
			Trigger:                trigger,
			Question:               question,
			Text:                   resp.Explanation,
			ClarificationQuestions: resp.ClarificationQuestions,
			At:                     requestcontext.Now(ctx),
		},
	}
	if err := s.save(ctx, session, store.RecordCycle); err != nil {
		return err
	}
	s.metrics.IncrementExplanation(trigger, "completed")
	s.logAudit(ctx, audit.EventExplanationCompleted, session, nil,
		"trigger", trigger)
	return nil
}

// buildValidationRequest assembles the evaluator call from the session. The
// same session state always yields the same request: justifications enter as
// a rule-to-text map built in ledger order.
func (s *Service) buildValidationRequest(ctx context.Context, session *models.Session) models.ValidationRequest {
	return models.ValidationRequest{
		ReceiptID: session.ReceiptID,
		Fields:    session.Fields.Clone(),
		UserContext: models.UserContext{
			Country:        requestcontext.Country(ctx),
			Role:           requestcontext.Role(ctx),
			Justifications: session.Justifications.RuleContext(),
		},
	}
}

func errorMessage(err error) string {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return domainErr.Message()
	}
	return err.Error()
}
