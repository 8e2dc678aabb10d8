package service

import (
	"context"
	"errors"

	"claimcheck/internal/category"
	"claimcheck/internal/review/models"
	id "claimcheck/pkg/domain"
	dErrors "claimcheck/pkg/domain-errors"
	"claimcheck/pkg/platform/audit"
	"claimcheck/pkg/platform/sentinel"
	"claimcheck/pkg/requestcontext"
)

// Intake runs extraction on an uploaded receipt and opens a review session
// for the result. The field set the reviewer starts from is the extractor's
// output plus deterministic defaults and, when the extractor could not
// classify the receipt, a keyword-scored category suggestion. The originals
// snapshot is taken after both, so defaults and suggestions never count as
// reviewer edits.
func (s *Service) Intake(ctx context.Context, image models.ReceiptImage, note string) (*models.Session, error) {
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no authenticated user")
	}
	now := requestcontext.Now(ctx)

	extraction, err := s.extractor.Extract(ctx, image)
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "receipt extraction failed", "error", err)
		}
		return nil, coded(err, dErrors.CodeUnavailable, "receipt extraction failed")
	}

	fields := extraction.Fields.Clone()
	fields.ApplyDefaults(note, s.defaultPayment)

	var suggestion *category.Suggestion
	if s.scorer.ShouldApply(fields.StringValue(id.FieldCategory)) {
		sug := s.scorer.Suggest(fields.StringValue(id.FieldMerchant), extraction.RawTextPreview, note)
		fields.SetSuggested(id.FieldCategory, sug.Value, sug.Confidence)
		suggestion = &sug
	}

	session, err := models.NewSession(id.NewSessionID(), userID, extraction, fields, note, now)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "session id collision")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist session")
	}

	s.logAudit(ctx, audit.EventReceiptExtracted, session, nil,
		"receipt_id", extraction.ReceiptID.String(),
		"field_count", len(extraction.Fields))
	s.logAudit(ctx, audit.EventSessionStarted, session, nil)
	if suggestion != nil {
		s.logAudit(ctx, audit.EventCategorySuggested, session, nil,
			"category", suggestion.Value)
	}
	s.metrics.IncrementSessionCreated()

	return session, nil
}

// GetSession returns the current session snapshot.
func (s *Service) GetSession(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	return s.load(ctx, sessionID)
}

// Clear removes the session and all of its records. The deletion is final:
// any call still in flight for this session finds nothing to write back to.
func (s *Service) Clear(ctx context.Context, sessionID id.SessionID) error {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear session")
	}

	s.logAudit(ctx, audit.EventSessionCleared, session, nil)
	return nil
}
