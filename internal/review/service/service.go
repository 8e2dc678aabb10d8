// Package service orchestrates receipt review sessions: intake, field
// edits, justifications, the validate/explain cycle, and the submission
// gate. It owns every transition of the session aggregate; handlers stay
// thin and stores stay dumb.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"claimcheck/internal/category"
	"claimcheck/internal/review/metrics"
	"claimcheck/internal/review/models"
	"claimcheck/internal/review/ports"
	"claimcheck/internal/review/store"
	"claimcheck/pkg/attrs"
	id "claimcheck/pkg/domain"
	dErrors "claimcheck/pkg/domain-errors"
	"claimcheck/pkg/platform/audit"
	"claimcheck/pkg/platform/sentinel"
	"claimcheck/pkg/requestcontext"
)

// RoleLead may read and act on sessions owned by other reviewers. Such
// actions carry the acting user in the audit trail's ActorID.
const RoleLead = "lead"

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service coordinates the review workflow across the session store and the
// three expense-backend ports.
type Service struct {
	sessions       store.SessionStore
	extractor      ports.Extractor
	evaluator      ports.RuleEvaluator
	explainer      ports.Explainer
	submissions    ports.SubmissionStore
	scorer         *category.Scorer
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	defaultPayment string
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCategoryScorer replaces the default keyword scorer used at intake.
func WithCategoryScorer(scorer *category.Scorer) Option {
	return func(s *Service) {
		if scorer != nil {
			s.scorer = scorer
		}
	}
}

// WithDefaultPaymentMethod sets the payment_type applied at intake when the
// extractor produced none.
func WithDefaultPaymentMethod(method string) Option {
	return func(s *Service) {
		if method != "" {
			s.defaultPayment = method
		}
	}
}

// New constructs a Service.
func New(
	sessions store.SessionStore,
	extractor ports.Extractor,
	evaluator ports.RuleEvaluator,
	explainer ports.Explainer,
	submissions ports.SubmissionStore,
	opts ...Option,
) *Service {
	s := &Service{
		sessions:       sessions,
		extractor:      extractor,
		evaluator:      evaluator,
		explainer:      explainer,
		submissions:    submissions,
		scorer:         category.NewScorer(),
		defaultPayment: models.DefaultPaymentMethod,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// load fetches a session and enforces access: the owner always, a lead for
// any session. A denied access is audited before the caller sees the error.
func (s *Service) load(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}

	actor := requestcontext.UserID(ctx)
	if actor != session.UserID && requestcontext.Role(ctx) != RoleLead {
		s.logAudit(ctx, audit.EventAccessDenied, session, nil,
			"reason", "session owned by another user")
		return nil, dErrors.New(dErrors.CodeForbidden, "session belongs to another user")
	}
	return session, nil
}

// save persists the named records, translating a vanished session into a
// not-found error so late writers never mask a concurrent clear.
func (s *Service) save(ctx context.Context, session *models.Session, records ...store.Record) error {
	if err := s.sessions.Save(ctx, session, records...); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "session no longer exists")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist session")
	}
	return nil
}

// coded passes through errors that already carry a domain code and wraps
// everything else. Port adapters return coded errors; test doubles and
// infra paths may not.
func coded(err error, code dErrors.Code, message string) error {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return dErrors.Wrap(err, code, message)
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, session *models.Session, payload json.RawMessage, attributes ...any) {
	args := append(attributes,
		"event", string(event),
		"log_type", "audit",
		"session_id", session.ID.String(),
	)
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event), args...)
	}
	if s.auditPublisher == nil {
		return
	}
	evt := audit.Event{
		Category:  event.Category(),
		Timestamp: requestcontext.Now(ctx),
		UserID:    session.UserID,
		SessionID: session.ID.String(),
		ReceiptID: session.ReceiptID.String(),
		Action:    string(event),
		Decision:  attrs.ExtractString(attributes, "decision"),
		Reason:    attrs.ExtractString(attributes, "reason"),
		RequestID: requestcontext.RequestID(ctx),
		IP:        requestcontext.ClientIP(ctx),
		Payload:   payload,
	}
	if actor := requestcontext.UserID(ctx); actor != session.UserID {
		evt.ActorID = actor.String()
	}
	_ = s.auditPublisher.Emit(ctx, evt)
}
