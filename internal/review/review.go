// Package review is the expense review module: receipt intake, field
// correction, policy validation with explanations, and the confirmed
// submission gate.
package review

import (
	"log/slog"

	"claimcheck/internal/review/handler"
	"claimcheck/internal/review/ports"
	"claimcheck/internal/review/service"
	"claimcheck/internal/review/store"
)

// Service orchestrates the review session lifecycle.
type Service = service.Service

// Handler wires HTTP endpoints to the review service.
type Handler = handler.Handler

// NewService constructs the review service with its required collaborators.
// Optional behavior (logging, audit, metrics, category scoring) is applied
// through service options.
func NewService(
	sessions store.SessionStore,
	extractor ports.Extractor,
	evaluator ports.RuleEvaluator,
	explainer ports.Explainer,
	submissions ports.SubmissionStore,
	opts ...service.Option,
) *Service {
	return service.New(sessions, extractor, evaluator, explainer, submissions, opts...)
}

// NewHandler constructs the HTTP handler for review routes.
func NewHandler(s *Service, logger *slog.Logger, opts ...handler.Option) *Handler {
	return handler.New(s, logger, opts...)
}
