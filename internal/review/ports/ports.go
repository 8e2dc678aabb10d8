// Package ports declares the review core's four external collaborators.
// The service depends on these interfaces only; HTTP adapters and the
// postgres submission store implement them. Keeping them here lets the
// orchestrator be tested against mocks without any transport in the loop.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks Extractor,RuleEvaluator,Explainer,SubmissionStore

import (
	"context"

	"claimcheck/internal/review/models"
)

// Extractor turns a receipt image into field values with extraction
// confidences. Failures block progression past intake; the caller never
// retries automatically.
type Extractor interface {
	Extract(ctx context.Context, image models.ReceiptImage) (*models.ExtractionResult, error)
}

// RuleEvaluator checks a field set plus user context against the externally
// owned policy catalog.
type RuleEvaluator interface {
	Validate(ctx context.Context, req models.ValidationRequest) (*models.ValidationResponse, error)
}

// Explainer narrates issues as natural-language text with clarification
// questions. Advisory: its failures never block review or submission.
type Explainer interface {
	Explain(ctx context.Context, req models.ExplainRequest) (*models.ExplainResponse, error)
}

// SubmissionStore durably records a confirmed expense. An unconfirmed
// request comes back BLOCKED, never stored.
type SubmissionStore interface {
	Create(ctx context.Context, req models.SubmissionRequest) (*models.SubmissionResult, error)
}
