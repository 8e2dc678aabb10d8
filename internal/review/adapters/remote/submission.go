package remote

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"claimcheck/internal/review/models"
)

// SubmissionStore records confirmed expenses through the backend's
// submission endpoint. Implements ports.SubmissionStore. A BLOCKED answer
// arrives as a normal 2xx body, not an error: the gate stays armed.
type SubmissionStore struct {
	client *Client
}

// NewSubmissionStore builds the submission adapter on a shared client.
func NewSubmissionStore(client *Client) *SubmissionStore {
	return &SubmissionStore{client: client}
}

// Create hands the confirmed expense and its review trail to the backend.
func (s *SubmissionStore) Create(ctx context.Context, req models.SubmissionRequest) (*models.SubmissionResult, error) {
	ctx, span := s.client.tracer.Start(ctx, "expense.submit",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("receipt.id", string(req.ReceiptID)),
			attribute.Bool("submission.user_confirmed", req.UserConfirmed),
		),
	)
	defer span.End()

	var result models.SubmissionResult
	if err := s.client.postJSON(ctx, "/api/submission/create", req, &result); err != nil {
		return nil, spanErr(span, err)
	}
	span.SetAttributes(attribute.String("submission.status", string(result.Status)))
	return &result, nil
}
