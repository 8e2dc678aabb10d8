package remote

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"claimcheck/internal/review/models"
)

// Evaluator calls the backend's policy engine. Implements
// ports.RuleEvaluator.
type Evaluator struct {
	client *Client
}

// NewEvaluator builds the rule evaluation adapter on a shared client.
func NewEvaluator(client *Client) *Evaluator {
	return &Evaluator{client: client}
}

// Validate submits the field set and user context for a verdict.
func (e *Evaluator) Validate(ctx context.Context, req models.ValidationRequest) (*models.ValidationResponse, error) {
	ctx, span := e.client.tracer.Start(ctx, "expense.validate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("receipt.id", string(req.ReceiptID))),
	)
	defer span.End()

	var resp models.ValidationResponse
	if err := e.client.postJSON(ctx, "/api/policy/validate", req, &resp); err != nil {
		return nil, spanErr(span, err)
	}
	span.SetAttributes(
		attribute.String("policy.verdict", string(resp.Compliance)),
		attribute.Int("policy.issue_count", len(resp.Issues)),
	)
	return &resp, nil
}
