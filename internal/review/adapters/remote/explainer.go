package remote

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"claimcheck/internal/review/models"
)

// Explainer calls the backend's narrative generator. Implements
// ports.Explainer.
type Explainer struct {
	client *Client
}

// NewExplainer builds the explanation adapter on a shared client.
func NewExplainer(client *Client) *Explainer {
	return &Explainer{client: client}
}

// Explain asks for a plain-language reading of the current issues.
func (e *Explainer) Explain(ctx context.Context, req models.ExplainRequest) (*models.ExplainResponse, error) {
	ctx, span := e.client.tracer.Start(ctx, "expense.explain",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("policy.issue_count", len(req.Issues))),
	)
	defer span.End()

	var resp models.ExplainResponse
	if err := e.client.postJSON(ctx, "/api/explain", req, &resp); err != nil {
		return nil, spanErr(span, err)
	}
	span.SetAttributes(attribute.Int("explain.clarification_count", len(resp.ClarificationQuestions)))
	return &resp, nil
}
