package remote

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"claimcheck/internal/review/models"
	dErrors "claimcheck/pkg/domain-errors"
)

// Extractor calls the backend's OCR endpoint. Implements ports.Extractor.
type Extractor struct {
	client *Client
}

// NewExtractor builds the extraction adapter on a shared client.
func NewExtractor(client *Client) *Extractor {
	return &Extractor{client: client}
}

// Extract uploads the receipt image as multipart form data. The part keeps
// the upload's original content type: the backend rejects anything that is
// not PNG or JPEG.
func (e *Extractor) Extract(ctx context.Context, image models.ReceiptImage) (*models.ExtractionResult, error) {
	ctx, span := e.client.tracer.Start(ctx, "expense.extract",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("receipt.filename", image.Filename),
			attribute.String("receipt.content_type", image.ContentType),
			attribute.Int("receipt.bytes", len(image.Data)),
		),
	)
	defer span.End()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="receipt"; filename=%q`, image.Filename))
	header.Set("Content-Type", image.ContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, spanErr(span, dErrors.Wrap(err, dErrors.CodeInternal, "encode receipt upload"))
	}
	if _, err := part.Write(image.Data); err != nil {
		return nil, spanErr(span, dErrors.Wrap(err, dErrors.CodeInternal, "encode receipt upload"))
	}
	if err := writer.Close(); err != nil {
		return nil, spanErr(span, dErrors.Wrap(err, dErrors.CodeInternal, "encode receipt upload"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.client.baseURL+"/api/extract", &buf)
	if err != nil {
		return nil, spanErr(span, dErrors.Wrap(err, dErrors.CodeInternal, "build expense backend request"))
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var result models.ExtractionResult
	if err := e.client.send(req, &result); err != nil {
		return nil, spanErr(span, err)
	}
	span.SetAttributes(attribute.String("receipt.id", string(result.ReceiptID)))
	return &result, nil
}

// spanErr marks the span failed and passes the error through.
func spanErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
