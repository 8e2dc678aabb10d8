package handler

import (
	"encoding/json"
	"strings"

	dErrors "claimcheck/pkg/domain-errors"
)

// EditFieldRequest is the body for PATCH /sessions/{id}/fields/{field}.
// Value stays raw until Validate so an absent key and an explicit null can
// both be rejected.
type EditFieldRequest struct {
	Value json.RawMessage `json:"value"`

	parsedValue any
}

// Validate implements httputil.Validatable.
func (r *EditFieldRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Value) == 0 {
		return dErrors.New(dErrors.CodeValidation, "value is required")
	}
	if len(r.Value) > 1024 {
		return dErrors.New(dErrors.CodeValidation, "value must be at most 1024 bytes")
	}
	if err := json.Unmarshal(r.Value, &r.parsedValue); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "value is not valid json")
	}
	if r.parsedValue == nil {
		return dErrors.New(dErrors.CodeValidation, "value must not be null")
	}
	return nil
}

// ParsedValue returns the decoded field value.
func (r *EditFieldRequest) ParsedValue() any {
	return r.parsedValue
}

// JustificationRequest is the body for
// PUT /sessions/{id}/justifications/{field}/{ruleID}.
type JustificationRequest struct {
	Text string `json:"text"`
}

// Validate implements httputil.Validatable.
func (r *JustificationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Text) > 2000 {
		return dErrors.New(dErrors.CodeValidation, "justification text must be at most 2000 characters")
	}
	r.Text = strings.TrimSpace(r.Text)
	if r.Text == "" {
		return dErrors.New(dErrors.CodeValidation, "justification text is required")
	}
	return nil
}

// ExplainRequest is the body for POST /sessions/{id}/explain.
type ExplainRequest struct {
	Question string `json:"question"`
}

// Validate implements httputil.Validatable.
func (r *ExplainRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Question) > 1000 {
		return dErrors.New(dErrors.CodeValidation, "question must be at most 1000 characters")
	}
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return dErrors.New(dErrors.CodeValidation, "question is required")
	}
	return nil
}

// SubmitRequest is the body for POST /sessions/{id}/submit. A missing or
// false user_confirmed is a legitimate request that the service answers
// with a BLOCKED submission, not a validation error.
type SubmitRequest struct {
	UserConfirmed bool `json:"user_confirmed"`
}
