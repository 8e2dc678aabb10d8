package domainerrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "claimcheck/pkg/domain-errors"
)

func TestNewCarriesCodeAndMessage(t *testing.T) {
	err := dErrors.New(dErrors.CodeNotFound, "session not found")

	assert.Equal(t, dErrors.CodeNotFound, err.Code())
	assert.Equal(t, "session not found", err.Message())
	assert.EqualError(t, err, "session not found")
	assert.Nil(t, err.Unwrap())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := dErrors.Wrap(cause, dErrors.CodeUnavailable, "extractor unreachable")

	assert.EqualError(t, err, "extractor unreachable: connection refused")
	assert.Equal(t, "extractor unreachable", err.Message())
	assert.ErrorIs(t, err, cause)
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, dErrors.Wrap(nil, dErrors.CodeInternal, "ignored"))
	assert.Nil(t, dErrors.Wrapf(nil, dErrors.CodeInternal, "ignored %d", 1))
}

func TestHasCodeWalksChain(t *testing.T) {
	inner := dErrors.New(dErrors.CodeConflict, "already submitted")
	outer := dErrors.Wrap(inner, dErrors.CodeInvalidInput, "submit rejected")
	wrapped := fmt.Errorf("handling request: %w", outer)

	assert.True(t, dErrors.HasCode(wrapped, dErrors.CodeInvalidInput))
	assert.True(t, dErrors.HasCode(wrapped, dErrors.CodeConflict))
	assert.False(t, dErrors.HasCode(wrapped, dErrors.CodeNotFound))
	assert.False(t, dErrors.HasCode(nil, dErrors.CodeInternal))
}

func TestIsAliasesHasCode(t *testing.T) {
	err := dErrors.New(dErrors.CodeTimeout, "validation timed out")

	assert.True(t, dErrors.Is(err, dErrors.CodeTimeout))
	assert.False(t, dErrors.Is(err, dErrors.CodeInternal))
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want dErrors.Code
	}{
		{
			name: "outermost code wins",
			err: dErrors.Wrap(
				dErrors.New(dErrors.CodeNotFound, "missing"),
				dErrors.CodeInternal, "lookup failed",
			),
			want: dErrors.CodeInternal,
		},
		{
			name: "plain error defaults to internal",
			err:  errors.New("boom"),
			want: dErrors.CodeInternal,
		},
		{
			name: "wrapped domain error found through fmt chain",
			err:  fmt.Errorf("outer: %w", dErrors.New(dErrors.CodeForbidden, "nope")),
			want: dErrors.CodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dErrors.GetCode(tt.err))
		})
	}
}
