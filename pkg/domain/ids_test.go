package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "claimcheck/pkg/domain-errors"
)

// TestParseSessionID_Invariants validates the parsing invariant:
// "session IDs must be valid, non-empty, non-nil UUIDs"
func TestParseSessionID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseSessionID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseSessionID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseSessionID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseSessionID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, SessionID(validUUID), id)
	})

	t.Run("round-trips through String", func(t *testing.T) {
		id := NewSessionID()
		parsed, err := ParseSessionID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})
}

// TestParseOpaqueIDs_SecurityInvariants validates trust boundary rules for
// identifiers minted by upstream systems: parsing must reject attack vectors
// at API entry points.
func TestParseOpaqueIDs_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE submissions;--", false},
		{"Path traversal", "../../../etc/passwd", false},
		{"Null byte injection", "r_5abc\x00def", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Embedded space", "r 123", true},
		{"Embedded newline", "r_123\n456", true},
		{"Empty string", "", true},
		{"Whitespace only", "   ", true},
		{"Invalid UTF-8", string([]byte{0xff, 0xfe}), true},
		{"Typical receipt id", "r_8f14e45f", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errReceipt := ParseReceiptID(tt.input)
			_, errUser := ParseUserID(tt.input)
			if tt.wantErr {
				require.Error(t, errReceipt)
				require.Error(t, errUser)
				assert.True(t, dErrors.HasCode(errReceipt, dErrors.CodeInvalidInput))
				assert.True(t, dErrors.HasCode(errUser, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, errReceipt)
				require.NoError(t, errUser)
			}
		})
	}
}

// TestTypeDistinction verifies the compiler enforces type safety between ID
// kinds. If this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	receiptID := ReceiptID("r_123")
	submissionID := SubmissionID("sub_123")

	// These would fail to compile if types were interchangeable:
	// var _ ReceiptID = submissionID  // compile error
	// var _ SubmissionID = receiptID  // compile error

	assert.NotEqual(t, string(receiptID), string(submissionID))
}

func TestIsNil(t *testing.T) {
	assert.True(t, SessionID{}.IsNil())
	assert.False(t, NewSessionID().IsNil())
	assert.True(t, ReceiptID("").IsNil())
	assert.False(t, ReceiptID("r_1").IsNil())
	assert.True(t, UserID("").IsNil())
	assert.True(t, SubmissionID("").IsNil())
}
