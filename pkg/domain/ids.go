package domain

import (
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "claimcheck/pkg/domain-errors"
)

// SessionID identifies one review session (one receipt intake through
// submission or clear). Minted by this service.
type SessionID uuid.UUID

// NewSessionID returns a fresh random session ID.
func NewSessionID() SessionID {
	return SessionID(uuid.New())
}

// ParseSessionID constructs a SessionID from external input. Rejects
// anything that is not a valid, non-nil UUID.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return SessionID{}, err
	}
	return SessionID(u), nil
}

// String returns the canonical UUID form.
func (id SessionID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the ID is the zero UUID.
func (id SessionID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// UserID identifies the reviewer who owns a session. Carried in access
// token claims; minted by the identity provider, opaque to this service.
type UserID string

// ParseUserID validates an externally supplied user identifier.
func ParseUserID(s string) (UserID, error) {
	if err := validateOpaqueID(s); err != nil {
		return "", err
	}
	return UserID(s), nil
}

// IsNil reports whether the user ID is empty.
func (id UserID) IsNil() bool {
	return id == ""
}

// String returns the raw identifier.
func (id UserID) String() string {
	return string(id)
}

// ReceiptID identifies one extracted receipt. Minted by the extraction
// service and echoed through validation and submission.
type ReceiptID string

// ParseReceiptID validates an externally supplied receipt identifier.
func ParseReceiptID(s string) (ReceiptID, error) {
	if err := validateOpaqueID(s); err != nil {
		return "", err
	}
	return ReceiptID(s), nil
}

// IsNil reports whether the receipt ID is empty.
func (id ReceiptID) IsNil() bool {
	return id == ""
}

// String returns the raw identifier.
func (id ReceiptID) String() string {
	return string(id)
}

// SubmissionID identifies a durable submission record. Minted by the
// submission store on success.
type SubmissionID string

// IsNil reports whether the submission ID is empty.
func (id SubmissionID) IsNil() bool {
	return id == ""
}

// String returns the raw identifier.
func (id SubmissionID) String() string {
	return string(id)
}

const maxOpaqueIDLength = 128

// parseUUID enforces the shared rule for UUID-backed IDs: valid format,
// not the nil UUID.
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid uuid")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil uuid")
	}
	return u, nil
}

// validateOpaqueID enforces the shared rule for string-backed IDs minted by
// upstream systems: non-empty, bounded, printable UTF-8.
func validateOpaqueID(s string) error {
	if s == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	if len(s) > maxOpaqueIDLength {
		return dErrors.New(dErrors.CodeInvalidInput, "id exceeds maximum length")
	}
	if !utf8.ValidString(s) {
		return dErrors.New(dErrors.CodeInvalidInput, "id must be valid utf-8")
	}
	for _, r := range s {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return dErrors.New(dErrors.CodeInvalidInput, "id must not contain whitespace or control characters")
		}
	}
	return nil
}
