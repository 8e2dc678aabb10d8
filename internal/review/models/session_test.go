package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimcheck/internal/policy"
	id "claimcheck/pkg/domain"
	dErrors "claimcheck/pkg/domain-errors"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	extraction := &ExtractionResult{
		ReceiptID: "r_1a2b3c4d",
		Fields:    extractedFields(),
	}
	fields := extraction.Fields.Clone()
	fields.ApplyDefaults("client lunch", "corporate_card")

	sess, err := NewSession(id.NewSessionID(), "user-1", extraction, fields, "client lunch", now)
	require.NoError(t, err)
	return sess
}

func TestNewSession(t *testing.T) {
	t.Run("adopts fields and snapshots originals", func(t *testing.T) {
		sess := newTestSession(t)

		assert.Equal(t, id.ReceiptID("r_1a2b3c4d"), sess.ReceiptID)
		assert.Equal(t, CyclePhaseIdle, sess.Cycle.Phase)
		assert.Equal(t, sess.Fields, sess.Originals)

		// Originals are a snapshot, not an alias.
		sess.Fields.SetManual(id.FieldTotal, "99.99")
		original, _ := sess.Originals.Get(id.FieldTotal)
		assert.Equal(t, "18.40", original.Value)
	})

	t.Run("rejects missing parts", func(t *testing.T) {
		now := time.Now()
		extraction := &ExtractionResult{ReceiptID: "r_1a2b3c4d", Fields: FieldSet{}}

		_, err := NewSession(id.SessionID{}, "user-1", extraction, FieldSet{}, "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		_, err = NewSession(id.NewSessionID(), "", extraction, FieldSet{}, "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		_, err = NewSession(id.NewSessionID(), "user-1", nil, FieldSet{}, "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestSession_ApplyEdit(t *testing.T) {
	now := time.Date(2026, 8, 20, 11, 0, 0, 0, time.UTC)

	t.Run("books the edit and promotes the field to manual", func(t *testing.T) {
		sess := newTestSession(t)
		reverted, err := sess.ApplyEdit(id.FieldTotal, "19.00", now)
		require.NoError(t, err)
		assert.False(t, reverted)

		v, _ := sess.Fields.Get(id.FieldTotal)
		assert.Equal(t, "19.00", v.Value)
		assert.True(t, v.IsManual())
		assert.True(t, sess.Edits.IsEdited(id.FieldTotal))
		assert.Equal(t, now, sess.UpdatedAt)
	})

	t.Run("editing back to the original reverts", func(t *testing.T) {
		sess := newTestSession(t)
		_, err := sess.ApplyEdit(id.FieldTotal, "19.00", now)
		require.NoError(t, err)

		reverted, err := sess.ApplyEdit(id.FieldTotal, "18.40", now.Add(time.Minute))
		require.NoError(t, err)
		assert.True(t, reverted)
		assert.False(t, sess.Edits.IsEdited(id.FieldTotal))

		// The field itself keeps the re-asserted value at manual confidence.
		v, _ := sess.Fields.Get(id.FieldTotal)
		assert.Equal(t, "18.40", v.Value)
		assert.True(t, v.IsManual())
	})

	t.Run("edit on a field absent at session start books from nil", func(t *testing.T) {
		sess := newTestSession(t)
		_, err := sess.ApplyEdit(id.FieldProjectCode, "PRJ-7", now)
		require.NoError(t, err)

		rec := sess.Edits[id.FieldProjectCode]
		assert.Nil(t, rec.From)
		assert.Equal(t, "PRJ-7", rec.To)
	})
}

func TestSession_Sealing(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	t.Run("terminal submission seals every mutation", func(t *testing.T) {
		sess := newTestSession(t)
		sess.Submission = &SubmissionResult{Status: SubmissionStatusSubmitted, SubmissionID: "41"}
		require.True(t, sess.Sealed())

		_, err := sess.ApplyEdit(id.FieldTotal, "20.00", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

		err = sess.ApplyJustification(id.FieldTotal, policy.RuleMealLimit, "dinner", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("a blocked submission leaves the session open", func(t *testing.T) {
		sess := newTestSession(t)
		sess.Submission = &SubmissionResult{Status: SubmissionStatusBlocked, Reason: "User confirmation required."}
		assert.False(t, sess.Sealed())

		_, err := sess.ApplyEdit(id.FieldTotal, "20.00", now)
		assert.NoError(t, err)
	})
}

func TestSession_ReviewStateDerived(t *testing.T) {
	sess := newTestSession(t)

	// Intake state: total extracted at 0.62 drags the session to YELLOW
	// before any validation ran.
	assert.Equal(t, ReviewStateYellow, sess.ReviewState())

	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	_, err := sess.ApplyEdit(id.FieldTotal, "18.40", now)
	require.NoError(t, err)
	sess.Fields.SetManual(id.FieldCategory, "Meals")
	assert.Equal(t, ReviewStateGreen, sess.ReviewState())

	sess.Compliance = &ValidationResponse{
		Compliance: VerdictFail,
		Issues:     []PolicyIssue{{Field: "total", Severity: SeverityFail, RuleID: policy.RuleMealLimit}},
	}
	assert.Equal(t, ReviewStateRed, sess.ReviewState())
	assert.Equal(t, []string{policy.RuleMealLimit}, sess.Evidence())
}
