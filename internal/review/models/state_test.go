package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimcheck/internal/policy"
	id "claimcheck/pkg/domain"
)

func confidentFields() FieldSet {
	return FieldSet{
		id.FieldMerchant: {Value: "Central Cafe", Confidence: 0.9},
		id.FieldDate:     {Value: "2026-08-20", Confidence: 0.95},
		id.FieldTotal:    {Value: "12.50", Confidence: 0.8},
		id.FieldCurrency: {Value: "EUR", Confidence: 0.9},
	}
}

func TestComputeReviewState(t *testing.T) {
	t.Run("any FAIL short-circuits to RED regardless of confidence", func(t *testing.T) {
		fields := FieldSet{
			id.FieldTotal: {Value: "abc", Confidence: 1.0},
		}
		resp := &ValidationResponse{
			Compliance: VerdictFail,
			Issues: []PolicyIssue{
				{Field: "total", Severity: SeverityWarn, RuleID: policy.RuleLowConfidence},
				{Field: "total", Severity: SeverityFail, RuleID: policy.RuleUnparsableAmount},
			},
		}
		assert.Equal(t, ReviewStateRed, ComputeReviewState(fields, resp))
	})

	t.Run("WARN issue yields YELLOW", func(t *testing.T) {
		resp := &ValidationResponse{
			Compliance: VerdictWarn,
			Issues: []PolicyIssue{
				{Field: "category", Severity: SeverityWarn, RuleID: policy.RuleCategoryMismatch},
			},
		}
		assert.Equal(t, ReviewStateYellow, ComputeReviewState(confidentFields(), resp))
	})

	t.Run("low confidence yields YELLOW even with a clean verdict", func(t *testing.T) {
		fields := confidentFields()
		fields[id.FieldTotal] = FieldValue{Value: "12.50", Confidence: 0.4}
		resp := &ValidationResponse{Compliance: VerdictPass}
		assert.Equal(t, ReviewStateYellow, ComputeReviewState(fields, resp))
	})

	t.Run("all pass and confident yields GREEN", func(t *testing.T) {
		resp := &ValidationResponse{Compliance: VerdictPass}
		assert.Equal(t, ReviewStateGreen, ComputeReviewState(confidentFields(), resp))
	})

	t.Run("manual fields never trip the confidence branch", func(t *testing.T) {
		fields := FieldSet{
			id.FieldTotal: {Value: "12.50", Confidence: ManualConfidence},
		}
		resp := &ValidationResponse{Compliance: VerdictPass}
		assert.Equal(t, ReviewStateGreen, ComputeReviewState(fields, resp))
	})

	t.Run("nil compliance leaves only the confidence branch", func(t *testing.T) {
		assert.Equal(t, ReviewStateGreen, ComputeReviewState(confidentFields(), nil))

		low := confidentFields()
		low[id.FieldMerchant] = FieldValue{Value: "Central Cafe", Confidence: 0.5}
		assert.Equal(t, ReviewStateYellow, ComputeReviewState(low, nil))
	})

	t.Run("threshold boundary is exclusive", func(t *testing.T) {
		fields := FieldSet{
			id.FieldTotal: {Value: "12.50", Confidence: ConfidenceThreshold},
		}
		assert.Equal(t, ReviewStateGreen, ComputeReviewState(fields, &ValidationResponse{Compliance: VerdictPass}))

		fields[id.FieldTotal] = FieldValue{Value: "12.50", Confidence: ConfidenceThreshold - 0.01}
		assert.Equal(t, ReviewStateYellow, ComputeReviewState(fields, &ValidationResponse{Compliance: VerdictPass}))
	})
}

// A WARN plus one low-confidence extraction lands on YELLOW: the reviewer
// has to look at the total before the expense can go anywhere.
func TestComputeReviewState_LowConfidenceTotal(t *testing.T) {
	fields := FieldSet{
		id.FieldMerchant: {Value: "Starbucks", Confidence: 0.9},
		id.FieldDate:     {Value: "2024-01-05", Confidence: 0.95},
		id.FieldTotal:    {Value: "12.50", Confidence: 0.4},
		id.FieldCurrency: {Value: "EUR", Confidence: 0.9},
	}
	resp := &ValidationResponse{
		Compliance: VerdictWarn,
		Issues: []PolicyIssue{
			{Field: "total", Severity: SeverityWarn, RuleID: policy.RuleLowConfidence, Message: "total confidence below threshold (0.40)."},
		},
	}

	assert.Equal(t, ReviewStateYellow, ComputeReviewState(fields, resp))
}

// An unparsable amount fails hard: RED even when every field was manually
// confirmed at full confidence.
func TestComputeReviewState_UnparsableAmount(t *testing.T) {
	fields := FieldSet{
		id.FieldMerchant: {Value: "Central Cafe", Confidence: 1.0},
		id.FieldDate:     {Value: "2026-08-20", Confidence: 1.0},
		id.FieldTotal:    {Value: "1,2,50", Confidence: 1.0},
		id.FieldCurrency: {Value: "EUR", Confidence: 1.0},
	}
	resp := &ValidationResponse{
		Compliance: VerdictFail,
		Issues: []PolicyIssue{
			{Field: "total", Severity: SeverityFail, RuleID: policy.RuleUnparsableAmount, Message: "Could not parse total amount reliably."},
		},
	}

	assert.Equal(t, ReviewStateRed, ComputeReviewState(fields, resp))
}

// A saved justification never changes the local verdict by itself; only a
// fresh evaluator response that downgrades the severity can.
func TestComputeReviewState_JustificationAloneChangesNothing(t *testing.T) {
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	fields := confidentFields()
	resp := &ValidationResponse{
		Compliance: VerdictFail,
		Issues: []PolicyIssue{
			{Field: "total", Severity: SeverityFail, RuleID: policy.RuleMealLimit},
		},
	}
	require.Equal(t, ReviewStateRed, ComputeReviewState(fields, resp))

	ledger := NewJustificationLedger()
	require.NoError(t, ledger.Save(id.FieldTotal, policy.RuleMealLimit, "client dinner, 3 attendees", now))

	// Same inputs, same verdict: the ledger is not an aggregator input.
	assert.Equal(t, ReviewStateRed, ComputeReviewState(fields, resp))

	// The next evaluation downgrades the severity; only then does the
	// verdict move.
	relaxed := &ValidationResponse{
		Compliance: VerdictWarn,
		Issues: []PolicyIssue{
			{Field: "total", Severity: SeverityWarn, RuleID: policy.RuleMealLimit},
		},
	}
	assert.Equal(t, ReviewStateYellow, ComputeReviewState(fields, relaxed))
}

func TestValidationResponse_RuleIDs(t *testing.T) {
	resp := &ValidationResponse{
		Issues: []PolicyIssue{
			{Field: "total", Severity: SeverityFail, RuleID: policy.RuleMealLimit},
			{Field: "merchant", Severity: SeverityWarn, RuleID: policy.RuleLowConfidence},
			{Field: "date", Severity: SeverityWarn, RuleID: policy.RuleLowConfidence},
		},
	}
	assert.Equal(t, []string{policy.RuleLowConfidence, policy.RuleMealLimit}, resp.RuleIDs())

	var nilResp *ValidationResponse
	assert.Nil(t, nilResp.RuleIDs())
	assert.False(t, nilResp.HasIssues())
}
