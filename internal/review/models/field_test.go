package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "claimcheck/pkg/domain"
)

func extractedFields() FieldSet {
	return FieldSet{
		id.FieldMerchant: {Value: "Central Cafe", Confidence: 0.88},
		id.FieldDate:     {Value: "2026-08-20", Confidence: 0.8},
		id.FieldTotal:    {Value: "18.40", Confidence: 0.62},
		id.FieldCurrency: {Value: "EUR", Confidence: 0.9},
		id.FieldCategory: {Value: "Uncategorized", Confidence: 0.2},
	}
}

func TestFieldSet_Set(t *testing.T) {
	t.Run("preserves extraction confidence on existing field", func(t *testing.T) {
		fs := extractedFields()
		fs.Set(id.FieldTotal, "19.00")

		v, ok := fs.Get(id.FieldTotal)
		require.True(t, ok)
		assert.Equal(t, "19.00", v.Value)
		assert.Equal(t, 0.62, v.Confidence)
	})

	t.Run("inserts missing field at manual confidence", func(t *testing.T) {
		fs := extractedFields()
		fs.Set(id.FieldCostCenter, "CC-42")

		v, ok := fs.Get(id.FieldCostCenter)
		require.True(t, ok)
		assert.True(t, v.IsManual())
	})
}

func TestFieldSet_SetManual(t *testing.T) {
	fs := extractedFields()
	fs.SetManual(id.FieldTotal, "19.00")

	v, ok := fs.Get(id.FieldTotal)
	require.True(t, ok)
	assert.Equal(t, "19.00", v.Value)
	assert.Equal(t, ManualConfidence, v.Confidence)
	assert.True(t, v.IsManual())
}

func TestFieldSet_ApplyDefaults(t *testing.T) {
	t.Run("fills absent fields with manual defaults", func(t *testing.T) {
		fs := extractedFields()
		fs.ApplyDefaults("client lunch", "corporate_card")

		payment, ok := fs.Get(id.FieldPaymentType)
		require.True(t, ok)
		assert.Equal(t, "corporate_card", payment.Value)
		assert.True(t, payment.IsManual())

		reimbursable, ok := fs.Get(id.FieldReimbursable)
		require.True(t, ok)
		assert.Equal(t, true, reimbursable.Value)

		description, ok := fs.Get(id.FieldDescription)
		require.True(t, ok)
		assert.Equal(t, "client lunch", description.Value)
	})

	t.Run("skips description when no note given", func(t *testing.T) {
		fs := extractedFields()
		fs.ApplyDefaults("", "corporate_card")

		_, ok := fs.Get(id.FieldDescription)
		assert.False(t, ok)
	})

	t.Run("never touches extracted fields", func(t *testing.T) {
		fs := extractedFields()
		fs.ApplyDefaults("client lunch", "corporate_card")

		total, _ := fs.Get(id.FieldTotal)
		assert.Equal(t, "18.40", total.Value)
		assert.Equal(t, 0.62, total.Confidence)
	})

	t.Run("is idempotent across later edits", func(t *testing.T) {
		fs := extractedFields()
		fs.ApplyDefaults("client lunch", "corporate_card")

		// Reviewer corrects the defaulted payment type, then defaults run
		// again: the edit must survive.
		fs.SetManual(id.FieldPaymentType, "personal_card")
		fs.ApplyDefaults("client lunch", "corporate_card")

		payment, _ := fs.Get(id.FieldPaymentType)
		assert.Equal(t, "personal_card", payment.Value)

		// Second edit-free pass changes nothing at all.
		before := fs.Clone()
		fs.ApplyDefaults("client lunch", "corporate_card")
		assert.Equal(t, before, fs)
	})
}

func TestFieldSet_Clone(t *testing.T) {
	fs := extractedFields()
	clone := fs.Clone()
	clone.SetManual(id.FieldTotal, "99.99")

	original, _ := fs.Get(id.FieldTotal)
	assert.Equal(t, "18.40", original.Value, "clone writes must not leak back")
}

func TestFieldSet_StringValue(t *testing.T) {
	fs := extractedFields()
	fs.SetManual(id.FieldReimbursable, true)

	assert.Equal(t, "Central Cafe", fs.StringValue(id.FieldMerchant))
	assert.Equal(t, "", fs.StringValue(id.FieldProjectCode), "absent field")
	assert.Equal(t, "", fs.StringValue(id.FieldReimbursable), "non-string value")
}
