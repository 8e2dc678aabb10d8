package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimcheck/internal/policy"
	id "claimcheck/pkg/domain"
	dErrors "claimcheck/pkg/domain-errors"
)

func TestJustificationLedger_Save(t *testing.T) {
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	t.Run("stores trimmed text for a justifiable rule", func(t *testing.T) {
		ledger := NewJustificationLedger()
		err := ledger.Save(id.FieldTotal, policy.RuleMealLimit, "  team dinner with client  ", now)
		require.NoError(t, err)

		rec, ok := ledger.Get(id.FieldTotal, policy.RuleMealLimit)
		require.True(t, ok)
		assert.Equal(t, "team dinner with client", rec.Text)
		assert.Equal(t, now, rec.At)
	})

	t.Run("rejects blank text without mutating", func(t *testing.T) {
		ledger := NewJustificationLedger()
		err := ledger.Save(id.FieldTotal, policy.RuleMealLimit, "   ", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Zero(t, ledger.Len())
	})

	t.Run("rejects informational-only rules", func(t *testing.T) {
		ledger := NewJustificationLedger()
		err := ledger.Save(id.FieldCategory, policy.RuleCategoryMismatch, "looks right to me", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Zero(t, ledger.Len())
	})

	t.Run("upsert keeps exactly one live record with the latest text", func(t *testing.T) {
		ledger := NewJustificationLedger()
		require.NoError(t, ledger.Save(id.FieldTotal, policy.RuleMealLimit, "first version", now))
		require.NoError(t, ledger.Save(id.FieldTotal, policy.RuleMealLimit, "second version", now.Add(time.Minute)))

		assert.Equal(t, 1, ledger.Len())
		rec, ok := ledger.Get(id.FieldTotal, policy.RuleMealLimit)
		require.True(t, ok)
		assert.Equal(t, "second version", rec.Text)
	})

	t.Run("same rule on different fields stays distinct", func(t *testing.T) {
		ledger := NewJustificationLedger()
		require.NoError(t, ledger.Save(id.FieldTotal, policy.RuleDailyLimit, "conference day", now))
		require.NoError(t, ledger.Save(id.FieldDate, policy.RuleDailyLimit, "travel day", now))
		assert.Equal(t, 2, ledger.Len())
	})
}

func TestJustificationLedger_RuleContext(t *testing.T) {
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	ledger := NewJustificationLedger()
	require.NoError(t, ledger.Save(id.FieldTotal, policy.RuleMealLimit, "team dinner", now))
	require.NoError(t, ledger.Save(id.FieldDate, policy.RuleDateRange, "receipt arrived late", now))

	ctx := ledger.RuleContext()
	assert.Equal(t, map[string]string{
		policy.RuleMealLimit: "team dinner",
		policy.RuleDateRange: "receipt arrived late",
	}, ctx)
}

func TestJustificationLedger_Snapshot_Ordering(t *testing.T) {
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	ledger := NewJustificationLedger()
	require.NoError(t, ledger.Save(id.FieldTotal, policy.RuleDailyLimit, "b", now))
	require.NoError(t, ledger.Save(id.FieldDate, policy.RuleDateRange, "a", now))
	require.NoError(t, ledger.Save(id.FieldTotal, policy.RuleMealLimit, "c", now))

	snap := ledger.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, id.FieldDate, snap[0].Field)
	assert.Equal(t, policy.RuleDailyLimit, snap[1].RuleID)
	assert.Equal(t, policy.RuleMealLimit, snap[2].RuleID)
}

func TestJustificationLedger_JSONRoundTrip(t *testing.T) {
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	ledger := NewJustificationLedger()
	require.NoError(t, ledger.Save(id.FieldTotal, policy.RuleMealLimit, "team dinner", now))
	require.NoError(t, ledger.Save(id.FieldDate, policy.RuleDateRange, "late receipt", now))

	data, err := json.Marshal(ledger)
	require.NoError(t, err)

	restored := NewJustificationLedger()
	require.NoError(t, json.Unmarshal(data, restored))

	assert.Equal(t, 2, restored.Len())
	assert.Equal(t, ledger.Snapshot(), restored.Snapshot())
}
