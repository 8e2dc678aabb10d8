package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummaryFor(t *testing.T) {
	t.Run("known rule returns its gloss", func(t *testing.T) {
		s := SummaryFor(RuleMealLimit)
		assert.Contains(t, s, "Meal expenses")
	})

	t.Run("unknown rule falls back to generic summary", func(t *testing.T) {
		assert.Equal(t, FallbackSummary, SummaryFor("POL-NEW-999"))
	})
}

func TestHintFor(t *testing.T) {
	assert.NotEmpty(t, HintFor(RuleUnparsableAmount))
	assert.Empty(t, HintFor("POL-NEW-999"))
}

func TestIsJustifiable(t *testing.T) {
	for _, ruleID := range JustifiableRules() {
		assert.True(t, IsJustifiable(ruleID), ruleID)
	}

	// Informational rules never expose a justification affordance.
	assert.False(t, IsJustifiable(RuleRequiredField))
	assert.False(t, IsJustifiable(RuleLowConfidence))
	assert.False(t, IsJustifiable(RuleDuplicate))
	assert.False(t, IsJustifiable("POL-NEW-999"))
}
