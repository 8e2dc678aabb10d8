// Package policy holds the rule catalog this service observes. The catalog
// is owned by the external rule evaluator; what lives here is configuration
// data about it (summaries, remediation hints, which rules accept
// justification), not evaluation logic. Unknown rule IDs are tolerated so
// the evaluator can grow its catalog without a deploy on this side.
package policy

// Rule identifiers observed from the rule evaluator.
const (
	RuleRequiredField    = "POL-REQ-001"
	RuleReceiptRequired  = "POL-REQ-002"
	RuleLowConfidence    = "POL-CONF-100"
	RuleUnparsableAmount = "POL-PARSE-101"
	RuleMealLimit        = "POL-LIM-010"
	RuleDailyLimit       = "POL-LIM-020"
	RuleDateRange        = "POL-DATE-030"
	RuleBusinessPurpose  = "POL-JUST-040"
	RuleCategoryMismatch = "POL-CAT-050"
	RuleDuplicate        = "POL-DUP-060"
)

// FallbackSummary keeps the contract stable when the evaluator reports a
// rule this catalog does not know yet.
const FallbackSummary = "Policy rule triggered. See rule definition repository."

// summaries glosses each known rule for display next to its issues.
var summaries = map[string]string{
	RuleRequiredField:    "A required expense field (such as merchant, date, total, currency, or category) is missing.",
	RuleReceiptRequired:  "A receipt image is required for this type of expense.",
	RuleLowConfidence:    "The extracted value has low confidence and requires user review.",
	RuleUnparsableAmount: "The amount could not be reliably parsed from the receipt text.",
	RuleMealLimit:        "Meal expenses above the standard limit require justification or attendees.",
	RuleDailyLimit:       "The total expense exceeds the allowed daily limit.",
	RuleDateRange:        "The expense date falls outside the allowed submission period.",
	RuleBusinessPurpose:  "A business purpose is required for reimbursement.",
	RuleCategoryMismatch: "The selected category may not match the detected merchant type.",
	RuleDuplicate:        "This expense may be a duplicate of a previously submitted expense.",
}

// hints tells the reviewer what to do about each known rule.
var hints = map[string]string{
	RuleRequiredField:    "Provide the missing value for the flagged field.",
	RuleReceiptRequired:  "Attach a receipt image to proceed.",
	RuleLowConfidence:    "Confirm or correct the extracted value.",
	RuleUnparsableAmount: "Enter the total amount manually.",
	RuleMealLimit:        "Add a business purpose and attendees, or provide a justification.",
	RuleDailyLimit:       "Provide a justification for exceeding the daily limit, or split the expense.",
	RuleDateRange:        "Check the receipt date; if it is correct, justify the late submission.",
	RuleBusinessPurpose:  "Add a short business purpose (e.g. client meeting, travel, workshop).",
	RuleCategoryMismatch: "Pick the category that matches the merchant.",
	RuleDuplicate:        "Confirm this is a new expense, not an already submitted receipt.",
}

// justifiable lists the rule classes a reviewer may attach justification
// text to. Issues from any other rule are informational only: they carry no
// justification affordance and the ledger rejects saves against them.
var justifiable = map[string]bool{
	RuleMealLimit:  true,
	RuleDailyLimit: true,
	RuleDateRange:  true,
}

// SummaryFor returns the human-readable gloss for a rule ID, falling back
// to a generic summary for unknown rules.
func SummaryFor(ruleID string) string {
	if s, ok := summaries[ruleID]; ok {
		return s
	}
	return FallbackSummary
}

// HintFor returns the fixed remediation hint for a rule ID. Unknown rules
// have no hint.
func HintFor(ruleID string) string {
	return hints[ruleID]
}

// IsJustifiable reports whether a rule accepts reviewer justification.
func IsJustifiable(ruleID string) bool {
	return justifiable[ruleID]
}

// JustifiableRules returns the allowlist in stable order, for responses
// that need to advertise which rules accept justification.
func JustifiableRules() []string {
	return []string{RuleMealLimit, RuleDailyLimit, RuleDateRange}
}
