package models

import (
	id "claimcheck/pkg/domain"
	pstrings "claimcheck/pkg/platform/strings"
)

// Severity grades one policy issue. FAIL blocks, WARN asks for review.
type Severity string

const (
	SeverityWarn Severity = "WARN"
	SeverityFail Severity = "FAIL"
)

// ComplianceVerdict is the coarse outcome of the last rule evaluation.
type ComplianceVerdict string

const (
	VerdictPass ComplianceVerdict = "PASS"
	VerdictWarn ComplianceVerdict = "WARN"
	VerdictFail ComplianceVerdict = "FAIL"
)

// PolicyIssue is one rule violation as reported by the rule evaluator.
// Immutable once received. Field stays a plain string: the evaluator may
// flag fields outside our vocabulary.
type PolicyIssue struct {
	Field    string   `json:"field"`
	Severity Severity `json:"severity"`
	RuleID   string   `json:"rule_id"`
	Message  string   `json:"message"`
}

// RuleSummary is the human-readable gloss the evaluator supplies alongside
// issues, one per distinct triggered rule.
type RuleSummary struct {
	RuleID  string `json:"rule_id"`
	Summary string `json:"summary"`
}

// UserContext travels with every validation request so the evaluator can
// apply country- and role-specific limits and weigh saved justifications.
type UserContext struct {
	Country        string            `json:"country"`
	Role           string            `json:"role"`
	Justifications map[string]string `json:"justifications"`
}

// ValidationRequest is the rule evaluator's input. Building it is
// deterministic: the same fields and justification map always produce the
// same request.
type ValidationRequest struct {
	ReceiptID   id.ReceiptID `json:"receipt_id"`
	Fields      FieldSet     `json:"fields"`
	UserContext UserContext  `json:"user_context"`
}

// ValidationResponse is the rule evaluator's output for one request.
type ValidationResponse struct {
	ReceiptID     id.ReceiptID      `json:"receipt_id"`
	Compliance    ComplianceVerdict `json:"compliance"`
	Issues        []PolicyIssue     `json:"issues"`
	RuleSummaries []RuleSummary     `json:"rule_summaries,omitempty"`
	Metadata      map[string]any    `json:"metadata,omitempty"`
}

// HasIssues reports whether the evaluator flagged anything.
func (r *ValidationResponse) HasIssues() bool {
	return r != nil && len(r.Issues) > 0
}

// RuleIDs returns the distinct rule identifiers behind the verdict in
// stable order: the policy evidence shown for traceability.
func (r *ValidationResponse) RuleIDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		ids = append(ids, issue.RuleID)
	}
	return pstrings.SortedUnique(ids)
}
