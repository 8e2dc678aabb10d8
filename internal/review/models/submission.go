package models

import id "claimcheck/pkg/domain"

// SubmissionStatus is the submission store's answer. Only SUBMITTED is
// terminal; anything else leaves the gate armed for retry.
type SubmissionStatus string

const (
	SubmissionStatusSubmitted SubmissionStatus = "SUBMITTED"
	SubmissionStatusBlocked   SubmissionStatus = "BLOCKED"
)

// Blocked reasons every store backend reports verbatim.
const (
	ReasonConfirmationRequired = "User confirmation required."
	ReasonDuplicateReceipt     = "This receipt was already submitted."
)

// SubmissionRequest is the durable record the gate hands to the submission
// store once the reviewer has explicitly confirmed: the final fields plus
// the full review trail (issues, evidence, edits, justifications).
type SubmissionRequest struct {
	ReceiptID      id.ReceiptID          `json:"receipt_id"`
	FinalFields    FieldSet              `json:"final_fields"`
	UserConfirmed  bool                  `json:"user_confirmed"`
	PolicyRuleIDs  []string              `json:"policy_rule_ids"`
	Issues         []PolicyIssue         `json:"issues"`
	ReviewState    ReviewState           `json:"review_state"`
	Edits          []EditRecord          `json:"edits"`
	Justifications []JustificationRecord `json:"justifications"`
}

// SubmissionResult reports what the store did with the request.
type SubmissionResult struct {
	Status       SubmissionStatus `json:"status"`
	SubmissionID id.SubmissionID  `json:"submission_id,omitempty"`
	Reason       string           `json:"reason,omitempty"`
}

// Submitted reports whether the store durably recorded the expense.
func (r *SubmissionResult) Submitted() bool {
	return r != nil && r.Status == SubmissionStatusSubmitted
}
