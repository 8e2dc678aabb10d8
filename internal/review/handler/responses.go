package handler

import (
	"time"

	"claimcheck/internal/policy"
	"claimcheck/internal/review/models"
	id "claimcheck/pkg/domain"
)

// SessionResponse is the full session snapshot every mutating endpoint
// returns, so clients never need a follow-up GET to learn the new state.
type SessionResponse struct {
	SessionID      string          `json:"session_id"`
	ReceiptID      string          `json:"receipt_id"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	ReviewState    string          `json:"review_state"`
	Fields         models.FieldSet `json:"fields"`
	Note           string          `json:"note,omitempty"`
	RawTextPreview string          `json:"raw_text_preview,omitempty"`

	Compliance     *ComplianceResponse          `json:"compliance,omitempty"`
	Cycle          CycleResponse                `json:"cycle"`
	Edits          []models.EditRecord          `json:"edits"`
	Justifications []models.JustificationRecord `json:"justifications"`
	Submission     *models.SubmissionResult     `json:"submission,omitempty"`
}

// ComplianceResponse is the last verdict with catalog-enriched issues.
type ComplianceResponse struct {
	Verdict  string          `json:"verdict"`
	Issues   []IssueResponse `json:"issues"`
	Evidence []string        `json:"evidence"`
}

// IssueResponse decorates one evaluator issue with the local policy
// catalog: a stable summary, a remediation hint, and whether the rule
// accepts justification (and already has one for this field).
type IssueResponse struct {
	Field       string `json:"field"`
	Severity    string `json:"severity"`
	RuleID      string `json:"rule_id"`
	Message     string `json:"message"`
	Summary     string `json:"summary"`
	Hint        string `json:"hint,omitempty"`
	Justifiable bool   `json:"justifiable"`
	Justified   bool   `json:"justified"`
}

// CycleResponse reports where the validate/explain cycle stands.
type CycleResponse struct {
	Phase       string              `json:"phase"`
	Error       string              `json:"error,omitempty"`
	Explanation *models.Explanation `json:"explanation,omitempty"`
}

// FromSession converts a domain session to its HTTP snapshot.
func FromSession(session *models.Session) *SessionResponse {
	resp := &SessionResponse{
		SessionID:      session.ID.String(),
		ReceiptID:      session.ReceiptID.String(),
		CreatedAt:      session.CreatedAt,
		UpdatedAt:      session.UpdatedAt,
		ReviewState:    string(session.ReviewState()),
		Fields:         session.Fields,
		Note:           session.Note,
		Edits:          session.Edits.Snapshot(),
		Justifications: session.Justifications.Snapshot(),
		Submission:     session.Submission,
		Cycle: CycleResponse{
			Phase:       string(session.Cycle.Phase),
			Error:       session.Cycle.Err,
			Explanation: session.Cycle.Explanation,
		},
	}
	if session.Extraction != nil {
		resp.RawTextPreview = session.Extraction.RawTextPreview
	}
	if session.Compliance != nil {
		resp.Compliance = fromCompliance(session)
	}
	return resp
}

func fromCompliance(session *models.Session) *ComplianceResponse {
	compliance := session.Compliance
	issues := make([]IssueResponse, 0, len(compliance.Issues))
	for _, issue := range compliance.Issues {
		// Lookup only: evaluator-minted field names outside the vocabulary
		// simply find no justification.
		_, justified := session.Justifications.Get(id.FieldName(issue.Field), issue.RuleID)
		issues = append(issues, IssueResponse{
			Field:       issue.Field,
			Severity:    string(issue.Severity),
			RuleID:      issue.RuleID,
			Message:     issue.Message,
			Summary:     policy.SummaryFor(issue.RuleID),
			Hint:        policy.HintFor(issue.RuleID),
			Justifiable: policy.IsJustifiable(issue.RuleID),
			Justified:   justified,
		})
	}
	return &ComplianceResponse{
		Verdict:  string(compliance.Compliance),
		Issues:   issues,
		Evidence: compliance.RuleIDs(),
	}
}
