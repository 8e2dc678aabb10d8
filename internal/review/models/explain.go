package models

// ExplainRequest asks the explanation generator to narrate the current
// issues. Fields and issues are passed verbatim so the generator needs no
// session access of its own.
type ExplainRequest struct {
	Fields        FieldSet      `json:"fields"`
	Issues        []PolicyIssue `json:"issues"`
	RuleSummaries []RuleSummary `json:"rule_summaries"`
	UserQuestion  string        `json:"user_question"`
}

// ExplainResponse is the generated narrative plus follow-up questions the
// reviewer can answer to unblock the flagged rules.
type ExplainResponse struct {
	Explanation            string   `json:"explanation"`
	ClarificationQuestions []string `json:"clarification_questions"`
}
