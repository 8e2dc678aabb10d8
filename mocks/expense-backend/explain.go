package main

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Deterministic explanation generator. It answers from the issues and rule
// summaries alone so the same validation outcome always explains the same
// way, whatever the user asked.

const noIssuesExplanation = "No policy issues were detected. All required fields are present and the extracted values " +
	"are above the confidence threshold. You can proceed to submission."

const (
	maxBullets        = 6
	maxClarifications = 5
)

var clarificationByRule = map[string]string{
	"POL-REQ-002":   "Please attach a receipt image to proceed.",
	"POL-PARSE-101": "Please enter the total amount manually (could not be parsed reliably).",
	"POL-LIM-010":   "Was this a business meal? If yes, add business purpose and attendees (if applicable).",
	"POL-LIM-020":   "Can you provide justification for exceeding the daily limit, or split into multiple lines if allowed?",
	"POL-DATE-030":  "Is the receipt date correct? If yes, provide justification for late/out-of-range submission.",
	"POL-JUST-040":  "Please add a short business purpose (e.g., client meeting, travel, workshop).",
	"POL-CAT-050":   "Does the selected category match the merchant? If not, choose the correct category.",
	"POL-DUP-060":   "Have you already submitted this receipt? If not, confirm it’s a new expense.",
}

type explainRequest struct {
	Fields        map[string]fieldValue `json:"fields"`
	Issues        []policyIssue         `json:"issues"`
	RuleSummaries []ruleSummaryEntry    `json:"rule_summaries"`
	UserQuestion  string                `json:"user_question"`
}

type explainResponse struct {
	Explanation            string   `json:"explanation"`
	ClarificationQuestions []string `json:"clarification_questions"`
}

func (s *server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.writeJSON(w, http.StatusOK, explainWithPolicy(req))
}

func explainWithPolicy(req explainRequest) explainResponse {
	if len(req.Issues) == 0 {
		return explainResponse{
			Explanation:            noIssuesExplanation,
			ClarificationQuestions: []string{},
		}
	}

	summaryByRule := map[string]string{}
	for _, r := range req.RuleSummaries {
		summaryByRule[r.RuleID] = r.Summary
	}

	// FAIL before WARN, original order within each severity.
	sorted := make([]policyIssue, len(req.Issues))
	copy(sorted, req.Issues)
	sort.SliceStable(sorted, func(i, j int) bool {
		return severityRank(sorted[i].Severity) < severityRank(sorted[j].Severity)
	})
	if len(sorted) > maxBullets {
		sorted = sorted[:maxBullets]
	}

	var bullets []string
	var clarifications []string
	for _, i := range sorted {
		field := i.Field
		if field == "" {
			field = "unknown field"
		}
		rid := i.RuleID
		if rid == "" {
			rid = "UNKNOWN"
		}
		sev := i.Severity
		if sev == "" {
			sev = "WARN"
		}

		line := summaryByRule[rid]
		if line == "" {
			line = i.Message
		}
		if line == "" {
			line = "Policy check triggered."
		}
		bullets = append(bullets, fmt.Sprintf("- **%s** `%s` (%s): %s", sev, rid, field, line))

		clarifications = append(clarifications, clarificationFor(rid, field)...)
	}

	clarifications = dedupe(clarifications)
	if len(clarifications) > maxClarifications {
		clarifications = clarifications[:maxClarifications]
	}

	explanation := "Based on the current extracted fields and deterministic policy checks, the system flagged the expense due to " +
		"the following rule(s):\n\n" + strings.Join(bullets, "\n") +
		"\n\nTo proceed, please address the requested fields or provide the required justification. " +
		"After edits, re-run the policy validation to confirm compliance."

	return explainResponse{
		Explanation:            explanation,
		ClarificationQuestions: clarifications,
	}
}

func severityRank(sev string) int {
	switch sev {
	case "FAIL":
		return 0
	case "WARN":
		return 1
	default:
		return 9
	}
}

// clarificationFor keys the follow-up question off the rule; the two
// field-specific rules fold the field name into the question text.
func clarificationFor(ruleID, field string) []string {
	switch ruleID {
	case "POL-REQ-001":
		return []string{fmt.Sprintf("Please provide the missing value for **%s**.", field)}
	case "POL-CONF-100":
		return []string{fmt.Sprintf("Can you confirm or correct the extracted **%s** value?", field)}
	}
	if q, ok := clarificationByRule[ruleID]; ok {
		return []string{q}
	}
	return nil
}

func dedupe(xs []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, x := range xs {
		if x == "" || seen[x] {
			continue
		}
		seen[x] = true
		out = append(out, x)
	}
	return out
}
