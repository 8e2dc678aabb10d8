package main

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

const confThreshold = 0.75

// requiredFields is also the evaluation order for the required and
// confidence checks, so identical requests produce identical responses.
var requiredFields = []string{"merchant", "date", "total", "currency", "category"}

var mealCategories = map[string]bool{"meals": true, "meal": true, "food": true}

var ruleSummaries = map[string]string{
	"POL-REQ-001":   "A required expense field (such as merchant, date, total, currency, or category) is missing.",
	"POL-REQ-002":   "A receipt image is required for this type of expense.",
	"POL-CONF-100":  "The extracted value has low confidence and requires user review.",
	"POL-PARSE-101": "The amount could not be reliably parsed from the receipt text.",
	"POL-LIM-010":   "Meal expenses above the standard limit require justification or attendees.",
	"POL-LIM-020":   "The total expense exceeds the allowed daily limit.",
	"POL-DATE-030":  "The expense date falls outside the allowed submission period.",
	"POL-JUST-040":  "A business purpose is required for reimbursement.",
	"POL-CAT-050":   "The selected category may not match the detected merchant type.",
	"POL-DUP-060":   "This expense may be a duplicate of a previously submitted expense.",
}

const fallbackSummary = "Policy rule triggered. See rule definition repository."

type userContext struct {
	Country        string            `json:"country"`
	Role           string            `json:"role"`
	Justifications map[string]string `json:"justifications"`
}

type policyRequest struct {
	ReceiptID   string                `json:"receipt_id"`
	Fields      map[string]fieldValue `json:"fields"`
	UserContext userContext           `json:"user_context"`
}

type policyIssue struct {
	Field    string `json:"field"`
	Severity string `json:"severity"`
	RuleID   string `json:"rule_id"`
	Message  string `json:"message"`
}

type ruleSummaryEntry struct {
	RuleID  string `json:"rule_id"`
	Summary string `json:"summary"`
}

type policyResponse struct {
	ReceiptID     string             `json:"receipt_id"`
	Compliance    string             `json:"compliance"`
	Issues        []policyIssue      `json:"issues"`
	RuleSummaries []ruleSummaryEntry `json:"rule_summaries"`
	Metadata      map[string]any     `json:"metadata"`
}

func (s *server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req policyRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.writeJSON(w, http.StatusOK, validatePolicy(req))
}

func validatePolicy(req policyRequest) policyResponse {
	issues := []policyIssue{}

	for _, f := range requiredFields {
		if valueEmpty(req.Fields[f].Value) {
			issues = append(issues, policyIssue{
				Field: f, Severity: "FAIL", RuleID: "POL-REQ-001",
				Message: fmt.Sprintf("%s is required.", f),
			})
		}
	}

	for _, f := range fieldOrder(req.Fields) {
		if conf := req.Fields[f].Confidence; conf < confThreshold {
			issues = append(issues, policyIssue{
				Field: f, Severity: "WARN", RuleID: "POL-CONF-100",
				Message: fmt.Sprintf("%s confidence below threshold (%.2f).", f, conf),
			})
		}
	}

	if mealCategories[strings.ToLower(stringValue(req.Fields["category"].Value))] {
		issues = append(issues, checkMealLimit(req)...)
	}

	compliance := "PASS"
	for _, i := range issues {
		if i.Severity == "FAIL" {
			compliance = "FAIL"
			break
		}
		compliance = "WARN"
	}

	summaries := summariesFor(issues)
	triggered := make([]string, 0, len(summaries))
	for _, r := range summaries {
		triggered = append(triggered, r.RuleID)
	}

	return policyResponse{
		ReceiptID:     req.ReceiptID,
		Compliance:    compliance,
		Issues:        issues,
		RuleSummaries: summaries,
		Metadata: map[string]any{
			"confidence_threshold": confThreshold,
			"rules_triggered":      triggered,
		},
	}
}

// checkMealLimit applies the per-transaction meals limit. A saved
// justification for POL-LIM-010 downgrades the breach from FAIL to WARN: the
// expense still surfaces for review but no longer blocks a green verdict on
// its own.
func checkMealLimit(req policyRequest) []policyIssue {
	raw := "0"
	if v, ok := req.Fields["total"]; ok && v.Value != nil {
		raw = stringValue(v.Value)
	}
	total, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return []policyIssue{{
			Field: "total", Severity: "WARN", RuleID: "POL-PARSE-101",
			Message: "Could not parse total amount reliably.",
		}}
	}
	if total <= 20 {
		return nil
	}
	if strings.TrimSpace(req.UserContext.Justifications["POL-LIM-010"]) != "" {
		return []policyIssue{{
			Field: "total", Severity: "WARN", RuleID: "POL-LIM-010",
			Message: "Meals exceed 20 EUR; justification on file.",
		}}
	}
	return []policyIssue{{
		Field: "total", Severity: "FAIL", RuleID: "POL-LIM-010",
		Message: "Meals exceed 20 EUR without justification/attendees.",
	}}
}

// summariesFor returns one summary per distinct triggered rule, in issue
// order, falling back to a generic summary for rule ids outside the catalog.
func summariesFor(issues []policyIssue) []ruleSummaryEntry {
	out := []ruleSummaryEntry{}
	seen := map[string]bool{}
	for _, i := range issues {
		if i.RuleID == "" || seen[i.RuleID] {
			continue
		}
		seen[i.RuleID] = true
		summary, ok := ruleSummaries[i.RuleID]
		if !ok {
			summary = fallbackSummary
		}
		out = append(out, ruleSummaryEntry{RuleID: i.RuleID, Summary: summary})
	}
	return out
}

// fieldOrder walks the canonical vocabulary first, then any extension fields
// in sorted order. Map iteration alone would make issue order vary run to run.
func fieldOrder(fields map[string]fieldValue) []string {
	order := make([]string, 0, len(fields))
	known := map[string]bool{}
	for _, f := range requiredFields {
		known[f] = true
		if _, ok := fields[f]; ok {
			order = append(order, f)
		}
	}
	var extras []string
	for f := range fields {
		if !known[f] {
			extras = append(extras, f)
		}
	}
	sort.Strings(extras)
	return append(order, extras...)
}

func valueEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
