package review

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string, headers map[string]string) error
	PATCH(path string, body interface{}) error
	PUT(path string, body interface{}) error
	DELETE(path string) error
	Upload(path, filename, contentType string, data []byte, fields map[string]string) error
	GetResponseField(field string) (interface{}, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetSessionID() string
	SetSessionID(id string)
}

// RegisterSteps registers the review-workflow step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &reviewSteps{tc: tc}

	// Intake
	ctx.Step(`^I upload a receipt reading:$`, steps.uploadReceipt)
	ctx.Step(`^I upload a receipt with note "([^"]*)" reading:$`, steps.uploadReceiptWithNote)
	ctx.Step(`^I upload an unreadable receipt image$`, steps.uploadUnreadableReceipt)
	ctx.Step(`^a review session is created$`, steps.sessionIsCreated)

	// Review actions
	ctx.Step(`^I edit field "([^"]*)" to "([^"]*)"$`, steps.editField)
	ctx.Step(`^I justify rule "([^"]*)" on field "([^"]*)" with "([^"]*)"$`, steps.justifyRule)
	ctx.Step(`^I run validation$`, steps.runValidation)
	ctx.Step(`^I ask for an explanation of "([^"]*)"$`, steps.askExplanation)
	ctx.Step(`^I submit the expense with confirmation$`, steps.submitConfirmed)
	ctx.Step(`^I submit the expense without confirmation$`, steps.submitUnconfirmed)
	ctx.Step(`^I reload the session$`, steps.reloadSession)
	ctx.Step(`^I clear the session$`, steps.clearSession)

	// Review assertions
	ctx.Step(`^the review state should be "([^"]*)"$`, steps.reviewStateShouldBe)
	ctx.Step(`^the cycle phase should be "([^"]*)"$`, steps.cyclePhaseShouldBe)
	ctx.Step(`^the compliance verdict should be "([^"]*)"$`, steps.verdictShouldBe)
	ctx.Step(`^rule "([^"]*)" should be flagged$`, steps.ruleShouldBeFlagged)
	ctx.Step(`^rule "([^"]*)" should not be flagged$`, steps.ruleShouldNotBeFlagged)
	ctx.Step(`^an explanation should be displayed$`, steps.explanationDisplayed)
	ctx.Step(`^the explanation should answer "([^"]*)"$`, steps.explanationAnswers)
	ctx.Step(`^field "([^"]*)" should equal "([^"]*)"$`, steps.fieldShouldEqual)
	ctx.Step(`^the edit ledger should contain (\d+) entr(?:y|ies)$`, steps.editLedgerShouldContain)
	ctx.Step(`^the submission should be blocked with reason "([^"]*)"$`, steps.submissionBlockedWithReason)
	ctx.Step(`^the expense should be submitted$`, steps.expenseSubmitted)
	ctx.Step(`^the session should reject further edits$`, steps.sessionRejectsEdits)
}

type reviewSteps struct {
	tc TestContext
}

func (s *reviewSteps) sessionPath(suffix string) string {
	return "/api/sessions/" + s.tc.GetSessionID() + suffix
}

// uploadReceipt drives intake with the receipt text as the upload body. The
// backend mock reads printable uploads as OCR output, which makes field
// extraction scriptable from the feature file.
func (s *reviewSteps) uploadReceipt(ctx context.Context, doc *godog.DocString) error {
	return s.tc.Upload("/api/sessions", "receipt.png", "image/png", []byte(doc.Content), nil)
}

func (s *reviewSteps) uploadReceiptWithNote(ctx context.Context, note string, doc *godog.DocString) error {
	return s.tc.Upload("/api/sessions", "receipt.png", "image/png", []byte(doc.Content), map[string]string{"note": note})
}

func (s *reviewSteps) uploadUnreadableReceipt(ctx context.Context) error {
	junk := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x01, 0x02, 0x03, 0xff, 0xfe, 0xfd, 0xfc}
	return s.tc.Upload("/api/sessions", "receipt.png", "image/png", junk, nil)
}

func (s *reviewSteps) sessionIsCreated(ctx context.Context) error {
	if got := s.tc.GetLastResponseStatus(); got != 201 {
		return fmt.Errorf("expected 201 from intake, got %d: %s", got, s.tc.GetLastResponseBody())
	}
	sessionID, err := s.tc.GetResponseField("session_id")
	if err != nil {
		return err
	}
	s.tc.SetSessionID(fmt.Sprintf("%v", sessionID))
	return nil
}

func (s *reviewSteps) editField(ctx context.Context, field, value string) error {
	return s.tc.PATCH(s.sessionPath("/fields/"+field), map[string]interface{}{"value": value})
}

func (s *reviewSteps) justifyRule(ctx context.Context, ruleID, field, text string) error {
	return s.tc.PUT(s.sessionPath("/justifications/"+field+"/"+ruleID), map[string]interface{}{"text": text})
}

func (s *reviewSteps) runValidation(ctx context.Context) error {
	return s.tc.POST(s.sessionPath("/validate"), nil)
}

func (s *reviewSteps) askExplanation(ctx context.Context, question string) error {
	return s.tc.POST(s.sessionPath("/explain"), map[string]interface{}{"question": question})
}

func (s *reviewSteps) submitConfirmed(ctx context.Context) error {
	return s.tc.POST(s.sessionPath("/submit"), map[string]interface{}{"user_confirmed": true})
}

func (s *reviewSteps) submitUnconfirmed(ctx context.Context) error {
	return s.tc.POST(s.sessionPath("/submit"), map[string]interface{}{"user_confirmed": false})
}

func (s *reviewSteps) reloadSession(ctx context.Context) error {
	return s.tc.GET(s.sessionPath(""), nil)
}

func (s *reviewSteps) clearSession(ctx context.Context) error {
	return s.tc.DELETE(s.sessionPath(""))
}

func (s *reviewSteps) reviewStateShouldBe(ctx context.Context, expected string) error {
	return s.fieldEquals("review_state", expected)
}

func (s *reviewSteps) cyclePhaseShouldBe(ctx context.Context, expected string) error {
	return s.fieldEquals("cycle.phase", expected)
}

func (s *reviewSteps) verdictShouldBe(ctx context.Context, expected string) error {
	return s.fieldEquals("compliance.verdict", expected)
}

func (s *reviewSteps) fieldEquals(path, expected string) error {
	value, err := s.tc.GetResponseField(path)
	if err != nil {
		return err
	}
	if got := fmt.Sprintf("%v", value); got != expected {
		return fmt.Errorf("expected %s = %q, got %q", path, expected, got)
	}
	return nil
}

func (s *reviewSteps) flaggedRules() ([]string, error) {
	issues, err := s.tc.GetResponseField("compliance.issues")
	if err != nil {
		return nil, err
	}
	list, ok := issues.([]interface{})
	if !ok {
		return nil, fmt.Errorf("compliance.issues is not a list")
	}
	var rules []string
	for _, raw := range list {
		issue, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if rid, ok := issue["rule_id"].(string); ok {
			rules = append(rules, rid)
		}
	}
	return rules, nil
}

func (s *reviewSteps) ruleShouldBeFlagged(ctx context.Context, ruleID string) error {
	rules, err := s.flaggedRules()
	if err != nil {
		return err
	}
	for _, rid := range rules {
		if rid == ruleID {
			return nil
		}
	}
	return fmt.Errorf("rule %s not flagged; flagged rules: %v", ruleID, rules)
}

func (s *reviewSteps) ruleShouldNotBeFlagged(ctx context.Context, ruleID string) error {
	rules, err := s.flaggedRules()
	if err != nil {
		return err
	}
	for _, rid := range rules {
		if rid == ruleID {
			return fmt.Errorf("rule %s unexpectedly flagged", ruleID)
		}
	}
	return nil
}

func (s *reviewSteps) explanationDisplayed(ctx context.Context) error {
	text, err := s.tc.GetResponseField("cycle.explanation.text")
	if err != nil {
		return err
	}
	if fmt.Sprintf("%v", text) == "" {
		return fmt.Errorf("explanation text is empty")
	}
	return nil
}

func (s *reviewSteps) explanationAnswers(ctx context.Context, question string) error {
	return s.fieldEquals("cycle.explanation.question", question)
}

func (s *reviewSteps) fieldShouldEqual(ctx context.Context, field, expected string) error {
	return s.fieldEquals("fields."+field+".value", expected)
}

func (s *reviewSteps) editLedgerShouldContain(ctx context.Context, count int) error {
	edits, err := s.tc.GetResponseField("edits")
	if err != nil {
		return err
	}
	list, ok := edits.([]interface{})
	if !ok {
		return fmt.Errorf("edits is not a list")
	}
	if len(list) != count {
		return fmt.Errorf("expected %d edits, got %d", count, len(list))
	}
	return nil
}

func (s *reviewSteps) submissionBlockedWithReason(ctx context.Context, reason string) error {
	if err := s.fieldEquals("submission.status", "BLOCKED"); err != nil {
		return err
	}
	return s.fieldEquals("submission.reason", reason)
}

func (s *reviewSteps) expenseSubmitted(ctx context.Context) error {
	if err := s.fieldEquals("submission.status", "SUBMITTED"); err != nil {
		return err
	}
	id, err := s.tc.GetResponseField("submission.submission_id")
	if err != nil {
		return err
	}
	if fmt.Sprintf("%v", id) == "" {
		return fmt.Errorf("submission id is empty")
	}
	return nil
}

func (s *reviewSteps) sessionRejectsEdits(ctx context.Context) error {
	if err := s.tc.PATCH(s.sessionPath("/fields/merchant"), map[string]interface{}{"value": "late edit"}); err != nil {
		return err
	}
	if got := s.tc.GetLastResponseStatus(); got != 409 {
		return fmt.Errorf("expected sealed session to return 409, got %d", got)
	}
	return nil
}
