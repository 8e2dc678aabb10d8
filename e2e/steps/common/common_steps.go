package common

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (interface{}, error)
	ResponseContains(field string) bool
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	AuthenticateAs(userID, role, country string) error
}

// RegisterSteps registers background and generic assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the review service is running$`, steps.serviceIsRunning)
	ctx.Step(`^I am authenticated as "([^"]*)" with role "([^"]*)" from country "([^"]*)"$`, steps.authenticateAs)

	ctx.Step(`^the response status should be (\d+)$`, steps.responseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, steps.responseShouldContain)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.responseFieldShouldEqual)
	ctx.Step(`^the response field "([^"]*)" should not be empty$`, steps.responseFieldShouldNotBeEmpty)
	ctx.Step(`^the error detail should mention "([^"]*)"$`, steps.errorDetailShouldMention)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serviceIsRunning(ctx context.Context) error {
	if err := s.tc.GET("/healthz", nil); err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() != 200 {
		return fmt.Errorf("service not healthy: status %d", s.tc.GetLastResponseStatus())
	}
	return nil
}

func (s *commonSteps) authenticateAs(ctx context.Context, userID, role, country string) error {
	return s.tc.AuthenticateAs(userID, role, country)
}

func (s *commonSteps) responseStatusShouldBe(ctx context.Context, expected int) error {
	if got := s.tc.GetLastResponseStatus(); got != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, got, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) responseShouldContain(ctx context.Context, field string) error {
	if !s.tc.ResponseContains(field) {
		return fmt.Errorf("response does not contain %q: %s", field, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) responseFieldShouldEqual(ctx context.Context, field, expected string) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprintf("%v", value); got != expected {
		return fmt.Errorf("expected %s = %q, got %q", field, expected, got)
	}
	return nil
}

func (s *commonSteps) responseFieldShouldNotBeEmpty(ctx context.Context, field string) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if value == nil || fmt.Sprintf("%v", value) == "" {
		return fmt.Errorf("expected %s to be non-empty", field)
	}
	return nil
}

func (s *commonSteps) errorDetailShouldMention(ctx context.Context, substring string) error {
	value, err := s.tc.GetResponseField("error_description")
	if err != nil {
		return err
	}
	message := fmt.Sprintf("%v", value)
	if !strings.Contains(strings.ToLower(message), strings.ToLower(substring)) {
		return fmt.Errorf("error message %q does not mention %q", message, substring)
	}
	return nil
}
