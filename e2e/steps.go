package e2e

import (
	"github.com/cucumber/godog"

	"claimcheck/e2e/steps/common"
	"claimcheck/e2e/steps/review"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (background, generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register review-workflow steps
	review.RegisterSteps(ctx, tc)
}
