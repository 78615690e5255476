package e2e

import (
	"context"

	"github.com/cucumber/godog"

	"lostfound/e2e/steps/common"
	"lostfound/e2e/steps/items"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Before(func(c context.Context, _ *godog.Scenario) (context.Context, error) {
		tc.Reset()
		return c, nil
	})

	// Generic requests and assertions
	common.RegisterSteps(ctx, tc)

	// Item registration, lookup and notification
	items.RegisterSteps(ctx, tc)
}
