package items

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	POSTForm(path string, values url.Values) error
	GET(path string, headers map[string]string) error
	GetLastResponseStatus() int
}

// RegisterSteps registers item-related step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &itemSteps{tc: tc}

	ctx.Before(func(c context.Context, _ *godog.Scenario) (context.Context, error) {
		steps.suffix = fmt.Sprintf("%d", time.Now().UnixNano())
		return c, nil
	})

	ctx.Step(`^I register item "([^"]*)" with contact "([^"]*)"$`, steps.register)
	ctx.Step(`^I register item "([^"]*)" with contact "([^"]*)" and message "([^"]*)"$`, steps.registerWithMessage)
	ctx.Step(`^I submit the registration form for "([^"]*)" with phone "([^"]*)"$`, steps.registerForm)
	ctx.Step(`^item "([^"]*)" is registered with contact "([^"]*)"$`, steps.givenRegistered)
	ctx.Step(`^I look up item "([^"]*)"$`, steps.lookup)
	ctx.Step(`^I request the code for item "([^"]*)"$`, steps.code)
	ctx.Step(`^I notify the owner of item "([^"]*)"$`, steps.notify)
	ctx.Step(`^I notify the owner of item "([^"]*)" with note "([^"]*)"$`, steps.notifyWithNote)
}

// itemSteps scopes identifiers per scenario so runs against a shared server
// do not collide.
type itemSteps struct {
	tc     TestContext
	suffix string
}

func (s *itemSteps) id(name string) string {
	return name + "-" + s.suffix
}

func (s *itemSteps) register(name, contact string) error {
	return s.registerWithMessage(name, contact, "")
}

func (s *itemSteps) registerWithMessage(name, contact, message string) error {
	return s.tc.POST("/items", map[string]string{
		"identifier": s.id(name),
		"contact":    contact,
		"message":    message,
	})
}

func (s *itemSteps) registerForm(name, phone string) error {
	return s.tc.POSTForm("/items", url.Values{
		"college_id":   {s.id(name)},
		"phone_number": {phone},
	})
}

func (s *itemSteps) givenRegistered(name, contact string) error {
	if err := s.register(name, contact); err != nil {
		return err
	}
	if got := s.tc.GetLastResponseStatus(); got != 201 {
		return fmt.Errorf("registration failed with status %d", got)
	}
	return nil
}

func (s *itemSteps) lookup(name string) error {
	return s.tc.GET("/items/"+url.PathEscape(s.id(name)), nil)
}

func (s *itemSteps) code(name string) error {
	return s.tc.GET("/items/"+url.PathEscape(s.id(name))+"/code.png", nil)
}

func (s *itemSteps) notify(name string) error {
	return s.tc.POST("/items/"+url.PathEscape(s.id(name))+"/notify", nil)
}

func (s *itemSteps) notifyWithNote(name, note string) error {
	return s.tc.POST("/items/"+url.PathEscape(s.id(name))+"/notify", map[string]string{
		"finder_message": note,
	})
}
