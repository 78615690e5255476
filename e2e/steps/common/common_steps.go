package common

import (
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	GetLastResponseStatus() int
	GetLastResponseHeader(name string) string
	GetResponseField(field string) (interface{}, error)
	ResponseContains(field string) bool
}

// RegisterSteps registers generic request and assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the lostfound service is running$`, steps.serviceIsRunning)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.fieldShouldEqual)
	ctx.Step(`^the response should contain "([^"]*)"$`, steps.responseShouldContain)
	ctx.Step(`^the response should not contain "([^"]*)"$`, steps.responseShouldNotContain)
	ctx.Step(`^the error code should be "([^"]*)"$`, steps.errorCodeShouldBe)
	ctx.Step(`^the content type should be "([^"]*)"$`, steps.contentTypeShouldBe)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serviceIsRunning() error {
	if err := s.tc.GET("/healthz", nil); err != nil {
		return err
	}
	return s.statusShouldBe(200)
}

func (s *commonSteps) get(path string) error {
	return s.tc.GET(path, nil)
}

func (s *commonSteps) statusShouldBe(want int) error {
	if got := s.tc.GetLastResponseStatus(); got != want {
		return fmt.Errorf("expected status %d, got %d", want, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldEqual(field, want string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	var got string
	switch t := v.(type) {
	case string:
		got = t
	case float64:
		got = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		got = fmt.Sprint(t)
	}
	if got != want {
		return fmt.Errorf("expected %s=%q, got %q", field, want, got)
	}
	return nil
}

func (s *commonSteps) responseShouldContain(field string) error {
	if !s.tc.ResponseContains(field) {
		return fmt.Errorf("expected response to contain field %q", field)
	}
	return nil
}

func (s *commonSteps) responseShouldNotContain(field string) error {
	if s.tc.ResponseContains(field) {
		return fmt.Errorf("expected response not to contain field %q", field)
	}
	return nil
}

func (s *commonSteps) errorCodeShouldBe(code string) error {
	return s.fieldShouldEqual("error", code)
}

func (s *commonSteps) contentTypeShouldBe(want string) error {
	if got := s.tc.GetLastResponseHeader("Content-Type"); got != want {
		return fmt.Errorf("expected content type %q, got %q", want, got)
	}
	return nil
}
