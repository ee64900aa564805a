package functional

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cucumber/godog"
)

// TestFeatures drives the built CLI through features/. Point
// TOOLSTRAP_TEST_BINARY at a toolstrap binary to enable it;
// TOOLSTRAP_TEST_TAGS narrows the scenarios.
func TestFeatures(t *testing.T) {
	bin := os.Getenv("TOOLSTRAP_TEST_BINARY")
	if bin == "" {
		t.Skip("TOOLSTRAP_TEST_BINARY not set")
	}
	bin, err := filepath.Abs(bin)
	if err != nil {
		t.Fatal(err)
	}

	suite := godog.TestSuite{
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			(&scenario{bin: bin}).register(sc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			Tags:     os.Getenv("TOOLSTRAP_TEST_TAGS"),
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("functional tests failed")
	}
}

func (s *scenario) register(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, s.setUp()
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		if s.root != "" {
			_ = os.RemoveAll(s.root)
		}
		return ctx, nil
	})

	sc.Step(`^a clean toolstrap environment$`, func() {})
	sc.Step(`^the environment variable "([^"]*)" is "([^"]*)"$`, s.setEnv)
	sc.Step(`^I run "([^"]*)"$`, s.run)

	sc.Step(`^the exit code is (\d+)$`, s.exitCodeIs)
	sc.Step(`^the exit code is not (\d+)$`, s.exitCodeIsNot)
	sc.Step(`^the output contains "(.*)"$`, s.stdoutHas(true))
	sc.Step(`^the output does not contain "(.*)"$`, s.stdoutHas(false))
	sc.Step(`^the error output contains "(.*)"$`, s.stderrHas(true))
	sc.Step(`^the error output does not contain "(.*)"$`, s.stderrHas(false))
	sc.Step(`^the file "([^"]*)" exists$`, s.fileExists(true))
	sc.Step(`^the file "([^"]*)" does not exist$`, s.fileExists(false))
	sc.Step(`^the file "([^"]*)" contains "(.*)"$`, s.fileContains)
}
