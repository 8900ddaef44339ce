package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes scripted encounter suites against the in-memory host
type Runner struct {
	Logger            func(format string, args ...any)
	HostLogger        *slog.Logger
	ErrorHandlingMode ErrorHandlingMode
}

// NewRunner creates a new test runner
func NewRunner() *Runner {
	return &Runner{
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a YAML file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := yaml.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse YAML in %s: %w", filename, err)
	}
	if len(suite.Rules) > 0 {
		if err := suite.Rules.Validate(); err != nil {
			return TestSuite{}, fmt.Errorf("invalid rules in %s: %w", filename, err)
		}
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// a sequence may reference another sequence
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite in a fresh session
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	session, err := NewSession(suite.Rules, r.HostLogger)
	if err != nil {
		result.Error = fmt.Errorf("failed to start session: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	defer func() { _ = session.Close() }()

	for i, step := range suite.Steps {
		if err := ctx.Err(); err != nil {
			result.Error = err
			break
		}

		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		var stepResult TestResult
		stepResult, session = r.runStep(session, suite, step)
		stepResult.TestName = suite.Name
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Ticks = session.Ticks
	result.Duration = time.Since(start)
	return result, result.Error
}

// runStep executes a single step and checks expectations. A reset step
// replaces the session, so the session to continue with is returned.
func (r *Runner) runStep(session *Session, suite TestSuite, step TestStep) (TestResult, *Session) {
	start := time.Now()
	result := TestResult{StepName: step.Name}

	if step.Action == ActionReset {
		_ = session.Close()
		fresh, err := NewSession(suite.Rules, r.HostLogger)
		if err != nil {
			result.Error = fmt.Errorf("failed to reset session: %w", err)
			result.Duration = time.Since(start)
			return result, session
		}
		session = fresh
		result.IsReset = true
	} else {
		historyLen := len(session.Engine.History)
		outcomesLen := len(session.Outcomes)

		if err := session.Perform(step); err != nil {
			result.Error = fmt.Errorf("action %s %s: %w", step.Action, step.Target, err)
			result.Duration = time.Since(start)
			return result, session
		}

		if err := checkExpectations(step.Expectations, session, historyLen, outcomesLen); err != nil {
			result.Error = fmt.Errorf("expectation failed: %w", err)
			result.Duration = time.Since(start)
			return result, session
		}
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result, session
}

// checkExpectations validates the expectations against the session after a
// step. History and decisions only count from the step's start.
func checkExpectations(exp Expectations, s *Session, historyLen, outcomesLen int) error {
	engine := s.Engine
	active := engine.ActiveState()

	if exp.State != nil {
		got := "none"
		if active != nil {
			got = active.Kind().String()
		}
		if got != *exp.State {
			return fmt.Errorf("expected state %s, got %s", *exp.State, got)
		}
	}

	if exp.Menu != nil {
		m, ok := engine.ActiveMenu()
		if !ok {
			return fmt.Errorf("expected menu %s, but no menu is open", *exp.Menu)
		}
		if m.ID != *exp.Menu {
			return fmt.Errorf("expected menu %s, got %s", *exp.Menu, m.ID)
		}
	}

	if exp.Conversations != nil && engine.Conversations != *exp.Conversations {
		return fmt.Errorf("expected %d conversations opened, got %d", *exp.Conversations, engine.Conversations)
	}

	if exp.InEncounter != nil {
		if got := engine.Encounter() != nil; got != *exp.InEncounter {
			return fmt.Errorf("expected in_encounter to be %t, got %t", *exp.InEncounter, got)
		}
	}

	if exp.PlayerTroops != nil && engine.Player.Troops != *exp.PlayerTroops {
		return fmt.Errorf("expected player troops %d, got %d", *exp.PlayerTroops, engine.Player.Troops)
	}

	for key, expectedValue := range exp.Vars {
		if actual := engine.Var(key); actual != expectedValue {
			return fmt.Errorf("expected variable %s to be %q, got %q", key, expectedValue, actual)
		}
	}

	history := engine.History[historyLen:]
	for _, entry := range exp.History {
		if !slices.Contains(history, entry) {
			return fmt.Errorf("expected history entry '%s', got: %s", entry, strings.Join(history, ", "))
		}
	}

	if len(exp.OptionsEnabled) > 0 || len(exp.OptionsDisabled) > 0 {
		views, err := engine.MenuOptions()
		if err != nil {
			return fmt.Errorf("failed to read menu options: %w", err)
		}
		enabled := make(map[string]bool, len(views))
		for _, v := range views {
			enabled[v.ID] = v.Enabled
		}
		for _, id := range exp.OptionsEnabled {
			if on, ok := enabled[id]; !ok || !on {
				return fmt.Errorf("expected option %s to be enabled", id)
			}
		}
		for _, id := range exp.OptionsDisabled {
			if on, ok := enabled[id]; !ok || on {
				return fmt.Errorf("expected option %s to be disabled", id)
			}
		}
	}

	outcomes := s.Outcomes[outcomesLen:]
	if exp.NoDecision && len(outcomes) > 0 {
		return fmt.Errorf("expected no decision, got %s", outcomes[len(outcomes)-1].Decision)
	}
	if exp.Decisions != nil {
		got := make([]string, 0, len(outcomes))
		for _, out := range outcomes {
			got = append(got, string(out.Decision))
		}
		if !slices.Equal(got, exp.Decisions) {
			return fmt.Errorf("expected decisions [%s], got [%s]", strings.Join(exp.Decisions, ", "), strings.Join(got, ", "))
		}
	}
	if exp.Decision != nil || exp.Rule != nil {
		if len(outcomes) == 0 {
			return fmt.Errorf("expected a decision, but the observer reported none")
		}
		last := outcomes[len(outcomes)-1]
		if exp.Decision != nil && string(last.Decision) != *exp.Decision {
			return fmt.Errorf("expected decision %s, got %s", *exp.Decision, last.Decision)
		}
		if exp.Rule != nil && last.Rule != *exp.Rule {
			return fmt.Errorf("expected rule %q, got %q", *exp.Rule, last.Rule)
		}
	}

	if exp.CacheCaptured != nil {
		if got := s.Module.Observer().Cache().Captured(); got != *exp.CacheCaptured {
			return fmt.Errorf("expected cache_captured to be %t, got %t", *exp.CacheCaptured, got)
		}
	}

	return nil
}
