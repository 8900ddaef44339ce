package integration

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/fast-dialogue/integration/runner"
)

var caseFlag = flag.String("case", "", "Name of test case to run (from integration/cases/)")
var errFlag = flag.String("err", "continue", "Error handling mode: 'continue' (run all steps) or 'exit' (stop on first failure)")

func TestMain(m *testing.M) {
	flag.Parse()
	fmt.Printf("Running Fast Dialogue Integration Tests\n")
	os.Exit(m.Run())
}

func newRunner(t *testing.T, mode runner.ErrorHandlingMode) *runner.Runner {
	testRunner := runner.NewRunner()
	testRunner.ErrorHandlingMode = mode
	testRunner.Logger = func(format string, args ...any) {
		t.Logf(format, args...)
	}
	return testRunner
}

func TestIntegrationSuites(t *testing.T) {
	testFiles, err := discoverTestFiles("cases")
	if err != nil {
		t.Fatalf("Failed to discover test files: %v", err)
	}
	if len(testFiles) == 0 {
		t.Fatal("No test files found in cases directory")
	}

	var jobs []runner.TestJob
	for _, file := range testFiles {
		expandedJobs, err := runner.LoadTestSuiteWithExpansion(file, "cases")
		if err != nil {
			t.Errorf("Failed to load test suite %s: %v", file, err)
			continue
		}
		jobs = append(jobs, expandedJobs...)
	}
	if len(jobs) == 0 {
		t.Fatal("No valid test suites loaded")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	testRunner := newRunner(t, runner.ErrorHandlingContinue)
	var failed []string
	for i, job := range jobs {
		t.Logf("[%d/%d] Starting test suite: %s (%d steps)", i+1, len(jobs), job.Name, len(job.Suite.Steps))

		result, err := testRunner.RunSuite(ctx, job.Suite)
		if err != nil && result.Error == nil {
			result.Error = err
		}

		if result.Error != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", job.Name, result.Error))
			t.Errorf("[%d/%d] FAILED: Test suite '%s' failed: %v", i+1, len(jobs), job.Name, result.Error)
			continue
		}

		t.Logf("[%d/%d] PASSED: Test suite '%s' completed in %v (%d ticks)", i+1, len(jobs), job.Name, result.Duration, result.Ticks)
		for _, stepResult := range result.Results {
			if stepResult.IsReset {
				t.Logf("   ↻ %s (%v)", stepResult.StepName, stepResult.Duration)
			} else {
				t.Logf("   ✓ %s (%v)", stepResult.StepName, stepResult.Duration)
			}
		}
	}

	t.Logf("Integration Test Summary:")
	t.Logf("   Passed: %d", len(jobs)-len(failed))
	t.Logf("   Failed: %d", len(failed))
	if len(failed) > 0 {
		t.Fatalf("Integration tests failed:\n   - %s", strings.Join(failed, "\n   - "))
	}
}

// TestSingleSuite allows running individual test suites for debugging
// Supports multiple cases comma-separated: -case "case1,case2,case3"
func TestSingleSuite(t *testing.T) {
	if *caseFlag == "" {
		t.Skip("Skipping single suite test (use -case flag to run)")
	}
	if *errFlag != "exit" && *errFlag != "continue" {
		t.Fatalf("Invalid -err flag value: %s (must be 'exit' or 'continue')", *errFlag)
	}

	testRunner := newRunner(t, runner.ErrorHandlingMode(*errFlag))
	ctx := context.Background()

	for _, caseName := range strings.Split(*caseFlag, ",") {
		caseName = strings.TrimSpace(caseName)
		if caseName == "" {
			continue
		}
		suiteFile := filepath.Join("cases", caseName)
		if !strings.HasSuffix(suiteFile, ".yaml") {
			suiteFile += ".yaml"
		}

		jobs, err := runner.LoadTestSuiteWithExpansion(suiteFile, "cases")
		if err != nil {
			t.Fatalf("Failed to load test suite %s: %v", suiteFile, err)
		}
		for _, job := range jobs {
			result, err := testRunner.RunSuite(ctx, job.Suite)
			if err != nil {
				t.Errorf("FAILED: Test suite '%s' failed: %v", job.Name, err)
				continue
			}
			t.Logf("PASSED: Test suite '%s' completed in %v", job.Name, result.Duration)
		}
	}
}

func TestSequenceExpansion(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("one.yaml", "name: one\nsteps:\n  - action: tick\n")
	write("two.yaml", "name: two\nsteps:\n  - action: tick\n")
	write("inner.yaml", "name: inner\ncases: [two.yaml]\n")
	write("all.yaml", "name: all\ncases: [one.yaml, inner.yaml]\n")

	jobs, err := runner.LoadTestSuiteWithExpansion(filepath.Join(dir, "all.yaml"), dir)
	if err != nil {
		t.Fatalf("Failed to expand sequence: %v", err)
	}
	if len(jobs) != 2 || jobs[0].Name != "one" || jobs[1].Name != "two" {
		t.Fatalf("Unexpected jobs: %+v", jobs)
	}

	write("broken.yaml", "name: broken\ncases: [missing.yaml]\n")
	if _, err := runner.LoadTestSuiteWithExpansion(filepath.Join(dir, "broken.yaml"), dir); err == nil {
		t.Fatal("Expected an error for a missing case file")
	}
}

func TestFailingStepIsReported(t *testing.T) {
	state := "map"
	suite := runner.TestSuite{
		Name: "wrong expectation",
		Steps: []runner.TestStep{
			{Name: "engage boss", Action: runner.ActionEngage, Target: "raider_boss", Expectations: runner.Expectations{State: &state}},
			{Name: "never runs", Action: runner.ActionTick},
		},
	}

	result, err := newRunner(t, runner.ErrorHandlingExit).RunSuite(context.Background(), suite)
	if err == nil {
		t.Fatal("Expected the suite to fail")
	}
	if !strings.Contains(err.Error(), "expected state map, got mission") {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result.Results) != 1 {
		t.Fatalf("Exit mode should stop after the failing step, ran %d", len(result.Results))
	}
}

func TestUnknownAction(t *testing.T) {
	suite := runner.TestSuite{
		Name:  "bad action",
		Steps: []runner.TestStep{{Name: "dance", Action: "dance"}},
	}
	_, err := newRunner(t, runner.ErrorHandlingContinue).RunSuite(context.Background(), suite)
	if err == nil || !strings.Contains(err.Error(), `unknown action "dance"`) {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func discoverTestFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".yaml") {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}
