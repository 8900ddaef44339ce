package runner

import (
	"time"

	"github.com/jwebster45206/fast-dialogue/pkg/skip"
)

// Step actions
const (
	ActionEngage          = "engage"           // start an encounter with target party
	ActionChoose          = "choose"           // choose target option in the active menu
	ActionEndConversation = "end_conversation" // leave the open dialogue
	ActionTick            = "tick"             // run ticks without player input
	ActionReset           = "reset"            // rebuild the world and the sub-module
)

// TestSuite defines a complete scripted encounter scenario.
// Can either be a regular test with Steps, or a suite that references other Cases.
type TestSuite struct {
	Name  string     `yaml:"name"`
	Rules skip.Rules `yaml:"rules,omitempty"` // replaces the built-in skip rules
	Steps []TestStep `yaml:"steps,omitempty"`
	Cases []string   `yaml:"cases,omitempty"` // case files run in order
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines one player action and its expected outcomes.
// Every action is followed by Ticks host ticks (at least one).
type TestStep struct {
	Name         string       `yaml:"name,omitempty"`
	Action       string       `yaml:"action"`
	Target       string       `yaml:"target,omitempty"`
	Ticks        int          `yaml:"ticks,omitempty"`
	Expectations Expectations `yaml:"expect"`
}

// Expectations defines what to check after a step executes
type Expectations struct {
	// Host state
	State         *string           `yaml:"state,omitempty"` // map or mission
	Menu          *string           `yaml:"menu,omitempty"`
	Conversations *int              `yaml:"conversations,omitempty"`
	InEncounter   *bool             `yaml:"in_encounter,omitempty"`
	PlayerTroops  *int              `yaml:"player_troops,omitempty"`
	Vars          map[string]string `yaml:"vars,omitempty"`
	History       []string          `yaml:"history,omitempty"` // entries that must appear since the step began

	// Menu options of the active menu
	OptionsEnabled  []string `yaml:"options_enabled,omitempty"`
	OptionsDisabled []string `yaml:"options_disabled,omitempty"`

	// Observer
	Decision      *string  `yaml:"decision,omitempty"`  // last decision reported during the step
	Decisions     []string `yaml:"decisions,omitempty"` // every decision reported during the step, in order
	Rule          *string  `yaml:"rule,omitempty"`
	NoDecision    bool     `yaml:"no_decision,omitempty"`
	CacheCaptured *bool    `yaml:"cache_captured,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName string
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
	IsReset  bool // reset steps do not count toward pass/fail metrics
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	Ticks    int // host ticks run for the suite
}
