package observer

// Decision names what the observer did with an encounter.
type Decision string

const (
	DecisionIntercepted Decision = "intercepted"
	DecisionKept        Decision = "kept"
	DecisionNotHostile  Decision = "not_hostile"
	DecisionTutorial    Decision = "tutorial"
	DecisionPermitted   Decision = "permitted"
	DecisionResumed     Decision = "resumed"
)

// Outcome describes one decision. Character fields are empty for decisions
// made without reading the conversation.
type Outcome struct {
	Decision    Decision
	CharacterID string
	OriginID    string
	Rule        string
}

// Reporter receives outcomes synchronously from the tick; implementations
// must not block.
type Reporter interface {
	Report(out Outcome)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(out Outcome)

func (f ReporterFunc) Report(out Outcome) { f(out) }

// Reporters sends each outcome to every reporter in order.
type Reporters []Reporter

func (rs Reporters) Report(out Outcome) {
	for _, r := range rs {
		if r != nil {
			r.Report(out)
		}
	}
}
