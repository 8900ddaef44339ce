// Package observer watches the host's active state once per tick and swaps
// skippable encounter dialogues for the fast combat menu.
package observer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/fast-dialogue/pkg/bridge"
	"github.com/jwebster45206/fast-dialogue/pkg/conversation"
	"github.com/jwebster45206/fast-dialogue/pkg/host"
	"github.com/jwebster45206/fast-dialogue/pkg/resume"
	"github.com/jwebster45206/fast-dialogue/pkg/skip"
)

// FastMenuID is the menu shown instead of a skipped dialogue.
const FastMenuID = "fast_combat_menu"

// Fields read from the host's conversation logic component.
const (
	FieldOtherSide    = "otherSidePartners"
	FieldPlayerSide   = "playerSidePartners"
	FieldFirstSpeaker = "firstCharacterToTalk"
)

// Observer is the interception context owned by the composition root.
// It is not safe for concurrent use; the host serializes ticks and menu
// callbacks.
type Observer struct {
	engine   host.Engine
	logger   *slog.Logger
	rules    skip.Rules
	reporter Reporter
	cache    *conversation.Cache
	registry *resume.Registry

	prev      host.State
	permitted host.State
}

type Option func(*Observer)

// WithRules replaces the default skip rules.
func WithRules(rules skip.Rules) Option {
	return func(o *Observer) { o.rules = rules }
}

// WithReporter sends every decision to r.
func WithReporter(r Reporter) Option {
	return func(o *Observer) { o.reporter = r }
}

func New(engine host.Engine, logger *slog.Logger, opts ...Option) *Observer {
	o := &Observer{
		engine:   engine,
		logger:   logger,
		rules:    skip.DefaultRules,
		cache:    &conversation.Cache{},
		registry: &resume.Registry{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Tick inspects the active state. Only transitions do work: due resume
// callbacks fire first, then a Map->Mission edge is checked for a skippable
// dialogue. The previous state is recorded last, whatever the outcome.
func (o *Observer) Tick(active host.State) error {
	if active == nil || active == o.prev {
		return nil
	}
	defer func() { o.prev = active }()

	if n := o.registry.Activate(active); n > 0 {
		o.logger.Debug("Resume callbacks fired", "state", active.Kind(), "count", n)
	}

	if active.Kind() != host.KindMission || o.prev == nil || o.prev.Kind() != host.KindMap {
		return nil
	}
	return o.intercept(active)
}

func (o *Observer) intercept(active host.State) error {
	if active == o.permitted {
		o.logger.Debug("Mission entry permitted, not intercepting")
		o.report(Outcome{Decision: DecisionPermitted})
		return nil
	}

	logic := missionConversationLogic(active)
	if logic == nil {
		o.logger.Debug("Mission has no conversation logic")
		return nil
	}

	others, err := bridge.Field[[]host.Participant](logic, FieldOtherSide)
	if err != nil {
		return fmt.Errorf("read conversation participants: %w", err)
	}
	players, err := bridge.Field[[]host.Participant](logic, FieldPlayerSide)
	if err != nil {
		return fmt.Errorf("read conversation participants: %w", err)
	}
	first, err := bridge.Field[host.Participant](logic, FieldFirstSpeaker)
	if err != nil {
		return fmt.Errorf("read conversation participants: %w", err)
	}

	// the host never opens an encounter conversation with an empty side
	leader := others[0]
	outcome := Outcome{
		CharacterID: leader.Character().StringID(),
		OriginID:    leader.Character().OriginStringID(),
	}
	log := o.logger.With("character", outcome.CharacterID, "origin", outcome.OriginID)

	atWar := leader.Party().MapFaction().IsAtWarWith(players[0].Party().MapFaction())
	if !atWar {
		log.Debug("Encounter is not hostile")
		outcome.Decision = DecisionNotHostile
		o.report(outcome)
		return nil
	}
	if strings.Contains(outcome.CharacterID, "tutorial") {
		log.Debug("Tutorial encounter")
		outcome.Decision = DecisionTutorial
		o.report(outcome)
		return nil
	}

	rule, matched := o.rules.Match(outcome.OriginID)
	outcome.Rule = rule.Name
	if !matched || !rule.Skip {
		log.Debug("Keeping encounter dialogue", "rule", rule.Name)
		outcome.Decision = DecisionKept
		o.report(outcome)
		return nil
	}

	o.cache.Capture(players, others, first)
	o.engine.PopState()
	o.engine.SwitchToMenu(FastMenuID)

	log.Info("Skipped encounter dialogue", "rule", rule.Name, "menu", FastMenuID)
	outcome.Decision = DecisionIntercepted
	o.report(outcome)
	return nil
}

func missionConversationLogic(active host.State) any {
	ms, ok := active.(host.MissionState)
	if !ok {
		return nil
	}
	mission := ms.CurrentMission()
	if mission == nil {
		return nil
	}
	return mission.ConversationLogic()
}

// Permit exempts state from interception the next time it is entered from
// the map. A later call replaces it; a nil state clears it.
func (o *Observer) Permit(state host.State) {
	o.permitted = state
	if state == nil {
		o.logger.Debug("Permitted state cleared")
		return
	}
	o.logger.Debug("Permitted state set", "state", state.Kind())
	o.report(Outcome{Decision: DecisionResumed})
}

// Schedule runs cb the first time target becomes active.
func (o *Observer) Schedule(target host.State, cb resume.Callback) uuid.UUID {
	return o.registry.Schedule(target, cb)
}

// CancelScheduled drops a callback registered with Schedule.
func (o *Observer) CancelScheduled(id uuid.UUID) bool {
	return o.registry.Cancel(id)
}

// SetRules swaps the skip rules; call it between ticks.
func (o *Observer) SetRules(rules skip.Rules) {
	o.rules = rules
}

func (o *Observer) Rules() skip.Rules {
	return o.rules
}

// Cache returns the participants captured by the last interception.
func (o *Observer) Cache() *conversation.Cache {
	return o.cache
}

func (o *Observer) Permitted() host.State {
	return o.permitted
}

func (o *Observer) Prev() host.State {
	return o.prev
}

func (o *Observer) report(out Outcome) {
	if o.reporter != nil {
		o.reporter.Report(out)
	}
}
