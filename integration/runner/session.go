package runner

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/jwebster45206/fast-dialogue/internal/simhost"
	"github.com/jwebster45206/fast-dialogue/internal/submodule"
	"github.com/jwebster45206/fast-dialogue/pkg/observer"
	"github.com/jwebster45206/fast-dialogue/pkg/skip"
)

// TickSeconds is the frame time passed to the sub-module.
const TickSeconds = 1.0 / 60

// Session is one campaign: a fresh world, host engine and sub-module wired
// the way the game wires them.
type Session struct {
	World    *simhost.World
	Engine   *simhost.Engine
	Module   *submodule.SubModule
	Outcomes []observer.Outcome
	Ticks    int
}

// NewSession starts a campaign on the map. Nil rules use the built-in rules.
func NewSession(rules skip.Rules, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	world, err := simhost.DefaultWorld()
	if err != nil {
		return nil, fmt.Errorf("failed to build world: %w", err)
	}

	s := &Session{World: world}
	s.Engine = simhost.NewEngine(world.Player, logger)
	record := observer.ReporterFunc(func(out observer.Outcome) {
		s.Outcomes = append(s.Outcomes, out)
	})
	s.Module, err = submodule.New(s.Engine, logger, submodule.Options{Rules: rules, Reporter: record})
	if err != nil {
		return nil, fmt.Errorf("failed to create sub-module: %w", err)
	}

	s.Module.OnBeforeInitialModuleScreenSetAsRoot()
	s.Module.OnGameStart(s.Engine.Starter())
	s.Engine.Start()
	if err := s.Tick(1); err != nil {
		return nil, err
	}
	return s, nil
}

// Tick runs n application ticks.
func (s *Session) Tick(n int) error {
	for range n {
		s.Ticks++
		if err := s.Module.OnApplicationTick(TickSeconds); err != nil {
			return fmt.Errorf("tick %d: %w", s.Ticks, err)
		}
	}
	return nil
}

// Perform applies a step's action to the host, then ticks. Player actions
// are preceded by one tick: the host always renders a frame between a state
// change and the player's next input.
func (s *Session) Perform(step TestStep) error {
	if step.Action != ActionTick {
		if err := s.Tick(1); err != nil {
			return err
		}
	}

	var err error
	switch step.Action {
	case ActionEngage:
		var enemy *simhost.Party
		if enemy, err = s.World.Party(step.Target); err == nil {
			err = s.Engine.StartEncounter(enemy)
		}
	case ActionChoose:
		err = s.Engine.Choose(step.Target)
	case ActionEndConversation:
		err = s.Engine.EndConversation()
	case ActionTick:
	default:
		err = fmt.Errorf("unknown action %q", step.Action)
	}
	if err != nil {
		return err
	}
	return s.Tick(max(1, step.Ticks))
}

func (s *Session) Close() error {
	return s.Module.Close()
}
