// Package submodule is the mod's entry point. The host calls its lifecycle
// hooks; it owns the one observer for the session and wires the fast combat
// menu into every campaign.
package submodule

import (
	"fmt"
	"log/slog"

	"github.com/jwebster45206/fast-dialogue/pkg/host"
	"github.com/jwebster45206/fast-dialogue/pkg/menu"
	"github.com/jwebster45206/fast-dialogue/pkg/observer"
	"github.com/jwebster45206/fast-dialogue/pkg/skip"
)

const (
	LoadedMessage = "Loaded fast dialogue."
	LoadedColor   = uint32(4282569842)
)

type Options struct {
	// Rules overrides both the built-in rules and RulesFile.
	Rules skip.Rules
	// RulesFile is a YAML rules file loaded at startup.
	RulesFile string
	// Watch reloads RulesFile whenever it changes on disk.
	Watch    bool
	Reporter observer.Reporter
}

type SubModule struct {
	engine    host.Engine
	logger    *slog.Logger
	observer  *observer.Observer
	menus     *menu.Wiring
	rulesFile string
	watcher   rulesWatcher
}

// rulesWatcher is the part of skip.Watcher the tick polls.
type rulesWatcher interface {
	Changed() bool
	Errors() []error
	Close() error
}

func New(engine host.Engine, logger *slog.Logger, opts Options) (*SubModule, error) {
	rules := opts.Rules
	if rules == nil && opts.RulesFile != "" {
		loaded, err := skip.LoadRules(opts.RulesFile)
		if err != nil {
			return nil, err
		}
		rules = loaded
		logger.Info("Loaded skip rules", "file", opts.RulesFile, "rules", len(rules))
	}

	obsOpts := []observer.Option{}
	if rules != nil {
		obsOpts = append(obsOpts, observer.WithRules(rules))
	}
	if opts.Reporter != nil {
		obsOpts = append(obsOpts, observer.WithReporter(opts.Reporter))
	}
	obs := observer.New(engine, logger, obsOpts...)

	m := &SubModule{
		engine:    engine,
		logger:    logger,
		observer:  obs,
		menus:     menu.New(engine, obs, logger),
		rulesFile: opts.RulesFile,
	}

	if opts.Watch {
		if opts.RulesFile == "" {
			return nil, fmt.Errorf("watching rules requires a rules file")
		}
		w, err := skip.NewWatcher(opts.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to watch rules file: %w", err)
		}
		m.watcher = w
	}
	return m, nil
}

func (m *SubModule) OnBeforeInitialModuleScreenSetAsRoot() {
	m.engine.DisplayMessage(LoadedMessage, LoadedColor)
}

// OnGameStart registers the fast combat menu. Starters for anything other
// than a campaign are ignored.
func (m *SubModule) OnGameStart(starter any) {
	cs, ok := starter.(host.CampaignStarter)
	if !ok {
		m.logger.Debug("Ignoring non-campaign game start", "starter", fmt.Sprintf("%T", starter))
		return
	}
	m.menus.Register(cs)
}

// OnApplicationTick picks up rule edits, then lets the observer look at the
// active state.
func (m *SubModule) OnApplicationTick(dt float64) error {
	if m.watcher != nil {
		for _, err := range m.watcher.Errors() {
			m.logger.Warn("Skip rules watcher error", "file", m.rulesFile, "error", err)
		}
		if m.watcher.Changed() {
			m.reloadRules()
		}
	}
	if err := m.observer.Tick(m.engine.ActiveState()); err != nil {
		m.logger.Error("Observer tick failed", "error", err)
		return err
	}
	return nil
}

// reloadRules keeps the current rules when the file is unreadable or
// invalid.
func (m *SubModule) reloadRules() {
	rules, err := skip.LoadRules(m.rulesFile)
	if err != nil {
		m.logger.Warn("Keeping previous skip rules", "file", m.rulesFile, "error", err)
		return
	}
	m.observer.SetRules(rules)
	m.logger.Info("Reloaded skip rules", "file", m.rulesFile, "rules", len(rules))
}

func (m *SubModule) Observer() *observer.Observer {
	return m.observer
}

func (m *SubModule) Close() error {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Close()
}
