// Package menu declares the fast combat menu. Its options reuse the host's
// own encounter menu behavior so they act exactly like the default menu.
package menu

import (
	"log/slog"

	"github.com/jwebster45206/fast-dialogue/pkg/bridge"
	"github.com/jwebster45206/fast-dialogue/pkg/host"
	"github.com/jwebster45206/fast-dialogue/pkg/observer"
)

// EncounterBehaviorType is the host campaign behavior holding the default
// encounter menu logic.
const EncounterBehaviorType = "EncounterGameMenuBehavior"

// GetAwayMenuID is the host menu opened by "Try to get away".
const GetAwayMenuID = "try_to_get_away"

const (
	OptionAttack     = "fast_combat_menu_attack"
	OptionSendTroops = "fast_combat_menu_send_troops"
	OptionGetAway    = "fast_combat_menu_getaway"
	OptionConverse   = "fast_combat_menu_talk"
	OptionSurrender  = "fast_combat_menu_surrend"
	OptionLeave      = "fast_combat_menu_leave"
)

// Host operations reached through the bridge.
const (
	OpInit                   = "GameMenuEncounterOnInit"
	OpAttackCondition        = "GameMenuEncounterAttackOnCondition"
	OpAttackConsequence      = "GameMenuEncounterAttackOnConsequence"
	OpOrderAttackCondition   = "GameMenuEncounterOrderAttackOnCondition"
	OpOrderAttackConsequence = "GameMenuEncounterOrderAttackOnConsequence"
	OpGetAwayCondition       = "GameMenuEncounterLeaveYourSoldiersBehindOnCondition"
	OpSurrenderCondition     = "GameMenuEncounterSurrenderOnCondition"
	OpSurrenderConsequence   = "GameMenuEncounterSurrenderOnConsequence"
	OpLeaveCondition         = "GameMenuEncounterLeaveOnCondition"
	OpLeaveConsequence       = "GameMenuEncounterLeaveOnConsequence"
)

// Wiring builds the menu callbacks against one engine and observer.
type Wiring struct {
	engine   host.Engine
	observer *observer.Observer
	logger   *slog.Logger
}

func New(engine host.Engine, obs *observer.Observer, logger *slog.Logger) *Wiring {
	return &Wiring{engine: engine, observer: obs, logger: logger}
}

// Register declares the fast combat menu and its options with the host.
func (w *Wiring) Register(starter host.CampaignStarter) {
	id := observer.FastMenuID

	starter.AddGameMenu(id, "{=!}{ENCOUNTER_TEXT}", func(args host.MenuArgs) {
		bridge.MustInvoke(w.behavior(), OpInit, args)
	}, host.OverlayEncounter)

	starter.AddGameMenuOption(id, OptionAttack, "{=o1pZHZOF}{ATTACK_TEXT}!",
		w.conditionOf(OpAttackCondition), w.consequenceOf(OpAttackConsequence), false)
	starter.AddGameMenuOption(id, OptionSendTroops, "{=rxSz5dY1}Send troops.",
		w.conditionOf(OpOrderAttackCondition), w.consequenceOf(OpOrderAttackConsequence), false)
	starter.AddGameMenuOption(id, OptionGetAway, "{=qNgGoqmI}Try to get away.",
		w.conditionOf(OpGetAwayCondition), w.getAway, false)
	starter.AddGameMenuOption(id, OptionConverse, "{=qNgGoqmI}Converse.",
		w.canConverse, w.converse, false)
	starter.AddGameMenuOption(id, OptionSurrender, "{=3nT5wWzb}Surrender.",
		w.conditionOf(OpSurrenderCondition), w.consequenceOf(OpSurrenderConsequence), false)
	starter.AddGameMenuOption(id, OptionLeave, "{=2YYRyrOO}Leave...",
		w.conditionOf(OpLeaveCondition), w.consequenceOf(OpLeaveConsequence), true)

	w.logger.Debug("Registered game menu", "menu", id)
}

// behavior resolves the host object on every call; the host may replace it
// between campaigns.
func (w *Wiring) behavior() any {
	return w.engine.CampaignBehavior(EncounterBehaviorType)
}

func (w *Wiring) conditionOf(op string) host.Condition {
	return func(args host.MenuArgs) bool {
		return bridge.MustCall[bool](w.behavior(), op, args)
	}
}

func (w *Wiring) consequenceOf(op string) host.Consequence {
	return func(args host.MenuArgs) {
		bridge.MustInvoke(w.behavior(), op, args)
	}
}

func (w *Wiring) getAway(host.MenuArgs) {
	w.engine.SwitchToMenu(GetAwayMenuID)
}

func (w *Wiring) canConverse(args host.MenuArgs) bool {
	args.SetOptionLeaveType(host.LeaveConversation)
	return true
}

// converse reopens the skipped dialogue and exempts the resulting state from
// interception.
func (w *Wiring) converse(host.MenuArgs) {
	players, others, first := w.observer.Cache().Current()
	w.engine.OpenConversation(players, others, first)
	w.observer.Permit(w.engine.ActiveState())
	w.logger.Info("Reopened skipped dialogue")
}
