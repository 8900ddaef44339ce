package simhost

import (
	"fmt"

	"github.com/jwebster45206/fast-dialogue/pkg/host"
)

// EncounterBehavior holds the encounter menu logic. None of its operations
// belong to an interface: mods reach them by name, the host calls them
// directly.
type EncounterBehavior struct {
	engine *Engine
}

func (b *EncounterBehavior) GameMenuEncounterOnInit(args *MenuArgs) {
	enc := b.engine.encounter
	if enc == nil {
		b.engine.vars["ENCOUNTER_TEXT"] = "The road is quiet."
		return
	}
	b.engine.vars["ENCOUNTER_TEXT"] = fmt.Sprintf("You have encountered %s (%d troops).",
		DisplayName(enc.Enemy.Leader.ID), enc.Enemy.Troops)
	b.engine.vars["ATTACK_TEXT"] = "Attack"
}

func (b *EncounterBehavior) GameMenuEncounterAttackOnCondition(args *MenuArgs) bool {
	args.SetOptionLeaveType(host.LeaveMission)
	return b.engine.encounter != nil && b.engine.Player.Actor.HP() > 0
}

func (b *EncounterBehavior) GameMenuEncounterAttackOnConsequence(args *MenuArgs) {
	b.fight(true)
}

func (b *EncounterBehavior) GameMenuEncounterOrderAttackOnCondition(args *MenuArgs) bool {
	args.SetOptionLeaveType(host.LeaveMission)
	return b.engine.encounter != nil && b.engine.Player.Troops > 0
}

func (b *EncounterBehavior) GameMenuEncounterOrderAttackOnConsequence(args *MenuArgs) {
	b.fight(false)
}

func (b *EncounterBehavior) GameMenuEncounterLeaveYourSoldiersBehindOnCondition(args *MenuArgs) bool {
	args.SetOptionLeaveType(host.LeaveLeave)
	return b.engine.encounter != nil && b.engine.Player.Troops > 0
}

func (b *EncounterBehavior) GameMenuEncounterSurrenderOnCondition(args *MenuArgs) bool {
	args.SetOptionLeaveType(host.LeaveSurrender)
	enc := b.engine.encounter
	return enc != nil && enc.Enemy.Strength() > b.engine.Player.Strength()
}

func (b *EncounterBehavior) GameMenuEncounterSurrenderOnConsequence(args *MenuArgs) {
	b.engine.finishEncounter("surrendered")
}

func (b *EncounterBehavior) GameMenuEncounterLeaveOnCondition(args *MenuArgs) bool {
	args.SetOptionLeaveType(host.LeaveLeave)
	enc := b.engine.encounter
	return enc != nil && !enc.Enemy.Pursuing
}

func (b *EncounterBehavior) GameMenuEncounterLeaveOnConsequence(args *MenuArgs) {
	b.engine.finishEncounter("left")
}

func (b *EncounterBehavior) fight(heroJoins bool) {
	if err := b.engine.Fight(heroJoins); err != nil {
		b.engine.logger.Warn("Fight not resolved", "error", err)
	}
}

// Fight resolves one exchange of the encounter. Damage to the enemy leader
// is a quarter of the attacking strength minus half the leader's armor, at
// least 1.
func (e *Engine) Fight(heroJoins bool) error {
	enc := e.encounter
	if enc == nil {
		return ErrNoEncounter
	}
	enemy := enc.Enemy

	attack := e.Player.Troops
	if heroJoins {
		attack += e.Player.Actor.AC()
	}
	damage := max(1, attack/4-enemy.Actor.AC()/2)

	hp := enemy.Actor.HP() - damage
	e.record(fmt.Sprintf("dealt %d damage to %s", damage, enemy.Leader.ID))
	if hp <= 0 {
		e.finishEncounter("won")
		return nil
	}
	if err := enemy.Actor.SetHP(hp); err != nil {
		return fmt.Errorf("failed to set enemy HP: %w", err)
	}

	losses := min(e.Player.Troops, enemy.Troops/4)
	e.Player.Troops -= losses
	enemy.Troops = max(0, enemy.Troops-damage/2)

	if heroJoins {
		heroHP := e.Player.Actor.HP() - max(1, enemy.Troops/3)
		if heroHP <= 0 {
			e.finishEncounter("lost")
			return nil
		}
		if err := e.Player.Actor.SetHP(heroHP); err != nil {
			return fmt.Errorf("failed to set hero HP: %w", err)
		}
	}
	return nil
}

// Starter registers menus into the engine.
type Starter struct {
	engine *Engine
}

var _ host.CampaignStarter = (*Starter)(nil)

func (s *Starter) AddGameMenu(menuID, text string, onInit host.MenuInit, overlay host.OverlayType) {
	m := s.engine.menu(menuID)
	m.Text = text
	m.OnInit = onInit
	m.Overlay = overlay
}

func (s *Starter) AddGameMenuOption(menuID, optionID, text string, cond host.Condition, cons host.Consequence, isLeave bool) {
	m := s.engine.menu(menuID)
	m.Options = append(m.Options, &Option{
		ID:          optionID,
		Text:        text,
		Condition:   cond,
		Consequence: cons,
		IsLeave:     isLeave,
	})
}

func (e *Engine) menu(id string) *Menu {
	m, ok := e.menus[id]
	if !ok {
		m = &Menu{ID: id}
		e.menus[id] = m
	}
	return m
}

// registerHostMenus declares the host's own encounter menus; they call the
// behavior directly.
func (e *Engine) registerHostMenus() {
	b := e.behaviors[EncounterBehaviorType].(*EncounterBehavior)
	s := e.Starter()

	cond := func(f func(*MenuArgs) bool) host.Condition {
		return func(args host.MenuArgs) bool { return f(args.(*MenuArgs)) }
	}
	cons := func(f func(*MenuArgs)) host.Consequence {
		return func(args host.MenuArgs) { f(args.(*MenuArgs)) }
	}

	s.AddGameMenu(EncounterMenuID, "{ENCOUNTER_TEXT}", func(args host.MenuArgs) {
		b.GameMenuEncounterOnInit(args.(*MenuArgs))
	}, host.OverlayEncounter)
	s.AddGameMenuOption(EncounterMenuID, "encounter_attack", "{ATTACK_TEXT}!",
		cond(b.GameMenuEncounterAttackOnCondition), cons(b.GameMenuEncounterAttackOnConsequence), false)
	s.AddGameMenuOption(EncounterMenuID, "encounter_order_attack", "Send troops.",
		cond(b.GameMenuEncounterOrderAttackOnCondition), cons(b.GameMenuEncounterOrderAttackOnConsequence), false)
	s.AddGameMenuOption(EncounterMenuID, "encounter_get_away", "Try to get away.",
		cond(b.GameMenuEncounterLeaveYourSoldiersBehindOnCondition), func(host.MenuArgs) { e.SwitchToMenu(GetAwayMenuID) }, false)
	s.AddGameMenuOption(EncounterMenuID, "encounter_surrender", "Surrender.",
		cond(b.GameMenuEncounterSurrenderOnCondition), cons(b.GameMenuEncounterSurrenderOnConsequence), false)
	s.AddGameMenuOption(EncounterMenuID, "encounter_leave", "Leave...",
		cond(b.GameMenuEncounterLeaveOnCondition), cons(b.GameMenuEncounterLeaveOnConsequence), true)

	s.AddGameMenu(GetAwayMenuID, "You can break away by leaving some of your soldiers behind.", nil, host.OverlayEncounter)
	s.AddGameMenuOption(GetAwayMenuID, "get_away_sacrifice", "Leave soldiers behind.", nil, func(host.MenuArgs) {
		e.Player.Troops /= 2
		e.finishEncounter("escaped")
	}, true)
	s.AddGameMenuOption(GetAwayMenuID, "get_away_back", "Back.", nil, func(host.MenuArgs) {
		e.SwitchToMenu(EncounterMenuID)
	}, false)
}
