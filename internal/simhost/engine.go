package simhost

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/fast-dialogue/pkg/host"
)

// Host menu ids.
const (
	EncounterMenuID = "encounter"
	GetAwayMenuID   = "try_to_get_away"
)

// Behavior type names resolvable through CampaignBehavior.
const EncounterBehaviorType = "EncounterGameMenuBehavior"

var (
	ErrNoMenu         = errors.New("no active menu")
	ErrUnknownOption  = errors.New("unknown menu option")
	ErrOptionDisabled = errors.New("menu option is disabled")
	ErrNoEncounter    = errors.New("no encounter in progress")
)

// MapState is the campaign map. Game menus run on the map without a state of
// their own: while a menu is open the active state is still the map.
type MapState struct {
	menuID string
}

func (*MapState) Kind() host.StateKind { return host.KindMap }

// MenuID is the open game menu, or "" on the open map.
func (s *MapState) MenuID() string { return s.menuID }

type MissionState struct {
	mission *Mission
}

func (*MissionState) Kind() host.StateKind { return host.KindMission }

func (s *MissionState) CurrentMission() host.Mission {
	if s.mission == nil {
		return nil
	}
	return s.mission
}

// Mission is a running mission; conversation missions carry logic.
type Mission struct {
	Name         string
	conversation *ConversationLogic
}

func (m *Mission) ConversationLogic() any {
	if m.conversation == nil {
		return nil
	}
	return m.conversation
}

// ConversationLogic keeps its participants private, as the real host does.
type ConversationLogic struct {
	otherSidePartners    []*CharacterData
	playerSidePartners   []*CharacterData
	firstCharacterToTalk *CharacterData
}

type Menu struct {
	ID      string
	Text    string
	OnInit  host.MenuInit
	Overlay host.OverlayType
	Options []*Option
}

type Option struct {
	ID          string
	Text        string
	Condition   host.Condition
	Consequence host.Consequence
	IsLeave     bool
}

// MenuArgs is passed to menu callbacks.
type MenuArgs struct {
	menuID    string
	leaveType host.LeaveType
}

func (a *MenuArgs) MenuID() string                      { return a.menuID }
func (a *MenuArgs) SetOptionLeaveType(t host.LeaveType) { a.leaveType = t }
func (a *MenuArgs) LeaveType() host.LeaveType           { return a.leaveType }

// OptionView is a menu option as the player sees it.
type OptionView struct {
	ID        string
	Text      string
	Enabled   bool
	IsLeave   bool
	LeaveType host.LeaveType
}

type Message struct {
	Text  string
	Color uint32
}

// Encounter is the fight in progress between the player and another party.
type Encounter struct {
	Enemy   *Party
	Outcome string
}

// Engine is the in-memory host.
type Engine struct {
	logger *slog.Logger

	started   bool
	stack     []host.State
	menus     map[string]*Menu
	behaviors map[string]any
	vars      map[string]string

	Player    *Party
	encounter *Encounter

	Messages      []Message
	Conversations int
	History       []string
}

var _ host.Engine = (*Engine)(nil)

func NewEngine(player *Party, logger *slog.Logger) *Engine {
	e := &Engine{
		logger:    logger,
		menus:     make(map[string]*Menu),
		behaviors: make(map[string]any),
		vars:      make(map[string]string),
		Player:    player,
	}
	e.behaviors[EncounterBehaviorType] = &EncounterBehavior{engine: e}
	e.registerHostMenus()
	return e
}

// Start puts the campaign map on the stack; ActiveState is nil until then.
func (e *Engine) Start() {
	e.started = true
	e.stack = []host.State{&MapState{}}
	e.record("campaign started")
}

func (e *Engine) ActiveState() host.State {
	if !e.started || len(e.stack) == 0 {
		return nil
	}
	return e.stack[len(e.stack)-1]
}

func (e *Engine) PopState() {
	if len(e.stack) == 0 {
		return
	}
	top := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	e.record("popped " + top.Kind().String())
}

// SwitchToMenu opens a game menu on the map, replacing any open menu.
func (e *Engine) SwitchToMenu(menuID string) {
	m, ok := e.menus[menuID]
	if !ok {
		e.logger.Warn("Switch to unknown menu", "menu", menuID)
		return
	}
	ms, ok := e.ActiveState().(*MapState)
	if !ok {
		e.logger.Warn("Switch to menu away from the map", "menu", menuID, "state", kindName(e.ActiveState()))
		return
	}

	ms.menuID = menuID
	e.record("menu " + menuID)

	if m.OnInit != nil {
		m.OnInit(&MenuArgs{menuID: menuID})
	}
}

// ExitMenu closes the open game menu.
func (e *Engine) ExitMenu() {
	ms, ok := e.ActiveState().(*MapState)
	if !ok || ms.menuID == "" {
		return
	}
	ms.menuID = ""
	e.record("menu closed")
}

// OpenConversation pushes a conversation mission for the participants.
func (e *Engine) OpenConversation(players, others []host.Participant, first host.Participant) {
	logic := &ConversationLogic{
		otherSidePartners:    characterData(others),
		playerSidePartners:   characterData(players),
		firstCharacterToTalk: asCharacterData(first),
	}
	e.stack = append(e.stack, &MissionState{mission: &Mission{Name: "conversation", conversation: logic}})
	e.Conversations++
	e.record("conversation opened")
}

func (e *Engine) CampaignBehavior(typeName string) any {
	return e.behaviors[typeName]
}

func (e *Engine) DisplayMessage(text string, color uint32) {
	e.Messages = append(e.Messages, Message{Text: text, Color: color})
	e.logger.Info("Host message", "text", text)
}

// Starter returns the campaign starter handed to game-start hooks.
func (e *Engine) Starter() *Starter {
	return &Starter{engine: e}
}

// Encounter returns the encounter in progress, if any.
func (e *Engine) Encounter() *Encounter {
	return e.encounter
}

// Var reads a menu text variable such as ENCOUNTER_TEXT.
func (e *Engine) Var(name string) string {
	return e.vars[name]
}

// StartEncounter engages enemy from the map. Like the real host, the
// encounter opens with a conversation mission.
func (e *Engine) StartEncounter(enemy *Party) error {
	ms, ok := e.ActiveState().(*MapState)
	if !ok {
		return fmt.Errorf("encounters start from the map, active state is %s", kindName(e.ActiveState()))
	}
	if ms.menuID != "" {
		return fmt.Errorf("encounters start from the open map, menu %s is open", ms.menuID)
	}
	e.encounter = &Encounter{Enemy: enemy}

	hero := NewCharacterData(e.Player.Leader, e.Player)
	leader := NewCharacterData(enemy.Leader, enemy)
	e.OpenConversation([]host.Participant{hero}, []host.Participant{leader}, leader)
	e.record("encounter with " + enemy.ID)
	return nil
}

// EndConversation closes the conversation mission and shows the host's own
// encounter menu, or returns to the map when no encounter is active.
func (e *Engine) EndConversation() error {
	if _, ok := e.ActiveState().(*MissionState); !ok {
		return fmt.Errorf("no conversation to end, active state is %s", kindName(e.ActiveState()))
	}
	e.PopState()
	if e.encounter != nil {
		e.SwitchToMenu(EncounterMenuID)
	}
	return nil
}

// ActiveMenu returns the game menu open on the map.
func (e *Engine) ActiveMenu() (*Menu, bool) {
	s, ok := e.ActiveState().(*MapState)
	if !ok || s.menuID == "" {
		return nil, false
	}
	m, ok := e.menus[s.menuID]
	return m, ok
}

// MenuOptions evaluates the active menu's conditions.
func (e *Engine) MenuOptions() ([]OptionView, error) {
	m, ok := e.ActiveMenu()
	if !ok {
		return nil, ErrNoMenu
	}

	views := make([]OptionView, 0, len(m.Options))
	for _, o := range m.Options {
		args := &MenuArgs{menuID: m.ID}
		enabled := o.Condition == nil || o.Condition(args)
		views = append(views, OptionView{
			ID:        o.ID,
			Text:      o.Text,
			Enabled:   enabled,
			IsLeave:   o.IsLeave,
			LeaveType: args.leaveType,
		})
	}
	return views, nil
}

// Choose runs an enabled option of the active menu.
func (e *Engine) Choose(optionID string) error {
	m, ok := e.ActiveMenu()
	if !ok {
		return ErrNoMenu
	}
	for _, o := range m.Options {
		if o.ID != optionID {
			continue
		}
		args := &MenuArgs{menuID: m.ID}
		if o.Condition != nil && !o.Condition(args) {
			return fmt.Errorf("%w: %s", ErrOptionDisabled, optionID)
		}
		e.record("chose " + optionID)
		if o.Consequence != nil {
			o.Consequence(args)
		}
		return nil
	}
	return fmt.Errorf("%w: %s in %s", ErrUnknownOption, optionID, m.ID)
}

// finishEncounter clears the encounter and unwinds to the open map.
func (e *Engine) finishEncounter(outcome string) {
	if e.encounter == nil {
		return
	}
	e.encounter.Outcome = outcome
	e.record("encounter " + outcome)
	e.encounter = nil

	for len(e.stack) > 1 {
		if _, ok := e.ActiveState().(*MapState); ok {
			break
		}
		e.PopState()
	}
	e.ExitMenu()
}

func (e *Engine) record(entry string) {
	e.History = append(e.History, entry)
	e.logger.Debug("Host event", "event", entry, "depth", len(e.stack))
}

func characterData(ps []host.Participant) []*CharacterData {
	out := make([]*CharacterData, 0, len(ps))
	for _, p := range ps {
		out = append(out, asCharacterData(p))
	}
	return out
}

// asCharacterData rebuilds host data from any participant; ours pass through.
func asCharacterData(p host.Participant) *CharacterData {
	if p == nil {
		return nil
	}
	if d, ok := p.(*CharacterData); ok {
		return d
	}
	c := &Character{ID: p.Character().StringID(), Origin: p.Character().OriginStringID()}
	party, _ := p.Party().(*Party)
	return &CharacterData{character: c, party: party}
}

func kindName(s host.State) string {
	if s == nil {
		return "none"
	}
	return s.Kind().String()
}
