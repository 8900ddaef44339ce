package host

// MockEngine is a mock implementation of Engine for testing
type MockEngine struct {
	ActiveStateFunc      func() State
	CampaignBehaviorFunc func(typeName string) any

	// Current is returned by ActiveState when ActiveStateFunc is nil
	Current State
	// Behaviors is consulted by CampaignBehavior when CampaignBehaviorFunc is nil
	Behaviors map[string]any

	// Track calls for testing
	PopStateCalls         int
	SwitchToMenuCalls     []string
	OpenConversationCalls []OpenConversationCall
	CampaignBehaviorCalls []string
	DisplayMessageCalls   []DisplayMessageCall
}

type OpenConversationCall struct {
	Players []Participant
	Others  []Participant
	First   Participant
}

type DisplayMessageCall struct {
	Text  string
	Color uint32
}

// Ensure MockEngine implements Engine interface
var _ Engine = (*MockEngine)(nil)

// NewMockEngine creates a new mock engine
func NewMockEngine() *MockEngine {
	return &MockEngine{
		Behaviors:             make(map[string]any),
		SwitchToMenuCalls:     make([]string, 0),
		OpenConversationCalls: make([]OpenConversationCall, 0),
		CampaignBehaviorCalls: make([]string, 0),
		DisplayMessageCalls:   make([]DisplayMessageCall, 0),
	}
}

func (m *MockEngine) ActiveState() State {
	if m.ActiveStateFunc != nil {
		return m.ActiveStateFunc()
	}
	return m.Current
}

func (m *MockEngine) PopState() {
	m.PopStateCalls++
}

func (m *MockEngine) SwitchToMenu(menuID string) {
	m.SwitchToMenuCalls = append(m.SwitchToMenuCalls, menuID)
}

func (m *MockEngine) OpenConversation(players, others []Participant, first Participant) {
	m.OpenConversationCalls = append(m.OpenConversationCalls, OpenConversationCall{
		Players: players,
		Others:  others,
		First:   first,
	})
}

func (m *MockEngine) CampaignBehavior(typeName string) any {
	m.CampaignBehaviorCalls = append(m.CampaignBehaviorCalls, typeName)

	if m.CampaignBehaviorFunc != nil {
		return m.CampaignBehaviorFunc(typeName)
	}
	return m.Behaviors[typeName]
}

func (m *MockEngine) DisplayMessage(text string, color uint32) {
	m.DisplayMessageCalls = append(m.DisplayMessageCalls, DisplayMessageCall{Text: text, Color: color})
}

// MockState is a bare state of a fixed kind
type MockState struct {
	Name      string
	StateKind StateKind
}

func (s *MockState) Kind() StateKind { return s.StateKind }

// MockMissionState is a mission state wrapping a mock mission
type MockMissionState struct {
	Name    string
	Mission Mission
}

func (s *MockMissionState) Kind() StateKind         { return KindMission }
func (s *MockMissionState) CurrentMission() Mission { return s.Mission }

// MockMission returns Logic as its conversation component
type MockMission struct {
	Logic any
}

func (m *MockMission) ConversationLogic() any { return m.Logic }

// MockFaction is at war with every faction listed in Enemies
type MockFaction struct {
	Name    string
	Enemies []*MockFaction
}

func (f *MockFaction) IsAtWarWith(other Faction) bool {
	for _, e := range f.Enemies {
		if Faction(e) == other {
			return true
		}
	}
	return false
}

// MockParty belongs to a single faction
type MockParty struct {
	Faction Faction
}

func (p *MockParty) MapFaction() Faction { return p.Faction }

// MockCharacter carries fixed ids
type MockCharacter struct {
	ID       string
	OriginID string
}

func (c *MockCharacter) StringID() string { return c.ID }

func (c *MockCharacter) OriginStringID() string {
	if c.OriginID == "" {
		return c.ID
	}
	return c.OriginID
}

// MockParticipant pairs a character with a party
type MockParticipant struct {
	Char   Character
	PartyV Party
}

func (p *MockParticipant) Character() Character { return p.Char }
func (p *MockParticipant) Party() Party         { return p.PartyV }

// MockMenuArgs records the leave type an option asked for
type MockMenuArgs struct {
	ID        string
	LeaveType LeaveType
}

func (a *MockMenuArgs) MenuID() string                 { return a.ID }
func (a *MockMenuArgs) SetOptionLeaveType(t LeaveType) { a.LeaveType = t }

// MockStarter records registered menus and options
type MockStarter struct {
	Menus   []MockMenu
	Options []MockOption
}

type MockMenu struct {
	ID      string
	Text    string
	OnInit  MenuInit
	Overlay OverlayType
}

type MockOption struct {
	MenuID      string
	ID          string
	Text        string
	Condition   Condition
	Consequence Consequence
	IsLeave     bool
}

var _ CampaignStarter = (*MockStarter)(nil)

func (s *MockStarter) AddGameMenu(menuID, text string, onInit MenuInit, overlay OverlayType) {
	s.Menus = append(s.Menus, MockMenu{ID: menuID, Text: text, OnInit: onInit, Overlay: overlay})
}

func (s *MockStarter) AddGameMenuOption(menuID, optionID, text string, cond Condition, cons Consequence, isLeave bool) {
	s.Options = append(s.Options, MockOption{
		MenuID:      menuID,
		ID:          optionID,
		Text:        text,
		Condition:   cond,
		Consequence: cons,
		IsLeave:     isLeave,
	})
}

// Option returns the registered option with the given id
func (s *MockStarter) Option(optionID string) (MockOption, bool) {
	for _, o := range s.Options {
		if o.ID == optionID {
			return o, true
		}
	}
	return MockOption{}, false
}
