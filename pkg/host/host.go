// Package host describes the slice of the host engine that fast dialogue
// talks to. The host owns every value behind these interfaces; this module
// only reads them or asks the host to act.
package host

// StateKind classifies the host's top-of-stack state.
type StateKind int

const (
	KindOther StateKind = iota
	KindMap
	KindMission
	KindMenu
)

func (k StateKind) String() string {
	switch k {
	case KindMap:
		return "map"
	case KindMission:
		return "mission"
	case KindMenu:
		return "menu"
	default:
		return "other"
	}
}

// State is an opaque handle to a host game state. Implementations must be
// comparable with == (pointer types), identity is what the observer tracks.
type State interface {
	Kind() StateKind
}

// MissionState is a state that runs a mission.
type MissionState interface {
	State
	CurrentMission() Mission
}

// Mission exposes the behaviors attached to a running mission.
type Mission interface {
	// ConversationLogic returns the mission's conversation component, or nil
	// when the mission carries no dialogue.
	ConversationLogic() any
}

// Faction is a map-level political entity.
type Faction interface {
	IsAtWarWith(other Faction) bool
}

// Party is a mobile party on the campaign map.
type Party interface {
	MapFaction() Faction
}

// Character identifies a character template.
type Character interface {
	StringID() string
	OriginStringID() string
}

// Participant is one character/party pairing in a conversation.
type Participant interface {
	Character() Character
	Party() Party
}

// Engine is the host's state and menu surface.
type Engine interface {
	// ActiveState returns nil while the state manager is not ready.
	ActiveState() State
	PopState()
	SwitchToMenu(menuID string)
	OpenConversation(players, others []Participant, first Participant)
	// CampaignBehavior looks up a campaign behavior by its type name.
	CampaignBehavior(typeName string) any
	DisplayMessage(text string, color uint32)
}
