package host

// LeaveType tells the host how to present a menu option.
type LeaveType int

const (
	LeaveDefault LeaveType = iota
	LeaveMission
	LeaveConversation
	LeaveSurrender
	LeaveLeave
)

// OverlayType selects the overlay drawn behind a game menu.
type OverlayType int

const (
	OverlayNone OverlayType = iota
	OverlayEncounter
	OverlaySettlement
)

// MenuArgs is the host's per-callback menu context.
type MenuArgs interface {
	MenuID() string
	SetOptionLeaveType(t LeaveType)
}

type (
	MenuInit    func(args MenuArgs)
	Condition   func(args MenuArgs) bool
	Consequence func(args MenuArgs)
)

// CampaignStarter registers game menus with the host during game start.
type CampaignStarter interface {
	AddGameMenu(menuID, text string, onInit MenuInit, overlay OverlayType)
	AddGameMenuOption(menuID, optionID, text string, cond Condition, cons Consequence, isLeave bool)
}
