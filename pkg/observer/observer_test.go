package observer

import (
	"log/slog"
	"os"
	"testing"

	"github.com/jwebster45206/fast-dialogue/pkg/bridge"
	"github.com/jwebster45206/fast-dialogue/pkg/host"
	"github.com/jwebster45206/fast-dialogue/pkg/skip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// conversationLogic mirrors the host component: participants live in
// unexported fields.
type conversationLogic struct {
	otherSidePartners    []*host.MockParticipant
	playerSidePartners   []*host.MockParticipant
	firstCharacterToTalk *host.MockParticipant
}

type fixture struct {
	engine   *host.MockEngine
	observer *Observer
	outcomes []Outcome

	mapState *host.MockState
	mission  *host.MockMissionState
	logic    *conversationLogic
	hero     *host.MockParticipant
	leader   *host.MockParticipant
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newFixture(t *testing.T, leaderID string, atWar bool) *fixture {
	t.Helper()

	player := &host.MockFaction{Name: "player"}
	enemy := &host.MockFaction{Name: "looters"}
	if atWar {
		enemy.Enemies = []*host.MockFaction{player}
	}

	hero := &host.MockParticipant{
		Char:   &host.MockCharacter{ID: "main_hero"},
		PartyV: &host.MockParty{Faction: player},
	}
	leader := &host.MockParticipant{
		Char:   &host.MockCharacter{ID: leaderID + "_instance", OriginID: leaderID},
		PartyV: &host.MockParty{Faction: enemy},
	}
	logic := &conversationLogic{
		otherSidePartners:    []*host.MockParticipant{leader},
		playerSidePartners:   []*host.MockParticipant{hero},
		firstCharacterToTalk: leader,
	}

	f := &fixture{
		engine:   host.NewMockEngine(),
		mapState: &host.MockState{Name: "map", StateKind: host.KindMap},
		mission:  &host.MockMissionState{Name: "conversation", Mission: &host.MockMission{Logic: logic}},
		logic:    logic,
		hero:     hero,
		leader:   leader,
	}
	f.observer = New(f.engine, testLogger(), WithReporter(ReporterFunc(func(out Outcome) {
		f.outcomes = append(f.outcomes, out)
	})))
	return f
}

func (f *fixture) enterEncounter(t *testing.T) {
	t.Helper()
	require.NoError(t, f.observer.Tick(f.mapState))
	require.NoError(t, f.observer.Tick(f.mission))
}

func TestTick_InterceptsSkippableEncounter(t *testing.T) {
	f := newFixture(t, "looter", true)
	f.enterEncounter(t)

	assert.Equal(t, 1, f.engine.PopStateCalls)
	assert.Equal(t, []string{FastMenuID}, f.engine.SwitchToMenuCalls)

	cache := f.observer.Cache()
	require.True(t, cache.Captured())
	players, others, first := cache.Current()
	require.Len(t, players, 1)
	require.Len(t, others, 1)
	assert.Same(t, f.hero, players[0])
	assert.Same(t, f.leader, others[0])
	assert.Same(t, f.leader, first)

	require.Len(t, f.outcomes, 1)
	assert.Equal(t, Outcome{
		Decision:    DecisionIntercepted,
		CharacterID: "looter_instance",
		OriginID:    "looter",
		Rule:        "common",
	}, f.outcomes[0])

	assert.Same(t, f.mission, f.observer.Prev())
}

func TestTick_NoInterception(t *testing.T) {
	tests := []struct {
		name     string
		leaderID string
		atWar    bool
		decision Decision
	}{
		{name: "tutorial leader", leaderID: "tutorial_looter", atWar: true, decision: DecisionTutorial},
		{name: "not at war", leaderID: "looter", atWar: false, decision: DecisionNotHostile},
		{name: "boss keeps dialogue", leaderID: "bandit_boss_chief", atWar: true, decision: DecisionKept},
		{name: "no rule matches", leaderID: "random_traveler", atWar: true, decision: DecisionKept},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.leaderID, tt.atWar)
			f.enterEncounter(t)

			assert.Zero(t, f.engine.PopStateCalls)
			assert.Empty(t, f.engine.SwitchToMenuCalls)
			assert.False(t, f.observer.Cache().Captured())
			require.Len(t, f.outcomes, 1)
			assert.Equal(t, tt.decision, f.outcomes[0].Decision)
		})
	}
}

func TestTick_TutorialCheckUsesInstanceID(t *testing.T) {
	f := newFixture(t, "looter", true)
	f.leader.Char = &host.MockCharacter{ID: "tutorial_npc_looter", OriginID: "looter"}
	f.enterEncounter(t)

	assert.Zero(t, f.engine.PopStateCalls)
}

func TestTick_OnlyMapToMissionEdges(t *testing.T) {
	tests := []struct {
		name string
		prev host.State
	}{
		{name: "menu to mission", prev: &host.MockState{Name: "menu", StateKind: host.KindMenu}},
		{name: "mission to mission", prev: &host.MockMissionState{Name: "battle", Mission: &host.MockMission{}}},
		{name: "first observed state", prev: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "looter", true)
			if tt.prev != nil {
				require.NoError(t, f.observer.Tick(tt.prev))
			}
			require.NoError(t, f.observer.Tick(f.mission))

			assert.Zero(t, f.engine.PopStateCalls)
			assert.Empty(t, f.engine.SwitchToMenuCalls)
		})
	}
}

func TestTick_Idempotent(t *testing.T) {
	f := newFixture(t, "looter", true)
	f.enterEncounter(t)

	require.NoError(t, f.observer.Tick(f.mission))
	require.NoError(t, f.observer.Tick(f.mission))

	assert.Equal(t, 1, f.engine.PopStateCalls)
	assert.Len(t, f.engine.SwitchToMenuCalls, 1)
	assert.Len(t, f.outcomes, 1)
}

func TestTick_NilStateIsIgnored(t *testing.T) {
	f := newFixture(t, "looter", true)
	require.NoError(t, f.observer.Tick(f.mapState))
	require.NoError(t, f.observer.Tick(nil))

	assert.Same(t, f.mapState, f.observer.Prev())

	require.NoError(t, f.observer.Tick(f.mission))
	assert.Equal(t, 1, f.engine.PopStateCalls, "a nil tick does not break the map edge")
}

func TestTick_MissionWithoutConversation(t *testing.T) {
	f := newFixture(t, "looter", true)
	battle := &host.MockMissionState{Name: "battle", Mission: &host.MockMission{}}

	require.NoError(t, f.observer.Tick(f.mapState))
	require.NoError(t, f.observer.Tick(battle))
	require.NoError(t, f.observer.Tick(f.mapState))
	require.NoError(t, f.observer.Tick(&host.MockMissionState{Name: "no mission"}))

	assert.Zero(t, f.engine.PopStateCalls)
	assert.Empty(t, f.outcomes)
}

func TestTick_PermittedStateSuppressesOnce(t *testing.T) {
	f := newFixture(t, "looter", true)
	f.enterEncounter(t)
	require.Equal(t, 1, f.engine.PopStateCalls)

	f.observer.Permit(f.mission)

	require.NoError(t, f.observer.Tick(f.mapState))
	require.NoError(t, f.observer.Tick(f.mission))
	assert.Equal(t, 1, f.engine.PopStateCalls, "permitted state is not intercepted")

	reopened := &host.MockMissionState{Name: "reopened", Mission: &host.MockMission{Logic: f.logic}}
	require.NoError(t, f.observer.Tick(f.mapState))
	require.NoError(t, f.observer.Tick(reopened))
	assert.Equal(t, 2, f.engine.PopStateCalls, "other mission states are still intercepted")

	decisions := make([]Decision, 0, len(f.outcomes))
	for _, o := range f.outcomes {
		decisions = append(decisions, o.Decision)
	}
	assert.Equal(t, []Decision{DecisionIntercepted, DecisionResumed, DecisionPermitted, DecisionIntercepted}, decisions)
}

func TestPermit_NilClearsWithoutReporting(t *testing.T) {
	f := newFixture(t, "looter", true)
	f.observer.Permit(f.mission)
	require.Len(t, f.outcomes, 1)

	f.observer.Permit(nil)
	assert.Nil(t, f.observer.Permitted())
	assert.Len(t, f.outcomes, 1, "clearing the permit is not a resume")

	f.enterEncounter(t)
	assert.Equal(t, 1, f.engine.PopStateCalls, "cleared permit no longer suppresses")
	assert.Equal(t, DecisionIntercepted, f.outcomes[len(f.outcomes)-1].Decision)
}

func TestTick_ResumeCallbacksFireBeforeInterception(t *testing.T) {
	f := newFixture(t, "looter", true)

	var order []string
	f.observer.Schedule(f.mission, func(s host.State) {
		order = append(order, "resume")
		assert.Zero(t, f.engine.PopStateCalls, "callbacks run before the skip check")
	})
	f.observer.SetRules(skip.Rules{{Name: "all", Contains: []string{"o"}, Skip: true}})
	f.observer.reporter = ReporterFunc(func(out Outcome) { order = append(order, string(out.Decision)) })

	f.enterEncounter(t)

	assert.Equal(t, []string{"resume", "intercepted"}, order)

	id := f.observer.Schedule(f.mapState, func(host.State) { t.Error("cancelled callback fired") })
	assert.True(t, f.observer.CancelScheduled(id))
	require.NoError(t, f.observer.Tick(f.mapState))
}

func TestTick_CustomRules(t *testing.T) {
	f := newFixture(t, "caravan_master", true)
	f.observer.SetRules(skip.Rules{{Name: "caravans", Contains: []string{"caravan"}, Skip: true}})
	f.enterEncounter(t)

	assert.Equal(t, 1, f.engine.PopStateCalls)
	assert.Equal(t, "caravans", f.outcomes[0].Rule)
	assert.Equal(t, "caravans", f.observer.Rules()[0].Name)
}

type brokenLogic struct {
	otherSidePartners []*host.MockParticipant
}

func TestTick_LookupFailureIsReturned(t *testing.T) {
	f := newFixture(t, "looter", true)
	f.mission.Mission = &host.MockMission{Logic: &brokenLogic{otherSidePartners: f.logic.otherSidePartners}}

	require.NoError(t, f.observer.Tick(f.mapState))
	err := f.observer.Tick(f.mission)

	require.Error(t, err)
	assert.ErrorIs(t, err, bridge.ErrNotFound)
	assert.Zero(t, f.engine.PopStateCalls)
	assert.Same(t, f.mission, f.observer.Prev(), "previous state advances even on failure")
}

func TestTick_EmptyParticipantsPanics(t *testing.T) {
	f := newFixture(t, "looter", true)
	f.logic.otherSidePartners = nil

	require.NoError(t, f.observer.Tick(f.mapState))
	assert.Panics(t, func() { _ = f.observer.Tick(f.mission) })
}

func TestReporters_FanOut(t *testing.T) {
	var a, b []Decision
	rs := Reporters{
		ReporterFunc(func(out Outcome) { a = append(a, out.Decision) }),
		nil,
		ReporterFunc(func(out Outcome) { b = append(b, out.Decision) }),
	}

	rs.Report(Outcome{Decision: DecisionKept})

	assert.Equal(t, []Decision{DecisionKept}, a)
	assert.Equal(t, []Decision{DecisionKept}, b)
}
