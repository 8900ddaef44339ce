package main

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/fast-dialogue/internal/config"
	"github.com/jwebster45206/fast-dialogue/internal/simhost"
	"github.com/jwebster45206/fast-dialogue/internal/submodule"
	"github.com/jwebster45206/fast-dialogue/pkg/observer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUI(t *testing.T) SimUI {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	world, err := simhost.DefaultWorld()
	require.NoError(t, err)
	engine := simhost.NewEngine(world.Player, log)

	f := &feed{}
	rt, err := submodule.Start(t.Context(), engine, &config.Config{EventBuffer: 1, RecentEventsLimit: 1}, log, observer.ReporterFunc(f.report))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	rt.OnGameStart(engine.Starter())
	engine.Start()

	model, _ := NewSimUI(engine, world, rt, f).Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model, _ = model.Update(tickMsg{})
	return model.(SimUI)
}

func press(m SimUI, key tea.KeyType) SimUI {
	model, _ := m.Update(tea.KeyMsg{Type: key})
	return model.(SimUI)
}

func TestSimUI_EngageIsIntercepted(t *testing.T) {
	m := newTestUI(t)

	choices := m.choices()
	require.NotEmpty(t, choices)
	for i, c := range choices {
		if c.id == "looters" {
			m.selected = i
		}
	}

	m = press(m, tea.KeyEnter)
	model, _ := m.Update(tickMsg{})
	m = model.(SimUI)

	menu, ok := m.engine.ActiveMenu()
	require.True(t, ok)
	assert.Equal(t, observer.FastMenuID, menu.ID)
	assert.Contains(t, m.feed.plain(), "[intercepted] looter_3 (rule common)")
	assert.Len(t, m.choices(), 6)
	assert.Contains(t, m.View(), "Looter 3")
}

func TestSimUI_Expand(t *testing.T) {
	m := newTestUI(t)
	m.engine.SwitchToMenu(simhost.EncounterMenuID)

	assert.Equal(t, "!", m.expand("{=o1pZHZOF}{ATTACK_TEXT}!"))
	assert.Equal(t, "Leave...", m.expand("{=2YYRyrOO}Leave..."))
	assert.Equal(t, "open {brace", m.expand("open {brace"))
}

func TestSimUI_QuitModal(t *testing.T) {
	m := newTestUI(t)
	m = press(m, tea.KeyEsc)
	assert.True(t, m.showQuitModal)
	assert.Contains(t, m.View(), "Quit?")

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	m = model.(SimUI)
	assert.False(t, m.showQuitModal)
}

func TestStripStyles(t *testing.T) {
	styled := errorStyle.Render("boom")
	assert.Equal(t, "boom", stripStyles(styled))
	assert.Equal(t, "plain", stripStyles("plain"))
	assert.False(t, strings.Contains(stripStyles("\x1b[31mred\x1b[0m"), "\x1b"))
}
