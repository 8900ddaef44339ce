package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/jwebster45206/fast-dialogue/internal/simhost"
	"github.com/jwebster45206/fast-dialogue/internal/submodule"
	"github.com/jwebster45206/fast-dialogue/pkg/observer"
	"github.com/muesli/reflow/wordwrap"
)

const tickInterval = 100 * time.Millisecond

// feed collects what happened, for the log panel. The observer reports into
// it from inside the tick, which runs on the UI goroutine.
type feed struct {
	lines []string
}

func (f *feed) report(out observer.Outcome) {
	line := fmt.Sprintf("[%s]", out.Decision)
	if out.CharacterID != "" {
		line += " " + out.CharacterID
	}
	if out.Rule != "" {
		line += " (rule " + out.Rule + ")"
	}
	f.lines = append(f.lines, decisionStyle.Render(line))
}

func (f *feed) add(line string) {
	f.lines = append(f.lines, line)
}

func (f *feed) plain() string {
	return stripStyles(strings.Join(f.lines, "\n"))
}

type choice struct {
	id      string
	label   string
	enabled bool
}

// SimUI is the BubbleTea model driving the simulated host.
type SimUI struct {
	engine  *simhost.Engine
	world   *simhost.World
	runtime *submodule.Runtime
	feed    *feed

	logViewport  viewport.Model
	metaViewport viewport.Model
	ready        bool
	width        int
	height       int

	selected    int
	seenHistory int
	seenMessage int

	showQuitModal bool
}

type tickMsg struct{}

var (
	logPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(3)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	hostStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")) // grey

	decisionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("205")).
			Bold(true)

	disabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewSimUI(engine *simhost.Engine, world *simhost.World, rt *submodule.Runtime, f *feed) SimUI {
	logVp := viewport.New(50, 20)
	logVp.MouseWheelEnabled = true

	return SimUI{
		engine:       engine,
		world:        world,
		runtime:      rt,
		feed:         f,
		logViewport:  logVp,
		metaViewport: viewport.New(20, 20),
	}
}

func (m SimUI) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m SimUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var vpCmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		logWidth := int(float64(m.width)*0.7) - 4
		metaWidth := m.width - logWidth - 6

		m.logViewport.Width = logWidth - 2
		m.logViewport.Height = max(5, m.height-14)
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 3
		m.ready = true
		m.refresh()

	case tickMsg:
		if err := m.runtime.OnApplicationTick(tickInterval.Seconds()); err != nil {
			m.feed.add(errorStyle.Render("Tick failed: " + err.Error()))
		}
		m.refresh()
		return m, tick()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case tea.KeyDown:
			if m.selected < len(m.choices())-1 {
				m.selected++
			}
			return m, nil
		case tea.KeyEnter:
			m.choose()
			m.refresh()
			return m, nil
		}

		switch msg.String() {
		case "c":
			if err := clipboard.WriteAll(m.feed.plain()); err != nil {
				m.feed.add(errorStyle.Render("Copy failed: " + err.Error()))
			} else {
				m.feed.add(promptStyle.Render("Log copied to clipboard."))
			}
			m.refresh()
			return m, nil
		case "r":
			m.showRules()
			m.refresh()
			return m, nil
		}
	}

	m.logViewport, vpCmd = m.logViewport.Update(msg)
	return m, vpCmd
}

// choices lists what the player can do in the active state.
func (m SimUI) choices() []choice {
	switch s := m.engine.ActiveState().(type) {
	case *simhost.MapState:
		if s.MenuID() != "" {
			return m.menuChoices()
		}
		ids := m.world.PartyIDs()
		out := make([]choice, 0, len(ids))
		for _, id := range ids {
			p, _ := m.world.Party(id)
			out = append(out, choice{
				id:      id,
				label:   fmt.Sprintf("Engage %s (%d troops)", simhost.DisplayName(p.Leader.ID), p.Troops),
				enabled: true,
			})
		}
		return out
	case *simhost.MissionState:
		return []choice{{id: "end", label: "End conversation", enabled: true}}
	default:
		return nil
	}
}

func (m SimUI) menuChoices() []choice {
	views, err := m.engine.MenuOptions()
	if err != nil {
		return nil
	}
	out := make([]choice, 0, len(views))
	for _, v := range views {
		out = append(out, choice{id: v.ID, label: m.expand(v.Text), enabled: v.Enabled})
	}
	return out
}

func (m *SimUI) choose() {
	choices := m.choices()
	if m.selected >= len(choices) {
		return
	}
	c := choices[m.selected]
	if !c.enabled {
		m.feed.add(promptStyle.Render(c.label + " is not available."))
		return
	}

	var err error
	switch s := m.engine.ActiveState().(type) {
	case *simhost.MapState:
		if s.MenuID() != "" {
			err = m.engine.Choose(c.id)
			break
		}
		var enemy *simhost.Party
		if enemy, err = m.world.Party(c.id); err == nil {
			err = m.engine.StartEncounter(enemy)
		}
	case *simhost.MissionState:
		err = m.engine.EndConversation()
	}
	if err != nil {
		m.feed.add(errorStyle.Render("Error: " + err.Error()))
	}
	m.selected = 0
}

func (m *SimUI) showRules() {
	data, err := m.runtime.Rules().Marshal()
	if err != nil {
		m.feed.add(errorStyle.Render("Error: " + err.Error()))
		return
	}
	m.feed.add(titleStyle.Render("Skip rules:"))
	m.feed.add(strings.TrimRight(string(data), "\n"))
}

// expand fills menu text variables like {ENCOUNTER_TEXT} and drops
// localization keys like {=o1pZHZOF}.
func (m SimUI) expand(text string) string {
	var out strings.Builder
	for {
		start := strings.Index(text, "{")
		if start < 0 {
			out.WriteString(text)
			return out.String()
		}
		end := strings.Index(text[start:], "}")
		if end < 0 {
			out.WriteString(text)
			return out.String()
		}
		out.WriteString(text[:start])
		name := text[start+1 : start+end]
		if !strings.HasPrefix(name, "=") {
			out.WriteString(m.engine.Var(name))
		}
		text = text[start+end+1:]
	}
}

// refresh pulls new host history into the feed and redraws both panels.
func (m *SimUI) refresh() {
	for _, entry := range m.engine.History[m.seenHistory:] {
		m.feed.add(hostStyle.Render("host: " + entry))
	}
	m.seenHistory = len(m.engine.History)
	for _, msg := range m.engine.Messages[m.seenMessage:] {
		m.feed.add(messageStyle.Render(msg.Text))
	}
	m.seenMessage = len(m.engine.Messages)

	if !m.ready {
		return
	}
	width := max(10, m.logViewport.Width-4)
	var content strings.Builder
	content.WriteString(titleStyle.Render("FAST DIALOGUE") + "\n\n")
	for _, line := range m.feed.lines {
		content.WriteString(wordwrap.String(line, width) + "\n")
	}
	m.logViewport.SetContent(content.String())
	m.logViewport.GotoBottom()
	m.metaViewport.SetContent(m.writeMetadata())
}

func (m SimUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("CAMPAIGN") + "\n\n")

	content.WriteString("State:\n")
	state := m.engine.ActiveState()
	if s, ok := state.(*simhost.MapState); ok && s.MenuID() != "" {
		content.WriteString(fmt.Sprintf("map, menu %s\n\n", s.MenuID()))
	} else if state != nil {
		content.WriteString(state.Kind().String() + "\n\n")
	}

	player := m.engine.Player
	content.WriteString("Party:\n")
	content.WriteString(fmt.Sprintf("HP %d/%d\n", player.Actor.HP(), player.Actor.MaxHP()))
	content.WriteString(fmt.Sprintf("Troops %d\n\n", player.Troops))

	if enc := m.engine.Encounter(); enc != nil {
		content.WriteString("Encounter:\n")
		content.WriteString(simhost.DisplayName(enc.Enemy.Leader.ID) + "\n")
		content.WriteString(fmt.Sprintf("HP %d/%d\n", enc.Enemy.Actor.HP(), enc.Enemy.Actor.MaxHP()))
		content.WriteString(fmt.Sprintf("Troops %d\n\n", enc.Enemy.Troops))
	}

	obs := m.runtime.Observer()
	content.WriteString("Interception:\n")
	content.WriteString(fmt.Sprintf("%d rules\n", len(obs.Rules())))
	content.WriteString(fmt.Sprintf("cached dialogue: %t\n", obs.Cache().Captured()))
	if m.runtime.Broadcaster != nil {
		content.WriteString("events: " + m.runtime.Broadcaster.Channel() + "\n")
		if m.runtime.Queue.Dropped() > 0 {
			content.WriteString(fmt.Sprintf("dropped: %d\n", m.runtime.Queue.Dropped()))
		}
	}

	content.WriteString("\nCommands:\n")
	content.WriteString("• ↑/↓ Enter: Choose\n")
	content.WriteString("• r: Skip rules\n")
	content.WriteString("• c: Copy log\n")
	content.WriteString("• Ctrl+C: Quit\n")
	return content.String()
}

func (m SimUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, tick()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
			}
		}
	}
	return m, nil
}

func (m SimUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to leave the campaign?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m SimUI) renderChoices(width int) string {
	var content strings.Builder
	if menu, ok := m.engine.ActiveMenu(); ok {
		content.WriteString(titleStyle.Render(wordwrap.String(m.expand(menu.Text), width)) + "\n\n")
	}
	for i, c := range m.choices() {
		label := wordwrap.String(c.label, width)
		switch {
		case i == m.selected:
			content.WriteString(selectedStyle.Render("▶ " + label))
		case !c.enabled:
			content.WriteString(disabledStyle.Render("  " + label))
		default:
			content.WriteString("  " + label)
		}
		content.WriteString("\n")
	}
	return content.String()
}

func (m SimUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	logWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - logWidth - 6

	logPanel := logPanelStyle.Width(logWidth).Height(m.height - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.logViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(1, logWidth-4))),
			m.renderChoices(max(10, logWidth-8)),
		),
	)
	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, logPanel, metaPanel)
}

// stripStyles removes ANSI escape sequences.
func stripStyles(s string) string {
	return ansi.Strip(s)
}
