package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/work/internal/activity"
	"github.com/ShayCichocki/work/internal/orchestrator"
	"github.com/ShayCichocki/work/pkg/models"
)

// Panel indices.
const (
	PanelItems  = 0
	PanelAgents = 1
)

type view int

const (
	viewMain view = iota
	viewDetail
	viewBoards
)

// ActionSink receives user intents. *orchestrator.ActionQueue implements it.
type ActionSink interface {
	Push(orchestrator.Action)
}

// ActivityReader loads an agent's history. *activity.Log implements it.
type ActivityReader interface {
	Read(agent models.AgentName, limit int) []activity.Event
}

// SnapshotMsg carries a controller snapshot into the program.
type SnapshotMsg struct {
	Snapshot orchestrator.Snapshot
}

// activityMsg carries events loaded for the detail view.
type activityMsg struct {
	agent  models.AgentName
	events []activity.Event
}

// Model is the dashboard bubbletea model.
type Model struct {
	actions  ActionSink
	activity ActivityReader
	layout   *LayoutManager
	input    textinput.Model

	snap         orchestrator.Snapshot
	view         view
	focusedPanel int
	itemCursor   int
	agentCursor  int
	boardCursor  int
	typing       bool
	quitting     bool

	detailAgent  models.AgentName
	detailEvents []activity.Event
	detailScroll int
}

// NewModel creates a dashboard that pushes actions to sink and reads
// agent history from reader.
func NewModel(sink ActionSink, reader ActivityReader) *Model {
	ti := textinput.New()
	ti.Placeholder = "New task title, or @agent message"
	ti.CharLimit = 500
	ti.Width = 60
	ti.Prompt = "> "

	return &Model{
		actions:      sink,
		activity:     reader,
		layout:       NewLayoutManager(100, 30),
		input:        ti,
		focusedPanel: PanelItems,
	}
}

// NewProgram creates the bubbletea program for the dashboard.
func NewProgram(sink ActionSink, reader ActivityReader) (*tea.Program, *Model) {
	m := NewModel(sink, reader)
	return tea.NewProgram(m, tea.WithAltScreen()), m
}

// Observer returns a snapshot callback that forwards to p.
func Observer(p *tea.Program) func(orchestrator.Snapshot) {
	return func(s orchestrator.Snapshot) {
		p.Send(SnapshotMsg{Snapshot: s})
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout.SetSize(msg.Width, msg.Height)
		m.input.Width = msg.Width - 6
		return m, nil

	case SnapshotMsg:
		return m, m.applySnapshot(msg.Snapshot)

	case activityMsg:
		if msg.agent == m.detailAgent {
			m.detailEvents = msg.events
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if m.typing {
			return m.updateInput(msg)
		}
		switch m.view {
		case viewBoards:
			return m, m.updateBoards(msg)
		case viewDetail:
			return m, m.updateDetail(msg)
		default:
			return m, m.updateMain(msg)
		}
	}
	return m, nil
}

func (m *Model) applySnapshot(s orchestrator.Snapshot) tea.Cmd {
	m.snap = s
	if s.Quit {
		m.quitting = true
		return tea.Quit
	}
	m.itemCursor = clamp(m.itemCursor, len(s.Items))
	m.agentCursor = clamp(m.agentCursor, len(s.Agents))
	m.boardCursor = clamp(m.boardCursor, len(s.Boards))
	if s.NeedsBoard && m.view == viewMain {
		m.view = viewBoards
	}
	if m.view == viewDetail {
		return m.loadActivity(m.detailAgent)
	}
	return nil
}

func (m *Model) push(a orchestrator.Action) {
	m.actions.Push(a)
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.push(orchestrator.Quit{})
	return tea.Quit
}

func (m *Model) updateMain(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return m.quit()
	case "tab", "shift+tab", "left", "right", "h", "l":
		if m.focusedPanel == PanelItems {
			m.focusedPanel = PanelAgents
		} else {
			m.focusedPanel = PanelItems
		}
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "d":
		if item, ok := m.selectedItem(); ok {
			m.push(orchestrator.DispatchSelected{ItemID: item.ID})
		}
	case "c":
		if a, ok := m.selectedAgent(); ok {
			m.push(orchestrator.ClearAgent{Agent: a.Name})
		}
	case "L":
		if a, ok := m.selectedAgent(); ok {
			m.push(orchestrator.ClearActivity{Agent: a.Name})
		}
	case "a":
		m.push(orchestrator.ToggleAutoMode{})
	case "r":
		m.push(orchestrator.Refresh{})
	case "b":
		m.view = viewBoards
		m.boardCursor = 0
		m.push(orchestrator.LoadBoards{})
	case "enter":
		if m.focusedPanel == PanelAgents {
			if a, ok := m.selectedAgent(); ok {
				return m.openDetail(a.Name)
			}
		} else if item, ok := m.selectedItem(); ok {
			if name, held := m.snap.AssignedAgent(item.ID); held {
				return m.openDetail(name)
			}
		}
	case "i", "/":
		return m.startTyping("")
	case "@":
		return m.startTyping("@")
	}
	return nil
}

func (m *Model) updateDetail(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return m.quit()
	case "esc", "backspace":
		m.view = viewMain
		m.detailEvents = nil
	case "up", "k":
		if m.detailScroll < len(m.detailEvents)-1 {
			m.detailScroll++
		}
	case "down", "j":
		if m.detailScroll > 0 {
			m.detailScroll--
		}
	case "c":
		m.push(orchestrator.ClearAgent{Agent: m.detailAgent})
	case "L":
		m.push(orchestrator.ClearActivity{Agent: m.detailAgent})
	case "@":
		return m.startTyping("@" + string(m.detailAgent) + " ")
	}
	return nil
}

func (m *Model) updateBoards(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return m.quit()
	case "esc":
		m.view = viewMain
	case "up", "k":
		if m.boardCursor > 0 {
			m.boardCursor--
		}
	case "down", "j":
		if m.boardCursor < len(m.snap.Boards)-1 {
			m.boardCursor++
		}
	case "enter":
		if m.boardCursor < len(m.snap.Boards) {
			m.push(orchestrator.SelectBoard{Board: m.snap.Boards[m.boardCursor]})
			m.view = viewMain
		}
	}
	return nil
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.stopTyping()
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		m.stopTyping()
		if text != "" {
			m.push(orchestrator.SubmitInput{Text: text})
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) startTyping(prefill string) tea.Cmd {
	m.typing = true
	m.input.SetValue(prefill)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) stopTyping() {
	m.typing = false
	m.input.Reset()
	m.input.Blur()
}

func (m *Model) openDetail(name models.AgentName) tea.Cmd {
	m.view = viewDetail
	m.detailAgent = name
	m.detailEvents = nil
	m.detailScroll = 0
	return m.loadActivity(name)
}

func (m *Model) loadActivity(name models.AgentName) tea.Cmd {
	reader := m.activity
	if reader == nil {
		return nil
	}
	return func() tea.Msg {
		return activityMsg{agent: name, events: reader.Read(name, detailLimit)}
	}
}

func (m *Model) moveCursor(delta int) {
	if m.focusedPanel == PanelItems {
		m.itemCursor = clamp(m.itemCursor+delta, len(m.snap.Items))
	} else {
		m.agentCursor = clamp(m.agentCursor+delta, len(m.snap.Agents))
	}
}

func (m *Model) selectedItem() (models.WorkItem, bool) {
	if m.itemCursor < len(m.snap.Items) {
		return m.snap.Items[m.itemCursor], true
	}
	return models.WorkItem{}, false
}

func (m *Model) selectedAgent() (models.Agent, bool) {
	if m.agentCursor < len(m.snap.Agents) {
		return m.snap.Agents[m.agentCursor], true
	}
	return models.Agent{}, false
}

func (m *Model) agent(name models.AgentName) models.Agent {
	for _, a := range m.snap.Agents {
		if a.Name == name {
			return a
		}
	}
	return models.NewAgent(name)
}

// FocusedPanel returns the index of the currently focused panel.
func (m *Model) FocusedPanel() int {
	return m.focusedPanel
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	width := m.layout.TotalWidth()
	dims := m.layout.Calculate()

	var body string
	switch m.view {
	case viewDetail:
		body = renderDetail(m.agent(m.detailAgent), m.detailEvents, m.detailScroll, width, m.layout.FullHeight()-3)
	case viewBoards:
		body = renderBoards(m.snap.Boards, m.boardCursor, m.snap.Loading, m.snap.NeedsBoard, width, m.layout.FullHeight()-3)
	default:
		items := renderItems(m.snap, m.itemCursor, m.focusedPanel == PanelItems, dims.ItemsWidth, dims.ContentHeight)
		agents := renderAgents(m.snap, m.agentCursor, m.focusedPanel == PanelAgents, dims.AgentsWidth, dims.ContentHeight)
		body = lipgloss.JoinHorizontal(lipgloss.Top, items, agents) + "\n" +
			renderChat(m.snap.Chat, m.snap.Waiting, width, dims.ChatHeight)
	}

	return m.renderHeader() + "\n" + body + "\n" + m.renderInput(width) + "\n" +
		renderFooter(m.snap.Flash, m.view, m.typing)
}

func (m *Model) renderHeader() string {
	mode := manualBadge.Render("MANUAL")
	if m.snap.AutoMode {
		mode = autoBadge.Render("AUTO")
	}
	busy := 0
	for _, a := range m.snap.Agents {
		if a.Busy() {
			busy++
		}
	}
	counts := hintStyle.Render(strings.Join([]string{
		plural(len(m.snap.Items), "item"),
		plural(busy, "busy agent"),
	}, separatorStyle.Render(" · ")))
	return titleStyle.Render("work") + " " + mode + " " + counts
}

func (m *Model) renderInput(width int) string {
	box := panelStyle.Width(max(width-2, 1))
	if m.typing {
		box = focusedPanelStyle.Width(max(width-2, 1))
	}
	return box.Render(m.input.View())
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
