package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"simply/internal/config"
	"simply/internal/engine"
	"simply/internal/task"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	headerStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	lateStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	imminentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	completedStyle = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	movedStyle     = lipgloss.NewStyle().Reverse(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle      = lipgloss.NewStyle().Faint(true)
)

// eventMsg carries one engine event into the update loop.
type eventMsg struct {
	event engine.Event
}

type Model struct {
	engine   *engine.Engine
	keys     config.Keymap
	events   <-chan engine.Event
	input    textinput.Model
	status   string
	failed   bool
	moved    *engine.TaskMoved
	quitting bool
}

// Forward returns a listener that hands events to the UI without ever
// blocking the engine. Events are dropped when ch is full; the next
// render reads the engine anyway.
func Forward(ch chan<- engine.Event) engine.Listener {
	return func(ev engine.Event) {
		select {
		case ch <- ev:
		default:
		}
	}
}

func NewModel(e *engine.Engine, keys config.Keymap, events <-chan engine.Event) Model {
	ti := textinput.New()
	ti.Placeholder = "add NAME; DATE; START; END #tag"
	ti.CharLimit = 256
	ti.Width = 60
	ti.Prompt = "> "
	ti.Focus()

	return Model{
		engine: e,
		keys:   keys,
		events: events,
		input:  ti,
		status: "Type a command and press " + keys.Submit + ".",
	}
}

func Run(e *engine.Engine, keys config.Keymap, events <-chan engine.Event) error {
	program := tea.NewProgram(NewModel(e, keys, events), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.events))
}

func waitForEvent(ch <-chan engine.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg{event: ev}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case eventMsg:
		if moved, ok := msg.event.(engine.TaskMoved); ok {
			m.moved = &moved
		}
		return m, waitForEvent(m.events)
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", m.keys.Quit:
		m.quitting = true
		return m, tea.Quit
	case m.keys.Submit:
		return m.submit()
	case m.keys.Clear:
		m.input.Reset()
		m.status = ""
		m.failed = false
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}
	if line == "exit" || line == "bye" {
		m.quitting = true
		return m, tea.Quit
	}
	m.moved = nil
	cmd, err := Parse(line, m.engine.Config())
	if err != nil {
		m.status, m.failed = err.Error(), true
		return m, nil
	}
	res, err := m.engine.Execute(cmd)
	if err != nil {
		m.status, m.failed = err.Error(), true
		return m, nil
	}
	m.status, m.failed = res.Message, false
	m.input.Reset()
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("simply"))
	b.WriteString("\n\n")
	for _, c := range task.Categories {
		b.WriteString(m.renderCategory(c))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	if m.failed {
		b.WriteString(errorStyle.Render(m.status))
	} else {
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(renderHelp(m.keys)))
	return b.String()
}

func (m Model) renderCategory(c task.Category) string {
	tasks := m.engine.Visible(c)
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%ss (%d)", capitalize(c.String()), len(tasks))))
	b.WriteString("\n")
	if len(tasks) == 0 {
		b.WriteString(helpStyle.Render("  nothing here"))
		b.WriteString("\n")
		return b.String()
	}
	for i, t := range tasks {
		line := fmt.Sprintf("%s%d. %s", c.Letter(), i+1, t)
		b.WriteString("  ")
		b.WriteString(m.styleFor(c, i, t).Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) styleFor(c task.Category, i int, t task.Task) lipgloss.Style {
	var s lipgloss.Style
	switch {
	case t.Completed:
		s = completedStyle
	case t.Overdue == task.OverdueLate:
		s = lateStyle
	case t.Overdue == task.OverdueImminent:
		s = imminentStyle
	default:
		s = lipgloss.NewStyle()
	}
	if m.moved != nil && m.moved.Category == c && m.moved.Index == i {
		s = s.Inherit(movedStyle)
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s run • %s clear • %s quit • add/delete/edit/done/find/list/undo/redo/storage",
		k.Submit, k.Clear, k.Quit)
}
