// Package command is the ":" palette. Input is parsed into a Command and
// handed to the parent; unknown names are reported inline.
package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-center/internal/theme"
)

// Command names understood by the app.
const (
	Refresh  = "refresh"
	MarkAll  = "markall"
	Prefs    = "prefs"
	Group    = "group"
	Clear    = "clear"
	Unread   = "unread"
	Category = "category"
	Priority = "priority"
	Open     = "open"
	Help     = "help"
	Quit     = "quit"
)

// Names lists the commands in the order they are suggested.
var Names = []string{Refresh, MarkAll, Prefs, Group, Clear, Unread, Category, Priority, Open, Help, Quit}

var aliases = map[string]string{
	"r":           Refresh,
	"q":           Quit,
	"readall":     MarkAll,
	"settings":    Prefs,
	"preferences": Prefs,
}

// Command is a parsed palette entry.
type Command struct {
	Name string
	Args []string
}

// Arg returns the i-th argument or "".
func (c Command) Arg(i int) string {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return ""
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg Command

// Parse splits input into a command and its arguments.
func Parse(input string) (Command, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	name := strings.ToLower(fields[0])
	if full, ok := aliases[name]; ok {
		name = full
	}
	for _, n := range Names {
		if n == name {
			return Command{Name: name, Args: fields[1:]}, nil
		}
	}
	return Command{}, fmt.Errorf("unknown command %q", fields[0])
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	err    error
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(Names)
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		raw := strings.TrimSpace(m.input.Value())
		if raw == "" {
			return m, nil
		}
		c, err := Parse(raw)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.input.Reset()
		return m, func() tea.Msg {
			return CommandMsg(c)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{titleStyle.Render("Command Palette"), m.input.View()}
	if m.err != nil {
		parts = append(parts, theme.ErrorStyle.Render(m.err.Error()))
	}
	parts = append(parts, theme.HelpStyle.Render(strings.Join(Names, " · ")))

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	m.err = nil
	m.input.Reset()
	return m.input.Focus()
}
