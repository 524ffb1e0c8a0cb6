// Package destination renders the screen a notification routed to. The
// target screens belong to other parts of the app; this view shows where
// the user landed and the state handed over.
package destination

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-center/internal/classify"
	"github.com/nhle/notification-center/internal/dispatch"
	"github.com/nhle/notification-center/internal/keys"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/theme"
	"github.com/nhle/notification-center/internal/timefmt"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// Model is the destination view component.
type Model struct {
	dest     dispatch.Destination
	from     *model.Notification
	viewport viewport.Model
	keys     *keys.KeyMap
	now      func() time.Time
	width    int
	height   int
}

// New creates a new destination view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		now:      time.Now,
		width:    width,
		height:   height,
	}
}

// Show displays dest. from is the notification that led here, if any.
func (m *Model) Show(dest dispatch.Destination, from *model.Notification) {
	m.dest = dest
	m.from = from
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Destination returns the screen being shown.
func (m Model) Destination() dispatch.Destination { return m.dest }

// Update handles messages for the destination view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back) {
		return m, func() tea.Msg { return BackMsg{} }
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the destination view.
func (m Model) View() string {
	if m.dest.Path == "" {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Nothing opened yet")
	}
	return m.viewport.View()
}

// ScreenTitle names the screen behind a route path.
func ScreenTitle(p string) string {
	base := path.Base(p)
	if base == "." || base == "/" {
		return "Home"
	}
	return strings.ToUpper(base[:1]) + base[1:]
}

func (m Model) renderContent() string {
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	row := func(label, value string) string {
		return fmt.Sprintf("%s %s", metaStyle.Render(fmt.Sprintf("%-14s", label+":")), valStyle.Render(value))
	}

	var sections []string
	sections = append(sections, titleStyle.Render(ScreenTitle(m.dest.Path)))
	sections = append(sections, row("Route", m.dest.Path))
	if id := m.dest.State.OpenPrescriptionID; id != "" {
		sections = append(sections, row("Prescription", id))
	}
	if id := m.dest.State.HighlightID; id != "" {
		sections = append(sections, row("Highlight", id))
	}

	if m.from == nil {
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	n := m.from
	sep := lipgloss.NewStyle().Foreground(theme.ColorSubtle).
		Render(strings.Repeat("─", max(min(m.width-4, 80), 1)))
	sections = append(sections, "", sep, "")
	sections = append(sections, titleStyle.Render(n.Title))
	sections = append(sections, row("Category", string(n.Category)))
	sections = append(sections, row("Priority", string(n.Priority)))
	sections = append(sections, row("Received", timefmt.Relative(n.CreatedAt, m.now())))
	if classify.RequiresAction(*n) {
		sections = append(sections, row("Status", "action required"))
	}

	metaKeys := make([]string, 0, len(n.Metadata))
	for k := range n.Metadata {
		metaKeys = append(metaKeys, k)
	}
	sort.Strings(metaKeys)
	for _, k := range metaKeys {
		sections = append(sections, row(k, fmt.Sprint(n.Metadata[k])))
	}

	if n.Message != "" {
		sections = append(sections, "", n.Message)
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}
