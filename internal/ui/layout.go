package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-center/internal/theme"
)

// Layout manages the terminal frame: header with the bell, content area and
// status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// RenderHeader renders the top bar: title on the left, then the sync status
// and the bell on the right.
func (l Layout) RenderHeader(title, syncStatus, bell string) string {
	titleRendered := theme.HeaderStyle.Render(title)
	statusRendered := theme.HeaderStyle.Render(syncStatus)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(statusRendered) -
		lipgloss.Width(bell)
	if gap < 0 {
		gap = 0
	}

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(theme.HeaderStyle.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		statusRendered,
		bell,
	)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(theme.StatusBarStyle.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// PlaceDropdown pins panel to the top-right corner of the content area,
// over an empty background.
func (l Layout) PlaceDropdown(panel string) string {
	return lipgloss.Place(
		l.ContentWidth(),
		l.ContentHeight(),
		lipgloss.Right,
		lipgloss.Top,
		panel,
	)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	content = lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}
