package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-center/internal/classify"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// Apply forces the light or dark palette. Any other name keeps terminal
// detection.
func Apply(name string) {
	switch name {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	}
}

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps a bordered content area.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// DropdownStyle frames the bell preview.
var DropdownStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBlue)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// GroupHeaderStyle labels a date bucket in grouped lists.
var GroupHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGray).
	PaddingLeft(1).
	MarginTop(1)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DimmedStyle renders read notifications.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// UnreadStyle renders the title of unread notifications.
var UnreadStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite)

// UnreadDot marks unread notifications.
var UnreadDot = lipgloss.NewStyle().
	Foreground(ColorBlue).
	Render("●")

// ElevatedStyle marks high-salience notifications.
var ElevatedStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// BadgeStyle renders the unread count on the bell.
var BadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FFFFFF")).
	Background(ColorRed).
	Padding(0, 1)

// ErrorStyle renders inline error messages.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorRed)

// SuccessStyle renders confirmation messages.
var SuccessStyle = lipgloss.NewStyle().
	Foreground(ColorGreen)

// PriorityStyle returns the color for a priority style token.
func PriorityStyle(token classify.StyleToken) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch token {
	case classify.StyleUrgent:
		return base.Foreground(ColorRed)
	case classify.StyleHigh:
		return base.Foreground(ColorOrange)
	case classify.StyleLow:
		return base.Foreground(ColorGray)
	default:
		return base.Foreground(ColorYellow)
	}
}

// PriorityLabel is the short tag shown for a style token.
func PriorityLabel(token classify.StyleToken) string {
	switch token {
	case classify.StyleUrgent:
		return "URG"
	case classify.StyleHigh:
		return "HI"
	case classify.StyleLow:
		return "LO"
	default:
		return "MED"
	}
}

// Icon returns the terminal glyph for an icon key.
func Icon(key classify.IconKey) string {
	switch key {
	case classify.IconPill:
		return "💊"
	case classify.IconInbox:
		return "📥"
	case classify.IconActivity:
		return "🏃"
	case classify.IconInfo:
		return "ℹ"
	case classify.IconMessage:
		return "💬"
	case classify.IconCalendar:
		return "📅"
	case classify.IconAlert:
		return "⚠"
	case classify.IconUserPlus:
		return "👤"
	default:
		return "🔔"
	}
}
