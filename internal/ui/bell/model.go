// Package bell renders the unread badge in the header.
package bell

import (
	"strconv"

	"github.com/nhle/notification-center/internal/theme"
)

// maxShown is the largest count displayed verbatim.
const maxShown = 99

// BadgeLabel formats an unread count for the badge. Zero and negative
// counts produce no badge; counts above 99 collapse to "99+".
func BadgeLabel(n int) string {
	switch {
	case n <= 0:
		return ""
	case n > maxShown:
		return strconv.Itoa(maxShown) + "+"
	default:
		return strconv.Itoa(n)
	}
}

// Model is the bell in the header. The dropdown it toggles is owned by the
// parent; the bell only tracks whether it is open.
type Model struct {
	count int
	open  bool
}

// New creates a closed bell with no unread items.
func New() Model {
	return Model{}
}

// SetCount updates the badge count.
func (m *Model) SetCount(n int) {
	m.count = n
}

// Count returns the current badge count.
func (m Model) Count() int {
	return m.count
}

// Toggle flips the open state and reports the new value.
func (m *Model) Toggle() bool {
	m.open = !m.open
	return m.open
}

// Close marks the dropdown closed.
func (m *Model) Close() {
	m.open = false
}

// IsOpen reports whether the dropdown is open.
func (m Model) IsOpen() bool {
	return m.open
}

// View renders the bell with its badge.
func (m Model) View() string {
	icon := " 🔔"
	if m.open {
		icon = " 🔔▾"
	}
	label := BadgeLabel(m.count)
	if label == "" {
		return theme.HeaderStyle.Render(icon)
	}
	return theme.HeaderStyle.Render(icon) + theme.BadgeStyle.Render(label)
}
