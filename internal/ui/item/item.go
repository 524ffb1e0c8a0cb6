// Package item renders a single notification, both standalone (dropdown) and
// as a bubbles/list delegate (full list).
package item

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/nhle/notification-center/internal/classify"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/theme"
	"github.com/nhle/notification-center/internal/timefmt"
)

// Item wraps a notification so it can be used in a bubbles/list. Pending is
// set while a per-item operation is in flight.
type Item struct {
	N       model.Notification
	Pending bool
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string { return i.N.Title }

// Header is a date-bucket heading in grouped lists. It is not selectable.
type Header struct {
	Bucket classify.Bucket
	Count  int
}

// FilterValue returns an empty string so headers never match a filter.
func (h Header) FilterValue() string { return "" }

// recentWindow is how long an unread notification carries the "new" tag.
const recentWindow = 5 * time.Minute

// Options controls how a notification is drawn.
type Options struct {
	Selected bool
	Pending  bool
	Width    int
	Now      time.Time
	// Compact drops the message line.
	Compact bool
}

// Render draws n. The first line carries the unread marker, icon, title,
// priority and age; the second the message.
func Render(n model.Notification, o Options) string {
	now := o.Now
	if now.IsZero() {
		now = time.Now()
	}

	marker := " "
	if n.Unread() {
		marker = theme.UnreadDot
	}

	icon := theme.Icon(classify.IconFor(n.Category))
	token := classify.PriorityStyleClass(n.Priority)
	pri := theme.PriorityStyle(token).Render(theme.PriorityLabel(token))

	titleStyle := theme.DimmedStyle
	if !n.IsRead {
		titleStyle = theme.UnreadStyle
	}
	title := n.Title
	elevated := classify.IsElevated(n)
	if elevated {
		titleStyle = titleStyle.Foreground(theme.ColorRed)
	}

	var tags []string
	if elevated && classify.IsHighSalience(n.Category) {
		tags = append(tags, theme.ElevatedStyle.Render("!"))
	}
	if classify.RequiresAction(n) {
		tags = append(tags, theme.ElevatedStyle.Render("action required"))
	}
	if exp, ok := n.ExpiresAt(); ok && timefmt.IsExpired(exp, now) {
		tags = append(tags, theme.DimmedStyle.Render("expired"))
	}
	if n.IsArchived {
		tags = append(tags, theme.DimmedStyle.Render("archived"))
	}
	if !n.IsRead && timefmt.IsRecent(n.CreatedAt, now, recentWindow) {
		tags = append(tags, theme.SuccessStyle.Render("new"))
	}
	if o.Pending {
		tags = append(tags, theme.HelpStyle.Render("…"))
	}

	age := theme.DimmedStyle.Render(timefmt.Relative(n.CreatedAt, now))

	head := fmt.Sprintf("%s %s %s %s", marker, icon, pri, titleStyle.Render(title))
	if len(tags) > 0 {
		head += " " + strings.Join(tags, " ")
	}
	head += "  " + age

	lines := []string{fit(head, o.Width)}
	if !o.Compact {
		msg := theme.DimmedStyle.Render("    " + n.Message)
		lines = append(lines, fit(msg, o.Width))
	}
	out := strings.Join(lines, "\n")

	if o.Selected {
		return theme.SelectedItemStyle.Render(out)
	}
	return theme.ListItemStyle.Render(out)
}

// RenderHeader draws a date-bucket heading.
func RenderHeader(h Header, width int) string {
	label := fmt.Sprintf("%s (%d)", h.Bucket.Label(), h.Count)
	rule := theme.DimmedStyle.Render(strings.Repeat("─", max(0, min(width-4, 40))))
	return theme.GroupHeaderStyle.UnsetMarginTop().Render(label) + "\n " + rule
}

func fit(s string, width int) string {
	if width <= 4 {
		return s
	}
	return ansi.Truncate(s, width-4, "…")
}

// Delegate implements list.ItemDelegate for notifications and headers.
type Delegate struct {
	// Now supplies the reference time for relative ages.
	Now func() time.Time
}

// Height returns the number of lines each item takes.
func (d Delegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d Delegate) Spacing() int { return 1 }

// Update handles per-item messages (none).
func (d Delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list entry.
func (d Delegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	width := m.Width()
	switch it := li.(type) {
	case Header:
		fmt.Fprint(w, RenderHeader(it, width))
	case Item:
		now := time.Now()
		if d.Now != nil {
			now = d.Now()
		}
		fmt.Fprint(w, Render(it.N, Options{
			Selected: index == m.Index(),
			Pending:  it.Pending,
			Width:    width,
			Now:      now,
		}))
	}
}
