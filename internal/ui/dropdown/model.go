// Package dropdown is the bell's preview panel: the newest few active
// notifications, refetched every time it opens.
package dropdown

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-center/internal/classify"
	"github.com/nhle/notification-center/internal/dispatch"
	"github.com/nhle/notification-center/internal/keys"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/notify"
	"github.com/nhle/notification-center/internal/theme"
	"github.com/nhle/notification-center/internal/ui/item"
)

// Store is the part of the notification store the dropdown uses.
type Store interface {
	FetchNotifications(ctx context.Context, f model.Filter, opts ...notify.FetchOption) error
	MarkAllAsRead(ctx context.Context) error
	Snapshot() notify.Snapshot
}

// Dispatcher routes a clicked notification.
type Dispatcher interface {
	Dispatch(n model.Notification) (dispatch.Destination, bool)
}

// ClosedMsg is emitted when the dropdown closes itself.
type ClosedMsg struct{}

// DispatchedMsg is emitted after an item was opened.
type DispatchedMsg struct {
	Notification model.Notification
	Destination  dispatch.Destination
	Navigated    bool
}

type fetchDoneMsg struct {
	gen int
	err error
}

type markAllDoneMsg struct {
	err error
}

// defaultLimit is the preview page size.
const defaultLimit = 5

// panelWidth is the dropdown's outer width.
const panelWidth = 64

// Model is the preview dropdown.
type Model struct {
	store Store
	disp  Dispatcher
	keys  *keys.KeyMap
	limit int
	now   func() time.Time

	open    bool
	loading bool
	err     error
	marking bool
	markErr error
	cursor  int

	// gen identifies the current open; results of earlier opens are
	// ignored.
	gen    int
	cancel context.CancelFunc
}

// New creates a closed dropdown showing up to limit items.
func New(s Store, d Dispatcher, k *keys.KeyMap, limit int) Model {
	if limit <= 0 {
		limit = defaultLimit
	}
	return Model{store: s, disp: d, keys: k, limit: limit, now: time.Now}
}

// Filter is the query issued on open.
func (m Model) Filter() model.Filter {
	return model.Filter{IsArchived: model.Ptr(false), Limit: m.limit}
}

// IsOpen reports whether the dropdown is showing.
func (m Model) IsOpen() bool { return m.open }

// Open shows the dropdown and fetches a fresh page.
func (m *Model) Open() tea.Cmd {
	m.open = true
	m.cursor = 0
	m.markErr = nil
	return m.fetch()
}

// Close hides the dropdown and stops its in-flight fetch from applying.
func (m *Model) Close() {
	m.open = false
	m.loading = false
	m.gen++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Model) fetch() tea.Cmd {
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.gen++
	m.loading = true
	m.err = nil

	gen := m.gen
	s := m.store
	f := m.Filter()
	return func() tea.Msg {
		return fetchDoneMsg{gen: gen, err: s.FetchNotifications(ctx, f)}
	}
}

// Update handles messages while the dropdown is open.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchDoneMsg:
		if !m.open || msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		if msg.err != nil && !errors.Is(msg.err, notify.ErrSuperseded) && !errors.Is(msg.err, context.Canceled) {
			m.err = msg.err
		}
		m.clampCursor()
		return m, nil

	case markAllDoneMsg:
		m.marking = false
		m.markErr = msg.err
		return m, nil

	case tea.KeyMsg:
		if !m.open {
			return m, nil
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Bell):
		m.Close()
		return m, func() tea.Msg { return ClosedMsg{} }

	case key.Matches(msg, m.keys.Down):
		m.cursor++
		m.clampCursor()

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Select):
		items := m.Visible()
		if m.cursor >= len(items) {
			return m, nil
		}
		n := items[m.cursor]
		m.Close()
		dest, ok := m.disp.Dispatch(n)
		return m, func() tea.Msg {
			return DispatchedMsg{Notification: n, Destination: dest, Navigated: ok}
		}

	case key.Matches(msg, m.keys.MarkAll):
		if m.marking {
			return m, nil
		}
		m.marking = true
		m.markErr = nil
		s := m.store
		return m, func() tea.Msg {
			return markAllDoneMsg{err: s.MarkAllAsRead(context.Background())}
		}

	case key.Matches(msg, m.keys.Refresh):
		if !m.loading {
			return m, m.fetch()
		}
	}
	return m, nil
}

// Visible returns the items the dropdown shows, newest first.
func (m Model) Visible() []model.Notification {
	snap := m.store.Snapshot()
	list := classify.FilterBy(snap.Notifications, model.Filter{IsArchived: model.Ptr(false)})
	if len(list) > m.limit {
		list = list[:m.limit]
	}
	return list
}

func (m *Model) clampCursor() {
	n := len(m.Visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View renders the panel.
func (m Model) View() string {
	if !m.open {
		return ""
	}

	snap := m.store.Snapshot()
	title := theme.UnreadStyle.Render("Notifications")
	if snap.UnreadCount > 0 {
		title += theme.DimmedStyle.Render(fmt.Sprintf("  %d unread", snap.UnreadCount))
	}

	body := m.renderBody()

	var footer []string
	if m.marking {
		footer = append(footer, theme.HelpStyle.Render("marking all read…"))
	}
	if m.markErr != nil {
		footer = append(footer, theme.ErrorStyle.Render("Couldn't mark all as read. A to try again."))
	}
	footer = append(footer, theme.HelpStyle.Render("enter open · A mark all read · esc close"))

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		body,
		"",
		strings.Join(footer, "\n"),
	)
	return theme.DropdownStyle.Width(panelWidth).Render(content)
}

func (m Model) renderBody() string {
	items := m.Visible()
	switch {
	case m.err != nil:
		return theme.ErrorStyle.Render("Couldn't load notifications.") + "\n" +
			theme.HelpStyle.Render("r to try again")
	case m.loading && len(items) == 0:
		return theme.DimmedStyle.Render("Loading…")
	case len(items) == 0:
		return theme.DimmedStyle.Render("You're all caught up.")
	}

	now := m.now()
	rows := make([]string, len(items))
	for i, n := range items {
		rows[i] = item.Render(n, item.Options{
			Selected: i == m.cursor,
			Width:    panelWidth - 2,
			Now:      now,
		})
	}
	if m.loading {
		rows = append(rows, theme.HelpStyle.Render("refreshing…"))
	}
	return strings.Join(rows, "\n")
}
