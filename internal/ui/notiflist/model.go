// Package notiflist is the full notification list: filters, optional date
// grouping and per-item actions.
package notiflist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
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

// Store is the part of the notification store the list uses.
type Store interface {
	FetchNotifications(ctx context.Context, f model.Filter, opts ...notify.FetchOption) error
	MarkAsRead(ctx context.Context, id string) error
	MarkAsUnread(ctx context.Context, id string) error
	ArchiveNotification(ctx context.Context, id string) error
	DeleteNotification(ctx context.Context, id string) error
	MarkAllAsRead(ctx context.Context) error
	Snapshot() notify.Snapshot
}

// Dispatcher routes a selected notification.
type Dispatcher interface {
	Dispatch(n model.Notification) (dispatch.Destination, bool)
}

// OpenedMsg is emitted after a notification was opened.
type OpenedMsg struct {
	Notification model.Notification
	Destination  dispatch.Destination
	Navigated    bool
}

type loadedMsg struct {
	gen int
	err error
}

type opDoneMsg struct {
	id  string
	op  string
	err error
}

type clearErrorMsg struct {
	seq int
}

// errorDismiss is how long a failed per-item action stays on screen.
const errorDismiss = 4 * time.Second

// categoryCycle is the order the category filter steps through.
var categoryCycle = []model.Category{
	model.CategoryPrescription,
	model.CategoryRequest,
	model.CategoryExercise,
	model.CategoryChat,
	model.CategoryAppointment,
	model.CategoryPainReport,
	model.CategoryNewPatientRequest,
	model.CategorySystem,
}

// Options configures the list.
type Options struct {
	Limit       int
	GroupByDate bool
}

// Model is the full list view.
type Model struct {
	list  list.Model
	store Store
	disp  Dispatcher
	keys  *keys.KeyMap
	now   func() time.Time

	filter  model.Filter
	group   bool
	pending map[string]bool

	loading bool
	err     error
	gen     int
	cancel  context.CancelFunc

	transient    string
	transientSeq int

	width  int
	height int
}

// New creates the list view.
func New(s Store, d Dispatcher, k *keys.KeyMap, opts Options, width, height int) Model {
	m := Model{
		store:   s,
		disp:    d,
		keys:    k,
		now:     time.Now,
		filter:  model.Filter{IsArchived: model.Ptr(false), Limit: opts.Limit},
		group:   opts.GroupByDate,
		pending: make(map[string]bool),
		width:   width,
		height:  height,
	}

	l := list.New([]list.Item{}, item.Delegate{Now: m.now}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle
	m.list = l
	return m
}

// Init fetches the first page.
func (m *Model) Init() tea.Cmd {
	return m.Load()
}

// SetClock replaces the reference time used for ages and date groups.
func (m *Model) SetClock(now func() time.Time) {
	m.now = now
	m.list.SetDelegate(item.Delegate{Now: now})
}

// Filter returns the active query.
func (m Model) Filter() model.Filter { return m.filter }

// Load refetches with the current filter. A previous in-flight load from
// this view is cancelled.
func (m *Model) Load() tea.Cmd {
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.gen++
	m.loading = true

	gen := m.gen
	s := m.store
	f := m.filter
	return func() tea.Msg {
		return loadedMsg{gen: gen, err: s.FetchNotifications(ctx, f)}
	}
}

// Stop cancels any in-flight load; its result will not be applied.
func (m *Model) Stop() {
	m.gen++
	m.loading = false
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// Update handles messages for the list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		m.cancel = nil
		m.err = nil
		if msg.err != nil && !errors.Is(msg.err, notify.ErrSuperseded) && !errors.Is(msg.err, context.Canceled) {
			m.err = msg.err
		}
		return m, m.Rebuild()

	case opDoneMsg:
		delete(m.pending, msg.id)
		cmd := m.Rebuild()
		if msg.err == nil {
			return m, cmd
		}
		m.transientSeq++
		seq := m.transientSeq
		m.transient = fmt.Sprintf("Couldn't %s. Try again.", opLabel(msg.op))
		return m, tea.Batch(cmd, tea.Tick(errorDismiss, func(time.Time) tea.Msg {
			return clearErrorMsg{seq: seq}
		}))

	case clearErrorMsg:
		if msg.seq == m.transientSeq {
			m.transient = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		n, ok := m.Selected()
		if !ok {
			return m, nil
		}
		dest, navigated := m.disp.Dispatch(n)
		return m, func() tea.Msg {
			return OpenedMsg{Notification: n, Destination: dest, Navigated: navigated}
		}

	case key.Matches(msg, m.keys.ToggleRead):
		n, ok := m.Selected()
		if !ok {
			return m, nil
		}
		if n.IsRead {
			return m.runOp(n.ID, "mark_unread", m.store.MarkAsUnread)
		}
		return m.runOp(n.ID, "mark_read", m.store.MarkAsRead)

	case key.Matches(msg, m.keys.Archive):
		if n, ok := m.Selected(); ok {
			return m.runOp(n.ID, "archive", m.store.ArchiveNotification)
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if n, ok := m.Selected(); ok {
			return m.runOp(n.ID, "delete", m.store.DeleteNotification)
		}
		return m, nil

	case key.Matches(msg, m.keys.MarkAll):
		return m.runOp("", "mark_all_read", func(ctx context.Context, _ string) error {
			return m.store.MarkAllAsRead(ctx)
		})

	case key.Matches(msg, m.keys.GroupByDate):
		return m, m.ToggleGroup()

	case key.Matches(msg, m.keys.FilterCategory):
		return m, m.SetCategory(nextCategory(m.filter.Category))

	case key.Matches(msg, m.keys.FilterPriority):
		return m, m.SetPriority(nextPriority(m.filter.Priority))

	case key.Matches(msg, m.keys.FilterRead):
		return m, m.SetReadState(nextReadState(m.filter.IsRead))

	case key.Matches(msg, m.keys.ClearFilters):
		return m, m.ClearFilters()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Load()

	case key.Matches(msg, m.keys.Down):
		m.list.CursorDown()
		m.skipHeaders(true)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.list.CursorUp()
		m.skipHeaders(false)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// ToggleGroup switches date grouping on or off.
func (m *Model) ToggleGroup() tea.Cmd {
	m.group = !m.group
	return m.Rebuild()
}

// SetCategory filters by c, or clears the category filter when c is nil.
func (m *Model) SetCategory(c *model.Category) tea.Cmd {
	m.filter.Category = classify.CanonicalFilter(model.Filter{Category: c}).Category
	return m.Load()
}

// SetPriority filters by p, or clears the priority filter when p is nil.
func (m *Model) SetPriority(p *model.Priority) tea.Cmd {
	m.filter.Priority = classify.CanonicalFilter(model.Filter{Priority: p}).Priority
	return m.Load()
}

// SetReadState filters by read state; nil shows both.
func (m *Model) SetReadState(read *bool) tea.Cmd {
	m.filter.IsRead = read
	return m.Load()
}

// ClearFilters drops every filter and reloads.
func (m *Model) ClearFilters() tea.Cmd {
	m.filter.Category, m.filter.Priority, m.filter.IsRead = nil, nil, nil
	return m.Load()
}

// runOp starts a per-item mutation unless one is already in flight for id.
func (m Model) runOp(id, op string, call func(context.Context, string) error) (Model, tea.Cmd) {
	if m.pending[id] {
		return m, nil
	}
	m.pending[id] = true
	cmd := m.Rebuild()
	return m, tea.Batch(cmd, func() tea.Msg {
		return opDoneMsg{id: id, op: op, err: call(context.Background(), id)}
	})
}

// Selected returns the notification under the cursor.
func (m Model) Selected() (model.Notification, bool) {
	it, ok := m.list.SelectedItem().(item.Item)
	if !ok {
		return model.Notification{}, false
	}
	return it.N, true
}

// Rebuild refreshes the rows from the store snapshot.
func (m *Model) Rebuild() tea.Cmd {
	snap := m.store.Snapshot()
	view := m.filter
	view.IsRead = nil
	rows := classify.FilterBy(snap.Notifications, view)

	var items []list.Item
	if m.group {
		groups := classify.GroupByDate(rows, m.now())
		for _, b := range classify.Buckets {
			members := groups.Get(b)
			if len(members) == 0 {
				continue
			}
			items = append(items, item.Header{Bucket: b, Count: len(members)})
			for _, n := range members {
				items = append(items, item.Item{N: n, Pending: m.pending[n.ID]})
			}
		}
	} else {
		items = make([]list.Item, len(rows))
		for i, n := range rows {
			items[i] = item.Item{N: n, Pending: m.pending[n.ID]}
		}
	}

	cmd := m.list.SetItems(items)
	m.skipHeaders(true)
	return cmd
}

// skipHeaders moves the cursor off a header row.
func (m *Model) skipHeaders(down bool) {
	for i := 0; i < len(m.list.Items()); i++ {
		if _, ok := m.list.SelectedItem().(item.Header); !ok {
			return
		}
		before := m.list.Index()
		if down {
			m.list.CursorDown()
		} else {
			m.list.CursorUp()
		}
		if m.list.Index() == before {
			// At an edge: reverse direction.
			down = !down
		}
	}
}

// FilterSummary describes the active filters for the status bar.
func (m Model) FilterSummary() string {
	var parts []string
	if m.filter.Category != nil {
		parts = append(parts, "category:"+string(*m.filter.Category))
	}
	if m.filter.Priority != nil {
		parts = append(parts, "priority:"+string(*m.filter.Priority))
	}
	if m.filter.IsRead != nil {
		if *m.filter.IsRead {
			parts = append(parts, "read")
		} else {
			parts = append(parts, "unread")
		}
	}
	if m.group {
		parts = append(parts, "grouped")
	}
	return strings.Join(parts, " · ")
}

// View renders the list view.
func (m Model) View() string {
	var sections []string

	if s := m.FilterSummary(); s != "" {
		sections = append(sections, theme.HelpStyle.Render(" "+s))
	}
	if m.err != nil {
		sections = append(sections, theme.ErrorStyle.Render(" Couldn't load notifications. Press r to try again."))
	}

	switch {
	case len(m.list.Items()) == 0 && m.loading:
		sections = append(sections, m.centered("Loading…"))
	case len(m.list.Items()) == 0 && m.err == nil:
		if m.FilterSummary() != "" && (m.filter.Category != nil || m.filter.Priority != nil || m.filter.IsRead != nil) {
			sections = append(sections, m.centered("No notifications match these filters.\nPress 0 to clear them."))
		} else {
			sections = append(sections, m.centered("No notifications yet."))
		}
	case len(m.list.Items()) > 0:
		sections = append(sections, m.list.View())
	}

	if m.transient != "" {
		sections = append(sections, theme.ErrorStyle.Render(" "+m.transient))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) centered(text string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(max(1, m.height-4)).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(text)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

func opLabel(op string) string {
	switch op {
	case "mark_read":
		return "mark as read"
	case "mark_unread":
		return "mark as unread"
	case "mark_all_read":
		return "mark all as read"
	default:
		return op
	}
}

func nextCategory(cur *model.Category) *model.Category {
	if cur == nil {
		return model.Ptr(categoryCycle[0])
	}
	for i, c := range categoryCycle {
		if c == *cur && i+1 < len(categoryCycle) {
			return model.Ptr(categoryCycle[i+1])
		}
	}
	return nil
}

func nextPriority(cur *model.Priority) *model.Priority {
	if cur == nil {
		return model.Ptr(model.Priorities[0])
	}
	for i, p := range model.Priorities {
		if p == *cur && i+1 < len(model.Priorities) {
			return model.Ptr(model.Priorities[i+1])
		}
	}
	return nil
}

// nextReadState cycles all → unread → read → all.
func nextReadState(cur *bool) *bool {
	switch {
	case cur == nil:
		return model.Ptr(false)
	case !*cur:
		return model.Ptr(true)
	default:
		return nil
	}
}
