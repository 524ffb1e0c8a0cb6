package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/notification-center/internal/dispatch"
	"github.com/nhle/notification-center/internal/keys"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/notify"
	appsync "github.com/nhle/notification-center/internal/sync"
	"github.com/nhle/notification-center/internal/theme"
	"github.com/nhle/notification-center/internal/timefmt"
	"github.com/nhle/notification-center/internal/ui"
	"github.com/nhle/notification-center/internal/ui/bell"
	"github.com/nhle/notification-center/internal/ui/command"
	"github.com/nhle/notification-center/internal/ui/destination"
	"github.com/nhle/notification-center/internal/ui/dropdown"
	helpview "github.com/nhle/notification-center/internal/ui/help"
	"github.com/nhle/notification-center/internal/ui/notiflist"
	"github.com/nhle/notification-center/internal/ui/prefs"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDestination
	ViewPrefs
	ViewHelp
	ViewCommand
)

// flashDuration is how long a status-bar notice stays up.
const flashDuration = 3 * time.Second

type commandDoneMsg struct {
	notice string
	err    error
}

type clearFlashMsg struct {
	seq int
}

// Deps are the collaborators the root model drives.
type Deps struct {
	Store      *notify.Store
	Dispatcher *dispatch.Dispatcher
	Router     *Router
	Poller     *appsync.Poller
	User       model.User
	Display    model.DisplayConfig
	Logger     *zap.Logger
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and the bell overlay.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	store  *notify.Store
	router *Router
	poller *appsync.Poller
	user   model.User
	logger *zap.Logger

	bell        bell.Model
	dropdown    dropdown.Model
	list        notiflist.Model
	dest        destination.Model
	prefsView   prefs.Model
	helpView    helpview.Model
	commandView command.Model

	events      <-chan notify.Event
	unsubscribe func()

	ready            bool
	authErrorMessage string
	flash            string
	flashIsError     bool
	flashSeq         int
}

// New creates the root model. The returned model is subscribed to the
// store; the subscription ends when the program quits.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dismiss := time.Duration(d.Display.SuccessDismissSec) * time.Second
	events, unsubscribe := d.Store.Subscribe()

	return Model{
		currentView: ViewList,
		keys:        k,
		store:       d.Store,
		router:      d.Router,
		poller:      d.Poller,
		user:        d.User,
		logger:      logger,
		bell:        bell.New(),
		dropdown:    dropdown.New(d.Store, d.Dispatcher, k, d.Display.DropdownLimit),
		list: notiflist.New(d.Store, d.Dispatcher, k, notiflist.Options{
			Limit:       d.Display.ListLimit,
			GroupByDate: d.Display.GroupByDate,
		}, 80, 24),
		dest:        destination.New(k, 80, 24),
		prefsView:   prefs.New(d.Store, dismiss, 80, 24),
		helpView:    helpview.New(k, command.Names, 80, 24),
		commandView: command.New(80, 24),
		events:      events,
		unsubscribe: unsubscribe,
	}
}

// Init loads the list, starts polling and listens for store changes.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.list.Init(), waitForEvent(m.events)}
	if m.poller != nil {
		cmds = append(cmds, m.poller.Start())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.list.SetSize(w, h)
		m.dest.SetSize(w, h)
		m.prefsView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case storeEventMsg:
		return m.handleStoreEvent(msg.event)

	case eventsClosedMsg:
		return m, nil

	case appsync.SyncResultMsg:
		if msg.AuthError != nil {
			m.authErrorMessage = msg.AuthError.Message
		} else if msg.Error == nil {
			m.authErrorMessage = ""
		}
		m.bell.SetCount(m.store.UnreadCount())
		return m, m.poller.WaitForNextResult()

	case dropdown.ClosedMsg:
		m.bell.Close()
		return m, m.list.Load()

	case dropdown.DispatchedMsg:
		m.bell.Close()
		if msg.Navigated {
			m.showDestination(msg.Destination, msg.Notification)
		}
		return m, m.list.Load()

	case notiflist.OpenedMsg:
		if msg.Navigated {
			m.showDestination(msg.Destination, msg.Notification)
		}
		return m, nil

	case destination.BackMsg:
		if prev, ok := m.router.Back(); ok {
			m.dest.Show(prev, nil)
			return m, nil
		}
		m.currentView = ViewList
		return m, m.list.Load()

	case prefs.ClosedMsg:
		m.currentView = ViewList
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(command.Command(msg))

	case commandDoneMsg:
		if msg.err != nil {
			return m, m.setFlash(msg.notice+" failed. Try again.", true)
		}
		return m, m.setFlash(msg.notice, false)

	case clearFlashMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if m.dropdown.IsOpen() {
			var cmd tea.Cmd
			m.dropdown, cmd = m.dropdown.Update(msg)
			return m, cmd
		}
		if m, cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
		return m.updateActiveView(msg)
	}

	return m.broadcast(msg)
}

// broadcast delivers async results to every component that may own them,
// not just the active view.
func (m Model) broadcast(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.dropdown, cmd = m.dropdown.Update(msg)
	cmds = append(cmds, cmd)
	if m.currentView != ViewList {
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	}

	next, cmd := m.updateActiveView(msg)
	cmds = append(cmds, cmd)
	return next, tea.Batch(cmds...)
}

// handleGlobalKey processes keys that work outside text inputs. The bool
// reports whether the key was consumed.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	typing := m.currentView == ViewPrefs || m.currentView == ViewCommand

	switch {
	case key.Matches(msg, m.keys.Quit) && m.currentView == ViewList:
		return m, m.quit(), true

	case key.Matches(msg, m.keys.Help) && !typing:
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Command) && !typing:
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus(), true

	case key.Matches(msg, m.keys.Back) && (m.currentView == ViewCommand || m.currentView == ViewHelp):
		m.currentView = m.previousView
		return m, nil, true

	case key.Matches(msg, m.keys.Bell) && !typing:
		return m, m.toggleBell(), true

	case key.Matches(msg, m.keys.Preferences) && m.currentView == ViewList:
		return m, m.openPrefs(), true
	}
	return m, nil, false
}

// handleStoreEvent keeps the badge and the list in step with the cache.
func (m Model) handleStoreEvent(ev notify.Event) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{waitForEvent(m.events)}
	m.bell.SetCount(m.store.UnreadCount())

	switch ev.Kind {
	case notify.EventStale:
		m.logger.Debug("cache stale, refetching active view")
		if m.dropdown.IsOpen() {
			cmds = append(cmds, m.dropdown.Open())
		} else if m.currentView == ViewList {
			cmds = append(cmds, m.list.Load())
		}
	case notify.EventMutated, notify.EventConfirmed, notify.EventRolledBack:
		cmds = append(cmds, m.list.Rebuild())
	}
	return m, tea.Batch(cmds...)
}

// handleMouse closes the dropdown on a click outside it and toggles it on a
// click on the bell.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if m.onBell(msg.X, msg.Y) {
		return m, m.toggleBell()
	}
	if m.dropdown.IsOpen() && !m.insideDropdown(msg.X, msg.Y) {
		m.dropdown.Close()
		m.bell.Close()
		return m, m.list.Load()
	}
	return m, nil
}

func (m Model) onBell(x, y int) bool {
	if y >= m.layout.HeaderHeight {
		return false
	}
	return x >= m.layout.Width-lipgloss.Width(m.bell.View())
}

func (m Model) insideDropdown(x, y int) bool {
	panel := m.dropdown.View()
	top := m.layout.HeaderHeight
	left := m.layout.Width - lipgloss.Width(panel)
	return x >= left && y >= top && y < top+lipgloss.Height(panel)
}

func (m *Model) toggleBell() tea.Cmd {
	if m.bell.Toggle() {
		return m.dropdown.Open()
	}
	m.dropdown.Close()
	return m.list.Load()
}

func (m *Model) openPrefs() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewPrefs
	return m.prefsView.Start()
}

func (m *Model) showDestination(dest dispatch.Destination, from model.Notification) {
	m.dest.Show(dest, &from)
	m.previousView = ViewList
	m.currentView = ViewDestination
}

func (m *Model) setFlash(text string, isError bool) tea.Cmd {
	m.flashSeq++
	m.flash = text
	m.flashIsError = isError
	seq := m.flashSeq
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return clearFlashMsg{seq: seq}
	})
}

func (m *Model) quit() tea.Cmd {
	if m.poller != nil {
		m.poller.Stop()
	}
	m.list.Stop()
	m.dropdown.Close()
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	return tea.Quit
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.list, cmd = m.list.Update(msg)
	case ViewDestination:
		m.dest, cmd = m.dest.Update(msg)
	case ViewPrefs:
		m.prefsView, cmd = m.prefsView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.title(), m.syncStatus(), m.bell.View())
	content := m.renderContent()
	if m.dropdown.IsOpen() {
		content = m.layout.PlaceDropdown(m.dropdown.View())
	}
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

func (m Model) title() string {
	if m.user.Role == "" {
		return "Notifications"
	}
	return fmt.Sprintf("Notifications · %s", m.user.Role)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.list.View()
	case ViewDestination:
		return m.dest.View()
	case ViewPrefs:
		return m.prefsView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the poller state.
func (m Model) syncStatus() string {
	if m.poller == nil {
		return ""
	}
	st := m.poller.Status()
	switch st.State {
	case appsync.SyncRunning:
		return "syncing "
	case appsync.SyncError:
		return "offline "
	}
	if st.LastSync.IsZero() {
		return ""
	}
	return "updated " + timefmt.Relative(st.LastSync, time.Now()) + " "
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.flash != "" {
		if m.flashIsError {
			return theme.ErrorStyle.Render(m.flash)
		}
		return m.flash
	}
	if m.authErrorMessage != "" && m.currentView == ViewList {
		return m.authErrorMessage
	}
	if m.dropdown.IsOpen() {
		return "j/k move | enter open | A mark all read | esc close"
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewDestination:
		return "esc back | j/k scroll"
	case ViewPrefs:
		return "tab next | enter submit | esc cancel"
	default:
		if s := m.list.FilterSummary(); s != "" {
			return s + " | 0 clear"
		}
		return "q quit | ? help | b bell | m read/unread | a archive | d delete | s prefs"
	}
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(c command.Command) tea.Cmd {
	switch c.Name {
	case command.Refresh:
		if m.poller != nil {
			m.poller.Refresh()
		}
		return m.list.Load()
	case command.MarkAll:
		s := m.store
		return func() tea.Msg {
			return commandDoneMsg{notice: "Mark all as read", err: s.MarkAllAsRead(context.Background())}
		}
	case command.Prefs:
		return m.openPrefs()
	case command.Group:
		m.currentView = ViewList
		return m.list.ToggleGroup()
	case command.Clear:
		m.currentView = ViewList
		return m.list.ClearFilters()
	case command.Unread:
		m.currentView = ViewList
		return m.list.SetReadState(model.Ptr(false))
	case command.Category:
		m.currentView = ViewList
		if c.Arg(0) == "" {
			return m.list.SetCategory(nil)
		}
		return m.list.SetCategory(model.Ptr(model.Category(c.Arg(0))))
	case command.Priority:
		m.currentView = ViewList
		if c.Arg(0) == "" {
			return m.list.SetPriority(nil)
		}
		return m.list.SetPriority(model.Ptr(model.Priority(c.Arg(0))))
	case command.Open:
		m.bell.Close()
		return m.toggleBell()
	case command.Help:
		m.currentView = ViewHelp
		return nil
	case command.Quit:
		return m.quit()
	default:
		return nil
	}
}
