package dropdown

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notification-center/internal/dispatch"
	"github.com/nhle/notification-center/internal/keys"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/notify"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	mu       sync.Mutex
	items    []model.Notification
	fetchErr error
	filters  []model.Filter
	ctxs     []context.Context
	marked   int
}

func (f *fakeStore) FetchNotifications(ctx context.Context, flt model.Filter, _ ...notify.FetchOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, flt)
	f.ctxs = append(f.ctxs, ctx)
	return f.fetchErr
}

func (f *fakeStore) MarkAllAsRead(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked++
	for i := range f.items {
		f.items[i].IsRead = true
	}
	return nil
}

func (f *fakeStore) Snapshot() notify.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Notification, len(f.items))
	copy(out, f.items)
	unread := 0
	for _, n := range out {
		if n.Unread() {
			unread++
		}
	}
	return notify.Snapshot{Notifications: out, UnreadCount: unread, Fetched: true}
}

type fakeDispatcher struct {
	got []model.Notification
}

func (d *fakeDispatcher) Dispatch(n model.Notification) (dispatch.Destination, bool) {
	d.got = append(d.got, n)
	return dispatch.Destination{Path: "/patient/chat"}, true
}

func seeded(n int) *fakeStore {
	fs := &fakeStore{}
	for i := 0; i < n; i++ {
		fs.items = append(fs.items, model.Notification{
			ID:        fmt.Sprintf("n-%d", i),
			Category:  model.CategoryChat,
			Priority:  model.PriorityMedium,
			Title:     fmt.Sprintf("Title %d", i),
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		})
	}
	return fs
}

func newModel(fs *fakeStore, d *fakeDispatcher) Model {
	m := New(fs, d, keys.DefaultKeyMap(), 5)
	m.now = func() time.Time { return now }
	return m
}

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func openAndLoad(t *testing.T, m Model) Model {
	t.Helper()
	cmd := m.Open()
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	return m
}

func TestOpen_FetchesActiveTopPage(t *testing.T) {
	fs := seeded(8)
	m := openAndLoad(t, newModel(fs, &fakeDispatcher{}))

	require.Len(t, fs.filters, 1)
	f := fs.filters[0]
	require.NotNil(t, f.IsArchived)
	assert.False(t, *f.IsArchived)
	assert.Equal(t, 5, f.Limit)

	assert.Len(t, m.Visible(), 5)
	view := ansi.Strip(m.View())
	assert.Contains(t, view, "Title 0")
	assert.NotContains(t, view, "Title 5")
	assert.Contains(t, view, "8 unread")
}

func TestOpen_RefetchesEveryTime(t *testing.T) {
	fs := seeded(2)
	m := openAndLoad(t, newModel(fs, &fakeDispatcher{}))
	m.Close()
	m = openAndLoad(t, m)
	assert.Len(t, fs.filters, 2)
}

func TestClose_CancelsInFlightAndIgnoresResult(t *testing.T) {
	fs := seeded(1)
	m := newModel(fs, &fakeDispatcher{})
	cmd := m.Open()
	msg := cmd()
	m.Close()

	require.Len(t, fs.ctxs, 1)
	assert.Error(t, fs.ctxs[0].Err(), "closing cancels the fetch context")

	m, _ = m.Update(msg)
	assert.False(t, m.IsOpen())
	assert.Empty(t, m.View())
}

func TestStates(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		m := openAndLoad(t, newModel(seeded(0), &fakeDispatcher{}))
		assert.Contains(t, ansi.Strip(m.View()), "all caught up")
	})

	t.Run("loading", func(t *testing.T) {
		m := newModel(seeded(0), &fakeDispatcher{})
		m.Open()
		assert.Contains(t, ansi.Strip(m.View()), "Loading")
	})

	t.Run("error then retry", func(t *testing.T) {
		fs := seeded(1)
		fs.fetchErr = errors.New("offline")
		m := openAndLoad(t, newModel(fs, &fakeDispatcher{}))
		assert.Contains(t, ansi.Strip(m.View()), "try again")

		fs.fetchErr = nil
		m, cmd := m.Update(press("r"))
		require.NotNil(t, cmd)
		m, _ = m.Update(cmd())
		assert.NotContains(t, ansi.Strip(m.View()), "try again")
		assert.Len(t, fs.filters, 2)
	})

	t.Run("superseded is not an error", func(t *testing.T) {
		fs := seeded(1)
		fs.fetchErr = notify.ErrSuperseded
		m := openAndLoad(t, newModel(fs, &fakeDispatcher{}))
		assert.NotContains(t, ansi.Strip(m.View()), "try again")
	})
}

func TestSelect_DispatchesAndCloses(t *testing.T) {
	fs := seeded(3)
	d := &fakeDispatcher{}
	m := openAndLoad(t, newModel(fs, d))

	m, _ = m.Update(press("j"))
	m, cmd := m.Update(press("enter"))
	require.NotNil(t, cmd)

	require.Len(t, d.got, 1)
	assert.Equal(t, "n-1", d.got[0].ID)
	assert.False(t, m.IsOpen())
	msg, ok := cmd().(DispatchedMsg)
	require.True(t, ok)
	assert.True(t, msg.Navigated)
}

func TestMarkAll(t *testing.T) {
	fs := seeded(3)
	m := openAndLoad(t, newModel(fs, &fakeDispatcher{}))

	m, cmd := m.Update(press("A"))
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())

	assert.Equal(t, 1, fs.marked)
	assert.NotContains(t, ansi.Strip(m.View()), "unread")
}

func TestEscCloses(t *testing.T) {
	m := openAndLoad(t, newModel(seeded(1), &fakeDispatcher{}))
	m, cmd := m.Update(press("esc"))
	assert.False(t, m.IsOpen())
	require.NotNil(t, cmd)
	_, ok := cmd().(ClosedMsg)
	assert.True(t, ok)
}
