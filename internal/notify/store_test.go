package notify

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notification-center/internal/api"
	"github.com/nhle/notification-center/internal/backend"
	"github.com/nhle/notification-center/internal/model"
	tu "github.com/nhle/notification-center/tests/testutil"
)

var base = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func note(id string, age time.Duration, read, archived bool) model.Notification {
	return model.Notification{
		ID:         id,
		Category:   model.CategorySystem,
		Priority:   model.PriorityMedium,
		Title:      "title " + id,
		CreatedAt:  base.Add(-age),
		IsRead:     read,
		IsArchived: archived,
	}
}

// fakeBackend serves a fixed list. listFn, when set, overrides
// ListNotifications; fail maps an operation name to the error it returns.
type fakeBackend struct {
	mu     sync.Mutex
	list   []model.Notification
	listFn func(ctx context.Context, f model.Filter) ([]model.Notification, error)
	fail   map[string]error
	calls  map[string]int
	unread int
	prefs  model.Preferences
}

func newFake(list ...model.Notification) *fakeBackend {
	return &fakeBackend{list: list, fail: map[string]error{}, calls: map[string]int{}}
}

func (f *fakeBackend) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.fail[op]
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) ListNotifications(ctx context.Context, flt model.Filter) ([]model.Notification, error) {
	if err := f.record("list"); err != nil {
		return nil, err
	}
	if f.listFn != nil {
		return f.listFn(ctx, flt)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Notification, len(f.list))
	copy(out, f.list)
	return out, nil
}

func (f *fakeBackend) MarkRead(ctx context.Context, id string) error {
	return f.record("mark_read")
}

func (f *fakeBackend) MarkUnread(ctx context.Context, id string) error {
	return f.record("mark_unread")
}

func (f *fakeBackend) Archive(ctx context.Context, id string) error {
	return f.record("archive")
}

func (f *fakeBackend) MarkAllRead(ctx context.Context) error {
	return f.record("mark_all_read")
}

func (f *fakeBackend) Delete(ctx context.Context, id string) error {
	return f.record("delete")
}

func (f *fakeBackend) UnreadCount(ctx context.Context) (int, error) {
	if err := f.record("unread_count"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread, nil
}

func (f *fakeBackend) GetPreferences(ctx context.Context) (model.Preferences, error) {
	if err := f.record("get_prefs"); err != nil {
		return model.Preferences{}, err
	}
	return f.prefs, nil
}

func (f *fakeBackend) UpdatePreferences(ctx context.Context, p model.Preferences) error {
	if err := f.record("update_prefs"); err != nil {
		return err
	}
	f.prefs = p
	return nil
}

func serverErr(op string) error {
	return &api.ServerError{Op: op, StatusCode: http.StatusInternalServerError, Message: "boom"}
}

// assertUnreadInvariant checks that the cached count equals the number of
// unread, non-archived items in the cache.
func assertUnreadInvariant(t *testing.T, s *Store) {
	t.Helper()
	snap := s.Snapshot()
	want := 0
	for _, n := range snap.Notifications {
		if !n.IsRead && !n.IsArchived {
			want++
		}
	}
	assert.Equal(t, want, snap.UnreadCount, "unread count out of sync with cache")
}

func fetched(t *testing.T, fb *fakeBackend) *Store {
	t.Helper()
	s := NewStore(fb)
	require.NoError(t, s.FetchNotifications(context.Background(), model.Filter{}))
	return s
}

func TestFetch_OrdersNewestFirstAndDedupes(t *testing.T) {
	fb := newFake(
		note("old", 5*time.Hour, false, false),
		note("new", time.Minute, false, false),
		note("mid", time.Hour, true, false),
		note("new", time.Minute, true, false),
	)
	s := fetched(t, fb)

	snap := s.Snapshot()
	require.Len(t, snap.Notifications, 3)
	assert.Equal(t, "new", snap.Notifications[0].ID)
	assert.Equal(t, "mid", snap.Notifications[1].ID)
	assert.Equal(t, "old", snap.Notifications[2].ID)
	assert.True(t, snap.Notifications[0].IsRead, "later duplicate replaces earlier")
	assert.Equal(t, 1, snap.UnreadCount)
	assert.True(t, snap.Fetched)
	assert.False(t, snap.Loading)
}

func TestFetch_CanonicalizesLegacyCategories(t *testing.T) {
	n := note("a", time.Minute, false, false)
	n.Category = "PATIENT_PAIN_REPORT"
	s := fetched(t, newFake(n))

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, model.CategoryPainReport, got.Category)
}

func TestFetch_ErrorKeepsCache(t *testing.T) {
	fb := newFake(note("a", time.Minute, false, false))
	s := fetched(t, fb)

	fb.fail["list"] = &api.NetworkError{Op: "list notifications", Err: errors.New("refused")}
	err := s.FetchNotifications(context.Background(), model.Filter{})
	require.Error(t, err)
	assert.True(t, api.IsNetworkError(err))

	snap := s.Snapshot()
	assert.Len(t, snap.Notifications, 1)
	assert.Error(t, snap.Err)
	assert.False(t, snap.Loading)

	delete(fb.fail, "list")
	require.NoError(t, s.FetchNotifications(context.Background(), model.Filter{}))
	assert.NoError(t, s.Snapshot().Err, "successful retry clears the error")
}

func TestFetch_MergeUpserts(t *testing.T) {
	fb := newFake(note("a", time.Hour, false, false))
	s := fetched(t, fb)

	fb.list = []model.Notification{
		note("a", time.Hour, true, false),
		note("b", time.Minute, false, false),
	}
	require.NoError(t, s.FetchNotifications(context.Background(), model.Filter{}, WithMerge()))

	snap := s.Snapshot()
	require.Len(t, snap.Notifications, 2)
	assert.Equal(t, "b", snap.Notifications[0].ID)
	assert.True(t, snap.Notifications[1].IsRead)
	assert.Equal(t, 1, snap.UnreadCount)
}

func TestFetch_StaleResponseDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	fb := newFake()
	fb.listFn = func(ctx context.Context, f model.Filter) ([]model.Notification, error) {
		if f.Category != nil {
			close(started)
			<-release
			return []model.Notification{note("from-A", time.Minute, false, false)}, nil
		}
		return []model.Notification{note("from-B", time.Minute, false, false)}, nil
	}
	s := NewStore(fb)

	errA := make(chan error, 1)
	go func() {
		errA <- s.FetchNotifications(context.Background(), model.Filter{
			Category: model.Ptr(model.CategoryPrescription),
		})
	}()
	<-started

	require.NoError(t, s.FetchNotifications(context.Background(), model.Filter{}))
	close(release)

	assert.ErrorIs(t, <-errA, ErrSuperseded)
	snap := s.Snapshot()
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, "from-B", snap.Notifications[0].ID)
	assert.Nil(t, snap.Filter.Category)
}

func TestFetch_SameSignatureLatestIssuedWins(t *testing.T) {
	first := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex

	fb := newFake()
	fb.listFn = func(ctx context.Context, f model.Filter) ([]model.Notification, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(first)
			<-release
			return []model.Notification{note("first", time.Minute, false, false)}, nil
		}
		return []model.Notification{note("second", time.Minute, false, false)}, nil
	}
	s := NewStore(fb)

	errFirst := make(chan error, 1)
	go func() { errFirst <- s.FetchNotifications(context.Background(), model.Filter{}) }()
	<-first
	require.NoError(t, s.FetchNotifications(context.Background(), model.Filter{}))
	close(release)

	assert.ErrorIs(t, <-errFirst, ErrSuperseded)
	snap := s.Snapshot()
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, "second", snap.Notifications[0].ID)
}

func TestFetch_CancelledContextNotApplied(t *testing.T) {
	fb := newFake(note("a", time.Minute, false, false))
	s := fetched(t, fb)

	ctx, cancel := context.WithCancel(context.Background())
	fb.listFn = func(ctx context.Context, f model.Filter) ([]model.Notification, error) {
		cancel()
		return []model.Notification{note("late", time.Second, false, false)}, nil
	}
	err := s.FetchNotifications(ctx, model.Filter{})
	assert.ErrorIs(t, err, context.Canceled)

	snap := s.Snapshot()
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, "a", snap.Notifications[0].ID)
	assert.NoError(t, snap.Err)
	assert.False(t, snap.Loading)
}

func TestFetch_KeepsLocalChangeMadeWhileInFlight(t *testing.T) {
	fb := newFake(note("a", time.Minute, false, false), note("b", time.Hour, false, false))
	s := fetched(t, fb)

	started := make(chan struct{})
	release := make(chan struct{})
	fb.listFn = func(ctx context.Context, f model.Filter) ([]model.Notification, error) {
		close(started)
		<-release
		return []model.Notification{
			note("a", time.Minute, false, false),
			note("b", time.Hour, false, false),
		}, nil
	}

	done := make(chan error, 1)
	go func() { done <- s.FetchNotifications(context.Background(), model.Filter{}) }()
	<-started

	require.NoError(t, s.MarkAsRead(context.Background(), "a"))
	require.NoError(t, s.DeleteNotification(context.Background(), "b"))
	close(release)
	require.NoError(t, <-done)

	snap := s.Snapshot()
	require.Len(t, snap.Notifications, 1)
	assert.True(t, snap.Notifications[0].IsRead)
	assert.Equal(t, 0, snap.UnreadCount)
}

func TestMarkAsRead(t *testing.T) {
	fb := newFake(note("a", time.Minute, false, false), note("b", time.Hour, false, false))
	s := fetched(t, fb)

	require.NoError(t, s.MarkAsRead(context.Background(), "a"))
	assert.Equal(t, 1, s.UnreadCount())
	assertUnreadInvariant(t, s)

	// Idempotent: no count change and no second request.
	require.NoError(t, s.MarkAsRead(context.Background(), "a"))
	assert.Equal(t, 1, s.UnreadCount())
	assert.Equal(t, 1, fb.count("mark_read"))
}

func TestMarkAsUnread(t *testing.T) {
	fb := newFake(note("a", time.Minute, true, false))
	s := fetched(t, fb)
	require.Equal(t, 0, s.UnreadCount())

	require.NoError(t, s.MarkAsUnread(context.Background(), "a"))
	assert.Equal(t, 1, s.UnreadCount())
	require.NoError(t, s.MarkAsUnread(context.Background(), "a"))
	assert.Equal(t, 1, s.UnreadCount())
	assert.Equal(t, 1, fb.count("mark_unread"))
	assertUnreadInvariant(t, s)
}

func TestMarkAsRead_ArchivedDoesNotTouchCount(t *testing.T) {
	fb := newFake(note("a", time.Minute, false, true), note("b", time.Hour, false, false))
	s := fetched(t, fb)
	require.Equal(t, 1, s.UnreadCount())

	require.NoError(t, s.MarkAsRead(context.Background(), "a"))
	assert.Equal(t, 1, s.UnreadCount())
	assertUnreadInvariant(t, s)
}

func TestMarkAsRead_RollbackOnServerError(t *testing.T) {
	fb := newFake(note("a", time.Minute, false, false))
	fb.fail["mark_read"] = serverErr("mark read")
	s := fetched(t, fb)
	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	err := s.MarkAsRead(context.Background(), "a")
	require.Error(t, err)
	assert.True(t, api.IsServerError(err))

	got, _ := s.Get("a")
	assert.False(t, got.IsRead)
	assert.Equal(t, 1, s.UnreadCount())
	assertUnreadInvariant(t, s)

	var kinds []EventKind
	for len(events) > 0 {
		kinds = append(kinds, (<-events).Kind)
	}
	assert.Equal(t, []EventKind{EventMutated, EventRolledBack}, kinds)
}

func TestMarkAsRead_RollbackLetsInFlightFetchApply(t *testing.T) {
	fb := newFake(note("a", time.Minute, false, false))
	fb.fail["mark_read"] = serverErr("mark read")
	s := fetched(t, fb)

	started := make(chan struct{})
	release := make(chan struct{})
	fb.listFn = func(ctx context.Context, f model.Filter) ([]model.Notification, error) {
		close(started)
		<-release
		// Read on another device meanwhile.
		return []model.Notification{note("a", time.Minute, true, false)}, nil
	}

	done := make(chan error, 1)
	go func() { done <- s.FetchNotifications(context.Background(), model.Filter{}) }()
	<-started

	require.Error(t, s.MarkAsRead(context.Background(), "a"))
	got, _ := s.Get("a")
	require.False(t, got.IsRead)

	close(release)
	require.NoError(t, <-done)

	got, _ = s.Get("a")
	assert.True(t, got.IsRead, "server value wins once the local change is compensated")
	assert.Equal(t, 0, s.UnreadCount())
	assertUnreadInvariant(t, s)
}

func TestMarkAllAsRead_RollbackLetsInFlightFetchApply(t *testing.T) {
	fb := newFake(note("a", time.Minute, false, false), note("b", time.Hour, false, false))
	fb.fail["mark_all_read"] = serverErr("mark all read")
	s := fetched(t, fb)

	started := make(chan struct{})
	release := make(chan struct{})
	fb.listFn = func(ctx context.Context, f model.Filter) ([]model.Notification, error) {
		close(started)
		<-release
		return []model.Notification{
			note("a", time.Minute, true, false),
			note("b", time.Hour, false, false),
		}, nil
	}

	done := make(chan error, 1)
	go func() { done <- s.FetchNotifications(context.Background(), model.Filter{}) }()
	<-started

	require.Error(t, s.MarkAllAsRead(context.Background()))
	close(release)
	require.NoError(t, <-done)

	a, _ := s.Get("a")
	b, _ := s.Get("b")
	assert.True(t, a.IsRead)
	assert.False(t, b.IsRead)
	assert.Equal(t, 1, s.UnreadCount())
	assertUnreadInvariant(t, s)
}

func TestMutation_NotCached(t *testing.T) {
	s := fetched(t, newFake(note("a", time.Minute, false, false)))

	assert.ErrorIs(t, s.MarkAsRead(context.Background(), "missing"), ErrNotCached)
	assert.ErrorIs(t, s.MarkAsUnread(context.Background(), "missing"), ErrNotCached)
	assert.ErrorIs(t, s.DeleteNotification(context.Background(), "missing"), ErrNotCached)
	assert.ErrorIs(t, s.ArchiveNotification(context.Background(), "missing"), ErrNotCached)
}

func TestMarkAllAsRead(t *testing.T) {
	fb := newFake(
		note("u1", time.Minute, false, false),
		note("u2", 2*time.Minute, false, false),
		note("u3", 3*time.Minute, false, false),
		note("a1", 4*time.Minute, false, true),
		note("a2", 5*time.Minute, false, true),
	)
	s := fetched(t, fb)
	require.Equal(t, 3, s.UnreadCount())

	require.NoError(t, s.MarkAllAsRead(context.Background()))
	assert.Equal(t, 0, s.UnreadCount())
	assert.Equal(t, 1, fb.count("mark_all_read"))
	assert.Zero(t, fb.count("mark_read"), "bulk operation must not fan out")

	for _, n := range s.Snapshot().Notifications {
		if n.IsArchived {
			assert.False(t, n.IsRead, "archived %s left untouched", n.ID)
		} else {
			assert.True(t, n.IsRead, "%s marked read", n.ID)
		}
	}
	assertUnreadInvariant(t, s)
}

func TestMarkAllAsRead_Rollback(t *testing.T) {
	fb := newFake(
		note("u1", time.Minute, false, false),
		note("r1", 2*time.Minute, true, false),
	)
	fb.fail["mark_all_read"] = serverErr("mark all read")
	s := fetched(t, fb)

	require.Error(t, s.MarkAllAsRead(context.Background()))
	u1, _ := s.Get("u1")
	r1, _ := s.Get("r1")
	assert.False(t, u1.IsRead)
	assert.True(t, r1.IsRead, "items read before the call stay read")
	assert.Equal(t, 1, s.UnreadCount())
}

func TestDeleteNotification(t *testing.T) {
	fb := newFake(note("a", time.Minute, false, false), note("b", time.Hour, true, false))
	s := fetched(t, fb)

	require.NoError(t, s.DeleteNotification(context.Background(), "a"))
	_, ok := s.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, s.UnreadCount())

	require.NoError(t, s.DeleteNotification(context.Background(), "b"))
	assert.Equal(t, 0, s.UnreadCount(), "deleting a read item leaves the count alone")
	assert.Empty(t, s.Snapshot().Notifications)
}

func TestDeleteNotification_RollbackRestoresPosition(t *testing.T) {
	fb := newFake(
		note("a", time.Minute, false, false),
		note("b", time.Hour, false, false),
		note("c", 2*time.Hour, false, false),
	)
	fb.fail["delete"] = serverErr("delete")
	s := fetched(t, fb)

	require.Error(t, s.DeleteNotification(context.Background(), "b"))
	snap := s.Snapshot()
	require.Len(t, snap.Notifications, 3)
	assert.Equal(t, "b", snap.Notifications[1].ID)
	assert.Equal(t, 3, snap.UnreadCount)
}

func TestArchiveNotification(t *testing.T) {
	fb := newFake(note("a", time.Minute, false, false))
	s := fetched(t, fb)

	require.NoError(t, s.ArchiveNotification(context.Background(), "a"))
	got, ok := s.Get("a")
	require.True(t, ok)
	assert.True(t, got.IsArchived)
	assert.Equal(t, 0, s.UnreadCount())

	require.NoError(t, s.ArchiveNotification(context.Background(), "a"))
	assert.Equal(t, 1, fb.count("archive"))
}

func TestUnreadInvariant_MixedSequence(t *testing.T) {
	fb := newFake(
		note("a", time.Minute, false, false),
		note("b", 2*time.Minute, true, false),
		note("c", 3*time.Minute, false, true),
		note("d", 4*time.Minute, false, false),
	)
	s := fetched(t, fb)
	ctx := context.Background()

	steps := []func() error{
		func() error { return s.MarkAsRead(ctx, "a") },
		func() error { return s.MarkAsUnread(ctx, "b") },
		func() error { return s.MarkAsUnread(ctx, "c") },
		func() error { return s.ArchiveNotification(ctx, "d") },
		func() error { return s.MarkAsUnread(ctx, "a") },
		func() error { return s.DeleteNotification(ctx, "b") },
		func() error { return s.MarkAllAsRead(ctx) },
		func() error { return s.MarkAsUnread(ctx, "a") },
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		assertUnreadInvariant(t, s)
	}
	assert.Equal(t, 1, s.UnreadCount())
}

func TestUnreadCount_ServerAggregateBeforeFetch(t *testing.T) {
	fb := newFake(note("a", time.Minute, false, false))
	fb.unread = 12
	s := NewStore(fb)

	n, err := s.RefreshUnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, 12, s.UnreadCount())
	assert.False(t, s.Snapshot().Stale)

	require.NoError(t, s.FetchNotifications(context.Background(), model.Filter{}))
	assert.Equal(t, 1, s.UnreadCount(), "cache derivation wins once fetched")
}

func TestUnreadCount_DivergenceFlagsStale(t *testing.T) {
	fb := newFake(note("a", time.Minute, false, false))
	s := fetched(t, fb)
	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	fb.unread = 1
	_, err := s.RefreshUnreadCount(context.Background())
	require.NoError(t, err)
	assert.False(t, s.Snapshot().Stale)

	fb.unread = 4
	_, err = s.RefreshUnreadCount(context.Background())
	require.NoError(t, err)
	snap := s.Snapshot()
	assert.True(t, snap.Stale)
	assert.Equal(t, 1, snap.UnreadCount)
	assert.Equal(t, 4, snap.ServerUnread)

	var sawStale bool
	for len(events) > 0 {
		if (<-events).Kind == EventStale {
			sawStale = true
		}
	}
	assert.True(t, sawStale)

	require.NoError(t, s.FetchNotifications(context.Background(), model.Filter{}))
	assert.False(t, s.Snapshot().Stale)
}

func TestPreferences(t *testing.T) {
	fb := newFake()
	s := NewStore(fb)
	ctx := context.Background()

	want := model.Preferences{EmailEnabled: true, Categories: map[string]bool{"chat": true}}
	require.NoError(t, s.UpdatePreferences(ctx, want))
	got, err := s.GetPreferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	fb.fail["update_prefs"] = &api.ValidationError{Fields: map[string]string{"categories": "unknown"}}
	err = s.UpdatePreferences(ctx, want)
	assert.True(t, api.IsValidationError(err))
}

func TestClose(t *testing.T) {
	s := fetched(t, newFake(note("a", time.Minute, false, false)))
	events, _ := s.Subscribe()

	s.Close()
	_, open := <-events
	assert.False(t, open)
	assert.Empty(t, s.Snapshot().Notifications)
	assert.ErrorIs(t, s.FetchNotifications(context.Background(), model.Filter{}), ErrClosed)
	assert.ErrorIs(t, s.MarkAllAsRead(context.Background()), ErrClosed)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	fb := newFake(note("a", time.Minute, false, false))
	fb.fail["delete"] = serverErr("delete")
	s := NewStore(fb, WithMetrics(m))
	ctx := context.Background()

	require.NoError(t, s.FetchNotifications(ctx, model.Filter{}))
	require.NoError(t, s.MarkAsRead(ctx, "a"))
	require.Error(t, s.DeleteNotification(ctx, "a"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("mark_read")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rollbacks.WithLabelValues("delete")))
}

// The remaining tests drive the store through the real HTTP client against
// the reference backend.

func httpStore(t *testing.T, wrap func(http.Handler) http.Handler) (*Store, *backend.Store) {
	t.Helper()
	db := tu.NewTestStore(t)
	require.NoError(t, backend.Seed(context.Background(), db, time.Now()))
	srv := tu.NewTestServer(t, db, wrap)
	return NewStore(api.NewClient(srv.URL, "")), db
}

func TestHTTP_FetchAndMarkRead(t *testing.T) {
	s, db := httpStore(t, nil)
	ctx := context.Background()

	require.NoError(t, s.FetchNotifications(ctx, model.Filter{IsArchived: model.Ptr(false)}))
	snap := s.Snapshot()
	require.Len(t, snap.Notifications, 6)
	assert.Equal(t, 5, snap.UnreadCount)

	require.NoError(t, s.MarkAsRead(ctx, "n-1"))
	assert.Equal(t, 4, s.UnreadCount())
	n, err := db.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestHTTP_RollbackOnInjectedFailure(t *testing.T) {
	failPatch := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPatch && strings.HasSuffix(r.URL.Path, "/read") {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	s, _ := httpStore(t, failPatch)
	ctx := context.Background()

	require.NoError(t, s.FetchNotifications(ctx, model.Filter{IsArchived: model.Ptr(false)}))
	err := s.MarkAsRead(ctx, "n-1")
	require.Error(t, err)
	assert.True(t, api.IsServerError(err))

	got, _ := s.Get("n-1")
	assert.False(t, got.IsRead)
	assert.Equal(t, 5, s.UnreadCount())
}
