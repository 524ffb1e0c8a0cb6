// Package notify owns the notification cache. Every read/unread/archived flag
// the UI shows comes from here, and every change to it goes through one of
// the Store's operations.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/nhle/notification-center/internal/classify"
	"github.com/nhle/notification-center/internal/model"
)

var (
	// ErrNotCached is returned by mutations on an id the cache does not hold.
	ErrNotCached = errors.New("notification not in cache")
	// ErrSuperseded is returned by a fetch whose result was discarded because
	// a newer fetch was issued before it resolved.
	ErrSuperseded = errors.New("fetch superseded by a newer request")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store closed")
)

// Backend is the network surface the store drives. *api.Client satisfies it.
type Backend interface {
	ListNotifications(ctx context.Context, f model.Filter) ([]model.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkUnread(ctx context.Context, id string) error
	Archive(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	UnreadCount(ctx context.Context) (int, error)
	GetPreferences(ctx context.Context) (model.Preferences, error)
	UpdatePreferences(ctx context.Context, prefs model.Preferences) error
}

// Snapshot is a consistent copy of the store state. The list and the unread
// count always come from the same instant.
type Snapshot struct {
	Notifications []model.Notification
	// UnreadCount is what the badge shows. Before the first successful fetch
	// it is the server aggregate, afterwards the count derived from the cache.
	UnreadCount int
	// ServerUnread is the last aggregate reported by the server, or -1.
	ServerUnread int
	Filter       model.Filter
	Loading      bool
	Fetched      bool
	// Stale is set when the server aggregate disagrees with the cache.
	Stale bool
	Err   error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMetrics attaches prometheus counters.
func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// FetchOption tweaks a single fetch.
type FetchOption func(*fetchOptions)

type fetchOptions struct {
	merge bool
}

// WithMerge upserts the response into the existing cache instead of
// replacing it.
func WithMerge() FetchOption {
	return func(o *fetchOptions) { o.merge = true }
}

// Store is the notification cache plus its derived unread count. It is safe
// for concurrent use; network calls happen outside the lock.
type Store struct {
	backend Backend
	logger  *zap.Logger
	metrics *Metrics

	mu     sync.Mutex
	items  []model.Notification
	unread int
	filter model.Filter

	serverUnread int
	fetched      bool
	loading      bool
	stale        bool
	err          error
	closed       bool

	// issued is the generation of the most recently started fetch. Only a
	// response carrying that generation is applied.
	issued uint64
	// seq orders local mutations. touched and removed record, per id, the
	// seq of the last local change so a fetch that started earlier does not
	// overwrite it.
	seq     uint64
	touched map[string]uint64
	removed map[string]uint64

	subs    map[int]chan Event
	nextSub int

	countGroup singleflight.Group
}

// NewStore returns an empty store backed by b.
func NewStore(b Backend, opts ...Option) *Store {
	s := &Store{
		backend:      b,
		logger:       zap.NewNop(),
		serverUnread: -1,
		touched:      make(map[string]uint64),
		removed:      make(map[string]uint64),
		subs:         make(map[int]chan Event),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]model.Notification, len(s.items))
	copy(items, s.items)
	return Snapshot{
		Notifications: items,
		UnreadCount:   s.badgeCountLocked(),
		ServerUnread:  s.serverUnread,
		Filter:        s.filter,
		Loading:       s.loading,
		Fetched:       s.fetched,
		Stale:         s.stale,
		Err:           s.err,
	}
}

// UnreadCount returns the count the badge shows.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.badgeCountLocked()
}

// Get returns the cached notification with the given id.
func (s *Store) Get(id string) (model.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.findLocked(id); i >= 0 {
		return s.items[i], true
	}
	return model.Notification{}, false
}

// Subscribe returns a channel receiving an Event after every state change and
// a function that unsubscribes and closes it.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Event, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Close drops the cache and closes every subscriber channel. In-flight
// operations resolve without touching state.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.items = nil
	s.unread = 0
	s.issued++
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// FetchNotifications loads the list matching f and replaces the cache with
// it, newest first. A response is applied only if no other fetch was issued
// after this one; otherwise ErrSuperseded is returned and the cache is left
// alone. A cancelled ctx also leaves the cache alone.
func (s *Store) FetchNotifications(ctx context.Context, f model.Filter, opts ...FetchOption) error {
	var o fetchOptions
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.issued++
	gen := s.issued
	startSeq := s.seq
	s.loading = true
	s.mu.Unlock()
	s.publish(Event{Kind: EventLoading})
	s.metrics.fetched()

	list, err := s.backend.ListNotifications(ctx, f)

	s.mu.Lock()
	if gen != s.issued {
		s.mu.Unlock()
		s.metrics.discarded()
		s.logger.Debug("discarding superseded fetch",
			zap.String("filter", f.Signature()),
			zap.Uint64("generation", gen),
		)
		return ErrSuperseded
	}
	if ctx.Err() != nil {
		s.loading = false
		s.mu.Unlock()
		s.publish(Event{Kind: EventFetchFailed, Err: ctx.Err()})
		return ctx.Err()
	}
	if err != nil {
		s.loading = false
		s.err = err
		s.mu.Unlock()
		s.logger.Warn("fetch notifications failed",
			zap.String("filter", f.Signature()),
			zap.Error(err),
		)
		s.publish(Event{Kind: EventFetchFailed, Err: err})
		return err
	}

	incoming := s.reconcileLocked(list, startSeq)
	if o.merge {
		s.items = upsert(s.items, incoming)
	} else {
		s.items = incoming
	}
	s.filter = f
	s.fetched = true
	s.loading = false
	s.stale = false
	s.err = nil
	s.recountLocked()
	// Every other in-flight fetch is older and will be discarded, so local
	// changes it could have overwritten no longer need tracking.
	pruneUpTo(s.touched, startSeq)
	pruneUpTo(s.removed, startSeq)
	n := len(s.items)
	s.mu.Unlock()

	s.logger.Debug("fetched notifications",
		zap.String("filter", f.Signature()),
		zap.Int("count", n),
		zap.Bool("merge", o.merge),
	)
	s.publish(Event{Kind: EventFetched})
	return nil
}

// reconcileLocked canonicalizes and dedupes a server list and keeps local
// changes made after the fetch started.
func (s *Store) reconcileLocked(list []model.Notification, startSeq uint64) []model.Notification {
	out := make([]model.Notification, 0, len(list))
	pos := make(map[string]int, len(list))
	for _, n := range list {
		classify.Canonicalize(&n)
		if seq, ok := s.removed[n.ID]; ok && seq > startSeq {
			continue
		}
		if seq, ok := s.touched[n.ID]; ok && seq > startSeq {
			if i := s.findLocked(n.ID); i >= 0 {
				n.IsRead = s.items[i].IsRead
				n.IsArchived = s.items[i].IsArchived
			}
		}
		if i, dup := pos[n.ID]; dup {
			out[i] = n
			continue
		}
		pos[n.ID] = len(out)
		out = append(out, n)
	}
	return classify.SortByDateDesc(out)
}

// MarkAsRead flags id as read. Marking an already-read item is a no-op and
// issues no request. On server failure the flag reverts and the error is
// returned.
func (s *Store) MarkAsRead(ctx context.Context, id string) error {
	return s.setRead(ctx, id, true)
}

// MarkAsUnread flags id as unread, the inverse of MarkAsRead.
func (s *Store) MarkAsUnread(ctx context.Context, id string) error {
	return s.setRead(ctx, id, false)
}

func (s *Store) setRead(ctx context.Context, id string, read bool) error {
	op := "mark_unread"
	call := s.backend.MarkUnread
	if read {
		op = "mark_read"
		call = s.backend.MarkRead
	}
	return s.mutateOne(ctx, op, id, call, func(n *model.Notification) bool {
		if n.IsRead == read {
			return false
		}
		n.IsRead = read
		return true
	})
}

// ArchiveNotification flags id as archived. Archived items leave the unread
// count but stay cached until the next fetch.
func (s *Store) ArchiveNotification(ctx context.Context, id string) error {
	return s.mutateOne(ctx, "archive", id, s.backend.Archive, func(n *model.Notification) bool {
		if n.IsArchived {
			return false
		}
		n.IsArchived = true
		return true
	})
}

// mutateOne applies change to the cached item, calls the server and
// compensates if the call fails. change reports whether anything changed;
// when it does not, no request is issued.
func (s *Store) mutateOne(
	ctx context.Context,
	op, id string,
	call func(context.Context, string) error,
	change func(*model.Notification) bool,
) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	i := s.findLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%s %s: %w", op, id, ErrNotCached)
	}
	prev := s.items[i]
	if !change(&s.items[i]) {
		s.mu.Unlock()
		return nil
	}
	s.seq++
	mySeq := s.seq
	prevSeq, hadSeq := s.touched[id]
	s.touched[id] = mySeq
	s.recountLocked()
	s.mu.Unlock()
	s.publish(Event{Kind: EventMutated, ID: id, Op: op})

	if err := call(ctx, id); err != nil {
		s.mu.Lock()
		if j := s.findLocked(id); j >= 0 && s.touched[id] == mySeq {
			s.items[j].IsRead = prev.IsRead
			s.items[j].IsArchived = prev.IsArchived
			s.untouchLocked(id, prevSeq, hadSeq)
			s.recountLocked()
		}
		s.mu.Unlock()
		s.metrics.rolledBack(op)
		s.logger.Warn("notification mutation rolled back",
			zap.String("op", op),
			zap.String("id", id),
			zap.Error(err),
		)
		s.publish(Event{Kind: EventRolledBack, ID: id, Op: op, Err: err})
		return fmt.Errorf("%s %s: %w", op, id, err)
	}

	s.metrics.mutated(op)
	s.publish(Event{Kind: EventConfirmed, ID: id, Op: op})
	return nil
}

// MarkAllAsRead flags every cached non-archived notification read with a
// single bulk request. On failure the items it flipped revert.
func (s *Store) MarkAllAsRead(ctx context.Context) error {
	const op = "mark_all_read"

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.seq++
	mySeq := s.seq
	var flipped []string
	prevSeqs := make(map[string]uint64)
	for i := range s.items {
		if s.items[i].Unread() {
			id := s.items[i].ID
			s.items[i].IsRead = true
			if seq, ok := s.touched[id]; ok {
				prevSeqs[id] = seq
			}
			s.touched[id] = mySeq
			flipped = append(flipped, id)
		}
	}
	prevServer := s.serverUnread
	if s.serverUnread > 0 {
		s.serverUnread = 0
	}
	s.recountLocked()
	s.mu.Unlock()
	s.publish(Event{Kind: EventMutated, Op: op})

	if err := s.backend.MarkAllRead(ctx); err != nil {
		s.mu.Lock()
		for _, id := range flipped {
			if j := s.findLocked(id); j >= 0 && s.touched[id] == mySeq {
				s.items[j].IsRead = false
				seq, ok := prevSeqs[id]
				s.untouchLocked(id, seq, ok)
			}
		}
		if s.serverUnread == 0 {
			s.serverUnread = prevServer
		}
		s.recountLocked()
		s.mu.Unlock()
		s.metrics.rolledBack(op)
		s.logger.Warn("mark all read rolled back",
			zap.Int("items", len(flipped)),
			zap.Error(err),
		)
		s.publish(Event{Kind: EventRolledBack, Op: op, Err: err})
		return fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.mutated(op)
	s.publish(Event{Kind: EventConfirmed, Op: op})
	return nil
}

// DeleteNotification removes id from the cache and the server. On failure
// the item is restored at its date-ordered position.
func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	const op = "delete"

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	i := s.findLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%s %s: %w", op, id, ErrNotCached)
	}
	removed := s.items[i]
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.seq++
	mySeq := s.seq
	s.removed[id] = mySeq
	s.recountLocked()
	s.mu.Unlock()
	s.publish(Event{Kind: EventMutated, ID: id, Op: op})

	if err := s.backend.Delete(ctx, id); err != nil {
		s.mu.Lock()
		if s.removed[id] == mySeq && s.findLocked(id) < 0 {
			delete(s.removed, id)
			s.items = insertByDate(s.items, removed)
			s.recountLocked()
		}
		s.mu.Unlock()
		s.metrics.rolledBack(op)
		s.logger.Warn("delete rolled back", zap.String("id", id), zap.Error(err))
		s.publish(Event{Kind: EventRolledBack, ID: id, Op: op, Err: err})
		return fmt.Errorf("%s %s: %w", op, id, err)
	}

	s.metrics.mutated(op)
	s.publish(Event{Kind: EventConfirmed, ID: id, Op: op})
	return nil
}

// RefreshUnreadCount asks the server for its unread aggregate. Concurrent
// callers share one request. When the cache has been fetched and the
// aggregate disagrees with it, the store is flagged stale so the active view
// can refetch; the cache-derived count stays what the badge shows.
func (s *Store) RefreshUnreadCount(ctx context.Context) (int, error) {
	v, err, _ := s.countGroup.Do("unread", func() (any, error) {
		return s.backend.UnreadCount(ctx)
	})
	if err != nil {
		s.logger.Debug("unread count refresh failed", zap.Error(err))
		return 0, err
	}
	n := v.(int)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return n, ErrClosed
	}
	s.serverUnread = n
	becameStale := s.fetched && !s.loading && n != s.unread && !s.stale
	if becameStale {
		s.stale = true
	}
	local := s.unread
	s.mu.Unlock()

	s.publish(Event{Kind: EventUnreadAggregate})
	if becameStale {
		s.logger.Info("server unread count diverged from cache",
			zap.Int("server", n),
			zap.Int("local", local),
		)
		s.publish(Event{Kind: EventStale})
	}
	return n, nil
}

// GetPreferences loads the user's notification preferences.
func (s *Store) GetPreferences(ctx context.Context) (model.Preferences, error) {
	p, err := s.backend.GetPreferences(ctx)
	if err != nil {
		s.logger.Warn("load preferences failed", zap.Error(err))
		return model.Preferences{}, err
	}
	return p, nil
}

// UpdatePreferences saves prefs. Validation failures come back as
// *api.ValidationError.
func (s *Store) UpdatePreferences(ctx context.Context, prefs model.Preferences) error {
	if err := s.backend.UpdatePreferences(ctx, prefs.Clone()); err != nil {
		s.logger.Warn("save preferences failed", zap.Error(err))
		return err
	}
	s.logger.Info("preferences saved",
		zap.Bool("email", prefs.EmailEnabled),
		zap.Bool("push", prefs.PushEnabled),
	)
	return nil
}

func (s *Store) badgeCountLocked() int {
	if !s.fetched && s.serverUnread >= 0 {
		return s.serverUnread
	}
	return s.unread
}

func (s *Store) recountLocked() {
	n := 0
	for _, it := range s.items {
		if it.Unread() {
			n++
		}
	}
	s.unread = n
}

// untouchLocked undoes a compensated mutation's claim on id so an in-flight
// fetch applies the server value again.
func (s *Store) untouchLocked(id string, prevSeq uint64, had bool) {
	if had {
		s.touched[id] = prevSeq
		return
	}
	delete(s.touched, id)
}

func (s *Store) findLocked(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func upsert(cur, incoming []model.Notification) []model.Notification {
	out := make([]model.Notification, len(cur), len(cur)+len(incoming))
	copy(out, cur)
	pos := make(map[string]int, len(out))
	for i, n := range out {
		pos[n.ID] = i
	}
	for _, n := range incoming {
		if i, ok := pos[n.ID]; ok {
			out[i] = n
			continue
		}
		pos[n.ID] = len(out)
		out = append(out, n)
	}
	return classify.SortByDateDesc(out)
}

func insertByDate(list []model.Notification, n model.Notification) []model.Notification {
	i := sort.Search(len(list), func(i int) bool {
		return !list[i].CreatedAt.After(n.CreatedAt)
	})
	list = append(list, model.Notification{})
	copy(list[i+1:], list[i:])
	list[i] = n
	return list
}

func pruneUpTo(m map[string]uint64, seq uint64) {
	for id, v := range m {
		if v <= seq {
			delete(m, id)
		}
	}
}
