package notify

// EventKind describes what changed in the store.
type EventKind int

const (
	// EventLoading fires when a fetch starts.
	EventLoading EventKind = iota
	// EventFetched fires when a fetch result was applied to the cache.
	EventFetched
	// EventFetchFailed fires when the latest fetch failed.
	EventFetchFailed
	// EventMutated fires when an optimistic change was applied.
	EventMutated
	// EventConfirmed fires when the server confirmed a mutation.
	EventConfirmed
	// EventRolledBack fires when a mutation failed and was compensated.
	EventRolledBack
	// EventStale fires when the server unread aggregate disagrees with the
	// locally derived count and the active view should refetch.
	EventStale
	// EventUnreadAggregate fires when a new server aggregate arrived.
	EventUnreadAggregate
)

func (k EventKind) String() string {
	switch k {
	case EventLoading:
		return "loading"
	case EventFetched:
		return "fetched"
	case EventFetchFailed:
		return "fetch_failed"
	case EventMutated:
		return "mutated"
	case EventConfirmed:
		return "confirmed"
	case EventRolledBack:
		return "rolled_back"
	case EventStale:
		return "stale"
	case EventUnreadAggregate:
		return "unread_aggregate"
	default:
		return "unknown"
	}
}

// Event is published to subscribers after every state change. Consumers read
// the new state through Snapshot; events only say that, and why, it changed.
type Event struct {
	Kind EventKind
	// ID is the affected notification, empty for list-level events.
	ID string
	// Op is the mutation name for mutation events.
	Op string
	// Err is set for EventFetchFailed and EventRolledBack.
	Err error
}

// subscriberBuffer bounds each subscriber channel. Sends never block; a
// subscriber that falls behind misses events but still sees the latest
// Snapshot on its next read.
const subscriberBuffer = 64
