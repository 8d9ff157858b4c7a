package chat

// EventKind names a committed state change in the coordinator.
type EventKind string

const (
	// EventConversations fires after the conversation list is replaced or
	// an entry is removed.
	EventConversations EventKind = "conversations"
	// EventThread fires after the open thread's state changes.
	EventThread EventKind = "thread"
	// EventUnread fires after unread counters change without a thread or
	// list change (e.g. the buyer's lightweight unread poll).
	EventUnread EventKind = "unread"
	// EventError fires when a background operation fails. The last good
	// state is preserved; Snapshot().Err carries the cause.
	EventError EventKind = "error"
	// EventClosed fires when the open thread view is closed or the whole
	// coordinator is torn down.
	EventClosed EventKind = "closed"
)

// Event is delivered to subscribers after the state change it describes has
// been committed. Subscribers read current state via Snapshot.
type Event struct {
	Kind EventKind
}
