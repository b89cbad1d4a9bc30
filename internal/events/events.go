package events

// Event types broadcast on a board's channel after successful mutations.
const (
	BoardCreated      = "board-created"
	BoardUpdated      = "board-updated"
	BoardDeleted      = "board-deleted"
	ColumnAdded       = "column-added"
	ColumnArchived    = "column-archived"
	TaskAdded         = "task-added"
	TaskUpdated       = "task-updated"
	TaskDeleted       = "task-deleted"
	TaskMoved         = "task-moved"
	CommentAdded      = "comment-added"
	SettingsUpdated   = "settings-updated"
	DependencyAdded   = "dependency-added"
	DependencyRemoved = "dependency-removed"
)

// Event is the wire format delivered to every subscriber of a board channel.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Publisher broadcasts an event to all current subscribers of a board's
// channel. Delivery is fire-and-forget: no acknowledgement, retry, or replay
// of missed events. A reconnecting client re-fetches full board state instead.
//
// The publisher is injected into whatever needs to broadcast; there is no
// package-level singleton.
type Publisher interface {
	Publish(boardID uint64, eventType string, data any)
}
