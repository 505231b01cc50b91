package services

import (
	"context"

	"github.com/boardsync/boardsync-client/internal/client/models"
)

// EditorSurface is the drawing surface the services feed and observe. The
// rendering implementation lives outside this engine.
type EditorSurface interface {
	// Load decodes serialized board content into the surface, replacing
	// whatever was displayed before.
	Load(content []byte) error

	// Snapshot serializes the current board state.
	Snapshot() []byte
}

// Confirmer prompts the user before destructive operations.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// Notifier surfaces operation outcomes to the user (toasts in the UI, plain
// lines in the CLI).
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// PushChannel delivers server-side comment events for one document. It is
// the sole write path for those events into the local thread cache.
type PushChannel interface {
	// Subscribe starts delivery of events for the document. The returned
	// channel is closed when the subscription ends.
	Subscribe(ctx context.Context, documentID string) (<-chan models.Event, error)

	// Unsubscribe stops delivery and closes the event channel.
	Unsubscribe(documentID string)
}

// CollabChannel is the live collaboration room port. Transport internals are
// opaque to the consistency engine.
type CollabChannel interface {
	// Join enters a room. auto marks the session as joined by the open
	// sequence rather than by the user.
	Join(ctx context.Context, roomID, roomKey string, auto bool) error

	// Leave exits the room at the user's request. Auto-joined sessions
	// refuse manual leave while the document stays open.
	Leave() error

	// Close tears the session down unconditionally (document switch).
	Close() error

	Active() bool
	AutoJoined() bool
}

// ThumbnailRenderer produces a preview image of the current board, used by
// the best-effort thumbnail refresh after a successful save.
type ThumbnailRenderer interface {
	RenderThumbnail() ([]byte, error)
}
