package models

import (
	"encoding/json"
	"time"
)

// EventType tags a push-delivered comment event.
type EventType string

const (
	EventThreadCreated  EventType = "thread-created"
	EventThreadResolved EventType = "thread-resolved"
	EventThreadDeleted  EventType = "thread-deleted"
	EventThreadMoved    EventType = "thread-moved"
	EventCommentAdded   EventType = "comment-added"
	EventCommentUpdated EventType = "comment-updated"
	EventCommentDeleted EventType = "comment-deleted"
)

// Event is the wire envelope delivered on the push channel. Payload stays raw
// until the type is known.
type Event struct {
	Type       EventType       `json:"type"`
	DocumentID string          `json:"documentId"`
	Timestamp  time.Time       `json:"timestamp"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// UnmarshalPayload decodes the raw payload into v. A nil payload is a no-op.
func (e *Event) UnmarshalPayload(v any) error {
	if e.Payload == nil {
		return nil
	}
	return json.Unmarshal(e.Payload, v)
}

// ThreadCreatedPayload carries the full new thread.
type ThreadCreatedPayload struct {
	Thread CommentThread `json:"thread"`
}

// ThreadResolvedPayload patches the resolved flag on an existing thread.
type ThreadResolvedPayload struct {
	ThreadID   string     `json:"threadId"`
	Resolved   bool       `json:"resolved"`
	ResolvedBy string     `json:"resolvedBy,omitempty"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}

// ThreadDeletedPayload removes a thread.
type ThreadDeletedPayload struct {
	ThreadID string `json:"threadId"`
}

// ThreadMovedPayload re-anchors a thread on the board.
type ThreadMovedPayload struct {
	ThreadID string  `json:"threadId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// CommentAddedPayload appends a comment to its thread.
type CommentAddedPayload struct {
	ThreadID string  `json:"threadId"`
	Comment  Comment `json:"comment"`
}

// CommentUpdatedPayload replaces the content of an existing comment.
type CommentUpdatedPayload struct {
	ThreadID  string     `json:"threadId"`
	CommentID string     `json:"commentId"`
	Content   string     `json:"content"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
}

// CommentDeletedPayload removes a comment from its thread.
type CommentDeletedPayload struct {
	ThreadID  string `json:"threadId"`
	CommentID string `json:"commentId"`
}
