package models

import "time"

// Comment is a single message inside a thread.
type Comment struct {
	ID        string     `json:"id"`
	ThreadID  string     `json:"threadId"`
	Content   string     `json:"content"`
	AuthorID  string     `json:"authorId"`
	Author    string     `json:"author"`
	CreatedAt time.Time  `json:"createdAt"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
}

// CommentThread is an anchored discussion on a board. Position is in board
// coordinates.
type CommentThread struct {
	ID           string     `json:"id"`
	DocumentID   string     `json:"documentId"`
	X            float64    `json:"x"`
	Y            float64    `json:"y"`
	Resolved     bool       `json:"resolved"`
	ResolvedBy   string     `json:"resolvedBy,omitempty"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty"`
	CommentCount int        `json:"commentCount"`
	Comments     []Comment  `json:"comments"`
}
