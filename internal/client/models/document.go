// Package models defines board document types shared by the client layers.
package models

import "time"

// Visibility controls who can discover a board in list views.
type Visibility string

const (
	VisibilityPrivate   Visibility = "private"
	VisibilityWorkspace Visibility = "workspace"
	VisibilityPublic    Visibility = "public"
)

// Document is the full board record returned by the load endpoint.
type Document struct {
	ID           string     `json:"id" validate:"required"`
	WorkspaceID  string     `json:"workspaceId" validate:"required"`
	CollectionID string     `json:"collectionId,omitempty"`
	Title        string     `json:"title"`
	Content      []byte     `json:"content"`
	Fingerprint  string     `json:"fingerprint"`
	ThumbnailURL string     `json:"thumbnailUrl,omitempty"`
	Visibility   Visibility `json:"visibility"`
	CanEdit      bool       `json:"canEdit"`
	CanCollab    bool       `json:"canCollab"`
	Room         *Room      `json:"room,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Room is the collaboration room descriptor attached to a document when the
// server has a live session available for it.
type Room struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// DocumentSummary is the projection used by workspace/collection list views.
type DocumentSummary struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	ThumbnailURL string     `json:"thumbnailUrl,omitempty"`
	Visibility   Visibility `json:"visibility"`
	CanEdit      bool       `json:"canEdit"`
	CollectionID string     `json:"collectionId,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// ListKey identifies one cached summary list: a workspace plus an optional
// collection. CollectionID is empty for the workspace root list.
type ListKey struct {
	WorkspaceID  string
	CollectionID string
}
