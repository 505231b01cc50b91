// Package api defines the remote persistence port of the boardsync client
// and its HTTP implementation.
package api

import (
	"context"
	"time"

	"github.com/boardsync/boardsync-client/internal/client/models"
)

// Client is the request/response contract with the board service.
//
// Contract:
//   - All methods honor context cancellation and attach session credentials.
//   - Failures are distinguishable with errors.Is against the sentinels in
//     internal/common: ErrNotAuthenticated, ErrForbidden, ErrNotFound,
//     ErrUnavailable. Anything else is a generic failure.
type Client interface {
	Close() error

	// Login exchanges credentials for a token pair stored in the session.
	Login(ctx context.Context, email, password string) error

	// Ping checks server liveness.
	Ping(ctx context.Context) error

	// GetDocument loads full board metadata and content by id.
	GetDocument(ctx context.Context, id string) (*models.Document, error)

	// SaveContent persists raw board content under id. The fingerprint is
	// recorded server-side so later loads can seed the save baseline.
	SaveContent(ctx context.Context, id string, content []byte, fingerprint string) (time.Time, error)

	// ListDocuments fetches summaries for a workspace/collection, optionally
	// projecting only the named fields.
	ListDocuments(ctx context.Context, key models.ListKey, fields []string) ([]models.DocumentSummary, error)

	// CreateDocument creates an empty board in the workspace/collection.
	CreateDocument(ctx context.Context, key models.ListKey, title string) (*models.DocumentSummary, error)

	// RenameDocument sets a new title and returns the canonical summary with
	// authoritative timestamps.
	RenameDocument(ctx context.Context, id, title string) (*models.DocumentSummary, error)

	// DeleteDocument removes a board.
	DeleteDocument(ctx context.Context, id string) error

	// DuplicateDocument clones a board server-side and returns the new
	// board's summary.
	DuplicateDocument(ctx context.Context, id string) (*models.DocumentSummary, error)

	// ListThreads fetches the comment threads of a board.
	ListThreads(ctx context.Context, documentID string) ([]models.CommentThread, error)

	// ThumbnailUploadURL issues a presigned URL for uploading a freshly
	// rendered thumbnail.
	ThumbnailUploadURL(ctx context.Context, documentID string) (string, error)
}
