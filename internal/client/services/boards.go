package services

import (
	"context"
	"fmt"

	"github.com/boardsync/boardsync-client/internal/client/api"
	"github.com/boardsync/boardsync-client/internal/client/cache"
	"github.com/boardsync/boardsync-client/internal/client/models"
	"github.com/boardsync/boardsync-client/internal/logging"
)

// ListCache stores board summaries per workspace/collection.
type ListCache = cache.Cache[models.ListKey, models.DocumentSummary]

// summaryFields is the projection requested for list views; content blobs
// never travel with lists.
var summaryFields = []string{"id", "title", "thumbnailUrl", "visibility", "canEdit", "collectionId", "updatedAt"}

// BoardService performs list-level board operations optimistically against
// the shared list cache, reconciling with the server on settle.
type BoardService struct {
	client  api.Client
	lists   *ListCache
	confirm Confirmer
	notify  Notifier
	log     logging.Logger

	// onRenamed lets an open document update its title display when it is
	// renamed from a list view.
	onRenamed func(id, title string)
}

func NewBoardService(client api.Client, lists *ListCache, confirm Confirmer, notify Notifier, log logging.Logger) *BoardService {
	return &BoardService{
		client:  client,
		lists:   lists,
		confirm: confirm,
		notify:  notify,
		log:     log,
	}
}

// OnRenamed registers the rename-notification callback.
func (s *BoardService) OnRenamed(fn func(id, title string)) {
	s.onRenamed = fn
}

// List returns the cached summaries for key, fetching from the server on a
// cache miss.
func (s *BoardService) List(ctx context.Context, key models.ListKey) ([]models.DocumentSummary, error) {
	if items, ok := s.lists.Get(key); ok {
		return items, nil
	}

	items, err := s.client.ListDocuments(ctx, key, summaryFields)
	if err != nil {
		return nil, fmt.Errorf("listing boards: %w", err)
	}
	s.lists.Put(key, items)
	return items, nil
}

// Create makes a new board and inserts the server's summary at the head of
// the list. No optimistic phase: the identity is unknown until the server
// responds.
func (s *BoardService) Create(ctx context.Context, key models.ListKey, title string) (*models.DocumentSummary, error) {
	created, err := s.client.CreateDocument(ctx, key, title)
	if err != nil {
		s.notify.Error("Could not create the board: " + err.Error())
		s.reconcile(ctx, key)
		return nil, fmt.Errorf("creating board: %w", err)
	}

	s.lists.Update(key, func(items []models.DocumentSummary) []models.DocumentSummary {
		return append([]models.DocumentSummary{*created}, items...)
	})
	s.notify.Success("Board created")
	s.reconcile(ctx, key)
	return created, nil
}

// Delete asks for confirmation, removes the entry optimistically and issues
// the remote delete. A denied confirmation makes no API call. On failure the
// pre-mutation snapshot is restored before the error surfaces.
func (s *BoardService) Delete(ctx context.Context, key models.ListKey, id string) error {
	if !s.confirm.Confirm(ctx, "Delete this board? This cannot be undone.") {
		return nil
	}

	snapshot, hadList := s.lists.Snapshot(key)

	s.lists.Update(key, func(items []models.DocumentSummary) []models.DocumentSummary {
		out := items[:0]
		for _, it := range items {
			if it.ID != id {
				out = append(out, it)
			}
		}
		return out
	})

	if err := s.client.DeleteDocument(ctx, id); err != nil {
		if hadList {
			s.lists.Restore(key, snapshot)
		}
		s.notify.Error("Could not delete the board: " + err.Error())
		s.reconcile(ctx, key)
		return fmt.Errorf("deleting board %s: %w", id, err)
	}

	s.notify.Success("Board deleted")
	s.reconcile(ctx, key)
	return nil
}

// Rename patches the title in place, then replaces the optimistic entry with
// the server's canonical summary so timestamps stay authoritative.
func (s *BoardService) Rename(ctx context.Context, key models.ListKey, id, newTitle string) error {
	snapshot, hadList := s.lists.Snapshot(key)

	s.lists.Update(key, func(items []models.DocumentSummary) []models.DocumentSummary {
		for i := range items {
			if items[i].ID == id {
				items[i].Title = newTitle
			}
		}
		return items
	})

	canonical, err := s.client.RenameDocument(ctx, id, newTitle)
	if err != nil {
		if hadList {
			s.lists.Restore(key, snapshot)
		}
		s.notify.Error("Could not rename the board: " + err.Error())
		s.reconcile(ctx, key)
		return fmt.Errorf("renaming board %s: %w", id, err)
	}

	s.lists.Update(key, func(items []models.DocumentSummary) []models.DocumentSummary {
		for i := range items {
			if items[i].ID == id {
				items[i] = *canonical
			}
		}
		return items
	})

	if s.onRenamed != nil {
		s.onRenamed(id, canonical.Title)
	}
	s.notify.Success("Board renamed")
	s.reconcile(ctx, key)
	return nil
}

// Duplicate clones server-side and inserts the new summary at the head. No
// optimistic phase and no confirmation: duplication is non-destructive.
func (s *BoardService) Duplicate(ctx context.Context, key models.ListKey, id string) (*models.DocumentSummary, error) {
	dup, err := s.client.DuplicateDocument(ctx, id)
	if err != nil {
		s.notify.Error("Could not duplicate the board: " + err.Error())
		s.reconcile(ctx, key)
		return nil, fmt.Errorf("duplicating board %s: %w", id, err)
	}

	s.lists.Update(key, func(items []models.DocumentSummary) []models.DocumentSummary {
		return append([]models.DocumentSummary{*dup}, items...)
	})
	s.notify.Success("Board duplicated")
	s.reconcile(ctx, key)
	return dup, nil
}

// reconcile refreshes the namespace from the server after a mutation
// settles, so an optimistic patch that diverged cannot mask server state.
// When the refetch itself fails the current entry (restored snapshot
// included) stays in place and the next reader retries.
func (s *BoardService) reconcile(ctx context.Context, key models.ListKey) {
	items, err := s.client.ListDocuments(ctx, key, summaryFields)
	if err != nil {
		s.log.Warn(ctx, "list refetch failed, keeping cached entry until next read",
			"workspace_id", key.WorkspaceID, "collection_id", key.CollectionID, "err", err)
		return
	}
	s.lists.Put(key, items)
}
