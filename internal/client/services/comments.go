package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/boardsync/boardsync-client/internal/client/cache"
	"github.com/boardsync/boardsync-client/internal/client/models"
	"github.com/boardsync/boardsync-client/internal/logging"
)

// ThreadCache stores comment threads per document id.
type ThreadCache = cache.Cache[string, models.CommentThread]

// CommentSync folds push-delivered comment events into the thread cache.
// Events are one-way notifications of state already committed elsewhere, so
// applying one never issues an outbound request. The push channel delivers
// at least once; every apply is therefore written to be idempotent.
type CommentSync struct {
	threads *ThreadCache
	push    PushChannel
	log     logging.Logger

	mu    sync.Mutex
	docID string
	done  chan struct{}
}

func NewCommentSync(threads *ThreadCache, push PushChannel, log logging.Logger) *CommentSync {
	return &CommentSync{threads: threads, push: push, log: log}
}

// Start subscribes to the push channel for docID and applies incoming events
// until Stop is called. A previous subscription is torn down first.
func (s *CommentSync) Start(ctx context.Context, docID string) error {
	s.Stop()

	events, err := s.push.Subscribe(ctx, docID)
	if err != nil {
		return fmt.Errorf("subscribing to comment events for %s: %w", docID, err)
	}

	done := make(chan struct{})

	s.mu.Lock()
	s.docID = docID
	s.done = done
	s.mu.Unlock()

	// Unsubscribe closes the channel; buffered events drain before the
	// loop exits, so Stop never drops an already-delivered event.
	go func() {
		defer close(done)
		for ev := range events {
			s.Apply(ev)
		}
	}()
	return nil
}

// Stop unsubscribes and waits for the event loop to drain.
func (s *CommentSync) Stop() {
	s.mu.Lock()
	docID, done := s.docID, s.done
	s.docID, s.done = "", nil
	s.mu.Unlock()

	if done == nil {
		return
	}
	s.push.Unsubscribe(docID)
	<-done
}

// Apply folds one event into the cached thread list for its document.
// Events referencing unknown thread or comment ids leave the cache unchanged;
// duplicate deliveries of creation events are collapsed to a single entry.
func (s *CommentSync) Apply(ev models.Event) {
	var applyErr error

	switch ev.Type {
	case models.EventThreadCreated:
		var p models.ThreadCreatedPayload
		if applyErr = ev.UnmarshalPayload(&p); applyErr == nil {
			s.threads.Update(ev.DocumentID, func(items []models.CommentThread) []models.CommentThread {
				if threadIndex(items, p.Thread.ID) >= 0 {
					return items
				}
				return append(items, p.Thread)
			})
		}

	case models.EventThreadResolved:
		var p models.ThreadResolvedPayload
		if applyErr = ev.UnmarshalPayload(&p); applyErr == nil {
			s.patchThread(ev.DocumentID, p.ThreadID, func(t *models.CommentThread) {
				t.Resolved = p.Resolved
				t.ResolvedBy = p.ResolvedBy
				t.ResolvedAt = p.ResolvedAt
			})
		}

	case models.EventThreadDeleted:
		var p models.ThreadDeletedPayload
		if applyErr = ev.UnmarshalPayload(&p); applyErr == nil {
			s.threads.Update(ev.DocumentID, func(items []models.CommentThread) []models.CommentThread {
				out := items[:0]
				for _, t := range items {
					if t.ID != p.ThreadID {
						out = append(out, t)
					}
				}
				return out
			})
		}

	case models.EventThreadMoved:
		var p models.ThreadMovedPayload
		if applyErr = ev.UnmarshalPayload(&p); applyErr == nil {
			s.patchThread(ev.DocumentID, p.ThreadID, func(t *models.CommentThread) {
				t.X = p.X
				t.Y = p.Y
			})
		}

	case models.EventCommentAdded:
		var p models.CommentAddedPayload
		if applyErr = ev.UnmarshalPayload(&p); applyErr == nil {
			s.patchThread(ev.DocumentID, p.ThreadID, func(t *models.CommentThread) {
				if commentIndex(t.Comments, p.Comment.ID) >= 0 {
					return
				}
				t.Comments = append(t.Comments, p.Comment)
				t.CommentCount++
			})
		}

	case models.EventCommentUpdated:
		var p models.CommentUpdatedPayload
		if applyErr = ev.UnmarshalPayload(&p); applyErr == nil {
			s.patchThread(ev.DocumentID, p.ThreadID, func(t *models.CommentThread) {
				if i := commentIndex(t.Comments, p.CommentID); i >= 0 {
					t.Comments[i].Content = p.Content
					t.Comments[i].EditedAt = p.EditedAt
				}
			})
		}

	case models.EventCommentDeleted:
		var p models.CommentDeletedPayload
		if applyErr = ev.UnmarshalPayload(&p); applyErr == nil {
			s.patchThread(ev.DocumentID, p.ThreadID, func(t *models.CommentThread) {
				if i := commentIndex(t.Comments, p.CommentID); i >= 0 {
					t.Comments = append(t.Comments[:i], t.Comments[i+1:]...)
					t.CommentCount--
				}
			})
		}

	default:
		s.log.Debug(context.Background(), "ignoring comment event of unknown type",
			"type", string(ev.Type), "document_id", ev.DocumentID)
		return
	}

	if applyErr != nil {
		s.log.Warn(context.Background(), "dropping malformed comment event",
			"type", string(ev.Type), "document_id", ev.DocumentID, "err", applyErr)
	}
}

// patchThread rewrites the thread with the given id in place. Comment slices
// are re-copied before mutation so readers of the previous list generation
// never observe the patch.
func (s *CommentSync) patchThread(docID, threadID string, fn func(t *models.CommentThread)) {
	s.threads.Update(docID, func(items []models.CommentThread) []models.CommentThread {
		i := threadIndex(items, threadID)
		if i < 0 {
			return items
		}
		cp := make([]models.Comment, len(items[i].Comments))
		copy(cp, items[i].Comments)
		items[i].Comments = cp
		fn(&items[i])
		return items
	})
}

func threadIndex(items []models.CommentThread, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func commentIndex(items []models.Comment, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
