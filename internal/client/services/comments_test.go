package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/boardsync/boardsync-client/internal/client/cache"
	"github.com/boardsync/boardsync-client/internal/client/models"
)

type fakePush struct {
	events       chan models.Event
	subscribed   []string
	unsubscribed []string
	subErr       error
}

func (f *fakePush) Subscribe(ctx context.Context, documentID string) (<-chan models.Event, error) {
	if f.subErr != nil {
		return nil, f.subErr
	}
	f.subscribed = append(f.subscribed, documentID)
	f.events = make(chan models.Event, 16)
	return f.events, nil
}

func (f *fakePush) Unsubscribe(documentID string) {
	f.unsubscribed = append(f.unsubscribed, documentID)
	close(f.events)
}

func mustPayload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func newCommentSyncForTest(t *testing.T) (*CommentSync, *ThreadCache, *fakePush) {
	t.Helper()
	threads := cache.New[string, models.CommentThread](0, 0)
	push := &fakePush{}
	return NewCommentSync(threads, push, testLogger()), threads, push
}

func seedThreads(threads *ThreadCache, docID string) {
	threads.Put(docID, []models.CommentThread{
		{
			ID: "t1", DocumentID: docID, X: 10, Y: 20, CommentCount: 1,
			Comments: []models.Comment{{ID: "c1", ThreadID: "t1", Content: "first"}},
		},
	})
}

func TestCommentSync_ThreadCreated_Idempotent(t *testing.T) {
	applier, threads, _ := newCommentSyncForTest(t)
	seedThreads(threads, "doc1")

	ev := models.Event{
		Type:       models.EventThreadCreated,
		DocumentID: "doc1",
		Payload:    mustPayload(t, models.ThreadCreatedPayload{Thread: models.CommentThread{ID: "t2", DocumentID: "doc1"}}),
	}
	applier.Apply(ev)
	applier.Apply(ev)

	got, _ := threads.Get("doc1")
	require.Len(t, got, 2, "duplicate delivery collapses to one thread")
}

func TestCommentSync_ThreadResolved_UnknownIDIsNoop(t *testing.T) {
	applier, threads, _ := newCommentSyncForTest(t)
	seedThreads(threads, "doc1")
	before, _ := threads.Get("doc1")

	applier.Apply(models.Event{
		Type:       models.EventThreadResolved,
		DocumentID: "doc1",
		Payload:    mustPayload(t, models.ThreadResolvedPayload{ThreadID: "missing", Resolved: true}),
	})

	after, _ := threads.Get("doc1")
	require.Equal(t, before, after)
}

func TestCommentSync_ThreadResolved_PatchesFlag(t *testing.T) {
	applier, threads, _ := newCommentSyncForTest(t)
	seedThreads(threads, "doc1")

	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	applier.Apply(models.Event{
		Type:       models.EventThreadResolved,
		DocumentID: "doc1",
		Payload:    mustPayload(t, models.ThreadResolvedPayload{ThreadID: "t1", Resolved: true, ResolvedBy: "u7", ResolvedAt: &at}),
	})

	got, _ := threads.Get("doc1")
	require.True(t, got[0].Resolved)
	require.Equal(t, "u7", got[0].ResolvedBy)
	require.Equal(t, at, got[0].ResolvedAt.UTC())
}

func TestCommentSync_ThreadDeletedAndMoved(t *testing.T) {
	applier, threads, _ := newCommentSyncForTest(t)
	seedThreads(threads, "doc1")

	applier.Apply(models.Event{
		Type:       models.EventThreadMoved,
		DocumentID: "doc1",
		Payload:    mustPayload(t, models.ThreadMovedPayload{ThreadID: "t1", X: 42, Y: 43}),
	})
	got, _ := threads.Get("doc1")
	require.Equal(t, 42.0, got[0].X)
	require.Equal(t, 43.0, got[0].Y)

	applier.Apply(models.Event{
		Type:       models.EventThreadDeleted,
		DocumentID: "doc1",
		Payload:    mustPayload(t, models.ThreadDeletedPayload{ThreadID: "t1"}),
	})
	got, _ = threads.Get("doc1")
	require.Empty(t, got)

	// delete again: absent id, no panic, cache unchanged
	applier.Apply(models.Event{
		Type:       models.EventThreadDeleted,
		DocumentID: "doc1",
		Payload:    mustPayload(t, models.ThreadDeletedPayload{ThreadID: "t1"}),
	})
	got, _ = threads.Get("doc1")
	require.Empty(t, got)
}

func TestCommentSync_CommentAdded_CountsAndDedupes(t *testing.T) {
	applier, threads, _ := newCommentSyncForTest(t)
	seedThreads(threads, "doc1")

	ev := models.Event{
		Type:       models.EventCommentAdded,
		DocumentID: "doc1",
		Payload:    mustPayload(t, models.CommentAddedPayload{ThreadID: "t1", Comment: models.Comment{ID: "c2", ThreadID: "t1", Content: "second"}}),
	}
	applier.Apply(ev)
	applier.Apply(ev)

	got, _ := threads.Get("doc1")
	require.Len(t, got[0].Comments, 2)
	require.Equal(t, 2, got[0].CommentCount)

	// unknown thread: no-op
	applier.Apply(models.Event{
		Type:       models.EventCommentAdded,
		DocumentID: "doc1",
		Payload:    mustPayload(t, models.CommentAddedPayload{ThreadID: "missing", Comment: models.Comment{ID: "c3"}}),
	})
	got, _ = threads.Get("doc1")
	require.Len(t, got, 1)
}

func TestCommentSync_CommentUpdatedAndDeleted(t *testing.T) {
	applier, threads, _ := newCommentSyncForTest(t)
	seedThreads(threads, "doc1")

	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	applier.Apply(models.Event{
		Type:       models.EventCommentUpdated,
		DocumentID: "doc1",
		Payload:    mustPayload(t, models.CommentUpdatedPayload{ThreadID: "t1", CommentID: "c1", Content: "edited", EditedAt: &at}),
	})
	got, _ := threads.Get("doc1")
	require.Equal(t, "edited", got[0].Comments[0].Content)
	require.NotNil(t, got[0].Comments[0].EditedAt)

	applier.Apply(models.Event{
		Type:       models.EventCommentDeleted,
		DocumentID: "doc1",
		Payload:    mustPayload(t, models.CommentDeletedPayload{ThreadID: "t1", CommentID: "c1"}),
	})
	got, _ = threads.Get("doc1")
	require.Empty(t, got[0].Comments)
	require.Zero(t, got[0].CommentCount)

	// unknown comment id: no-op
	applier.Apply(models.Event{
		Type:       models.EventCommentDeleted,
		DocumentID: "doc1",
		Payload:    mustPayload(t, models.CommentDeletedPayload{ThreadID: "t1", CommentID: "c1"}),
	})
	got, _ = threads.Get("doc1")
	require.Zero(t, got[0].CommentCount)
}

func TestCommentSync_ReadersKeepPreviousGeneration(t *testing.T) {
	applier, threads, _ := newCommentSyncForTest(t)
	seedThreads(threads, "doc1")
	before, _ := threads.Get("doc1")

	applier.Apply(models.Event{
		Type:       models.EventCommentAdded,
		DocumentID: "doc1",
		Payload:    mustPayload(t, models.CommentAddedPayload{ThreadID: "t1", Comment: models.Comment{ID: "c2"}}),
	})

	require.Len(t, before[0].Comments, 1, "previously obtained list must not change under the reader")
	after, _ := threads.Get("doc1")
	require.Len(t, after[0].Comments, 2)
}

func TestCommentSync_MalformedPayloadDropped(t *testing.T) {
	applier, threads, _ := newCommentSyncForTest(t)
	seedThreads(threads, "doc1")
	before, _ := threads.Get("doc1")

	applier.Apply(models.Event{
		Type:       models.EventThreadResolved,
		DocumentID: "doc1",
		Payload:    json.RawMessage(`{"threadId":`),
	})

	after, _ := threads.Get("doc1")
	require.Equal(t, before, after)
}

func TestCommentSync_StartAppliesDeliveredEvents(t *testing.T) {
	applier, threads, push := newCommentSyncForTest(t)
	seedThreads(threads, "doc1")

	require.NoError(t, applier.Start(context.Background(), "doc1"))
	push.events <- models.Event{
		Type:       models.EventThreadCreated,
		DocumentID: "doc1",
		Payload:    mustPayload(t, models.ThreadCreatedPayload{Thread: models.CommentThread{ID: "t2"}}),
	}
	applier.Stop()

	require.Equal(t, []string{"doc1"}, push.subscribed)
	require.Equal(t, []string{"doc1"}, push.unsubscribed)
	got, _ := threads.Get("doc1")
	require.Len(t, got, 2)
}

func TestCommentSync_SubscribeFailure(t *testing.T) {
	applier, _, push := newCommentSyncForTest(t)
	push.subErr = errors.New("push unavailable")

	require.Error(t, applier.Start(context.Background(), "doc1"))
	applier.Stop()
}
