package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boardsync/boardsync-client/internal/client/cache"
	"github.com/boardsync/boardsync-client/internal/client/models"
	"github.com/boardsync/boardsync-client/internal/common"
)

type fakeConfirmer struct {
	answer bool
	calls  int
}

func (f *fakeConfirmer) Confirm(ctx context.Context, prompt string) bool {
	f.calls++
	return f.answer
}

func threeBoards() []models.DocumentSummary {
	return []models.DocumentSummary{
		{ID: "d1", Title: "Alpha"},
		{ID: "d2", Title: "Beta"},
		{ID: "d3", Title: "Gamma"},
	}
}

func newBoardServiceForTest(t *testing.T, confirmAnswer bool) (*BoardService, *fakeAPI, *ListCache, *fakeConfirmer, *fakeNotifier, models.ListKey) {
	t.Helper()
	client := &fakeAPI{}
	lists := cache.New[models.ListKey, models.DocumentSummary](0, 0)
	confirm := &fakeConfirmer{answer: confirmAnswer}
	notify := &fakeNotifier{}

	svc := NewBoardService(client, lists, confirm, notify, testLogger())

	key := models.ListKey{WorkspaceID: "w1"}
	lists.Put(key, threeBoards())
	return svc, client, lists, confirm, notify, key
}

func TestBoardService_List_CacheMissFetches(t *testing.T) {
	svc, client, _, _, _, _ := newBoardServiceForTest(t, true)
	client.listOut = threeBoards()

	other := models.ListKey{WorkspaceID: "w2", CollectionID: "c9"}
	got, err := svc.List(context.Background(), other)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// second read is served from cache even with the client erroring
	client.listErr = errors.New("down")
	got, err = svc.List(context.Background(), other)
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestBoardService_Delete_ConfirmationDenied(t *testing.T) {
	svc, client, lists, confirm, _, key := newBoardServiceForTest(t, false)
	client.deleteErr = errors.New("must not be called")

	require.NoError(t, svc.Delete(context.Background(), key, "d2"))

	require.Equal(t, 1, confirm.calls)
	got, _ := lists.Get(key)
	require.Equal(t, threeBoards(), got)
}

func TestBoardService_Delete_Success(t *testing.T) {
	svc, client, lists, _, notify, key := newBoardServiceForTest(t, true)
	client.listOut = []models.DocumentSummary{{ID: "d1", Title: "Alpha"}, {ID: "d3", Title: "Gamma"}}

	require.NoError(t, svc.Delete(context.Background(), key, "d2"))

	got, _ := lists.Get(key)
	require.Len(t, got, 2)
	for _, it := range got {
		require.NotEqual(t, "d2", it.ID)
	}
	require.Equal(t, []string{"Board deleted"}, notify.successes)
}

func TestBoardService_Delete_FailureRollsBack(t *testing.T) {
	svc, client, lists, _, notify, key := newBoardServiceForTest(t, true)
	client.deleteErr = common.ErrForbidden
	client.listErr = errors.New("refetch also down")

	err := svc.Delete(context.Background(), key, "d2")
	require.ErrorIs(t, err, common.ErrForbidden)

	got, _ := lists.Get(key)
	require.Equal(t, threeBoards(), got, "list must be restored to the pre-mutation snapshot")
	require.Equal(t, 1, notify.errorCount())
}

func TestBoardService_Rename_ReplacesWithCanonical(t *testing.T) {
	svc, client, lists, _, _, key := newBoardServiceForTest(t, true)
	client.renameOut = &models.DocumentSummary{ID: "d2", Title: "Beta v2", Visibility: models.VisibilityWorkspace}
	client.listErr = errors.New("skip reconcile")

	var renamedID, renamedTitle string
	svc.OnRenamed(func(id, title string) { renamedID, renamedTitle = id, title })

	require.NoError(t, svc.Rename(context.Background(), key, "d2", "Beta v2"))

	got, _ := lists.Get(key)
	require.Equal(t, *client.renameOut, got[1], "optimistic entry replaced by server response")
	require.Equal(t, "d2", renamedID)
	require.Equal(t, "Beta v2", renamedTitle)
}

func TestBoardService_Rename_FailureRollsBack(t *testing.T) {
	svc, client, lists, _, notify, key := newBoardServiceForTest(t, true)
	client.renameErr = errors.New("boom")
	client.listErr = errors.New("refetch also down")

	require.Error(t, svc.Rename(context.Background(), key, "d2", "Beta v2"))

	got, _ := lists.Get(key)
	require.Equal(t, threeBoards(), got)
	require.Equal(t, 1, notify.errorCount())
}

func TestBoardService_Duplicate_InsertsAtHead(t *testing.T) {
	svc, client, lists, confirm, _, key := newBoardServiceForTest(t, true)
	client.dupOut = &models.DocumentSummary{ID: "d4", Title: "Alpha (copy)"}
	client.listErr = errors.New("skip reconcile")

	dup, err := svc.Duplicate(context.Background(), key, "d1")
	require.NoError(t, err)
	require.Equal(t, "d4", dup.ID)

	got, _ := lists.Get(key)
	require.Len(t, got, 4)
	require.Equal(t, "d4", got[0].ID)

	// duplication is non-destructive: no confirmation prompt
	require.Zero(t, confirm.calls)
}

func TestBoardService_Duplicate_FailureLeavesListUnchanged(t *testing.T) {
	svc, client, lists, _, notify, key := newBoardServiceForTest(t, true)
	client.dupErr = errors.New("boom")
	client.listErr = errors.New("refetch also down")

	_, err := svc.Duplicate(context.Background(), key, "d1")
	require.Error(t, err)

	got, _ := lists.Get(key)
	require.Equal(t, threeBoards(), got)
	require.Equal(t, 1, notify.errorCount())
}

func TestBoardService_ReconcileReplacesWithServerTruth(t *testing.T) {
	svc, client, lists, _, _, key := newBoardServiceForTest(t, true)
	client.dupOut = &models.DocumentSummary{ID: "d4", Title: "Alpha (copy)"}
	// server truth differs from the optimistic view
	client.listOut = []models.DocumentSummary{{ID: "d4"}, {ID: "d1"}, {ID: "d2"}, {ID: "d3"}, {ID: "d9"}}

	_, err := svc.Duplicate(context.Background(), key, "d1")
	require.NoError(t, err)

	got, _ := lists.Get(key)
	require.Len(t, got, 5, "cache reconciled with the server list on settle")
}
