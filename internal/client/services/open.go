package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/boardsync/boardsync-client/internal/client/api"
	"github.com/boardsync/boardsync-client/internal/client/models"
	"github.com/boardsync/boardsync-client/internal/cryptox"
	"github.com/boardsync/boardsync-client/internal/logging"
)

// OpenResult is what a caller blocked on document startup receives. It is
// always resolved: a failed open returns a nil result with an error instead
// of leaving the caller waiting.
type OpenResult struct {
	Document *models.Document
	Threads  []models.CommentThread

	// Joined reports whether the collaboration room was entered. JoinErr
	// carries the join failure when the room was present but unreachable;
	// the document itself stays usable.
	Joined  bool
	JoinErr error
}

// Opener runs the document open sequence: tear down the previous document,
// load the new one into the editor, seed the save baseline from the loaded
// content, start comment sync and auto-join the collaboration room when the
// access rights and a room descriptor allow it.
type Opener struct {
	client   api.Client
	editor   EditorSurface
	saves    *Autosave
	comments *CommentSync
	threads  *ThreadCache
	collab   CollabChannel
	log      logging.Logger

	mu      sync.Mutex
	current string
}

func NewOpener(client api.Client, editor EditorSurface, saves *Autosave, comments *CommentSync, threads *ThreadCache, collab CollabChannel, log logging.Logger) *Opener {
	return &Opener{
		client:   client,
		editor:   editor,
		saves:    saves,
		comments: comments,
		threads:  threads,
		collab:   collab,
		log:      log,
	}
}

// Open switches the active document to id. shareKey is the room key from a
// share link and takes precedence over the server-provided one; pass empty
// when opening normally.
func (o *Opener) Open(ctx context.Context, id, shareKey string) (*OpenResult, error) {
	o.Close(ctx)

	doc, err := o.client.GetDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading document %s: %w", id, err)
	}

	if err := o.editor.Load(doc.Content); err != nil {
		return nil, fmt.Errorf("decoding document %s content: %w", id, err)
	}

	// Baseline is derived from what was actually loaded, so the document
	// does not register as unsaved before the first edit.
	o.saves.Start(id)
	o.saves.InitializeBaseline(cryptox.Fingerprint(doc.Content))

	res := &OpenResult{Document: doc}

	threads, err := o.client.ListThreads(ctx, id)
	if err != nil {
		o.log.Warn(ctx, "comment threads unavailable, starting with an empty list",
			"document_id", id, "err", err)
		threads = nil
	}
	o.threads.Put(id, threads)
	res.Threads = threads

	if err := o.comments.Start(ctx, id); err != nil {
		o.log.Warn(ctx, "comment sync unavailable", "document_id", id, "err", err)
	}

	if doc.CanCollab && doc.Room != nil {
		key := doc.Room.Key
		if shareKey != "" {
			key = shareKey
		}
		if err := o.collab.Join(ctx, doc.Room.ID, key, true); err != nil {
			res.JoinErr = fmt.Errorf("joining room %s: %w", doc.Room.ID, err)
			o.log.Warn(ctx, "collaboration join failed, continuing solo",
				"document_id", id, "room_id", doc.Room.ID, "err", err)
		} else {
			res.Joined = true
		}
	}

	o.mu.Lock()
	o.current = id
	o.mu.Unlock()
	return res, nil
}

// Close tears down the active document: flush unsaved edits, stop the save
// timers and the comment subscription, and leave the room. The flush is best
// effort; teardown proceeds on failure so a dead server cannot pin the
// previous document open.
func (o *Opener) Close(ctx context.Context) {
	o.mu.Lock()
	id := o.current
	o.current = ""
	o.mu.Unlock()

	if id == "" {
		return
	}

	if err := o.saves.SaveImmediately(ctx); err != nil {
		o.log.Warn(ctx, "final save failed on close", "document_id", id, "err", err)
	}
	o.saves.Stop()
	o.comments.Stop()
	o.threads.Invalidate(id)

	if o.collab.Active() {
		if err := o.collab.Close(); err != nil {
			o.log.Warn(ctx, "closing collaboration session", "document_id", id, "err", err)
		}
	}
}

// Current reports the id of the open document, empty when none is open.
func (o *Opener) Current() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}
