// Package services contains the application services of the boardsync
// client: the autosave engine, optimistic board-list mutations, remote
// comment synchronization and the document open sequence.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/boardsync/boardsync-client/internal/client/api"
	"github.com/boardsync/boardsync-client/internal/common"
	"github.com/boardsync/boardsync-client/internal/cryptox"
	"github.com/boardsync/boardsync-client/internal/logging"
	"github.com/boardsync/boardsync-client/internal/netx"
)

// SaveStatus is the autosave machine state for the active document.
type SaveStatus string

const (
	StatusSaved   SaveStatus = "saved"
	StatusPending SaveStatus = "pending"
	StatusSaving  SaveStatus = "saving"
	StatusError   SaveStatus = "error"
	StatusOffline SaveStatus = "offline"
)

// maxAutoRetries bounds automatic retries per failed save cycle; beyond it
// the user must retry manually.
const maxAutoRetries = 1

// SaveIntervals configures the autosave timers.
type SaveIntervals struct {
	Debounce   time.Duration
	RetryDelay time.Duration
	Backup     time.Duration
}

func DefaultSaveIntervals() SaveIntervals {
	return SaveIntervals{
		Debounce:   2 * time.Second,
		RetryDelay: 5 * time.Second,
		Backup:     30 * time.Second,
	}
}

// Autosave owns the save state of one active document at a time.
//
// Contract:
//   - At most one persistence write is outstanding at any moment.
//   - A write is skipped entirely when the editor content hashes to the
//     fingerprint of the last successful save.
//   - Start/Stop bound the lifecycle; all timers die with Stop.
type Autosave struct {
	client    api.Client
	editor    EditorSurface
	clock     Clock
	notify    Notifier
	log       logging.Logger
	thumbs    ThumbnailRenderer
	intervals SaveIntervals

	mu           sync.Mutex
	docID        string
	started      bool
	status       SaveStatus
	lastSavedFP  string
	lastSavedAt  time.Time
	retryCount   int
	inFlight     bool
	pendingTimer Timer
	retryTimer   Timer
	backupTimer  Timer
	onStatus     func(SaveStatus)
}

func NewAutosave(client api.Client, editor EditorSurface, clock Clock, notify Notifier, log logging.Logger, intervals SaveIntervals) *Autosave {
	return &Autosave{
		client:    client,
		editor:    editor,
		clock:     clock,
		notify:    notify,
		log:       log,
		intervals: intervals,
		status:    StatusSaved,
	}
}

// SetThumbnailRenderer enables best-effort thumbnail refresh after
// successful saves. Optional.
func (a *Autosave) SetThumbnailRenderer(r ThumbnailRenderer) {
	a.thumbs = r
}

// OnStatusChange registers an observer invoked on every status transition.
// The callback runs with internal state held and must not call back into the
// service.
func (a *Autosave) OnStatusChange(fn func(SaveStatus)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onStatus = fn
}

// Start activates the machine for a document: fresh baseline, recurring
// backup timer. Any previous document's timers are cleared first.
func (a *Autosave) Start(docID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopTimersLocked()
	a.docID = docID
	a.started = true
	a.lastSavedFP = ""
	a.lastSavedAt = time.Time{}
	a.retryCount = 0
	a.setStatusLocked(StatusSaved)
	a.armBackupLocked()
}

// Stop clears all timers and discards the machine state. It does not flush;
// callers that must not drop edits call SaveImmediately first.
func (a *Autosave) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopTimersLocked()
	a.started = false
	a.docID = ""
	a.lastSavedFP = ""
	a.retryCount = 0
	a.setStatusLocked(StatusSaved)
}

// InitializeBaseline records the fingerprint of freshly loaded content so
// the document does not immediately read as unsaved. No network call.
func (a *Autosave) InitializeBaseline(fingerprint string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.lastSavedFP = fingerprint
	a.lastSavedAt = a.clock.Now()
	a.setStatusLocked(StatusSaved)
}

func (a *Autosave) Status() SaveStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *Autosave) LastSavedAt() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSavedAt
}

// MarkUnsaved signals an edit. The fingerprint is of the edited snapshot;
// edits that hash back to the baseline are ignored. Each call while pending
// restarts the debounce window.
func (a *Autosave) MarkUnsaved(fingerprint string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started || fingerprint == a.lastSavedFP && a.status == StatusSaved {
		return
	}

	switch a.status {
	case StatusSaved:
		a.setStatusLocked(StatusPending)
		a.armDebounceLocked()
	case StatusPending:
		a.armDebounceLocked()
	default:
		// saving: re-checked after the write settles; error/offline: the
		// retry path and the online signal pick the edit up.
	}
}

// SaveImmediately cancels pending timers and writes synchronously. Used
// before navigation; the caller proceeds only once it returns.
func (a *Autosave) SaveImmediately(ctx context.Context) error {
	a.mu.Lock()
	a.stopTimerLocked(&a.pendingTimer)
	a.stopTimerLocked(&a.retryTimer)
	a.mu.Unlock()

	return a.performSave(ctx)
}

// Retry is the manual override after automatic retries are exhausted: it
// re-arms the retry budget and writes immediately.
func (a *Autosave) Retry(ctx context.Context) error {
	a.mu.Lock()
	a.retryCount = 0
	a.stopTimerLocked(&a.retryTimer)
	a.mu.Unlock()

	return a.performSave(ctx)
}

// SetOffline records a network-offline signal. Only an in-progress cycle
// (pending or saving) transitions; a quiescent machine stays saved.
func (a *Autosave) SetOffline() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status == StatusPending || a.status == StatusSaving {
		a.stopTimerLocked(&a.pendingTimer)
		a.setStatusLocked(StatusOffline)
	}
}

// SetOnline resumes after reconnect: if unsaved changes exist, exactly one
// write attempt fires.
func (a *Autosave) SetOnline(ctx context.Context) error {
	a.mu.Lock()
	if a.status != StatusOffline {
		a.mu.Unlock()
		return nil
	}
	unsaved := cryptox.Fingerprint(a.editor.Snapshot()) != a.lastSavedFP
	if !unsaved {
		a.setStatusLocked(StatusSaved)
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	return a.performSave(ctx)
}

func (a *Autosave) debounceFired() {
	a.mu.Lock()
	a.pendingTimer = nil
	if !a.started || a.status != StatusPending || a.inFlight {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	_ = a.performSave(context.Background())
}

func (a *Autosave) retryFired() {
	a.mu.Lock()
	a.retryTimer = nil
	if !a.started || a.status != StatusError || a.inFlight {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	_ = a.performSave(context.Background())
}

func (a *Autosave) backupFired() {
	a.mu.Lock()
	a.backupTimer = nil
	if !a.started {
		a.mu.Unlock()
		return
	}
	a.armBackupLocked()
	due := a.status == StatusPending && !a.inFlight
	a.mu.Unlock()

	if due {
		_ = a.performSave(context.Background())
	}
}

// performSave runs one write cycle: snapshot, fingerprint short-circuit,
// write, settle. The lock is released for the duration of the network call;
// inFlight keeps the single-writer discipline.
func (a *Autosave) performSave(ctx context.Context) error {
	a.mu.Lock()
	if !a.started || a.inFlight {
		a.mu.Unlock()
		return nil
	}

	content := a.editor.Snapshot()
	fp := cryptox.Fingerprint(content)
	if fp == a.lastSavedFP {
		if a.status == StatusPending || a.status == StatusSaving || a.status == StatusOffline {
			a.setStatusLocked(StatusSaved)
		}
		a.mu.Unlock()
		return nil
	}

	docID := a.docID
	a.inFlight = true
	a.setStatusLocked(StatusSaving)
	a.mu.Unlock()

	savedAt, err := a.client.SaveContent(ctx, docID, content, fp)

	a.mu.Lock()
	a.inFlight = false

	// Document switched while the write was in flight: the result belongs
	// to a machine that no longer exists.
	if !a.started || a.docID != docID {
		a.mu.Unlock()
		return err
	}

	if err != nil {
		a.settleFailureLocked(err)
		a.mu.Unlock()
		return err
	}

	a.lastSavedFP = fp
	if savedAt.IsZero() {
		savedAt = a.clock.Now()
	}
	a.lastSavedAt = savedAt
	a.retryCount = 0

	if cryptox.Fingerprint(a.editor.Snapshot()) != fp {
		// Edits arrived mid-write.
		a.setStatusLocked(StatusPending)
		a.armDebounceLocked()
	} else {
		a.setStatusLocked(StatusSaved)
	}
	a.mu.Unlock()

	a.refreshThumbnail(docID)
	return nil
}

func (a *Autosave) settleFailureLocked(err error) {
	if a.status == StatusOffline {
		// The offline signal arrived mid-write; the online signal resumes.
		return
	}

	a.setStatusLocked(StatusError)

	if isPermanentSaveError(err) {
		a.retryCount = maxAutoRetries
		a.log.Error(context.Background(), "save rejected", "doc_id", a.docID, "err", err)
		a.notify.Error("Could not save the board: " + err.Error())
		return
	}

	if a.retryCount < maxAutoRetries {
		a.retryCount++
		a.armRetryLocked()
		a.log.Warn(context.Background(), "save failed, retrying", "doc_id", a.docID, "err", err)
		return
	}

	a.log.Error(context.Background(), "save failed after retry", "doc_id", a.docID, "err", err)
	a.notify.Error("Saving failed. Your changes are kept locally; retry manually.")
}

// isPermanentSaveError reports failures that another attempt cannot fix.
func isPermanentSaveError(err error) bool {
	return errors.Is(err, common.ErrForbidden) ||
		errors.Is(err, common.ErrNotFound) ||
		errors.Is(err, common.ErrNotAuthenticated)
}

func (a *Autosave) refreshThumbnail(docID string) {
	if a.thumbs == nil {
		return
	}

	// Decoupled from save state: a thumbnail failure never fails the save.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		img, err := a.thumbs.RenderThumbnail()
		if err != nil {
			a.log.Warn(ctx, "thumbnail render failed", "doc_id", docID, "err", err)
			return
		}
		url, err := a.client.ThumbnailUploadURL(ctx, docID)
		if err != nil {
			a.log.Warn(ctx, "thumbnail url request failed", "doc_id", docID, "err", err)
			return
		}
		if err := netx.UploadToPresignedURL(ctx, url, img, "image/png"); err != nil {
			a.log.Warn(ctx, "thumbnail upload failed", "doc_id", docID, "err", err)
		}
	}()
}

func (a *Autosave) setStatusLocked(s SaveStatus) {
	if a.status == s {
		return
	}
	a.status = s
	if a.onStatus != nil {
		a.onStatus(s)
	}
}

func (a *Autosave) armDebounceLocked() {
	a.stopTimerLocked(&a.pendingTimer)
	a.pendingTimer = a.clock.AfterFunc(a.intervals.Debounce, a.debounceFired)
}

func (a *Autosave) armRetryLocked() {
	a.stopTimerLocked(&a.retryTimer)
	a.retryTimer = a.clock.AfterFunc(a.intervals.RetryDelay, a.retryFired)
}

func (a *Autosave) armBackupLocked() {
	a.stopTimerLocked(&a.backupTimer)
	a.backupTimer = a.clock.AfterFunc(a.intervals.Backup, a.backupFired)
}

func (a *Autosave) stopTimersLocked() {
	a.stopTimerLocked(&a.pendingTimer)
	a.stopTimerLocked(&a.retryTimer)
	a.stopTimerLocked(&a.backupTimer)
}

func (a *Autosave) stopTimerLocked(t *Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
