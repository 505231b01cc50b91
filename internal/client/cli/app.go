package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/boardsync/boardsync-client/internal/client/api"
	"github.com/boardsync/boardsync-client/internal/client/cache"
	"github.com/boardsync/boardsync-client/internal/client/collab"
	"github.com/boardsync/boardsync-client/internal/client/config"
	"github.com/boardsync/boardsync-client/internal/client/models"
	"github.com/boardsync/boardsync-client/internal/client/push"
	"github.com/boardsync/boardsync-client/internal/client/services"
	"github.com/boardsync/boardsync-client/internal/client/session"
	"github.com/boardsync/boardsync-client/internal/logging"
)

// App wires the consistency engine to a line-oriented terminal frontend.
type App struct {
	config *config.Config
	log    logging.Logger
	sess   *session.Session
	client api.Client

	lists   *services.ListCache
	threads *services.ThreadCache
	editor  *memoryEditor
	saves   *services.Autosave
	boards  *services.BoardService
	opener  *services.Opener
	watcher *services.OnlineWatcher
	room    *collab.Room

	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config, log logging.Logger) (*App, error) {
	sess := session.New()
	client := api.NewHTTPClient(c.ServerURL, sess)

	lists := cache.New[models.ListKey, models.DocumentSummary](0, 0)
	threads := cache.New[string, models.CommentThread](0, 0)
	editor := &memoryEditor{}
	out := os.Stdout
	notify := &printNotifier{out: out}

	saves := services.NewAutosave(client, editor, services.NewClock(), notify, log, services.SaveIntervals{
		Debounce:   c.SaveDebounce,
		RetryDelay: c.SaveRetryDelay,
		Backup:     c.SaveBackupInterval,
	})

	reader := bufio.NewReader(os.Stdin)
	boards := services.NewBoardService(client, lists, &promptConfirmer{reader: reader, out: out}, notify, log)

	room := collab.NewRoom(c.ServerURL, sess, log)
	room.OnUpdate(func(u collab.Update) {
		fmt.Fprintf(out, "\n[peer %s] board updated (%d bytes)\n", u.Sender, len(u.Content))
	})

	comments := services.NewCommentSync(threads, push.NewSubscriber(c.ServerURL, sess, log), log)
	opener := services.NewOpener(client, editor, saves, comments, threads, room, log)
	watcher := services.NewOnlineWatcher(client, saves, services.NewClock(), log, c.OnlineCheckInterval)
	watcher.OnChange(func(online bool) {
		if online {
			fmt.Fprintln(out, "\nconnection restored")
		} else {
			fmt.Fprintln(out, "\nconnection lost")
		}
	})

	return &App{
		config:  c,
		log:     log,
		sess:    sess,
		client:  client,
		lists:   lists,
		threads: threads,
		editor:  editor,
		saves:   saves,
		boards:  boards,
		opener:  opener,
		watcher: watcher,
		room:    room,
		reader:  reader,
		out:     out,
	}, nil
}

// Run starts the watcher and the command loop, and tears everything down on
// exit.
func (a *App) Run(ctx context.Context) {
	a.watcher.Start()
	defer a.watcher.Stop()
	defer a.opener.Close(ctx)
	defer a.client.Close()

	a.Root(ctx)
}

// listKey resolves the list namespace for board commands.
func (a *App) listKey() models.ListKey {
	return models.ListKey{WorkspaceID: a.config.WorkspaceID}
}

// memoryEditor is the terminal stand-in for a drawing surface. Content is a
// plain byte buffer; the autosave machinery only ever sees serialized bytes.
type memoryEditor struct {
	mu      sync.Mutex
	content []byte
}

func (e *memoryEditor) Load(content []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.content = append([]byte(nil), content...)
	return nil
}

func (e *memoryEditor) Snapshot() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]byte(nil), e.content...)
}

// printNotifier writes settle notifications as plain terminal lines.
type printNotifier struct {
	out io.Writer
}

func (n *printNotifier) Success(msg string) {
	fmt.Fprintln(n.out, "OK:", msg)
}

func (n *printNotifier) Error(msg string) {
	fmt.Fprintln(n.out, "ERROR:", msg)
}

// promptConfirmer asks a y/n question on the terminal. Anything but an
// explicit yes denies.
type promptConfirmer struct {
	reader *bufio.Reader
	out    io.Writer
}

func (c *promptConfirmer) Confirm(ctx context.Context, prompt string) bool {
	fmt.Fprintf(c.out, "%s [y/N] ", prompt)
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
