package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/boardsync/boardsync-client/internal/cryptox"
)

func (a *App) open(ctx context.Context, args []string) {
	if len(args) == 0 || len(args) > 2 {
		fmt.Fprintln(a.out, "Usage: open <id> [room-key]")
		return
	}

	shareKey := ""
	if len(args) == 2 {
		shareKey = args[1]
	}

	res, err := a.opener.Open(ctx, args[0], shareKey)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}

	fmt.Fprintf(a.out, "Opened %q (%d bytes, %d comment threads)\n",
		res.Document.Title, len(res.Document.Content), len(res.Threads))
	switch {
	case res.Joined:
		fmt.Fprintln(a.out, "Joined collaboration room", res.Document.Room.ID)
	case res.JoinErr != nil:
		fmt.Fprintln(a.out, "Collaboration unavailable:", res.JoinErr)
	}
}

// edit replaces the in-memory board content and reports the change to the
// autosave machinery, the way a drawing surface would after a stroke.
func (a *App) edit(args []string) {
	if a.opener.Current() == "" {
		fmt.Fprintln(a.out, "No open board")
		return
	}
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: edit <text>")
		return
	}

	content := []byte(strings.Join(args, " "))
	if err := a.editor.Load(content); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	a.saves.MarkUnsaved(cryptox.Fingerprint(content))

	if a.room.Active() {
		if err := a.room.Send(content); err != nil {
			fmt.Fprintln(a.out, "Relay error:", err)
		}
	}
}

func (a *App) save(ctx context.Context) {
	if err := a.saves.SaveImmediately(ctx); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	fmt.Fprintln(a.out, "Saved")
}

func (a *App) retry(ctx context.Context) {
	if err := a.saves.Retry(ctx); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	fmt.Fprintln(a.out, "Saved")
}

func (a *App) status() {
	id := a.opener.Current()
	if id == "" {
		fmt.Fprintln(a.out, "No open board")
		return
	}

	fmt.Fprintln(a.out, "Board:      ", id)
	fmt.Fprintln(a.out, "Save status:", a.saves.Status())
	if at := a.saves.LastSavedAt(); !at.IsZero() {
		fmt.Fprintln(a.out, "Last saved: ", at.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(a.out, "Online:     ", a.watcher.Online())
	if a.room.Active() {
		mode := "manual"
		if a.room.AutoJoined() {
			mode = "auto"
		}
		fmt.Fprintf(a.out, "Room:        active (%s-joined)\n", mode)
	}
}

func (a *App) listThreads() {
	id := a.opener.Current()
	if id == "" {
		fmt.Fprintln(a.out, "No open board")
		return
	}

	items, ok := a.threads.Get(id)
	if !ok || len(items) == 0 {
		fmt.Fprintln(a.out, "No comment threads")
		return
	}

	for _, t := range items {
		state := "open"
		if t.Resolved {
			state = "resolved"
		}
		fmt.Fprintf(a.out, "%s  (%.0f,%.0f)  %s  %d comments\n", t.ID, t.X, t.Y, state, t.CommentCount)
		for _, c := range t.Comments {
			fmt.Fprintf(a.out, "    %s: %s\n", c.Author, c.Content)
		}
	}
}

func (a *App) leave() {
	if err := a.room.Leave(); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	fmt.Fprintln(a.out, "Left the room")
}

func (a *App) close(ctx context.Context) {
	if a.opener.Current() == "" {
		fmt.Fprintln(a.out, "No open board")
		return
	}
	a.opener.Close(ctx)
	fmt.Fprintln(a.out, "Closed")
}
