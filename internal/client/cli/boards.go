package cli

import (
	"context"
	"fmt"
	"strings"
)

func (a *App) list(ctx context.Context) {
	items, err := a.boards.List(ctx, a.listKey())
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}

	if len(items) == 0 {
		fmt.Fprintln(a.out, "No boards in this workspace")
		return
	}
	for _, it := range items {
		fmt.Fprintf(a.out, "%s  %-30s %s  %s\n", it.ID, it.Title, it.Visibility, it.UpdatedAt.Format("2006-01-02 15:04"))
	}
}

func (a *App) create(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: create <title>")
		return
	}

	created, err := a.boards.Create(ctx, a.listKey(), strings.Join(args, " "))
	if err != nil {
		return
	}
	fmt.Fprintln(a.out, "Created", created.ID)
}

func (a *App) rename(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(a.out, "Usage: rename <id> <title>")
		return
	}
	a.boards.Rename(ctx, a.listKey(), args[0], strings.Join(args[1:], " "))
}

func (a *App) delete(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: delete <id>")
		return
	}
	a.boards.Delete(ctx, a.listKey(), args[0])
}

func (a *App) duplicate(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: duplicate <id>")
		return
	}

	dup, err := a.boards.Duplicate(ctx, a.listKey(), args[0])
	if err != nil {
		return
	}
	fmt.Fprintln(a.out, "Duplicated as", dup.ID)
}
