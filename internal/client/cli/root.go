package cli

import (
	"context"
	"fmt"
	"strings"
)

func (a *App) getStatus() string {
	parts := []string{}
	if id := a.opener.Current(); id != "" {
		parts = append(parts, id, string(a.saves.Status()))
	}
	if !a.watcher.Online() {
		parts = append(parts, "offline")
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " "))
}

// commandNeedsAuth reports whether cmd talks to the board service and so
// requires a logged-in session.
func commandNeedsAuth(cmd string) bool {
	switch cmd {
	case "help", "login", "exit", "quit":
		return false
	}
	return true
}

func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to boardsync (type 'help' for commands)")

	a.Login(ctx)

	for {
		fmt.Fprintf(a.out, "bsync %s> ", a.getStatus())
		line, err := a.reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		if !a.dispatch(ctx, parts[0], parts[1:]) {
			return
		}
	}
}

// dispatch runs one command. It reports false when the loop should exit.
func (a *App) dispatch(ctx context.Context, cmd string, args []string) bool {
	if commandNeedsAuth(cmd) && !a.sess.Authenticated() {
		fmt.Fprintln(a.out, "Not logged in (run 'login' first)")
		return true
	}

	switch cmd {
	case "help":
		fmt.Fprintln(a.out, "Available commands: login, list, open <id> [key], create <title>,")
		fmt.Fprintln(a.out, "  rename <id> <title>, delete <id>, duplicate <id>, edit <text>,")
		fmt.Fprintln(a.out, "  save, retry, status, threads, leave, close, exit")

	case "login":
		a.Login(ctx)
	case "list":
		a.list(ctx)
	case "open":
		a.open(ctx, args)
	case "create":
		a.create(ctx, args)
	case "rename":
		a.rename(ctx, args)
	case "delete":
		a.delete(ctx, args)
	case "duplicate":
		a.duplicate(ctx, args)
	case "edit":
		a.edit(args)
	case "save":
		a.save(ctx)
	case "retry":
		a.retry(ctx)
	case "status":
		a.status()
	case "threads":
		a.listThreads()
	case "leave":
		a.leave()
	case "close":
		a.close(ctx)
	case "exit", "quit":
		fmt.Fprintln(a.out, "Bye!")
		return false
	default:
		fmt.Fprintln(a.out, "Unknown command:", cmd)
	}
	return true
}

// Login prompts for credentials and authenticates the session. Failures keep
// the previous session state so the user can retry.
func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}

	if err := a.client.Login(ctx, email, string(password)); err != nil {
		fmt.Fprintln(a.out, "Login failed:", err)
		return err
	}

	fmt.Fprintln(a.out, "Logged in")
	return nil
}
