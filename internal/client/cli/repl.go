package cli

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	Search(ctx context.Context, term string) error
	Recent(ctx context.Context) error
	Starred(ctx context.Context) error
	Open(ctx context.Context, n int) error
	New(ctx context.Context) error
	EditTitle(ctx context.Context) error
	EditContent(ctx context.Context) error
	ToggleStar(ctx context.Context) error
	Delete(ctx context.Context, n int) error
	CloseDoc(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL reads lines from the scanner, parses the first token as the
// command, and dispatches to methods on a. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit". Errors returned by command handlers are ignored here;
// handlers report their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("ink> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (l)ist, search, recent, starred, open, new, title, content, star, delete, close, status, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "search":
			_ = a.Search(ctx, strings.Join(args, " "))

		case "recent":
			_ = a.Recent(ctx)

		case "starred":
			_ = a.Starred(ctx)

		case "open":
			n, ok := parseIndex(args)
			if !ok {
				printlnFn("Usage: open <n>")
				continue
			}
			_ = a.Open(ctx, n)

		case "new":
			_ = a.New(ctx)

		case "title":
			_ = a.EditTitle(ctx)

		case "content":
			_ = a.EditContent(ctx)

		case "star":
			_ = a.ToggleStar(ctx)

		case "delete":
			n, ok := parseIndex(args)
			if !ok {
				printlnFn("Usage: delete <n>")
				continue
			}
			_ = a.Delete(ctx, n)

		case "close":
			_ = a.CloseDoc(ctx)

		case "status":
			_ = a.Status(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func parseIndex(args []string) (int, bool) {
	if len(args) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, false
	}
	return n, true
}
