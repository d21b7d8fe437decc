package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	arg   int
	term  string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Register(ctx context.Context) error {
	f.calls = append(f.calls, "register")
	return nil
}
func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}
func (f *fakeExec) List(ctx context.Context) error { f.calls = append(f.calls, "list"); return nil }
func (f *fakeExec) Search(ctx context.Context, term string) error {
	f.calls = append(f.calls, "search")
	f.term = term
	return nil
}
func (f *fakeExec) Recent(ctx context.Context) error {
	f.calls = append(f.calls, "recent")
	return nil
}
func (f *fakeExec) Starred(ctx context.Context) error {
	f.calls = append(f.calls, "starred")
	return nil
}
func (f *fakeExec) Open(ctx context.Context, n int) error {
	f.calls = append(f.calls, "open")
	f.arg = n
	return nil
}
func (f *fakeExec) New(ctx context.Context) error { f.calls = append(f.calls, "new"); return nil }
func (f *fakeExec) EditTitle(ctx context.Context) error {
	f.calls = append(f.calls, "title")
	return nil
}
func (f *fakeExec) EditContent(ctx context.Context) error {
	f.calls = append(f.calls, "content")
	return nil
}
func (f *fakeExec) ToggleStar(ctx context.Context) error {
	f.calls = append(f.calls, "star")
	return nil
}
func (f *fakeExec) Delete(ctx context.Context, n int) error {
	f.calls = append(f.calls, "delete")
	f.arg = n
	return nil
}
func (f *fakeExec) CloseDoc(ctx context.Context) error {
	f.calls = append(f.calls, "close")
	return nil
}
func (f *fakeExec) Status(ctx context.Context) error {
	f.calls = append(f.calls, "status")
	return nil
}

func runScript(t *testing.T, f *fakeExec, lines ...string) []string {
	t.Helper()

	origPrint := printlnFn
	var output []string
	printlnFn = func(args ...any) (int, error) {
		output = append(output, fmt.Sprint(args...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })

	scanner := bufio.NewScanner(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	runREPL(context.Background(), f, func() string { return "" }, scanner)
	return output
}

func TestRunREPL_CommandDispatch(t *testing.T) {
	f := &fakeExec{}
	runScript(t, f,
		"login",
		"list",
		"search draft notes",
		"recent",
		"starred",
		"open 2",
		"star",
		"close",
		"logout",
		"exit",
	)

	require.Equal(t, []string{"login", "list", "search", "recent", "starred", "open", "star", "close", "logout"}, f.calls)
	require.Equal(t, "draft notes", f.term)
	require.Equal(t, 2, f.arg)
}

func TestRunREPL_BadIndexUsage(t *testing.T) {
	f := &fakeExec{loggedIn: true}
	output := runScript(t, f,
		"open",
		"open two",
		"delete",
		"exit",
	)

	require.Empty(t, f.calls)
	require.Contains(t, output, "Usage: open <n>")
	require.Contains(t, output, "Usage: delete <n>")
}

func TestRunREPL_UnknownCommandAndEOF(t *testing.T) {
	f := &fakeExec{}
	output := runScript(t, f, "frobnicate")

	require.Empty(t, f.calls)
	require.Contains(t, output, "Unknown command:frobnicate")
}

func TestRunREPL_HelpDependsOnLogin(t *testing.T) {
	f := &fakeExec{}
	output := runScript(t, f, "help", "login", "help", "exit")

	var helps []string
	for _, line := range output {
		if strings.HasPrefix(line, "Available commands:") {
			helps = append(helps, line)
		}
	}
	require.Len(t, helps, 2)
	require.Contains(t, helps[0], "register")
	require.Contains(t, helps[1], "open")
}
