package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
)

func (a *App) getStatus() string {
	s := ""
	if st := a.watcher.Current(); st.User != nil {
		s = st.User.Username + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root runs the interactive shell: subscribes to auth transitions, prompts
// for a login, starts the connectivity watcher and the change subscription,
// then hands control to the REPL until the user exits.
func (a *App) Root(ctx context.Context) {
	log.Println("Welcome to Inkpad CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	watcherCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	unsubscribe := a.watchAuthChanges(watcherCtx)
	defer unsubscribe()

	_ = a.Login(ctx)

	go a.StartOnlineStatusWatcher(watcherCtx, a.config.OnlineCheckInterval)
	go a.StartChangeSubscription(watcherCtx)

	runREPL(ctx, a, a.getStatus, scanner)

	a.closeEditing()
}
