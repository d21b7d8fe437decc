// Package auth tracks the client's authentication session and fans state
// transitions out to subscribers. Consumers must not trust User while
// IsLoading is set, and should re-run load-dependent logic whenever User
// transitions from nil to a concrete identity.
package auth

import "sync"

// Identity is the authenticated user as the editing core sees it.
type Identity struct {
	ID       string
	Username string
}

// State is one auth-session snapshot.
type State struct {
	User      *Identity
	IsLoading bool
}

// Watcher holds the current auth state and notifies subscribers on every
// transition: initial resolution, sign-in, sign-out.
type Watcher struct {
	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextID int
}

// NewWatcher starts in the loading state: the session is not yet resolved
// and User must not be trusted.
func NewWatcher() *Watcher {
	return &Watcher{
		state: State{IsLoading: true},
		subs:  make(map[int]func(State)),
	}
}

// OnChange subscribes cb to session transitions and immediately invokes it
// with the current state, so a late subscriber still learns where the
// session stands. The returned function unsubscribes.
func (w *Watcher) OnChange(cb func(State)) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.subs[id] = cb
	state := w.state
	w.mu.Unlock()

	cb(state)

	return func() {
		w.mu.Lock()
		delete(w.subs, id)
		w.mu.Unlock()
	}
}

// Resolve marks the session as resolved with the given user (nil for
// signed-out) and notifies subscribers.
func (w *Watcher) Resolve(user *Identity) {
	w.set(State{User: user, IsLoading: false})
}

// Reset puts the watcher back into the loading state, e.g. while a login is
// being exchanged for tokens.
func (w *Watcher) Reset() {
	w.set(State{IsLoading: true})
}

// Current returns the latest state.
func (w *Watcher) Current() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Watcher) set(s State) {
	w.mu.Lock()
	w.state = s
	cbs := make([]func(State), 0, len(w.subs))
	for _, cb := range w.subs {
		cbs = append(cbs, cb)
	}
	w.mu.Unlock()

	for _, cb := range cbs {
		cb(s)
	}
}
