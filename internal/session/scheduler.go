package session

import (
	"sync"
	"time"
)

// SaveScheduler coalesces a burst of edits into a single save. Schedule
// re-arms a quiet-period timer; when the timer fires without interruption the
// most recently scheduled function runs, in its own goroutine, with the
// guarantee that at most one of them is ever in flight. If the timer fires
// while a previous save is still running, the scheduler marks the save
// pending and re-arms itself as soon as the running one completes, so the
// newest state is eventually persisted.
//
// The timer handle is owned by the scheduler instance. Close cancels an
// armed timer; a save already in flight is allowed to finish.
type SaveScheduler struct {
	mu      sync.Mutex
	quiet   time.Duration
	timer   *time.Timer
	saveFn  func()
	running bool
	pending bool
	closed  bool
}

// NewSaveScheduler builds a scheduler with the given quiet period.
func NewSaveScheduler(quiet time.Duration) *SaveScheduler {
	return &SaveScheduler{quiet: quiet}
}

// Schedule cancels any armed, not-yet-fired timer and arms a new one.
// The newest saveFn always wins: when the timer finally fires, the function
// from the most recent Schedule call runs.
func (s *SaveScheduler) Schedule(saveFn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.saveFn = saveFn
	s.armLocked()
}

// Pending reports whether an edit arrived while a save was in flight and a
// follow-up save is owed.
func (s *SaveScheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// InFlight reports whether a save is currently running.
func (s *SaveScheduler) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Close cancels any armed timer and prevents further scheduling. A save in
// flight completes fire-and-forget: the session state is gone but the remote
// write is still desirable.
func (s *SaveScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *SaveScheduler) armLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.quiet, s.fire)
}

func (s *SaveScheduler) fire() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.running {
		// A save is awaiting the store's response; owe one follow-up
		// instead of starting a concurrent save.
		s.pending = true
		s.mu.Unlock()
		return
	}
	s.running = true
	fn := s.saveFn
	s.mu.Unlock()

	go func() {
		fn()

		s.mu.Lock()
		defer s.mu.Unlock()
		s.running = false
		if s.pending && !s.closed {
			s.pending = false
			s.armLocked()
		}
	}()
}
