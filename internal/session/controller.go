// Package session owns one document's mutable editing state and drives it
// through the load → edit → debounce → save cycle against the remote store.
// One Controller is bound to one document id and is destroyed when the
// editing view closes.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"inkpad/internal/common"
	"inkpad/internal/document"
	"inkpad/internal/logging"
	"inkpad/internal/store"
)

// State is the lifecycle of an editing session.
type State int

const (
	// StateLoading means the document query has not resolved yet.
	StateLoading State = iota
	// StateReady means the document is loaded and editable.
	StateReady
	// StateNotFound is terminal: the id had no match for this owner.
	// The session never retries and never arms a save.
	StateNotFound
)

// SaveStatus tells whether a save request is awaiting the store's response.
type SaveStatus int

const (
	SaveIdle SaveStatus = iota
	SaveSaving
)

// Options tunes a Controller. Zero values fall back to defaults.
type Options struct {
	// QuietPeriod is the debounce window between the last edit and the
	// save it triggers.
	QuietPeriod time.Duration
	// CallTimeout bounds every store call the controller makes, so a hung
	// call cannot leave the session saving forever.
	CallTimeout time.Duration
}

const (
	defaultQuietPeriod = 1000 * time.Millisecond
	defaultCallTimeout = 10 * time.Second
)

// Snapshot is a consistent copy of the session state for rendering.
type Snapshot struct {
	State        State
	SaveStatus   SaveStatus
	PendingSave  bool
	Document     *document.Document
	LocalTitle   string
	LocalContent string
	Starred      bool
}

// Controller owns the editing state of a single document.
//
// LocalTitle/LocalContent always hold exactly what the user typed;
// Document only advances when the store confirms a save. Every load and
// save carries the session epoch current at the time it was issued, and a
// completion whose epoch went stale (a newer load arrived, or the session
// closed) is discarded rather than applied over fresher state.
type Controller struct {
	st      store.Store
	surface Surface
	log     logging.Logger
	sched   *SaveScheduler

	callTimeout time.Duration

	mu           sync.Mutex
	state        State
	doc          *document.Document
	localTitle   string
	localContent string
	starred      bool
	saveStatus   SaveStatus
	dirtyTitle   bool
	dirtyContent bool
	epoch        uint64
	closed       bool
}

// NewController binds a controller to a store and an editing surface.
// The logger may be nil.
func NewController(st store.Store, surface Surface, log logging.Logger, opts Options) *Controller {
	if log == nil {
		log = logging.Nop()
	}
	if opts.QuietPeriod <= 0 {
		opts.QuietPeriod = defaultQuietPeriod
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	return &Controller{
		st:          st,
		surface:     surface,
		log:         log,
		sched:       NewSaveScheduler(opts.QuietPeriod),
		callTimeout: opts.CallTimeout,
		state:       StateLoading,
	}
}

// Load queries the store for the document matching both id and owner and
// populates the session. Zero matches is terminal NotFound. On success the
// editing surface is seeded with the loaded content, only at load time, never on
// saves, so in-progress edits and cursor position survive save round trips.
func (c *Controller) Load(ctx context.Context, documentID, ownerID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.state = StateLoading
	c.epoch++
	cur := c.epoch
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	docs, err := c.st.List(ctx, store.Filter{ID: documentID, UserID: ownerID})

	c.mu.Lock()
	if c.epoch != cur {
		// A newer load or a Close superseded this one; applying its
		// result would overwrite fresher state with stale store data.
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		c.log.Error(ctx, "document load failed", "doc_id", documentID, "err", err)
		return fmt.Errorf("%w: %v", common.ErrLoad, err)
	}
	if len(docs) == 0 {
		c.state = StateNotFound
		c.mu.Unlock()
		return common.ErrNotFound
	}

	d := docs[0]
	c.doc = &d
	c.localTitle = d.Title
	c.localContent = d.Content
	c.starred = d.IsStarred
	c.state = StateReady
	c.saveStatus = SaveIdle
	c.dirtyTitle = false
	c.dirtyContent = false
	content := d.Content
	c.mu.Unlock()

	c.surface.SetSerializedContent(content)
	return nil
}

// EditTitle overwrites the local title and requests a debounced save.
// It never blocks and is a no-op unless the session is Ready.
func (c *Controller) EditTitle(title string) {
	c.mu.Lock()
	if c.closed || c.state != StateReady {
		c.mu.Unlock()
		return
	}
	c.localTitle = title
	c.dirtyTitle = true
	c.mu.Unlock()

	c.sched.Schedule(c.performSave)
}

// EditContent overwrites the local content and requests a debounced save.
// It never blocks and is a no-op unless the session is Ready.
func (c *Controller) EditContent(content string) {
	c.mu.Lock()
	if c.closed || c.state != StateReady {
		c.mu.Unlock()
		return
	}
	c.localContent = content
	c.dirtyContent = true
	c.mu.Unlock()

	c.sched.Schedule(c.performSave)
}

// SyncFromSurface reads the surface's serialized content and records it as a
// content edit. The shell calls this whenever the surface reports a change.
func (c *Controller) SyncFromSurface() {
	c.EditContent(c.surface.SerializedContent())
}

// ToggleStar flips the starred flag optimistically and issues the remote
// update immediately, outside the debounce path. Two toggles issue two
// updates, never coalesced. On failure the local flip is reverted.
func (c *Controller) ToggleStar() {
	c.mu.Lock()
	if c.closed || c.state != StateReady {
		c.mu.Unlock()
		return
	}
	target := !c.starred
	c.starred = target
	id := c.doc.ID
	cur := c.epoch
	c.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.callTimeout)
		defer cancel()

		updated, err := c.st.Update(ctx, id, document.Patch{IsStarred: document.Bool(target)})

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.epoch != cur {
			return
		}
		if err != nil {
			c.starred = !target
			c.log.Error(ctx, "star toggle failed, reverting", "doc_id", id, "err",
				fmt.Errorf("%w: %v", common.ErrToggle, err))
			return
		}
		c.doc = &updated
		c.starred = updated.IsStarred
	}()
}

// Snapshot returns a consistent copy of the session for rendering.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	var d *document.Document
	if c.doc != nil {
		cp := *c.doc
		d = &cp
	}
	return Snapshot{
		State:        c.state,
		SaveStatus:   c.saveStatus,
		PendingSave:  c.sched.Pending(),
		Document:     d,
		LocalTitle:   c.localTitle,
		LocalContent: c.localContent,
		Starred:      c.starred,
	}
}

// Close tears the session down: the armed debounce timer (if any) is
// cancelled and further operations become no-ops. A save already in flight
// completes fire-and-forget; its result is discarded by the epoch check.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.epoch++
	c.mu.Unlock()

	c.sched.Close()
}

// performSave runs on the scheduler goroutine after the quiet period.
// It sends the dirty local fields as one patch; the scheduler guarantees at
// most one execution is in flight at a time.
func (c *Controller) performSave() {
	c.mu.Lock()
	if c.closed || c.state != StateReady {
		c.mu.Unlock()
		return
	}
	patch := document.Patch{}
	if c.dirtyTitle {
		patch.Title = document.String(c.localTitle)
	}
	if c.dirtyContent {
		patch.Content = document.String(c.localContent)
	}
	if patch.IsEmpty() {
		c.mu.Unlock()
		return
	}
	c.dirtyTitle = false
	c.dirtyContent = false
	c.saveStatus = SaveSaving
	id := c.doc.ID
	cur := c.epoch
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.callTimeout)
	defer cancel()

	updated, err := c.st.Update(ctx, id, patch)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != cur {
		return
	}
	c.saveStatus = SaveIdle
	if err != nil {
		// Local fields still hold the user's text; re-mark them dirty so
		// the next scheduled save carries them again. No automatic retry.
		if patch.Title != nil {
			c.dirtyTitle = true
		}
		if patch.Content != nil {
			c.dirtyContent = true
		}
		c.log.Error(ctx, "document save failed", "doc_id", id, "err",
			fmt.Errorf("%w: %v", common.ErrSave, err))
		return
	}
	c.doc = &updated
}
