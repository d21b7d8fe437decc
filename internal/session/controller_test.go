package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"inkpad/internal/common"
	"inkpad/internal/document"
	"inkpad/internal/store"
)

type updateCall struct {
	ID    string
	Patch document.Patch
}

// fakeStore satisfies store.Store with scripted responses. Update applies
// patches to a shadow record and stamps UpdatedAt from the Now clock; a
// non-nil gate channel holds the call in flight until released.
type fakeStore struct {
	mu sync.Mutex

	listQueue []listResp
	doc       document.Document
	updates   []updateCall
	updateErr error
	gate      chan struct{}
	now       time.Time
}

type listResp struct {
	docs []document.Document
	err  error
	gate chan struct{}
}

func (f *fakeStore) List(_ context.Context, _ store.Filter) ([]document.Document, error) {
	f.mu.Lock()
	if len(f.listQueue) == 0 {
		docs := []document.Document{f.doc}
		f.mu.Unlock()
		return docs, nil
	}
	resp := f.listQueue[0]
	f.listQueue = f.listQueue[1:]
	f.mu.Unlock()

	if resp.gate != nil {
		<-resp.gate
	}
	return resp.docs, resp.err
}

func (f *fakeStore) Create(_ context.Context, d document.Document) (document.Document, error) {
	return d, nil
}

func (f *fakeStore) Update(_ context.Context, id string, p document.Patch) (document.Document, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{ID: id, Patch: p})
	if f.updateErr != nil {
		return document.Document{}, f.updateErr
	}
	f.now = f.now.Add(time.Second)
	p.Apply(&f.doc, f.now)
	return f.doc, nil
}

func (f *fakeStore) Delete(_ context.Context, _ string) error { return nil }

func (f *fakeStore) updateCalls() []updateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]updateCall, len(f.updates))
	copy(out, f.updates)
	return out
}

// countingSurface records how often it was seeded.
type countingSurface struct {
	BufferSurface
	seeds int
}

func (s *countingSurface) SetSerializedContent(v string) {
	s.seeds++
	s.BufferSurface.SetSerializedContent(v)
}

var t0 = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

func newFakeStore() *fakeStore {
	return &fakeStore{
		doc: document.Document{
			ID: "d1", Title: "Draft", Content: `{"ops":[]}`,
			UserID: "u1", UpdatedAt: t0,
		},
		now: t0,
	}
}

func newReadyController(t *testing.T, fs *fakeStore, quiet time.Duration) (*Controller, *countingSurface) {
	t.Helper()
	surface := &countingSurface{}
	c := NewController(fs, surface, nil, Options{QuietPeriod: quiet})
	t.Cleanup(c.Close)

	require.NoError(t, c.Load(context.Background(), "d1", "u1"))
	require.Equal(t, StateReady, c.Snapshot().State)
	return c, surface
}

func TestController_LoadPopulatesAndSeedsSurfaceOnce(t *testing.T) {
	fs := newFakeStore()
	c, surface := newReadyController(t, fs, 10*time.Millisecond)

	snap := c.Snapshot()
	require.Equal(t, "Draft", snap.LocalTitle)
	require.Equal(t, `{"ops":[]}`, snap.LocalContent)
	require.False(t, snap.Starred)
	require.Equal(t, 1, surface.seeds)

	// Saves must never reseed the surface.
	c.EditContent(`{"ops":[{"insert":"hi"}]}`)
	require.Eventually(t, func() bool {
		return len(fs.updateCalls()) == 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, 1, surface.seeds)
}

func TestController_BurstOfEditsSavesOnceWithLastValues(t *testing.T) {
	fs := newFakeStore()
	c, _ := newReadyController(t, fs, 40*time.Millisecond)

	for _, title := range []string{"D", "Dra", "Draft v", "Draft v2"} {
		c.EditTitle(title)
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return len(fs.updateCalls()) == 1
	}, time.Second, 5*time.Millisecond)

	calls := fs.updateCalls()
	require.NotNil(t, calls[0].Patch.Title)
	require.Equal(t, "Draft v2", *calls[0].Patch.Title)

	// UpdatedAt advances past the loaded value only after the save resolved.
	snap := c.Snapshot()
	require.True(t, snap.Document.UpdatedAt.After(t0))
	require.Equal(t, "Draft v2", snap.Document.Title)

	time.Sleep(100 * time.Millisecond)
	require.Len(t, fs.updateCalls(), 1, "burst must collapse into one save")
}

func TestController_EditDuringInFlightSaveYieldsOneFollowUp(t *testing.T) {
	fs := newFakeStore()
	gate := make(chan struct{})
	fs.gate = gate
	c, _ := newReadyController(t, fs, 15*time.Millisecond)

	c.EditContent("v1")
	require.Eventually(t, func() bool {
		return c.Snapshot().SaveStatus == SaveSaving
	}, time.Second, time.Millisecond)

	// Save for v1 is awaiting the store; this edit must not start a
	// second concurrent save.
	c.EditContent("v2")
	require.Eventually(t, func() bool {
		return c.Snapshot().PendingSave
	}, time.Second, time.Millisecond)

	fs.mu.Lock()
	fs.gate = nil
	fs.mu.Unlock()
	close(gate)

	require.Eventually(t, func() bool {
		return len(fs.updateCalls()) == 2
	}, time.Second, 5*time.Millisecond)

	calls := fs.updateCalls()
	require.Equal(t, "v1", *calls[0].Patch.Content)
	require.Equal(t, "v2", *calls[1].Patch.Content)

	time.Sleep(80 * time.Millisecond)
	require.Len(t, fs.updateCalls(), 2, "exactly one follow-up save")
}

func TestController_NotFoundIsTerminalAndNeverArmsScheduler(t *testing.T) {
	fs := newFakeStore()
	fs.listQueue = []listResp{{docs: nil}}

	c := NewController(fs, &BufferSurface{}, nil, Options{QuietPeriod: 10 * time.Millisecond})
	defer c.Close()

	err := c.Load(context.Background(), "d9", "u1")
	require.ErrorIs(t, err, common.ErrNotFound)
	require.Equal(t, StateNotFound, c.Snapshot().State)

	c.EditTitle("ghost")
	c.EditContent("ghost")
	c.ToggleStar()

	time.Sleep(60 * time.Millisecond)
	require.Empty(t, fs.updateCalls())
}

func TestController_LoadErrorLeavesStateAndWrapsSentinel(t *testing.T) {
	fs := newFakeStore()
	fs.listQueue = []listResp{{err: context.DeadlineExceeded}}

	c := NewController(fs, &BufferSurface{}, nil, Options{})
	defer c.Close()

	err := c.Load(context.Background(), "d1", "u1")
	require.ErrorIs(t, err, common.ErrLoad)
	require.Equal(t, StateLoading, c.Snapshot().State)
}

func TestController_ToggleStarTwiceIssuesTwoUpdates(t *testing.T) {
	fs := newFakeStore()
	c, _ := newReadyController(t, fs, 10*time.Millisecond)

	c.ToggleStar()
	require.Eventually(t, func() bool {
		return len(fs.updateCalls()) == 1
	}, time.Second, time.Millisecond)
	require.True(t, c.Snapshot().Starred)

	c.ToggleStar()
	require.Eventually(t, func() bool {
		return len(fs.updateCalls()) == 2
	}, time.Second, time.Millisecond)
	require.False(t, c.Snapshot().Starred)

	for _, call := range fs.updateCalls() {
		require.NotNil(t, call.Patch.IsStarred)
		require.Nil(t, call.Patch.Title)
		require.Nil(t, call.Patch.Content)
	}
}

func TestController_ToggleStarAppliesOptimisticallyAndRevertsOnFailure(t *testing.T) {
	fs := newFakeStore()
	gate := make(chan struct{})
	fs.gate = gate
	fs.updateErr = context.DeadlineExceeded
	c, _ := newReadyController(t, fs, 10*time.Millisecond)

	c.ToggleStar()
	// Optimistic: visible before the remote call resolves.
	require.True(t, c.Snapshot().Starred)

	close(gate)
	require.Eventually(t, func() bool {
		return !c.Snapshot().Starred
	}, time.Second, time.Millisecond, "failed toggle must revert the local flip")
}

func TestController_CloseCancelsArmedSave(t *testing.T) {
	fs := newFakeStore()
	c, _ := newReadyController(t, fs, 50*time.Millisecond)

	c.EditTitle("never saved")
	c.Close()

	time.Sleep(120 * time.Millisecond)
	require.Empty(t, fs.updateCalls())
}

func TestController_StaleLoadResultIsDiscarded(t *testing.T) {
	fs := newFakeStore()
	slowGate := make(chan struct{})
	stale := document.Document{ID: "d1", Title: "Stale", Content: "old", UserID: "u1", UpdatedAt: t0}
	fresh := document.Document{ID: "d1", Title: "Fresh", Content: "new", UserID: "u1", UpdatedAt: t0.Add(time.Hour)}
	fs.listQueue = []listResp{
		{docs: []document.Document{stale}, gate: slowGate},
		{docs: []document.Document{fresh}},
	}

	c := NewController(fs, &BufferSurface{}, nil, Options{})
	defer c.Close()

	slowDone := make(chan struct{})
	go func() {
		defer close(slowDone)
		_ = c.Load(context.Background(), "d1", "u1")
	}()

	// The second load supersedes the gated first one.
	require.Eventually(t, func() bool {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		return len(fs.listQueue) == 1
	}, time.Second, time.Millisecond)
	require.NoError(t, c.Load(context.Background(), "d1", "u1"))
	require.Equal(t, "Fresh", c.Snapshot().LocalTitle)

	close(slowGate)
	<-slowDone

	snap := c.Snapshot()
	require.Equal(t, "Fresh", snap.LocalTitle, "stale load must not overwrite fresher state")
	require.Equal(t, "new", snap.LocalContent)
}

func TestController_SaveFailureKeepsLocalStateAndStatusIdle(t *testing.T) {
	fs := newFakeStore()
	fs.updateErr = context.DeadlineExceeded
	c, _ := newReadyController(t, fs, 10*time.Millisecond)

	c.EditTitle("unsaved title")
	require.Eventually(t, func() bool {
		return len(fs.updateCalls()) == 1
	}, time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		return c.Snapshot().SaveStatus == SaveIdle
	}, time.Second, time.Millisecond)

	snap := c.Snapshot()
	require.Equal(t, "unsaved title", snap.LocalTitle, "local text is what the user typed")
	require.Equal(t, "Draft", snap.Document.Title, "document holds the last accepted value")
}
