package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSaveScheduler_BurstCollapsesToOneRun(t *testing.T) {
	s := NewSaveScheduler(30 * time.Millisecond)
	defer s.Close()

	var runs int32
	for i := 0; i < 5; i++ {
		s.Schedule(func() { atomic.AddInt32(&runs, 1) })
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) == 1
	}, time.Second, 5*time.Millisecond)

	// Quiet period passed with no further scheduling: still exactly one.
	time.Sleep(80 * time.Millisecond)
	require.EqualValues(t, 1, atomic.LoadInt32(&runs))
}

func TestSaveScheduler_NewestFunctionWins(t *testing.T) {
	s := NewSaveScheduler(20 * time.Millisecond)
	defer s.Close()

	var mu sync.Mutex
	var got string
	s.Schedule(func() { mu.Lock(); got = "first"; mu.Unlock() })
	s.Schedule(func() { mu.Lock(); got = "second"; mu.Unlock() })

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got == "second"
	}, time.Second, 5*time.Millisecond)
}

func TestSaveScheduler_FireDuringFlightOwesExactlyOneFollowUp(t *testing.T) {
	s := NewSaveScheduler(10 * time.Millisecond)
	defer s.Close()

	release := make(chan struct{})
	var runs int32

	s.Schedule(func() {
		atomic.AddInt32(&runs, 1)
		<-release
	})

	// Wait for the first save to be in flight, then schedule twice more
	// while it is blocked.
	require.Eventually(t, s.InFlight, time.Second, time.Millisecond)
	s.Schedule(func() { atomic.AddInt32(&runs, 1) })
	s.Schedule(func() { atomic.AddInt32(&runs, 1) })

	require.Eventually(t, s.Pending, time.Second, time.Millisecond)
	require.EqualValues(t, 1, atomic.LoadInt32(&runs), "no concurrent save while one is in flight")

	close(release)
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) == 2
	}, time.Second, time.Millisecond)

	// Exactly one follow-up, never more.
	time.Sleep(50 * time.Millisecond)
	require.EqualValues(t, 2, atomic.LoadInt32(&runs))
}

func TestSaveScheduler_CloseCancelsArmedTimer(t *testing.T) {
	s := NewSaveScheduler(20 * time.Millisecond)

	var runs int32
	s.Schedule(func() { atomic.AddInt32(&runs, 1) })
	s.Close()

	time.Sleep(60 * time.Millisecond)
	require.Zero(t, atomic.LoadInt32(&runs))

	// Scheduling after Close is a no-op.
	s.Schedule(func() { atomic.AddInt32(&runs, 1) })
	time.Sleep(60 * time.Millisecond)
	require.Zero(t, atomic.LoadInt32(&runs))
}

func TestSaveScheduler_InFlightSaveSurvivesClose(t *testing.T) {
	s := NewSaveScheduler(5 * time.Millisecond)

	release := make(chan struct{})
	done := make(chan struct{})
	s.Schedule(func() {
		<-release
		close(done)
	})

	require.Eventually(t, s.InFlight, time.Second, time.Millisecond)
	s.Close()
	close(release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("in-flight save must be allowed to complete after Close")
	}
}
