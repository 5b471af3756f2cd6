//nolint:testpackage // Tests require internal access for thorough testing
package ticker

import (
	"sync/atomic"
	"testing"
	"time"
)

const interval = 5 * time.Millisecond

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ticker")
	}
}

func TestTickerStopsItselfWhenIdle(t *testing.T) {
	var ticks atomic.Int32
	idle := make(chan struct{}, 1)

	tk := New(interval, func(time.Time) bool {
		return ticks.Add(1) < 3
	}, func() { idle <- struct{}{} })

	tk.Ensure()
	if !tk.Active() {
		t.Fatal("ticker should be active after Ensure")
	}

	waitFor(t, idle)
	if got := ticks.Load(); got != 3 {
		t.Errorf("ticks = %d, want 3", got)
	}
	if tk.Active() {
		t.Error("ticker should be inactive after the callback returned false")
	}
}

func TestTickerRestartsLazily(t *testing.T) {
	var keepGoing atomic.Bool
	idle := make(chan struct{}, 2)

	tk := New(interval, func(time.Time) bool {
		return keepGoing.Load()
	}, func() { idle <- struct{}{} })

	tk.Ensure()
	waitFor(t, idle)

	keepGoing.Store(true)
	tk.Ensure()
	if !tk.Active() {
		t.Fatal("Ensure should restart an idle ticker")
	}

	keepGoing.Store(false)
	waitFor(t, idle)
}

func TestTickerEnsureIsIdempotent(t *testing.T) {
	var idleCalls atomic.Int32
	idle := make(chan struct{}, 3)
	tk := New(interval, func(time.Time) bool {
		return false
	}, func() {
		idleCalls.Add(1)
		idle <- struct{}{}
	})

	tk.Ensure()
	tk.Ensure()
	tk.Ensure()
	waitFor(t, idle)
	time.Sleep(4 * interval)

	if got := idleCalls.Load(); got != 1 {
		t.Errorf("idle fired %d times, want a single run", got)
	}
}

func TestTickerStop(t *testing.T) {
	var ticks atomic.Int32
	var idleCalls atomic.Int32

	tk := New(interval, func(time.Time) bool {
		ticks.Add(1)
		return true
	}, func() { idleCalls.Add(1) })

	tk.Ensure()
	time.Sleep(4 * interval)
	tk.Stop()

	if tk.Active() {
		t.Error("ticker should be inactive after Stop")
	}
	after := ticks.Load()
	time.Sleep(4 * interval)
	if ticks.Load() != after {
		t.Error("callback ran after Stop returned")
	}
	if idleCalls.Load() != 0 {
		t.Error("Stop should not fire the idle callback")
	}

	// Stopping an idle ticker is a no-op.
	tk.Stop()
}
