// Package ticker runs a periodic callback that stops itself once the
// callback reports there is nothing left to refresh.
package ticker

import (
	"context"
	"sync"
	"time"
)

// Ticker calls fn every interval while it is active. fn returning false ends
// the run and fires onIdle; Ensure starts a new run lazily.
type Ticker struct {
	interval time.Duration
	fn       func(now time.Time) bool
	onIdle   func()

	mu  sync.Mutex
	cur *run
}

type run struct {
	cancel context.CancelFunc
	done   chan struct{}
	// kicked is set by Ensure while a run is live so a run that just saw
	// nothing to do keeps going instead of exiting under the caller.
	kicked bool
}

// New returns an inactive Ticker. onIdle may be nil.
func New(interval time.Duration, fn func(now time.Time) bool, onIdle func()) *Ticker {
	return &Ticker{interval: interval, fn: fn, onIdle: onIdle}
}

// Ensure starts the ticker unless it is already running.
func (t *Ticker) Ensure() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cur != nil {
		t.cur.kicked = true
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &run{cancel: cancel, done: make(chan struct{})}
	t.cur = r
	go t.loop(ctx, r)
}

// Active reports whether a run is in progress.
func (t *Ticker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cur != nil
}

// Stop cancels the current run and waits for it to exit. It must not be
// called from inside fn.
func (t *Ticker) Stop() {
	t.mu.Lock()
	r := t.cur
	t.cur = nil
	t.mu.Unlock()

	if r != nil {
		r.cancel()
		<-r.done
	}
}

func (t *Ticker) loop(ctx context.Context, r *run) {
	defer close(r.done)

	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tk.C:
			t.mu.Lock()
			r.kicked = false
			t.mu.Unlock()

			if t.fn(now) {
				continue
			}
			done, idle := t.finish(r)
			if idle && t.onIdle != nil {
				t.onIdle()
			}
			if done {
				return
			}
		}
	}
}

// finish clears r unless Ensure kicked it after the last tick began. idle is
// false when Stop already took r down.
func (t *Ticker) finish(r *run) (done, idle bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if r.kicked {
		return false, false
	}
	idle = t.cur == r
	if idle {
		t.cur = nil
	}
	r.cancel()
	return true, idle
}
