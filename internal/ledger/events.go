package ledger

import "time"

// Op names the mutation behind a Changed event.
type Op string

const (
	OpAdd          Op = "add"
	OpStart        Op = "start"
	OpPause        Op = "pause"
	OpComplete     Op = "complete"
	OpEditTitle    Op = "edit_title"
	OpEditEstimate Op = "edit_estimate"
	OpDelete       Op = "delete"
	OpReorder      Op = "reorder"
	OpReload       Op = "reload"
)

// EventKind distinguishes ledger notifications.
type EventKind string

const (
	// EventChanged follows every mutation.
	EventChanged EventKind = "changed"
	// EventTick fires periodically while any task is running.
	EventTick EventKind = "tick"
	// EventIdle fires when ticking stops because nothing is running.
	EventIdle EventKind = "idle"
)

// Event is delivered to subscribers. Op and TaskID are set for EventChanged.
type Event struct {
	Kind   EventKind
	Op     Op
	TaskID string
	At     time.Time
}

// Subscribe registers fn for every event and returns a function that
// removes it. fn runs on the goroutine that caused the event, which for
// ticks is the ticker's own goroutine.
func (l *Ledger) Subscribe(fn func(Event)) (unsubscribe func()) {
	l.subMu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	l.subMu.Unlock()

	return func() {
		l.subMu.Lock()
		delete(l.subs, id)
		l.subMu.Unlock()
	}
}

func (l *Ledger) emit(ev Event) {
	l.subMu.RLock()
	listeners := make([]func(Event), 0, len(l.subs))
	for _, fn := range l.subs {
		listeners = append(listeners, fn)
	}
	l.subMu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

func (l *Ledger) changed(op Op, id string) {
	l.emit(Event{Kind: EventChanged, Op: op, TaskID: id, At: l.now()})
}

func (l *Ledger) tick(time.Time) bool {
	if !l.Running() {
		return false
	}
	l.emit(Event{Kind: EventTick, At: l.now()})
	return true
}

func (l *Ledger) idle() {
	l.emit(Event{Kind: EventIdle, At: l.now()})
}
