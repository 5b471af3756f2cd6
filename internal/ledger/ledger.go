// Package ledger holds the ordered task list, enforces the timer rules and
// persists the list after every mutation.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	stinterrors "github.com/abatilo/stint/internal/errors"
	"github.com/abatilo/stint/internal/storage"
	"github.com/abatilo/stint/internal/task"
	"github.com/abatilo/stint/internal/ticker"
)

const (
	// DefaultKey is the store key holding the task list.
	DefaultKey = "tasks"
	// DefaultTickInterval is how often listeners hear about running timers.
	DefaultTickInterval = time.Second

	persistTimeout = 5 * time.Second
)

// Ledger is the single writer of the task list. Every method is safe to call
// from any goroutine; listeners run outside the ledger's lock.
type Ledger struct {
	mu     sync.Mutex
	tasks  []*task.Task
	store  storage.Store
	key    string
	now    func() time.Time
	logger *slog.Logger

	interval time.Duration
	ticker   *ticker.Ticker

	subMu   sync.RWMutex
	subs    map[int]func(Event)
	nextSub int
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLogger sets the logger used for persistence warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithKey sets the store key.
func WithKey(key string) Option {
	return func(l *Ledger) { l.key = key }
}

// WithTickInterval sets how often Tick events fire while a task runs.
func WithTickInterval(d time.Duration) Option {
	return func(l *Ledger) { l.interval = d }
}

// New returns an empty ledger backed by store.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    store,
		key:      DefaultKey,
		now:      time.Now,
		logger:   slog.New(slog.DiscardHandler),
		interval: DefaultTickInterval,
		subs:     map[int]func(Event){},
	}
	for _, opt := range opts {
		opt(l)
	}
	l.ticker = ticker.New(l.interval, l.tick, l.idle)
	return l
}

// Load reads the task list from store. A missing key yields an empty ledger,
// and so does a corrupt document, which is discarded rather than partially
// trusted. Only read failures of the store itself are returned.
func Load(ctx context.Context, store storage.Store, opts ...Option) (*Ledger, error) {
	l := New(store, opts...)
	if err := l.Reload(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload replaces the in-memory list with what the store currently holds,
// picking up writes made by other processes. It follows the same rules as
// Load and never writes back.
func (l *Ledger) Reload(ctx context.Context) error {
	tasks, err := l.read(ctx)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.tasks = tasks
	running := l.anyRunning()
	l.mu.Unlock()

	if running {
		l.ticker.Ensure()
	}
	l.logger.Debug("loaded tasks", "key", l.key, "count", len(tasks))
	l.changed(OpReload, "")
	return nil
}

func (l *Ledger) read(ctx context.Context) ([]*task.Task, error) {
	data, err := l.store.Get(ctx, l.key)
	var notFound storage.KeyNotFoundError
	if errors.As(err, &notFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	tasks, dropped, err := storage.DecodeTasks(data, l.now())
	var corrupt storage.CorruptStateError
	if errors.As(err, &corrupt) {
		l.logger.Warn("discarding corrupt task state", "key", l.key, "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		l.logger.Info("dropped invalid task records", "key", l.key, "dropped", dropped)
	}
	return tasks, nil
}

// Close stops the ticker.
func (l *Ledger) Close() {
	l.ticker.Stop()
}

// Now returns the ledger's current time.
func (l *Ledger) Now() time.Time {
	return l.now()
}

// Tasks returns copies of all tasks in storage order.
func (l *Ledger) Tasks() []*task.Task {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*task.Task, len(l.tasks))
	for i, t := range l.tasks {
		out[i] = t.Clone()
	}
	return out
}

// View returns copies of all tasks in display order.
func (l *Ledger) View() []*task.Task {
	return task.SortForDisplay(l.Tasks())
}

// Get returns a copy of the task with id.
func (l *Ledger) Get(id string) (*task.Task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.find(id)
	if t == nil {
		return nil, false
	}
	return t.Clone(), true
}

// Resolve expands a unique ID prefix to the full ID.
func (l *Ledger) Resolve(prefix string) (string, error) {
	l.mu.Lock()
	ids := make([]string, len(l.tasks))
	for i, t := range l.tasks {
		ids[i] = t.ID
	}
	l.mu.Unlock()

	return task.ResolveID(prefix, ids)
}

// Running reports whether any task has an open run segment.
func (l *Ledger) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.anyRunning()
}

// AddTask appends a new task at the end of the manual order.
func (l *Ledger) AddTask(title string, estimate float64) (*task.Task, error) {
	title, err := task.ValidateTitle(title)
	if err != nil {
		return nil, err
	}
	if err = task.ValidateEstimate(estimate); err != nil {
		return nil, err
	}

	l.mu.Lock()
	order := 1
	if len(l.tasks) > 0 {
		order = slices.MaxFunc(l.tasks, func(a, b *task.Task) int { return a.Order - b.Order }).Order + 1
	}
	t := &task.Task{
		ID:        task.NewID(),
		Title:     title,
		Estimate:  estimate,
		CreatedAt: l.now(),
		Order:     order,
	}
	l.tasks = append(l.tasks, t)
	l.persist()
	out := t.Clone()
	l.mu.Unlock()

	l.changed(OpAdd, t.ID)
	return out, nil
}

// StartTimer opens a run segment. Unknown, running and done tasks are left
// alone and changed is false.
func (l *Ledger) StartTimer(id string) (t *task.Task, changed bool) {
	t, changed, _ = l.apply(OpStart, id, func(t *task.Task) (bool, error) {
		if t.IsRunning() || t.IsDone() {
			return false, nil
		}
		now := l.now()
		t.RunStartedAt = &now
		return true, nil
	})
	if changed {
		l.ticker.Ensure()
	}
	return t, changed
}

// PauseTimer closes the open run segment and adds it to the elapsed time.
func (l *Ledger) PauseTimer(id string) (t *task.Task, changed bool) {
	t, changed, _ = l.apply(OpPause, id, func(t *task.Task) (bool, error) {
		if !t.IsRunning() {
			return false, nil
		}
		closeSegment(t, l.now())
		return true, nil
	})
	return t, changed
}

// Toggle pauses a running task and starts any other open task.
func (l *Ledger) Toggle(id string) (*task.Task, bool) {
	current, ok := l.Get(id)
	if !ok {
		return nil, false
	}
	if current.IsRunning() {
		return l.PauseTimer(id)
	}
	return l.StartTimer(id)
}

// CompleteTask freezes the live elapsed time of a running task as its actual
// duration. Tasks that are not running are rejected with InvalidStateError.
// An unknown id returns a nil task and no error.
func (l *Ledger) CompleteTask(id string) (*task.Task, error) {
	t, _, err := l.apply(OpComplete, id, func(t *task.Task) (bool, error) {
		if !t.IsRunning() {
			return false, stinterrors.InvalidStateError{ID: t.ID, State: string(t.State()), Op: "complete"}
		}
		closeSegment(t, l.now())
		actual := t.Elapsed
		t.Actual = &actual
		return true, nil
	})
	return t, err
}

// EditTitle replaces the title of a task in any state.
func (l *Ledger) EditTitle(id, title string) (*task.Task, error) {
	title, err := task.ValidateTitle(title)
	if err != nil {
		return nil, err
	}
	t, _, err := l.apply(OpEditTitle, id, func(t *task.Task) (bool, error) {
		if t.Title == title {
			return false, nil
		}
		t.Title = title
		return true, nil
	})
	return t, err
}

// EditEstimate changes the estimate of a task that has never been started.
func (l *Ledger) EditEstimate(id string, estimate float64) (*task.Task, error) {
	t, _, err := l.apply(OpEditEstimate, id, func(t *task.Task) (bool, error) {
		if t.HasStarted() || t.IsDone() {
			return false, stinterrors.EstimateLockedError{ID: t.ID}
		}
		if err := task.ValidateEstimate(estimate); err != nil {
			return false, err
		}
		if t.Estimate == estimate {
			return false, nil
		}
		t.Estimate = estimate
		return true, nil
	})
	return t, err
}

// DeleteTask removes a task in any state, running ones included.
func (l *Ledger) DeleteTask(id string) bool {
	l.mu.Lock()
	idx := slices.IndexFunc(l.tasks, func(t *task.Task) bool { return t.ID == id })
	if idx < 0 {
		l.mu.Unlock()
		return false
	}
	l.tasks = slices.Delete(l.tasks, idx, idx+1)
	l.persist()
	l.mu.Unlock()

	l.changed(OpDelete, id)
	return true
}

// Reorder moves the dragged task into the target's slot among open tasks;
// the tasks in between shift one slot to close the gap. The order values in
// use are permuted, never renumbered, except that duplicate values are first
// bumped apart. Missing, identical or done tasks make this a no-op.
func (l *Ledger) Reorder(draggedID, targetID string) bool {
	if draggedID == targetID {
		return false
	}

	l.mu.Lock()
	dragged, target := l.find(draggedID), l.find(targetID)
	if dragged == nil || target == nil || dragged.IsDone() || target.IsDone() {
		l.mu.Unlock()
		return false
	}

	var active []*task.Task
	for _, t := range l.tasks {
		if !t.IsDone() {
			active = append(active, t)
		}
	}
	slices.SortStableFunc(active, func(a, b *task.Task) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	values := make([]int, len(active))
	for i, t := range active {
		values[i] = t.Order
		// Records saved without an order share one value; spread them so
		// the move is visible.
		if i > 0 && values[i] <= values[i-1] {
			values[i] = values[i-1] + 1
		}
	}
	from := slices.Index(active, dragged)
	to := slices.Index(active, target)
	active = slices.Delete(active, from, from+1)
	active = slices.Insert(active, to, dragged)
	for i, t := range active {
		t.Order = values[i]
	}

	l.persist()
	l.mu.Unlock()

	l.changed(OpReorder, draggedID)
	return true
}

// apply runs fn against the task with id under the lock. When fn reports a
// change the list is persisted, and listeners hear about it once the lock is
// released.
func (l *Ledger) apply(op Op, id string, fn func(t *task.Task) (bool, error)) (*task.Task, bool, error) {
	l.mu.Lock()
	t := l.find(id)
	if t == nil {
		l.mu.Unlock()
		return nil, false, nil
	}

	changed, err := fn(t)
	if changed {
		l.persist()
	}
	out := t.Clone()
	l.mu.Unlock()

	if changed {
		l.changed(op, id)
	}
	return out, changed, err
}

func closeSegment(t *task.Task, now time.Time) {
	t.Elapsed = task.Elapsed(t, now)
	t.RunStartedAt = nil
}

func (l *Ledger) find(id string) *task.Task {
	for _, t := range l.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (l *Ledger) anyRunning() bool {
	return slices.ContainsFunc(l.tasks, (*task.Task).IsRunning)
}

// persist writes the list. Failures are logged, not returned: the in-memory
// list stays authoritative and the next successful write catches storage up.
func (l *Ledger) persist() {
	data, err := storage.EncodeTasks(l.tasks)
	if err != nil {
		l.logger.Warn("failed to encode tasks", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err = l.store.Put(ctx, l.key, data); err != nil {
		l.logger.Warn("failed to persist tasks", "key", l.key, "location", l.store.Location(), "error", err)
	}
}
