package task

import (
	"math"
	"strings"
	"time"

	stinterrors "github.com/abatilo/stint/internal/errors"
)

// State is the lifecycle state of a task, derived from its timer fields.
type State string

const (
	StatePlanned State = "planned"
	StatePaused  State = "paused"
	StateRunning State = "running"
	StateDone    State = "done"
)

// Task is a timed unit of work.
//
// RunStartedAt is set exactly while a run segment is open, and Actual is set
// exactly once the task is done, so IsRunning and IsDone are derived rather
// than stored.
type Task struct {
	ID        string
	Title     string
	Estimate  float64 // minutes
	CreatedAt time.Time
	Order     int

	// Elapsed covers closed run segments only.
	Elapsed      time.Duration
	RunStartedAt *time.Time
	Actual       *time.Duration
}

// IsRunning reports whether a run segment is open.
func (t *Task) IsRunning() bool {
	return t.RunStartedAt != nil
}

// IsDone reports whether the task has been completed.
func (t *Task) IsDone() bool {
	return t.Actual != nil
}

// HasStarted reports whether any time was ever recorded against the task.
func (t *Task) HasStarted() bool {
	return t.IsRunning() || t.Elapsed > 0
}

// State returns the lifecycle state of the task.
func (t *Task) State() State {
	switch {
	case t.IsDone():
		return StateDone
	case t.IsRunning():
		return StateRunning
	case t.Elapsed > 0:
		return StatePaused
	default:
		return StatePlanned
	}
}

// EstimateDuration converts the estimate in minutes to a duration.
func (t *Task) EstimateDuration() time.Duration {
	return time.Duration(t.Estimate * float64(time.Minute))
}

// Clone returns a deep copy so callers can't mutate ledger state.
func (t *Task) Clone() *Task {
	c := *t
	if t.RunStartedAt != nil {
		started := *t.RunStartedAt
		c.RunStartedAt = &started
	}
	if t.Actual != nil {
		actual := *t.Actual
		c.Actual = &actual
	}
	return &c
}

// ValidateTitle trims the title and rejects it when empty.
func ValidateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", stinterrors.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	return trimmed, nil
}

// MaxEstimateMinutes is the largest estimate a time.Duration can express.
const MaxEstimateMinutes = float64(math.MaxInt64 / int64(time.Minute))

// ValidateEstimate rejects estimates that are not positive finite minutes.
func ValidateEstimate(minutes float64) error {
	if math.IsNaN(minutes) || minutes <= 0 || minutes > MaxEstimateMinutes {
		return stinterrors.ValidationError{Field: "estimate", Reason: "must be a positive number of minutes that fits a duration"}
	}
	return nil
}
