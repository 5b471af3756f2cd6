package task

import (
	"math"
	"slices"
	"time"
)

// Progress is the live view of a task's timer at a point in time.
type Progress struct {
	Elapsed          time.Duration
	RemainingSeconds int64
	Percent          float64 // not capped at 100
	OverBudget       bool
}

// Elapsed returns closed segments plus the open one, if any, as of now.
func Elapsed(t *Task, now time.Time) time.Duration {
	elapsed := t.Elapsed
	if t.RunStartedAt != nil {
		if delta := now.Sub(*t.RunStartedAt); delta > 0 {
			elapsed += delta
		}
	}
	return elapsed
}

// ComputeProgress derives display values for t at now. Done tasks report their
// frozen actual duration.
func ComputeProgress(t *Task, now time.Time) Progress {
	elapsed := Elapsed(t, now)
	if t.Actual != nil {
		elapsed = *t.Actual
	}
	estimate := t.EstimateDuration()

	remaining := max(estimate-elapsed, 0)
	p := Progress{
		Elapsed:          elapsed,
		RemainingSeconds: int64(math.Ceil(remaining.Seconds())),
		OverBudget:       elapsed > estimate,
	}
	if estimate > 0 {
		p.Percent = float64(elapsed) / float64(estimate) * 100 //nolint:mnd // percentage
	}
	return p
}

// VarianceSeconds is actual minus estimate in seconds. ok is false until the
// task is done.
func VarianceSeconds(t *Task) (float64, bool) {
	if t.Actual == nil {
		return 0, false
	}
	return t.Actual.Seconds() - t.Estimate*60, true //nolint:mnd // minutes to seconds
}

// Rating classifies how far a finished task landed from its estimate.
type Rating string

const (
	RatingNone    Rating = ""
	RatingGood    Rating = "good"
	RatingNeutral Rating = "neutral"
	RatingWarn    Rating = "warn"
	RatingBad     Rating = "bad"
)

// Rate buckets the variance of a done task in minutes: five or more under is
// good, within five over is neutral, up to fifteen over is a warning.
func Rate(t *Task) Rating {
	variance, ok := VarianceSeconds(t)
	if !ok {
		return RatingNone
	}
	minutes := variance / 60 //nolint:mnd // seconds to minutes
	switch {
	case minutes <= -5:
		return RatingGood
	case minutes <= 5:
		return RatingNeutral
	case minutes <= 15:
		return RatingWarn
	default:
		return RatingBad
	}
}

// Summary aggregates a task list, in whole seconds.
type Summary struct {
	Total           int
	Done            int
	EstimateSeconds int64
	ActualSeconds   int64
	VarianceSeconds int64
}

// Summarize totals estimates over all tasks and actuals over done tasks.
func Summarize(tasks []*Task) Summary {
	var s Summary
	s.Total = len(tasks)
	for _, t := range tasks {
		estimateSec := int64(math.Round(t.Estimate * 60)) //nolint:mnd // minutes to seconds
		s.EstimateSeconds += estimateSec
		if t.Actual == nil {
			continue
		}
		actualSec := int64(math.Round(t.Actual.Seconds()))
		s.Done++
		s.ActualSeconds += actualSec
		s.VarianceSeconds += actualSec - estimateSec
	}
	return s
}

// SortForDisplay returns a sorted copy: running tasks first, then open tasks
// by order, then done tasks by order.
func SortForDisplay(tasks []*Task) []*Task {
	sorted := slices.Clone(tasks)
	slices.SortStableFunc(sorted, func(a, b *Task) int {
		if rank(a) != rank(b) {
			return rank(a) - rank(b)
		}
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return sorted
}

func rank(t *Task) int {
	switch {
	case t.IsRunning():
		return 0
	case !t.IsDone():
		return 1
	default:
		return 2 //nolint:mnd // done tasks sort last
	}
}
