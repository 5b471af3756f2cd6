//nolint:testpackage // Tests require internal access for thorough testing
package task

import (
	"errors"
	"math"
	"testing"
	"time"

	stinterrors "github.com/abatilo/stint/internal/errors"
)

var base = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func durationPtr(d time.Duration) *time.Duration { return &d }
func timePtr(t time.Time) *time.Time             { return &t }

func TestState(t *testing.T) {
	tests := []struct {
		name string
		task Task
		want State
	}{
		{"planned", Task{Estimate: 10}, StatePlanned},
		{"paused", Task{Estimate: 10, Elapsed: time.Minute}, StatePaused},
		{"running", Task{Estimate: 10, RunStartedAt: timePtr(base)}, StateRunning},
		{"done", Task{Estimate: 10, Actual: durationPtr(time.Minute)}, StateDone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.State(); got != tt.want {
				t.Errorf("State() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateTitle(t *testing.T) {
	got, err := ValidateTitle("  Write report  ")
	if err != nil {
		t.Fatalf("ValidateTitle failed: %v", err)
	}
	if got != "Write report" {
		t.Errorf("ValidateTitle = %q, want %q", got, "Write report")
	}

	_, err = ValidateTitle("   ")
	var verr stinterrors.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("ValidateTitle(blank) error = %v, want ValidationError", err)
	}
	if verr.Field != "title" {
		t.Errorf("Field = %q, want %q", verr.Field, "title")
	}
}

func TestValidateEstimate(t *testing.T) {
	tests := []struct {
		minutes float64
		valid   bool
	}{
		{25, true},
		{0.5, true},
		{0, false},
		{-5, false},
		{math.NaN(), false},
		{math.Inf(1), false},
		{MaxEstimateMinutes, true},
		{1e13, false},
	}

	for _, tt := range tests {
		err := ValidateEstimate(tt.minutes)
		if (err == nil) != tt.valid {
			t.Errorf("ValidateEstimate(%v) error = %v, want valid=%v", tt.minutes, err, tt.valid)
		}
	}
}

func TestClone(t *testing.T) {
	orig := &Task{ID: "a", Estimate: 10, RunStartedAt: timePtr(base), Actual: durationPtr(time.Minute)}
	c := orig.Clone()
	*c.RunStartedAt = base.Add(time.Hour)
	*c.Actual = time.Hour

	if !orig.RunStartedAt.Equal(base) {
		t.Error("Clone shares RunStartedAt with the original")
	}
	if *orig.Actual != time.Minute {
		t.Error("Clone shares Actual with the original")
	}
}

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name          string
		task          Task
		now           time.Time
		wantElapsed   time.Duration
		wantRemaining int64
		wantPercent   float64
		wantOver      bool
	}{
		{
			name:          "not started",
			task:          Task{Estimate: 10},
			now:           base,
			wantRemaining: 600,
		},
		{
			name:          "paused halfway",
			task:          Task{Estimate: 10, Elapsed: 5 * time.Minute},
			now:           base,
			wantElapsed:   5 * time.Minute,
			wantRemaining: 300,
			wantPercent:   50,
		},
		{
			name:          "running includes open segment",
			task:          Task{Estimate: 10, Elapsed: 2 * time.Minute, RunStartedAt: timePtr(base)},
			now:           base.Add(3 * time.Minute),
			wantElapsed:   5 * time.Minute,
			wantRemaining: 300,
			wantPercent:   50,
		},
		{
			name:          "remaining rounds up partial seconds",
			task:          Task{Estimate: 1, Elapsed: 500 * time.Millisecond},
			now:           base,
			wantElapsed:   500 * time.Millisecond,
			wantRemaining: 60,
			wantPercent:   500.0 / 60000 * 100,
		},
		{
			name:          "over budget is unbounded",
			task:          Task{Estimate: 10, Elapsed: 15 * time.Minute},
			now:           base,
			wantElapsed:   15 * time.Minute,
			wantRemaining: 0,
			wantPercent:   150,
			wantOver:      true,
		},
		{
			name:          "done uses frozen actual",
			task:          Task{Estimate: 10, Elapsed: time.Minute, Actual: durationPtr(8 * time.Minute)},
			now:           base.Add(time.Hour),
			wantElapsed:   8 * time.Minute,
			wantRemaining: 120,
			wantPercent:   80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ComputeProgress(&tt.task, tt.now)
			if p.Elapsed != tt.wantElapsed {
				t.Errorf("Elapsed = %v, want %v", p.Elapsed, tt.wantElapsed)
			}
			if p.RemainingSeconds != tt.wantRemaining {
				t.Errorf("RemainingSeconds = %d, want %d", p.RemainingSeconds, tt.wantRemaining)
			}
			if math.Abs(p.Percent-tt.wantPercent) > 1e-9 {
				t.Errorf("Percent = %v, want %v", p.Percent, tt.wantPercent)
			}
			if p.OverBudget != tt.wantOver {
				t.Errorf("OverBudget = %v, want %v", p.OverBudget, tt.wantOver)
			}
		})
	}
}

func TestVarianceSeconds(t *testing.T) {
	if _, ok := VarianceSeconds(&Task{Estimate: 25, Elapsed: time.Minute}); ok {
		t.Error("VarianceSeconds should not be defined for open tasks")
	}

	done := &Task{Estimate: 25, Actual: durationPtr(30 * time.Minute)}
	got, ok := VarianceSeconds(done)
	if !ok {
		t.Fatal("VarianceSeconds should be defined for done tasks")
	}
	if got != 300 {
		t.Errorf("VarianceSeconds = %v, want 300", got)
	}

	under := &Task{Estimate: 25, Actual: durationPtr(20 * time.Minute)}
	if got, _ = VarianceSeconds(under); got != -300 {
		t.Errorf("VarianceSeconds = %v, want -300", got)
	}
}

func TestRate(t *testing.T) {
	tests := []struct {
		name   string
		actual *time.Duration
		want   Rating
	}{
		{"open task", nil, RatingNone},
		{"well under", durationPtr(20 * time.Minute), RatingGood},
		{"on time", durationPtr(30 * time.Minute), RatingNeutral},
		{"five over", durationPtr(35 * time.Minute), RatingNeutral},
		{"ten over", durationPtr(40 * time.Minute), RatingWarn},
		{"way over", durationPtr(50 * time.Minute), RatingBad},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rate(&Task{Estimate: 30, Actual: tt.actual})
			if got != tt.want {
				t.Errorf("Rate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	tasks := []*Task{
		{Estimate: 25, Actual: durationPtr(30 * time.Minute)},
		{Estimate: 10, Actual: durationPtr(8 * time.Minute)},
		{Estimate: 5, Elapsed: time.Minute},
	}

	s := Summarize(tasks)
	want := Summary{
		Total:           3,
		Done:            2,
		EstimateSeconds: 40 * 60,
		ActualSeconds:   38 * 60,
		VarianceSeconds: 3 * 60,
	}
	if s != want {
		t.Errorf("Summarize = %+v, want %+v", s, want)
	}
}

func TestSortForDisplay(t *testing.T) {
	tasks := []*Task{
		{ID: "done1", Order: 1, Actual: durationPtr(time.Minute)},
		{ID: "open3", Order: 3},
		{ID: "open2", Order: 2},
		{ID: "run5", Order: 5, RunStartedAt: timePtr(base)},
		{ID: "done0", Order: 0, Actual: durationPtr(time.Minute)},
	}

	sorted := SortForDisplay(tasks)
	want := []string{"run5", "open2", "open3", "done0", "done1"}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Errorf("sorted[%d] = %s, want %s", i, sorted[i].ID, id)
		}
	}

	if tasks[0].ID != "done1" {
		t.Error("SortForDisplay must not reorder its input")
	}
}

func TestResolveID(t *testing.T) {
	ids := []string{"abc12345-0000", "abd99999-0000", "ffff0000-0000", "Task-A", "task-a2"}

	tests := []struct {
		name    string
		prefix  string
		want    string
		wantErr bool
	}{
		{"exact", "ffff0000-0000", "ffff0000-0000", false},
		{"unique prefix", "abc", "abc12345-0000", false},
		{"case insensitive", "FFF", "ffff0000-0000", false},
		{"mixed case exact", "Task-A", "Task-A", false},
		{"mixed case prefix", "TASK-A2", "task-a2", false},
		{"mixed case ambiguous", "task-a", "", true},
		{"ambiguous", "ab", "", true},
		{"missing", "zzz", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveID(tt.prefix, ids)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveID(%q) error = %v, wantErr %v", tt.prefix, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveID(%q) = %q, want %q", tt.prefix, got, tt.want)
			}
		})
	}

	_, err := ResolveID("ab", ids)
	var ambiguous stinterrors.AmbiguousIDError
	if !errors.As(err, &ambiguous) {
		t.Errorf("ResolveID(ab) error = %v, want AmbiguousIDError", err)
	}
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b {
		t.Error("NewID returned duplicate ids")
	}
	if ShortID(a) != a[:ShortIDLength] {
		t.Errorf("ShortID(%q) = %q", a, ShortID(a))
	}
	if ShortID("abc") != "abc" {
		t.Error("ShortID should leave short ids untouched")
	}
}
