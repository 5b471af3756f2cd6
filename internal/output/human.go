package output

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/abatilo/stint/internal/task"
)

const barWidth = 10

// HumanFormatter formats output for human-readable terminal display.
type HumanFormatter struct{}

// NewHumanFormatter creates a new HumanFormatter.
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// FormatTask formats a single task for display.
func (f *HumanFormatter) FormatTask(t *task.Task, now time.Time) string {
	var sb strings.Builder
	p := task.ComputeProgress(t, now)

	fmt.Fprintf(&sb, "[%s] %s\n", task.ShortID(t.ID), t.Title)
	fmt.Fprintf(&sb, "  ID:        %s\n", t.ID)
	fmt.Fprintf(&sb, "  State:     %s\n", t.State())
	fmt.Fprintf(&sb, "  Order:     %d\n", t.Order)
	fmt.Fprintf(&sb, "  Estimate:  %s\n", FormatDuration(estimateSeconds(t)))
	fmt.Fprintf(&sb, "  Elapsed:   %s\n", FormatDuration(roundSeconds(p.Elapsed)))
	if !t.IsDone() {
		fmt.Fprintf(&sb, "  Remaining: %s\n", FormatRemaining(p.RemainingSeconds))
	}
	fmt.Fprintf(&sb, "  Progress:  %s %.0f%%\n", bar(p), p.Percent)
	if variance, ok := task.VarianceSeconds(t); ok {
		fmt.Fprintf(&sb, "  Actual:    %s\n", FormatDuration(roundSeconds(*t.Actual)))
		fmt.Fprintf(&sb, "  Variance:  %s (%s)\n", FormatSigned(int64(math.Round(variance))), task.Rate(t))
	}
	fmt.Fprintf(&sb, "  Created:   %s\n", t.CreatedAt.Local().Format("2006-01-02 15:04"))

	return sb.String()
}

// FormatTaskList formats tasks for display, open ones first and done ones
// under their own heading.
func (f *HumanFormatter) FormatTaskList(tasks []*task.Task, now time.Time) string {
	if len(tasks) == 0 {
		return "No tasks found.\n"
	}

	var sb strings.Builder
	doneHeader := false
	for _, t := range task.SortForDisplay(tasks) {
		if t.IsDone() && !doneHeader {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString("Completed:\n")
			doneHeader = true
		}
		sb.WriteString(f.formatTaskLine(t, now))
	}
	return sb.String()
}

// formatTaskLine formats a single task as a compact one-liner.
func (f *HumanFormatter) formatTaskLine(t *task.Task, now time.Time) string {
	p := task.ComputeProgress(t, now)

	timeLabel := FormatRemaining(p.RemainingSeconds)
	badge := ""
	if t.IsDone() {
		timeLabel = FormatDuration(roundSeconds(*t.Actual))
		if variance, ok := task.VarianceSeconds(t); ok {
			badge = " " + FormatSigned(int64(math.Round(variance)))
		}
	}

	return fmt.Sprintf("%s [%s] %s  %s %s%s\n",
		f.stateIcon(t.State()), task.ShortID(t.ID), t.Title, timeLabel, bar(p), badge)
}

func (f *HumanFormatter) stateIcon(s task.State) string {
	switch s {
	case task.StatePlanned:
		return "[ ]"
	case task.StatePaused:
		return "[~]"
	case task.StateRunning:
		return "[>]"
	case task.StateDone:
		return "[X]"
	default:
		return "[?]"
	}
}

// bar draws the progress bar, capped at full, with a trailing ! when over.
func bar(p task.Progress) string {
	filled := min(int(p.Percent/100*barWidth), barWidth) //nolint:mnd // percentage
	filled = max(filled, 0)
	s := "[" + strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled) + "]"
	if p.OverBudget {
		s += "!"
	}
	return s
}

// FormatSummary formats the totals line.
func (f *HumanFormatter) FormatSummary(s task.Summary) string {
	parts := []string{
		fmt.Sprintf("%d/%d done", s.Done, s.Total),
		"estimate " + FormatDuration(s.EstimateSeconds),
	}
	if s.Done > 0 {
		parts = append(parts, "actual "+FormatDuration(s.ActualSeconds), FormatSigned(s.VarianceSeconds))
	} else {
		parts = append(parts, "actual --:--", "--:--")
	}
	return strings.Join(parts, " · ") + "\n"
}

// FormatError formats an error for display.
func (f *HumanFormatter) FormatError(err error) string {
	return fmt.Sprintf("Error: %s\n", err.Error())
}

// FormatMessage formats a simple message.
func (f *HumanFormatter) FormatMessage(msg string) string {
	return msg + "\n"
}
