package output

import (
	"fmt"
	"math"
	"time"

	"github.com/abatilo/stint/internal/task"
)

// Formatter defines the interface for output formatting. now is the instant
// live timers are evaluated at.
type Formatter interface {
	FormatTask(t *task.Task, now time.Time) string
	FormatTaskList(tasks []*task.Task, now time.Time) string
	FormatSummary(s task.Summary) string
	FormatError(err error) string
	FormatMessage(msg string) string
}

// FormatDuration renders whole seconds as MM:SS, or HH:MM:SS from one hour.
// Negative input renders as 00:00.
func FormatDuration(totalSec int64) string {
	sec := max(totalSec, 0)
	hours := sec / 3600
	minutes := (sec % 3600) / 60
	seconds := sec % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// FormatRemaining renders a countdown as MM:SS with minutes unbounded.
func FormatRemaining(totalSec int64) string {
	sec := max(totalSec, 0)
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}

// FormatSigned renders a variance with a leading sign; zero has none.
func FormatSigned(sec int64) string {
	switch {
	case sec > 0:
		return "+" + FormatDuration(sec)
	case sec < 0:
		return "-" + FormatDuration(-sec)
	default:
		return FormatDuration(0)
	}
}

func roundSeconds(d time.Duration) int64 {
	return int64(math.Round(d.Seconds()))
}

func estimateSeconds(t *task.Task) int64 {
	return int64(math.Round(t.Estimate * 60)) //nolint:mnd // minutes to seconds
}
