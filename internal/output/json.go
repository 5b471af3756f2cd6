package output

import (
	"encoding/json"
	"time"

	"github.com/abatilo/stint/internal/task"
)

// JSONFormatter formats output as JSON.
type JSONFormatter struct{}

// marshalJSON marshals a value to indented JSON with a trailing newline.
func marshalJSON(v any) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data) + "\n"
}

// NewJSONFormatter creates a new JSONFormatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// taskJSON is the JSON representation of a task.
type taskJSON struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	State            string   `json:"state"`
	Order            int      `json:"order"`
	EstimateMinutes  float64  `json:"estimate_minutes"`
	ElapsedMs        int64    `json:"elapsed_ms"`
	RemainingSeconds int64    `json:"remaining_seconds"`
	Percent          float64  `json:"percent"`
	OverBudget       bool     `json:"over_budget"`
	RunStartedAt     *string  `json:"run_started_at,omitempty"`
	ActualMs         *int64   `json:"actual_ms,omitempty"`
	VarianceSeconds  *float64 `json:"variance_seconds,omitempty"`
	Rating           string   `json:"rating,omitempty"`
	CreatedAt        string   `json:"created_at"`
}

func toTaskJSON(t *task.Task, now time.Time) taskJSON {
	p := task.ComputeProgress(t, now)
	tj := taskJSON{
		ID:               t.ID,
		Title:            t.Title,
		State:            string(t.State()),
		Order:            t.Order,
		EstimateMinutes:  t.Estimate,
		ElapsedMs:        p.Elapsed.Milliseconds(),
		RemainingSeconds: p.RemainingSeconds,
		Percent:          p.Percent,
		OverBudget:       p.OverBudget,
		Rating:           string(task.Rate(t)),
		CreatedAt:        t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.RunStartedAt != nil {
		s := t.RunStartedAt.UTC().Format(time.RFC3339)
		tj.RunStartedAt = &s
	}
	if t.Actual != nil {
		ms := t.Actual.Milliseconds()
		tj.ActualMs = &ms
	}
	if v, ok := task.VarianceSeconds(t); ok {
		tj.VarianceSeconds = &v
	}
	return tj
}

// FormatTask formats a single task as JSON.
func (f *JSONFormatter) FormatTask(t *task.Task, now time.Time) string {
	return marshalJSON(toTaskJSON(t, now))
}

// FormatTaskList formats tasks in display order as JSON.
func (f *JSONFormatter) FormatTaskList(tasks []*task.Task, now time.Time) string {
	sorted := task.SortForDisplay(tasks)
	jsonTasks := make([]taskJSON, len(sorted))
	for i, t := range sorted {
		jsonTasks[i] = toTaskJSON(t, now)
	}
	return marshalJSON(jsonTasks)
}

// summaryJSON is the JSON representation of the totals.
type summaryJSON struct {
	Total           int   `json:"total"`
	Done            int   `json:"done"`
	EstimateSeconds int64 `json:"estimate_seconds"`
	ActualSeconds   int64 `json:"actual_seconds"`
	VarianceSeconds int64 `json:"variance_seconds"`
}

// FormatSummary formats the totals as JSON.
func (f *JSONFormatter) FormatSummary(s task.Summary) string {
	return marshalJSON(summaryJSON(s))
}

// errorJSON is the JSON representation of an error.
type errorJSON struct {
	Error string `json:"error"`
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(err error) string {
	return marshalJSON(errorJSON{Error: err.Error()})
}

// messageJSON is the JSON representation of a message.
type messageJSON struct {
	Message string `json:"message"`
}

// FormatMessage formats a simple message as JSON.
func (f *JSONFormatter) FormatMessage(msg string) string {
	return marshalJSON(messageJSON{Message: msg})
}
