package storage

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/abatilo/stint/internal/task"
)

// record is the persisted shape of a task. Timestamps and durations are
// milliseconds; estimate and the legacy actual field are minutes.
type record struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Estimate    float64 `json:"estimate"`
	Actual      *int64  `json:"actual,omitempty"`
	ActualMs    *int64  `json:"actualMs,omitempty"`
	CreatedAt   int64   `json:"createdAt"`
	Order       int     `json:"order"`
	Done        bool    `json:"done"`
	ElapsedMs   int64   `json:"elapsedMs"`
	IsRunning   bool    `json:"isRunning"`
	LastStartAt *int64  `json:"lastStartAt,omitempty"`
}

// EncodeTasks serializes tasks as a JSON array of records.
func EncodeTasks(tasks []*task.Task) ([]byte, error) {
	records := make([]record, len(tasks))
	for i, t := range tasks {
		records[i] = toRecord(t)
	}
	return json.Marshal(records)
}

func toRecord(t *task.Task) record {
	r := record{
		ID:        t.ID,
		Title:     t.Title,
		Estimate:  t.Estimate,
		CreatedAt: t.CreatedAt.UnixMilli(),
		Order:     t.Order,
		Done:      t.IsDone(),
		ElapsedMs: t.Elapsed.Milliseconds(),
		IsRunning: t.IsRunning(),
	}
	if t.RunStartedAt != nil {
		ms := t.RunStartedAt.UnixMilli()
		r.LastStartAt = &ms
	}
	if t.Actual != nil {
		ms := t.Actual.Milliseconds()
		minutes := int64(math.Round(t.Actual.Minutes()))
		r.ActualMs = &ms
		r.Actual = &minutes
	}
	return r
}

// DecodeTasks parses a stored task list. Records that can't describe a valid
// task are dropped and counted; a document that is not a JSON array yields
// CorruptStateError. now stands in for a missing createdAt.
func DecodeTasks(data []byte, now time.Time) ([]*task.Task, int, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, 0, CorruptStateError{Reason: err.Error()}
	}
	if raws == nil {
		return nil, 0, CorruptStateError{Reason: "document is not an array"}
	}

	tasks := make([]*task.Task, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		t, ok := fromRaw(raw, now)
		if !ok {
			dropped++
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, dropped, nil
}

func fromRaw(raw json.RawMessage, now time.Time) (*task.Task, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, false
	}

	title := strings.TrimSpace(stringField(fields["title"]))
	estimate, _ := numberField(fields["estimate"])
	if title == "" || task.ValidateEstimate(estimate) != nil {
		return nil, false
	}

	id := stringField(fields["id"])
	if id == "" {
		id = task.NewID()
	}

	createdAt := now
	if ms, ok := numberField(fields["createdAt"]); ok && ms != 0 && math.Abs(ms) <= maxMillis {
		createdAt = time.UnixMilli(int64(ms))
	}

	order, _ := numberField(fields["order"])
	if math.Abs(order) > math.MaxInt32 {
		order = 0
	}
	elapsedMs, _ := numberField(fields["elapsedMs"])

	t := &task.Task{
		ID:        id,
		Title:     title,
		Estimate:  estimate,
		CreatedAt: createdAt,
		Order:     int(order),
		Elapsed:   millis(elapsedMs),
	}

	if boolField(fields["done"]) {
		actual := t.Elapsed
		if ms, ok := strictNumber(fields["actualMs"]); ok && inMillisRange(ms) {
			actual = millis(ms)
		} else if minutes, ok := strictNumber(fields["actual"]); ok && inMillisRange(minutes*60_000) {
			actual = millis(minutes * 60_000) //nolint:mnd // minutes to milliseconds
		}
		t.Actual = &actual
		return t, true
	}

	if boolField(fields["isRunning"]) {
		if ms, ok := strictNumber(fields["lastStartAt"]); ok && math.Abs(ms) <= maxMillis {
			started := time.UnixMilli(int64(ms))
			t.RunStartedAt = &started
		}
	}
	return t, true
}

// maxMillis is the largest millisecond count a time.Duration can hold.
const maxMillis = float64(math.MaxInt64 / int64(time.Millisecond))

func inMillisRange(ms float64) bool {
	return ms >= 0 && ms <= maxMillis
}

// millis converts a millisecond count to a duration. Negative or
// out-of-range counts read as 0.
func millis(ms float64) time.Duration {
	if !inMillisRange(ms) {
		return 0
	}
	return time.Duration(int64(ms)) * time.Millisecond
}

// stringField accepts strings and numbers; anything else reads as empty.
func stringField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// numberField accepts numbers and numeric strings.
func numberField(raw json.RawMessage) (float64, bool) {
	if f, ok := strictNumber(raw); ok {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// strictNumber accepts JSON numbers only.
func strictNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}

// boolField treats true, non-zero numbers and non-empty strings as true.
func boolField(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case string:
		return b != ""
	default:
		return false
	}
}
