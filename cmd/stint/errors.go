package main

import "fmt"

// RunningTaskError indicates rm was called on a task whose timer is running.
type RunningTaskError struct {
	ID    string
	Title string
}

func (e RunningTaskError) Error() string {
	return fmt.Sprintf("task %s (%s) is running; pause it first or pass --force", e.ID, e.Title)
}
