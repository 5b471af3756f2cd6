package storage

import "fmt"

// KeyNotFoundError indicates nothing has been stored under the key yet.
type KeyNotFoundError struct {
	Key string
}

func (e KeyNotFoundError) Error() string {
	return fmt.Sprintf("key not found: %s", e.Key)
}

// CorruptStateError indicates the stored document is not a task list.
type CorruptStateError struct {
	Reason string
}

func (e CorruptStateError) Error() string {
	return "corrupt task state: " + e.Reason
}
