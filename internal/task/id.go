package task

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	stinterrors "github.com/abatilo/stint/internal/errors"
)

// ShortIDLength is how many characters of an ID are shown to humans.
const ShortIDLength = 8

// NewID returns a random UUID for a new task.
func NewID() string {
	return uuid.NewString()
}

// ShortID returns the display prefix of an ID.
func ShortID(id string) string {
	if len(id) <= ShortIDLength {
		return id
	}
	return id[:ShortIDLength]
}

// ResolveID finds the single ID in ids that equals or starts with prefix.
// An exact match always wins; prefixes compare case-insensitively.
func ResolveID(prefix string, ids []string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", stinterrors.TaskNotFoundError{ID: prefix}
	}

	lower := strings.ToLower(prefix)
	var matches []string
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(strings.ToLower(id), lower) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return "", stinterrors.TaskNotFoundError{ID: prefix}
	case 1:
		return matches[0], nil
	default:
		sort.Strings(matches)
		return "", stinterrors.AmbiguousIDError{Prefix: prefix, Matches: matches}
	}
}
