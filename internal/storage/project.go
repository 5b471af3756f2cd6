package storage

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	stinterrors "github.com/abatilo/stint/internal/errors"
)

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// FindProjectRoot walks up from the working directory to the nearest
// directory containing .git.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		info, statErr := os.Stat(filepath.Join(dir, ".git"))
		if statErr == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", stinterrors.NotInRepoError{}
		}
		dir = parent
	}
}

// SanitizePath turns an absolute path into a single directory name.
// "/Users/abatilo/myproject" -> "Users-abatilo-myproject"
func SanitizePath(path string) string {
	result := nonAlnum.ReplaceAllString(path, "-")
	return strings.Trim(result, "-")
}
