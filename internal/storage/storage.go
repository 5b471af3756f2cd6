package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	stinterrors "github.com/abatilo/stint/internal/errors"
)

const (
	stintDir = ".stint"
	fileExt  = ".json"
)

// Store is a key-value store holding serialized task lists.
type Store interface {
	// Get returns KeyNotFoundError when nothing is stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Init(force bool) error
	IsInitialized() bool
	Location() string
	Close() error
}

// FileStore keeps one JSON file per key in a directory.
type FileStore struct {
	basePath string
}

// DefaultBasePath returns ~/.stint, or ~/.stint/<sanitized-project-root>/ when
// projectScoped is set.
func DefaultBasePath(projectScoped bool) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if !projectScoped {
		return filepath.Join(home, stintDir), nil
	}

	projectRoot, err := FindProjectRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, stintDir, SanitizePath(projectRoot)), nil
}

// NewFileStore creates a FileStore rooted at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{basePath: path}
}

// Location returns the base path of the store.
func (s *FileStore) Location() string {
	return s.basePath
}

// IsInitialized checks if the store directory exists.
func (s *FileStore) IsInitialized() bool {
	info, err := os.Stat(s.basePath)
	return err == nil && info.IsDir()
}

// Init creates the store directory.
func (s *FileStore) Init(force bool) error {
	if s.IsInitialized() && !force {
		return stinterrors.AlreadyInitializedError{}
	}
	//nolint:gosec // G301: 0755 is appropriate for a user data directory
	return os.MkdirAll(s.basePath, 0o755)
}

func (s *FileStore) keyPath(key string) string {
	return filepath.Join(s.basePath, key+fileExt)
}

// Get reads the file stored under key.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	if !s.IsInitialized() {
		return nil, stinterrors.NotInitializedError{}
	}
	data, err := os.ReadFile(s.keyPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, KeyNotFoundError{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Put replaces the file stored under key. The write goes to a temp file that
// is renamed into place so readers never see a partial document.
func (s *FileStore) Put(_ context.Context, key string, value []byte) error {
	if !s.IsInitialized() {
		return stinterrors.NotInitializedError{}
	}

	tmp, err := os.CreateTemp(s.basePath, key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", key, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	if _, err = tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	//nolint:gosec // G302: 0644 is appropriate for user-readable task files
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", key, err)
	}
	if err = os.Rename(tmpName, s.keyPath(key)); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

// Close is a no-op for file storage.
func (s *FileStore) Close() error {
	return nil
}
