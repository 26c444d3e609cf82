// Package storage persists the task collection. Two backends share the
// canonical record shape: a JSON file and a SQLite database.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"protask/internal/task"
	pkgLog "protask/pkg/log"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Repository is the persistence contract used by the application.
type Repository interface {
	// Load never fails; problems are logged and yield an empty collection.
	Load(ctx context.Context) []task.Task
	Save(ctx context.Context, tasks []task.Task) error
	// Snapshot writes a copy of the stored data to dst.
	Snapshot(ctx context.Context, dst string) error
	// Replace overwrites the stored data with the file at src.
	Replace(ctx context.Context, src string) error
	Path() string
	// Ext is the file extension used for snapshots.
	Ext() string
	Close() error
}

// Open returns the backend named by backend for the file at path.
func Open(backend, path string, l pkgLog.Logger) (Repository, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendJSON:
		return OpenJSON(path, l)
	case BackendSQLite:
		return OpenSQLite(path, l)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// CopyFile copies src to dst, replacing dst atomically.
func CopyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return writeFileAtomic(dst, data)
}
