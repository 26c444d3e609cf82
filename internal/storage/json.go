package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"protask/internal/task"
	pkgLog "protask/pkg/log"
)

// JSONFile stores the collection as an indented JSON array of records.
type JSONFile struct {
	path string
	l    pkgLog.Logger
}

func OpenJSON(path string, l pkgLog.Logger) (*JSONFile, error) {
	if path == "" {
		return nil, errors.New("data path is empty")
	}
	return &JSONFile{path: path, l: l}, nil
}

func (f *JSONFile) Path() string { return f.path }
func (f *JSONFile) Ext() string  { return "json" }
func (f *JSONFile) Close() error { return nil }

// Load returns the stored tasks. A missing file is an empty collection; an
// unreadable or corrupt one is logged and also yields an empty collection.
func (f *JSONFile) Load(ctx context.Context) []task.Task {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.l.Errorf(ctx, "storage.JSONFile.Load: read %s: %v", f.path, err)
		}
		return []task.Task{}
	}
	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		f.l.Warnf(ctx, "storage.JSONFile.Load: %s is corrupt, starting empty: %v", f.path, err)
		return []task.Task{}
	}
	return FromRecords(recs)
}

func (f *JSONFile) Save(_ context.Context, tasks []task.Task) error {
	data, err := json.MarshalIndent(ToRecords(tasks), "", "  ")
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	return writeFileAtomic(f.path, data)
}

// Snapshot copies the data file to dst. It fails with fs.ErrNotExist when
// nothing has been saved yet.
func (f *JSONFile) Snapshot(_ context.Context, dst string) error {
	return CopyFile(f.path, dst)
}

func (f *JSONFile) Replace(_ context.Context, src string) error {
	return CopyFile(src, f.path)
}
