// Package backup keeps timestamped snapshots of the task data and restores
// them on request.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"protask/internal/storage"
	pkgLog "protask/pkg/log"
)

const (
	DefaultMax = 10
	prefix     = "todos_backup_"
	stampFmt   = "20060102_150405"
)

var (
	ErrNothingToBackup = errors.New("no data to back up")
	ErrNotFound        = errors.New("backup not found")
	ErrInvalidName     = errors.New("invalid backup name")
)

// Source is the live data being snapshotted and restored.
type Source interface {
	Snapshot(ctx context.Context, dst string) error
	Replace(ctx context.Context, src string) error
	Ext() string
}

type Entry struct {
	Name    string
	ModTime time.Time

	stamp string
	seq   int
}

type Manager struct {
	dir string
	max int
	src Source
	now func() time.Time
	l   pkgLog.Logger
}

type Option func(*Manager)

func WithMax(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.max = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func New(dir string, src Source, l pkgLog.Logger, opts ...Option) *Manager {
	m := &Manager{dir: dir, max: DefaultMax, src: src, now: time.Now, l: l}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Dir() string { return m.dir }

// Create snapshots the source under a timestamped name and prunes old
// snapshots beyond the retention limit.
func (m *Manager) Create(ctx context.Context) (string, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", err
	}
	name, err := m.nextName()
	if err != nil {
		return "", err
	}
	if err := m.src.Snapshot(ctx, filepath.Join(m.dir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNothingToBackup
		}
		return "", fmt.Errorf("snapshot %s: %w", name, err)
	}
	m.l.Infof(ctx, "backup.Create: wrote %s", name)
	m.prune(ctx)
	return name, nil
}

// nextName picks a timestamped name, adding a counter above any snapshot
// already taken within the same second.
func (m *Manager) nextName() (string, error) {
	stamp := m.now().Format(stampFmt)
	entries, err := m.List()
	if err != nil {
		return "", err
	}
	seq := -1
	for _, e := range entries {
		if e.stamp == stamp && e.seq > seq {
			seq = e.seq
		}
	}
	if seq < 0 {
		return prefix + stamp + "." + m.src.Ext(), nil
	}
	return fmt.Sprintf("%s%s_%d.%s", prefix, stamp, seq+1, m.src.Ext()), nil
}

// parseName splits a snapshot name into its timestamp and collision counter.
func (m *Manager) parseName(name string) (stamp string, seq int) {
	rest := strings.TrimSuffix(strings.TrimPrefix(name, prefix), "."+m.src.Ext())
	if len(rest) < len(stampFmt) {
		return rest, 0
	}
	stamp, tail := rest[:len(stampFmt)], rest[len(stampFmt):]
	if n, err := strconv.Atoi(strings.TrimPrefix(tail, "_")); err == nil && strings.HasPrefix(tail, "_") {
		seq = n
	}
	return stamp, seq
}

// List returns the snapshots newest first, ordered by timestamp and then by
// collision counter.
func (m *Manager) List() ([]Entry, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []Entry
	for _, e := range entries {
		if e.IsDir() || !m.owns(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stamp, seq := m.parseName(e.Name())
		out = append(out, Entry{Name: e.Name(), ModTime: info.ModTime(), stamp: stamp, seq: seq})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].stamp != out[j].stamp {
			return out[i].stamp > out[j].stamp
		}
		return out[i].seq > out[j].seq
	})
	return out, nil
}

func (m *Manager) owns(name string) bool {
	return strings.HasPrefix(name, prefix) && strings.HasSuffix(name, "."+m.src.Ext())
}

func (m *Manager) prune(ctx context.Context) {
	entries, err := m.List()
	if err != nil {
		m.l.Warnf(ctx, "backup.prune: list %s: %v", m.dir, err)
		return
	}
	if len(entries) <= m.max {
		return
	}
	for _, e := range entries[m.max:] {
		if err := os.Remove(filepath.Join(m.dir, e.Name)); err != nil {
			m.l.Warnf(ctx, "backup.prune: remove %s: %v", e.Name, err)
		}
	}
}

// Restore replaces the live data with the named snapshot. The current data
// is snapshotted first so a restore can itself be undone.
func (m *Manager) Restore(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	path := filepath.Join(m.dir, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return err
	}

	// Stage the target first: the pre-restore snapshot may prune it.
	staged := filepath.Join(m.dir, ".restore-"+name)
	if err := storage.CopyFile(path, staged); err != nil {
		return fmt.Errorf("stage %s: %w", name, err)
	}
	defer os.Remove(staged)

	safety, err := m.Create(ctx)
	switch {
	case errors.Is(err, ErrNothingToBackup):
		m.l.Infof(ctx, "backup.Restore: no current data to keep before restoring %s", name)
	case err != nil:
		return fmt.Errorf("pre-restore snapshot: %w", err)
	default:
		m.l.Infof(ctx, "backup.Restore: kept current data as %s", safety)
	}

	if err := m.src.Replace(ctx, staged); err != nil {
		return fmt.Errorf("restore %s: %w", name, err)
	}
	m.l.Infof(ctx, "backup.Restore: restored %s", name)
	return nil
}

func validName(name string) error {
	clean := filepath.Clean(strings.TrimSpace(name))
	if clean == "" || clean == "." || clean != name || filepath.Base(clean) != clean ||
		strings.Contains(clean, "..") || !strings.HasPrefix(clean, prefix) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
