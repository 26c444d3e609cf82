package backup

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protask/internal/storage"
	"protask/internal/task"
	pkgLog "protask/pkg/log"
)

type memSource struct {
	data string
}

func (s *memSource) Ext() string { return "json" }

func (s *memSource) Snapshot(_ context.Context, dst string) error {
	if s.data == "" {
		return fmt.Errorf("open live data: %w", fs.ErrNotExist)
	}
	return os.WriteFile(dst, []byte(s.data), 0o644)
}

func (s *memSource) Replace(_ context.Context, src string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	s.data = string(data)
	return nil
}

type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time { return c.t }

func (c *stepClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newManager(t *testing.T, src Source, opts ...Option) (*Manager, *stepClock) {
	t.Helper()
	clock := &stepClock{t: time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local)}
	opts = append([]Option{WithClock(clock.now)}, opts...)
	return New(filepath.Join(t.TempDir(), "backups"), src, pkgLog.NewNop(), opts...), clock
}

func TestCreate_NamesAndCollisions(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, &memSource{data: "[]"})

	first, err := m.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, "todos_backup_20240305_140709.json", first)

	second, err := m.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, "todos_backup_20240305_140709_1.json", second)

	assert.FileExists(t, filepath.Join(m.Dir(), first))
	assert.FileExists(t, filepath.Join(m.Dir(), second))
}

func TestCreate_NothingToBackup(t *testing.T) {
	m, _ := newManager(t, &memSource{})
	_, err := m.Create(context.Background())
	assert.ErrorIs(t, err, ErrNothingToBackup)

	entries, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreate_PrunesOldest(t *testing.T) {
	ctx := context.Background()
	m, clock := newManager(t, &memSource{data: "[]"}, WithMax(3))

	var names []string
	for range 5 {
		name, err := m.Create(ctx)
		require.NoError(t, err)
		names = append(names, name)
		clock.advance(time.Minute)
	}

	entries, err := m.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, names[4], entries[0].Name)
	assert.Equal(t, names[3], entries[1].Name)
	assert.Equal(t, names[2], entries[2].Name)
	assert.NoFileExists(t, filepath.Join(m.Dir(), names[0]))
}

func TestCreate_SameSecondOrdersByCounter(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, &memSource{data: "[]"}, WithMax(3))

	for range 12 {
		_, err := m.Create(ctx)
		require.NoError(t, err)
	}

	entries, err := m.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "todos_backup_20240305_140709_11.json", entries[0].Name)
	assert.Equal(t, "todos_backup_20240305_140709_10.json", entries[1].Name)
	assert.Equal(t, "todos_backup_20240305_140709_9.json", entries[2].Name)
}

func TestList_IgnoresForeignFiles(t *testing.T) {
	m, _ := newManager(t, &memSource{data: "[]"})
	_, err := m.Create(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "notes.txt"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), "todos_backup_x.db"), nil, 0o644))

	entries, err := m.List()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestList_MissingDir(t *testing.T) {
	m, _ := newManager(t, &memSource{})
	entries, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	src := &memSource{data: `["old"]`}
	m, clock := newManager(t, src)

	old, err := m.Create(ctx)
	require.NoError(t, err)

	src.data = `["new"]`
	clock.advance(time.Hour)

	require.NoError(t, m.Restore(ctx, old))
	assert.Equal(t, `["old"]`, src.data)

	entries, err := m.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	safety, err := os.ReadFile(filepath.Join(m.Dir(), entries[0].Name))
	require.NoError(t, err)
	assert.Equal(t, `["new"]`, string(safety), "current data is kept before restoring")
}

func TestRestore_OldestUnderRetention(t *testing.T) {
	ctx := context.Background()
	src := &memSource{data: "v0"}
	m, clock := newManager(t, src, WithMax(2))

	oldest, err := m.Create(ctx)
	require.NoError(t, err)
	clock.advance(time.Minute)
	src.data = "v1"
	_, err = m.Create(ctx)
	require.NoError(t, err)
	clock.advance(time.Minute)
	src.data = "v2"

	// The safety snapshot prunes the target, which must still be restored.
	require.NoError(t, m.Restore(ctx, oldest))
	assert.Equal(t, "v0", src.data)
}

func TestRestore_Errors(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, &memSource{data: "[]"})

	for _, name := range []string{"", "../todos_backup_1.json", "nested/todos_backup_1.json", "other.json"} {
		assert.ErrorIs(t, m.Restore(ctx, name), ErrInvalidName, name)
	}
	assert.ErrorIs(t, m.Restore(ctx, "todos_backup_20000101_000000.json"), ErrNotFound)
}

func TestRestore_WithJSONStorage(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo, err := storage.OpenJSON(filepath.Join(dir, "todos.json"), pkgLog.NewNop())
	require.NoError(t, err)

	created := time.Date(2024, 1, 1, 8, 0, 0, 0, time.Local)
	require.NoError(t, repo.Save(ctx, []task.Task{{ID: "a", Title: "keep me", Priority: task.PriorityHigh,
		Recurrence: task.Recurrence{Frequency: task.FrequencyNone}, CreatedAt: created}}))

	m := New(filepath.Join(dir, "backups"), repo, pkgLog.NewNop())
	name, err := m.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, nil))
	require.NoError(t, m.Restore(ctx, name))

	got := repo.Load(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "keep me", got[0].Title)
}
