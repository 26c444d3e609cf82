package task

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestStore() (*Store, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.Local)}
	return NewStore(WithClock(clock.Now)), clock
}

func TestStore_AppendAssignsIdentity(t *testing.T) {
	s, clock := newTestStore()

	got := s.Append(Task{Title: "pay rent"})
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, clock.now, got.CreatedAt)
	assert.Equal(t, PriorityMedium, got.Priority)
	assert.Equal(t, FrequencyNone, got.Recurrence.Frequency)
	assert.Equal(t, 1, s.Len())

	other := s.Append(Task{Title: "call mom", Priority: PriorityHigh})
	assert.NotEqual(t, got.ID, other.ID)

	idx, err := s.IndexOf(other.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = s.IndexOf("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ReplaceAtKeepsIdentity(t *testing.T) {
	s, clock := newTestStore()
	orig := s.Append(Task{Title: "draft"})
	_, err := s.AppendSubTask(0, SubTask{Title: "outline"})
	require.NoError(t, err)

	clock.now = clock.now.Add(time.Hour)
	err = s.ReplaceAt(0, Task{Title: "final", Priority: PriorityLow, ID: "ignored", CreatedAt: clock.now})
	require.NoError(t, err)

	got, err := s.At(0)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
	assert.Equal(t, PriorityLow, got.Priority)
	assert.Equal(t, orig.ID, got.ID)
	assert.Equal(t, orig.CreatedAt, got.CreatedAt)
	require.Len(t, got.SubTasks, 1)
	assert.Equal(t, "outline", got.SubTasks[0].Title)
}

func TestStore_OutOfRange(t *testing.T) {
	s, _ := newTestStore()
	s.Append(Task{Title: "a"})
	s.Append(Task{Title: "b"})
	s.Append(Task{Title: "c"})
	_, err := s.AppendSubTask(2, SubTask{Title: "only"})
	require.NoError(t, err)

	checks := map[string]error{
		"At":                   func() error { _, err := s.At(3); return err }(),
		"ReplaceAt":            s.ReplaceAt(-1, Task{Title: "x"}),
		"DeleteAt":             s.DeleteAt(3),
		"SetCompleted":         s.SetCompleted(5, true),
		"Duplicate":            func() error { _, err := s.Duplicate(3); return err }(),
		"Complete":             func() error { _, _, err := s.Complete(3); return err }(),
		"AppendSubTask":        func() error { _, err := s.AppendSubTask(3, SubTask{Title: "x"}); return err }(),
		"ReplaceSubTaskAt":     s.ReplaceSubTaskAt(2, 1, SubTask{Title: "x"}),
		"DeleteSubTaskAt":      s.DeleteSubTaskAt(2, 1),
		"DeleteSubTaskAt main": s.DeleteSubTaskAt(9, 0),
		"SetSubTaskCompleted":  s.SetSubTaskCompleted(0, 0, true),
	}
	for name, err := range checks {
		assert.ErrorIs(t, err, ErrOutOfRange, name)
	}

	assert.Equal(t, 3, s.Len(), "failed operations must not change the store")
	got, _ := s.At(2)
	assert.Len(t, got.SubTasks, 1)

	require.NoError(t, s.DeleteSubTaskAt(2, 0))
	got, _ = s.At(2)
	assert.Empty(t, got.SubTasks)
}

func TestStore_DeleteAt(t *testing.T) {
	s, _ := newTestStore()
	s.Append(Task{Title: "a"})
	b := s.Append(Task{Title: "b"})
	s.Append(Task{Title: "c"})

	require.NoError(t, s.DeleteAt(0))
	assert.Equal(t, 2, s.Len())
	idx, err := s.IndexOf(b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, idx, "indices shift after delete; identifiers do not")
}

func TestStore_SubTasks(t *testing.T) {
	s, clock := newTestStore()
	s.Append(Task{Title: "trip"})

	first, err := s.AppendSubTask(0, SubTask{Title: "book flight"})
	require.NoError(t, err)
	_, err = s.AppendSubTask(0, SubTask{Title: "pack"})
	require.NoError(t, err)

	clock.now = clock.now.Add(time.Hour)
	require.NoError(t, s.ReplaceSubTaskAt(0, 0, SubTask{Title: "book train", Completed: true}))
	require.NoError(t, s.SetSubTaskCompleted(0, 1, true))

	got, _ := s.At(0)
	require.Len(t, got.SubTasks, 2)
	assert.Equal(t, "book train", got.SubTasks[0].Title)
	assert.Equal(t, first.ID, got.SubTasks[0].ID)
	assert.Equal(t, first.CreatedAt, got.SubTasks[0].CreatedAt)
	assert.True(t, got.SubTasks[1].Completed)
	assert.Equal(t, 100, Progress(got))
}

func TestStore_Duplicate(t *testing.T) {
	s, clock := newTestStore()
	orig := s.Append(Task{
		Title:       "quarterly report",
		Priority:    PriorityHigh,
		Due:         "2024-02-01 09:00",
		Completed:   true,
		Description: Description{{Text: "numbers", Formatting: []Span{{Style: StyleBold, Start: 0, End: 7}}}},
		SubTasks: []SubTask{
			{Title: "collect", Completed: true},
			{Title: "write", Completed: true},
		},
	})

	clock.now = clock.now.Add(time.Minute)
	idx, err := s.Duplicate(0)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	dup, _ := s.At(idx)
	assert.Equal(t, "quarterly report (Copy)", dup.Title)
	assert.False(t, dup.Completed)
	assert.NotEqual(t, orig.ID, dup.ID)
	assert.NotEqual(t, orig.CreatedAt, dup.CreatedAt)
	assert.Equal(t, PriorityHigh, dup.Priority)
	assert.Equal(t, orig.Due, dup.Due)
	require.Len(t, dup.SubTasks, 2)
	for i, sub := range dup.SubTasks {
		assert.False(t, sub.Completed)
		assert.NotEqual(t, orig.SubTasks[i].ID, sub.ID)
	}

	// Deep copy: edits on the copy leave the original alone.
	dup.Description[0].Text = "changed"
	require.NoError(t, s.ReplaceAt(idx, dup))
	src, _ := s.At(0)
	assert.Equal(t, "numbers", src.Description[0].Text)
	assert.True(t, src.SubTasks[0].Completed)

	// A copy of a copy gets its own suffix.
	idx2, err := s.Duplicate(idx)
	require.NoError(t, err)
	again, _ := s.At(idx2)
	assert.Equal(t, "quarterly report (Copy) (Copy)", again.Title)
}

func TestStore_CompleteSpawnsRecurrence(t *testing.T) {
	s, _ := newTestStore()
	s.Append(Task{Title: "one-off"})
	s.Append(Task{
		Title:      "standup",
		Due:        "2024-01-15 09:00",
		Recurrence: Recurrence{Enabled: true, Frequency: FrequencyDaily},
	})

	_, spawned, err := s.Complete(0)
	require.NoError(t, err)
	assert.False(t, spawned)
	assert.Equal(t, 2, s.Len())

	next, spawned, err := s.Complete(1)
	require.NoError(t, err)
	require.True(t, spawned)
	assert.Equal(t, 2, next)

	done, _ := s.At(1)
	assert.True(t, done.Completed)
	follow, _ := s.At(next)
	assert.False(t, follow.Completed)
	assert.Equal(t, Stamp("2024-01-16 09:00"), follow.Due)
	assert.NotEqual(t, done.ID, follow.ID)
}

func TestStore_CompleteIsIdempotent(t *testing.T) {
	s, _ := newTestStore()
	s.Append(Task{
		Title:      "water plants",
		Due:        "2024-01-15 09:00",
		Recurrence: Recurrence{Enabled: true, Frequency: FrequencyDaily},
	})

	_, spawned, err := s.Complete(0)
	require.NoError(t, err)
	require.True(t, spawned)

	for range 2 {
		next, spawned, err := s.Complete(0)
		require.NoError(t, err)
		assert.False(t, spawned)
		assert.Equal(t, -1, next)
	}
	assert.Equal(t, 2, s.Len())
}

func TestStore_ResetAndSnapshotAreCopies(t *testing.T) {
	s, _ := newTestStore()
	in := []Task{{ID: "keep", Title: "a", SubTasks: []SubTask{{Title: "x"}}}}
	s.Reset(in)
	in[0].Title = "mutated"

	out := s.Tasks()
	require.Len(t, out, 1)
	assert.Equal(t, "keep", out[0].ID)
	assert.Equal(t, "a", out[0].Title)
	assert.NotEmpty(t, out[0].SubTasks[0].ID)

	out[0].SubTasks[0].Title = "mutated"
	again, _ := s.At(0)
	assert.Equal(t, "x", again.SubTasks[0].Title)
}

func TestValidationErrorsAreTyped(t *testing.T) {
	_, err := Draft{}.Build(time.Now())
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "title", verr.Field)
}
