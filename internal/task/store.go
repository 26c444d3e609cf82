package task

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrOutOfRange = errors.New("index out of range")
	ErrNotFound   = errors.New("task not found")
)

const copySuffix = " (Copy)"

// Store is the ordered task collection. It is mutated from a single event
// loop and does no locking.
type Store struct {
	tasks []Task
	now   func() time.Time
}

type Option func(*Store)

// WithClock overrides the clock used for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Len() int { return len(s.tasks) }

// Tasks returns a deep copy of the collection in order.
func (s *Store) Tasks() []Task {
	out := make([]Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Reset replaces the whole collection, filling in missing identifiers.
func (s *Store) Reset(tasks []Task) {
	s.tasks = make([]Task, 0, len(tasks))
	for _, t := range tasks {
		s.tasks = append(s.tasks, s.stamp(t.Clone()))
	}
}

func (s *Store) At(i int) (Task, error) {
	if err := s.check(i); err != nil {
		return Task{}, err
	}
	return s.tasks[i].Clone(), nil
}

// IndexOf resolves a task identifier to its current position.
func (s *Store) IndexOf(id string) (int, error) {
	for i, t := range s.tasks {
		if t.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Append adds t at the end and returns the stored record.
func (s *Store) Append(t Task) Task {
	t = s.stamp(t.Clone())
	s.tasks = append(s.tasks, t)
	return t.Clone()
}

// ReplaceAt overwrites the task at i. ID, CreatedAt and SubTasks are kept.
func (s *Store) ReplaceAt(i int, t Task) error {
	if err := s.check(i); err != nil {
		return err
	}
	old := s.tasks[i]
	t = t.Clone()
	t.ID = old.ID
	t.CreatedAt = old.CreatedAt
	t.SubTasks = old.SubTasks
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	s.tasks[i] = t
	return nil
}

func (s *Store) DeleteAt(i int) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return nil
}

func (s *Store) SetCompleted(i int, done bool) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.tasks[i].Completed = done
	return nil
}

// Complete marks the task at i done. When the task recurs, the next
// occurrence is appended and its index returned with spawned set. Completing
// a task that is already done changes nothing.
func (s *Store) Complete(i int) (next int, spawned bool, err error) {
	if err := s.check(i); err != nil {
		return -1, false, err
	}
	if s.tasks[i].Completed {
		return -1, false, nil
	}
	s.tasks[i].Completed = true
	follow, ok := NextOccurrence(s.tasks[i])
	if !ok {
		return -1, false, nil
	}
	s.Append(follow)
	return len(s.tasks) - 1, true, nil
}

// Duplicate appends a deep copy of the task at i and returns its index.
// The copy gets fresh identifiers and timestamps and starts incomplete.
func (s *Store) Duplicate(i int) (int, error) {
	if err := s.check(i); err != nil {
		return -1, err
	}
	dup := s.tasks[i].Clone()
	dup.ID = ""
	dup.CreatedAt = time.Time{}
	dup.Completed = false
	dup.Title += copySuffix
	for j := range dup.SubTasks {
		dup.SubTasks[j].ID = ""
		dup.SubTasks[j].CreatedAt = time.Time{}
		dup.SubTasks[j].Completed = false
	}
	s.Append(dup)
	return len(s.tasks) - 1, nil
}

func (s *Store) AppendSubTask(parent int, sub SubTask) (SubTask, error) {
	if err := s.check(parent); err != nil {
		return SubTask{}, err
	}
	sub = s.stampSub(sub.Clone())
	s.tasks[parent].SubTasks = append(s.tasks[parent].SubTasks, sub)
	return sub.Clone(), nil
}

// ReplaceSubTaskAt overwrites a sub-task, keeping its ID and CreatedAt.
func (s *Store) ReplaceSubTaskAt(parent, sub int, st SubTask) error {
	if err := s.checkSub(parent, sub); err != nil {
		return err
	}
	old := s.tasks[parent].SubTasks[sub]
	st = st.Clone()
	st.ID = old.ID
	st.CreatedAt = old.CreatedAt
	s.tasks[parent].SubTasks[sub] = st
	return nil
}

func (s *Store) DeleteSubTaskAt(parent, sub int) error {
	if err := s.checkSub(parent, sub); err != nil {
		return err
	}
	subs := s.tasks[parent].SubTasks
	s.tasks[parent].SubTasks = append(subs[:sub], subs[sub+1:]...)
	return nil
}

func (s *Store) SetSubTaskCompleted(parent, sub int, done bool) error {
	if err := s.checkSub(parent, sub); err != nil {
		return err
	}
	s.tasks[parent].SubTasks[sub].Completed = done
	return nil
}

func (s *Store) check(i int) error {
	if i < 0 || i >= len(s.tasks) {
		return fmt.Errorf("%w: task %d of %d", ErrOutOfRange, i, len(s.tasks))
	}
	return nil
}

func (s *Store) checkSub(parent, sub int) error {
	if err := s.check(parent); err != nil {
		return err
	}
	n := len(s.tasks[parent].SubTasks)
	if sub < 0 || sub >= n {
		return fmt.Errorf("%w: sub-task %d-%d of %d", ErrOutOfRange, parent, sub, n)
	}
	return nil
}

func (s *Store) stamp(t Task) Task {
	if t.ID == "" {
		t.ID = newID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Recurrence.Frequency == "" {
		t.Recurrence.Frequency = FrequencyNone
	}
	for j := range t.SubTasks {
		t.SubTasks[j] = s.stampSub(t.SubTasks[j])
	}
	return t
}

func (s *Store) stampSub(st SubTask) SubTask {
	if st.ID == "" {
		st.ID = newID()
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = s.now()
	}
	return st
}
