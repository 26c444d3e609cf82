// Package query builds filtered, searched and sorted views over a task
// collection without modifying it.
package query

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"protask/internal/task"
)

type Filter string

const (
	FilterAll       Filter = "All"
	FilterActive    Filter = "Active"
	FilterCompleted Filter = "Completed"
	FilterOverdue   Filter = "Overdue"
)

var Filters = []Filter{FilterAll, FilterActive, FilterCompleted, FilterOverdue}

type Sort string

const (
	SortPriority Sort = "Priority"
	SortDueDate  Sort = "Due Date"
	SortCreated  Sort = "Created"
)

var Sorts = []Sort{SortPriority, SortDueDate, SortCreated}

// noDueDate sorts tasks without a usable due date after every dated task.
var noDueDate = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

func ParseFilter(v string) (Filter, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return FilterAll, nil
	}
	for _, f := range Filters {
		if strings.EqualFold(v, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", v)
}

func ParseSort(v string) (Sort, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "due", "due date", "due_date", "duedate":
		return SortDueDate, nil
	case "priority":
		return SortPriority, nil
	case "created", "created_at":
		return SortCreated, nil
	}
	return "", fmt.Errorf("unknown sort %q", v)
}

// Next cycles through the filter modes.
func (f Filter) Next() Filter {
	i := slices.Index(Filters, f)
	return Filters[(i+1)%len(Filters)]
}

func (s Sort) Next() Sort {
	i := slices.Index(Sorts, s)
	return Sorts[(i+1)%len(Sorts)]
}

type Params struct {
	Filter Filter
	Sort   Sort
	Search string
	Now    time.Time
}

// Entry pairs a task with its position in the source collection.
type Entry struct {
	Index int
	Task  task.Task
}

// View filters tasks, sorts the survivors by p.Sort and finally moves
// completed tasks after incomplete ones. Both sorts are stable.
func View(tasks []task.Task, p Params) []Entry {
	needle := strings.ToLower(p.Search)

	out := make([]Entry, 0, len(tasks))
	for i, t := range tasks {
		if !matchesSearch(t, needle) || !matchesFilter(t, p.Filter, p.Now) {
			continue
		}
		out = append(out, Entry{Index: i, Task: t})
	}

	slices.SortStableFunc(out, compareBy(p.Sort))
	slices.SortStableFunc(out, func(a, b Entry) int {
		return compareBool(a.Task.Completed, b.Task.Completed)
	})
	return out
}

func matchesSearch(t task.Task, needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(t.Title), needle) {
		return true
	}
	return strings.Contains(strings.ToLower(t.Description.PlainText()), needle)
}

func matchesFilter(t task.Task, f Filter, now time.Time) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	case FilterOverdue:
		return task.IsOverdue(t, now)
	default:
		return true
	}
}

func compareBy(s Sort) func(a, b Entry) int {
	switch s {
	case SortPriority:
		return func(a, b Entry) int {
			return a.Task.Priority.Rank() - b.Task.Priority.Rank()
		}
	case SortCreated:
		return func(a, b Entry) int {
			return a.Task.CreatedAt.Compare(b.Task.CreatedAt)
		}
	default:
		return func(a, b Entry) int {
			return dueKey(a.Task).Compare(dueKey(b.Task))
		}
	}
}

func dueKey(t task.Task) time.Time {
	if due, ok := t.Due.Time(); ok {
		return due
	}
	return noDueDate
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// Summary holds the dashboard counters.
type Summary struct {
	Total     int
	Active    int
	Completed int
	Overdue   int
}

func Summarize(tasks []task.Task, now time.Time) Summary {
	s := Summary{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
			continue
		}
		s.Active++
		if task.IsOverdue(t, now) {
			s.Overdue++
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("Total: %d | Active: %d | Overdue: %d | Completed: %d", s.Total, s.Active, s.Overdue, s.Completed)
}
