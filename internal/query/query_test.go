package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protask/internal/task"
)

var now = time.Date(2024, 1, 15, 10, 0, 0, 0, time.Local)

func created(day int) time.Time {
	return time.Date(2024, 1, day, 8, 0, 0, 0, time.Local)
}

func fixture() []task.Task {
	return []task.Task{
		{Title: "Low later", Priority: task.PriorityLow, Due: "2024-02-01 09:00", CreatedAt: created(5)},
		{Title: "High overdue", Priority: task.PriorityHigh, Due: "2024-01-10 09:00", CreatedAt: created(3)},
		{Title: "Done high", Priority: task.PriorityHigh, Due: "2024-01-01 09:00", Completed: true, CreatedAt: created(1)},
		{Title: "No due", Priority: task.PriorityMedium, CreatedAt: created(2),
			Description: task.Description{{Text: "call the Plumber"}, {Text: "about sink"}}},
		{Title: "Broken due", Priority: task.Priority("weird"), Due: "not a date", CreatedAt: created(4)},
		{Title: "Medium soon", Priority: task.PriorityMedium, Due: "2024-01-16 09:00", CreatedAt: created(6)},
	}
}

func titles(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Task.Title
	}
	return out
}

func indices(entries []Entry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Index
	}
	return out
}

func TestView_SortDueDate(t *testing.T) {
	got := View(fixture(), Params{Filter: FilterAll, Sort: SortDueDate, Now: now})

	assert.Equal(t, []string{"High overdue", "Medium soon", "Low later", "No due", "Broken due", "Done high"}, titles(got))
	assert.Equal(t, []int{1, 5, 0, 3, 4, 2}, indices(got))
}

func TestView_SortPriority(t *testing.T) {
	got := View(fixture(), Params{Filter: FilterAll, Sort: SortPriority, Now: now})

	// Unknown priority ranks as Medium; ties keep source order.
	assert.Equal(t, []string{"High overdue", "No due", "Broken due", "Medium soon", "Low later", "Done high"}, titles(got))
}

func TestView_SortCreated(t *testing.T) {
	got := View(fixture(), Params{Filter: FilterAll, Sort: SortCreated, Now: now})

	assert.Equal(t, []string{"No due", "High overdue", "Broken due", "Low later", "Medium soon", "Done high"}, titles(got))
}

func TestView_CompletedAlwaysLast(t *testing.T) {
	tasks := fixture()
	tasks = append(tasks,
		task.Task{Title: "Done early", Completed: true, Due: "2023-01-01 00:00", Priority: task.PriorityHigh, CreatedAt: created(1)},
		task.Task{Title: "Active late", Due: "2030-01-01 00:00", Priority: task.PriorityLow, CreatedAt: created(30)},
	)
	for _, s := range Sorts {
		t.Run(string(s), func(t *testing.T) {
			got := View(tasks, Params{Filter: FilterAll, Sort: s, Now: now})
			require.Len(t, got, len(tasks))
			seenDone := false
			for _, e := range got {
				if e.Task.Completed {
					seenDone = true
					continue
				}
				assert.False(t, seenDone, "incomplete %q after a completed task", e.Task.Title)
			}
		})
	}
}

func TestView_DueDateOrdering(t *testing.T) {
	got := View(fixture(), Params{Filter: FilterActive, Sort: SortDueDate, Now: now})

	var last time.Time
	undated := false
	for _, e := range got {
		due, ok := e.Task.Due.Time()
		if !ok {
			undated = true
			continue
		}
		assert.False(t, undated, "dated task %q after an undated one", e.Task.Title)
		assert.False(t, due.Before(last), "due dates must not decrease")
		last = due
	}
}

func TestView_Filters(t *testing.T) {
	tests := []struct {
		filter Filter
		want   []string
	}{
		{FilterAll, []string{"High overdue", "Medium soon", "Low later", "No due", "Broken due", "Done high"}},
		{FilterActive, []string{"High overdue", "Medium soon", "Low later", "No due", "Broken due"}},
		{FilterCompleted, []string{"Done high"}},
		{FilterOverdue, []string{"High overdue"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			got := View(fixture(), Params{Filter: tt.filter, Sort: SortDueDate, Now: now})
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestView_Search(t *testing.T) {
	tasks := fixture()

	got := View(tasks, Params{Filter: FilterAll, Sort: SortCreated, Search: "HIGH", Now: now})
	assert.Equal(t, []string{"High overdue", "Done high"}, titles(got))

	got = View(tasks, Params{Filter: FilterAll, Sort: SortCreated, Search: "plumber", Now: now})
	assert.Equal(t, []string{"No due"}, titles(got))

	// Segments are joined with a space before matching.
	got = View(tasks, Params{Filter: FilterAll, Sort: SortCreated, Search: "plumber about", Now: now})
	assert.Equal(t, []string{"No due"}, titles(got))

	got = View(tasks, Params{Filter: FilterCompleted, Sort: SortCreated, Search: "high", Now: now})
	assert.Equal(t, []string{"Done high"}, titles(got))

	got = View(tasks, Params{Filter: FilterAll, Sort: SortCreated, Search: "nothing matches", Now: now})
	assert.Empty(t, got)
}

func TestView_EmptySearchMatchesAll(t *testing.T) {
	tasks := fixture()
	for _, f := range Filters {
		all := View(tasks, Params{Filter: f, Sort: SortPriority, Now: now})
		empty := View(tasks, Params{Filter: f, Sort: SortPriority, Search: "", Now: now})
		assert.Equal(t, indices(all), indices(empty), string(f))
	}
}

func TestView_SearchKeepsWhitespace(t *testing.T) {
	tasks := []task.Task{{Title: "buy milk"}, {Title: "milkshake"}}

	got := View(tasks, Params{Filter: FilterAll, Sort: SortCreated, Search: " milk", Now: now})
	assert.Equal(t, []string{"buy milk"}, titles(got))

	got = View(tasks, Params{Filter: FilterAll, Sort: SortCreated, Search: " ", Now: now})
	assert.Equal(t, []string{"buy milk"}, titles(got))

	got = View(tasks, Params{Filter: FilterAll, Sort: SortCreated, Search: "   ", Now: now})
	assert.Empty(t, got)
}

func TestView_DoesNotMutateInput(t *testing.T) {
	tasks := fixture()
	before := titles(View(tasks, Params{Filter: FilterAll, Sort: SortCreated, Now: now}))
	_ = View(tasks, Params{Filter: FilterAll, Sort: SortPriority, Now: now})

	assert.Equal(t, "Low later", tasks[0].Title)
	assert.Equal(t, before, titles(View(tasks, Params{Filter: FilterAll, Sort: SortCreated, Now: now})))
}

func TestParseFilterAndSort(t *testing.T) {
	f, err := ParseFilter("overdue")
	require.NoError(t, err)
	assert.Equal(t, FilterOverdue, f)

	f, err = ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	_, err = ParseFilter("someday")
	assert.Error(t, err)

	s, err := ParseSort("Due Date")
	require.NoError(t, err)
	assert.Equal(t, SortDueDate, s)

	s, err = ParseSort("PRIORITY")
	require.NoError(t, err)
	assert.Equal(t, SortPriority, s)

	_, err = ParseSort("alphabetical")
	assert.Error(t, err)

	assert.Equal(t, FilterActive, FilterAll.Next())
	assert.Equal(t, FilterAll, FilterOverdue.Next())
	assert.Equal(t, SortPriority, SortCreated.Next())
}

func TestSummarize(t *testing.T) {
	got := Summarize(fixture(), now)
	assert.Equal(t, Summary{Total: 6, Active: 5, Completed: 1, Overdue: 1}, got)
	assert.Equal(t, "Total: 6 | Active: 5 | Overdue: 1 | Completed: 1", got.String())
}
