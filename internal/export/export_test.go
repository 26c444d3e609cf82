package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protask/internal/task"
)

func TestWriteCSV(t *testing.T) {
	tasks := []task.Task{
		{
			Title:       "Plan trip",
			Priority:    task.PriorityHigh,
			Due:         "2024-06-01 10:00",
			Description: task.Description{{Text: "book"}, {Text: "flights, hotel"}},
			SubTasks: []task.SubTask{
				{Title: "Passport", Completed: true},
			},
		},
		{Title: "Someday", Priority: task.PriorityLow, Completed: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tasks))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Type", "Title", "Priority", "Due Date", "Status", "Description"},
		{"Main", "Plan trip", "High", "2024-06-01 10:00", "Active", "book flights, hotel"},
		{"Sub", "Passport", "-", "-", "Done", ""},
		{"Main", "Someday", "Low", "", "Done", ""},
	}, rows)
}

func TestToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "tasks.csv")
	require.NoError(t, ToFile(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Type,Title,Priority,Due Date,Status,Description\n", string(data))
}
