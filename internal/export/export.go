// Package export writes the task collection in flat formats for other tools.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"protask/internal/task"
)

var header = []string{"Type", "Title", "Priority", "Due Date", "Status", "Description"}

// WriteCSV writes one row per task followed by one row per sub-task.
func WriteCSV(w io.Writer, tasks []task.Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, t := range tasks {
		row := []string{"Main", t.Title, string(t.Priority), string(t.Due), status(t.Completed), t.Description.PlainText()}
		if err := cw.Write(row); err != nil {
			return err
		}
		for _, s := range t.SubTasks {
			if err := cw.Write([]string{"Sub", s.Title, "-", "-", status(s.Completed), s.Description.PlainText()}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// ToFile writes the CSV export to path, creating parent directories.
func ToFile(path string, tasks []task.Task) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, tasks); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func status(done bool) string {
	if done {
		return "Done"
	}
	return "Active"
}
