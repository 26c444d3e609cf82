package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"protask/internal/task"
	pkgLog "protask/pkg/log"
)

// SQLite keeps the collection in a single database file. Order is held in
// the position columns; every save rewrites the collection in one transaction.
type SQLite struct {
	db   *sql.DB
	path string
	l    pkgLog.Logger
}

func OpenSQLite(dbPath string, l pkgLog.Logger) (*SQLite, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	s := &SQLite{path: dbPath, l: l}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLite) open() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	db, err := sql.Open("sqlite", sqliteDSN(s.path))
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)
	s.db = db
	if err := s.ensureSchema(); err != nil {
		db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *SQLite) Path() string { return s.path }
func (s *SQLite) Ext() string  { return "db" }

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLite) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	position INTEGER PRIMARY KEY,
	id TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	priority TEXT NOT NULL DEFAULT 'Medium',
	due_datetime TEXT DEFAULT NULL,
	description_content TEXT NOT NULL DEFAULT '[]',
	completed INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS sub_todos (
	task_position INTEGER NOT NULL,
	position INTEGER NOT NULL,
	id TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	description_content TEXT NOT NULL DEFAULT '[]',
	completed INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (task_position, position)
);`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	return s.ensureTaskColumns()
}

// ensureTaskColumns adds the scheduling columns to databases created before
// reminders and recurrence existed.
func (s *SQLite) ensureTaskColumns() error {
	required := map[string]string{
		"has_reminder":        "ALTER TABLE tasks ADD COLUMN has_reminder INTEGER NOT NULL DEFAULT 0;",
		"reminder_datetime":   "ALTER TABLE tasks ADD COLUMN reminder_datetime TEXT DEFAULT NULL;",
		"is_recurring":        "ALTER TABLE tasks ADD COLUMN is_recurring INTEGER NOT NULL DEFAULT 0;",
		"recurring_frequency": "ALTER TABLE tasks ADD COLUMN recurring_frequency TEXT NOT NULL DEFAULT 'None';",
	}
	existing := map[string]struct{}{}
	rows, err := s.db.Query(`PRAGMA table_info(tasks);`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := s.db.Exec(alter); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the collection. Read failures are logged and yield an empty
// collection.
func (s *SQLite) Load(ctx context.Context) []task.Task {
	recs, err := s.fetchRecords(ctx)
	if err != nil {
		s.l.Errorf(ctx, "storage.SQLite.Load: %s: %v", s.path, err)
		return []task.Task{}
	}
	return FromRecords(recs)
}

func (s *SQLite) fetchRecords(ctx context.Context) ([]Record, error) {
	if s.db == nil {
		return nil, errors.New("database is closed")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT position, id, title, priority, due_datetime, description_content, completed,
	has_reminder, reminder_datetime, is_recurring, recurring_frequency, created_at FROM tasks ORDER BY position;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Record
	byPos := map[int]int{}
	for rows.Next() {
		var r Record
		var pos, completed, hasReminder, recurring int
		var due, reminder sql.NullString
		var desc string
		if err := rows.Scan(&pos, &r.ID, &r.Title, &r.Priority, &due, &desc, &completed,
			&hasReminder, &reminder, &recurring, &r.RecurringFrequency, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Completed = completed == 1
		r.HasReminder = hasReminder == 1
		r.IsRecurring = recurring == 1
		if due.Valid {
			r.DueDatetime = &due.String
		}
		if reminder.Valid {
			r.ReminderDatetime = &reminder.String
		}
		r.DescriptionContent = decodeSegments(desc)
		byPos[pos] = len(recs)
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	subRows, err := s.db.QueryContext(ctx, `SELECT task_position, id, title, description_content, completed, created_at
	FROM sub_todos ORDER BY task_position, position;`)
	if err != nil {
		return nil, err
	}
	defer subRows.Close()
	for subRows.Next() {
		var sr SubRecord
		var parent, completed int
		var desc string
		if err := subRows.Scan(&parent, &sr.ID, &sr.Title, &desc, &completed, &sr.CreatedAt); err != nil {
			return nil, err
		}
		idx, ok := byPos[parent]
		if !ok {
			continue
		}
		sr.Completed = completed == 1
		sr.DescriptionContent = decodeSegments(desc)
		recs[idx].SubTodos = append(recs[idx].SubTodos, sr)
	}
	return recs, subRows.Err()
}

// Save replaces the stored collection with tasks.
func (s *SQLite) Save(ctx context.Context, tasks []task.Task) error {
	if s.db == nil {
		return errors.New("database is closed")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sub_todos;`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks;`); err != nil {
		return err
	}

	for pos, r := range ToRecords(tasks) {
		_, err := tx.ExecContext(ctx, `INSERT INTO tasks (position, id, title, priority, due_datetime, description_content,
	completed, has_reminder, reminder_datetime, is_recurring, recurring_frequency, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			pos, r.ID, r.Title, r.Priority, nullString(r.DueDatetime), encodeSegments(r.DescriptionContent),
			boolInt(r.Completed), boolInt(r.HasReminder), nullString(r.ReminderDatetime), boolInt(r.IsRecurring),
			r.RecurringFrequency, r.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert task %d: %w", pos, err)
		}
		for subPos, sr := range r.SubTodos {
			_, err := tx.ExecContext(ctx, `INSERT INTO sub_todos (task_position, position, id, title, description_content, completed, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?);`,
				pos, subPos, sr.ID, sr.Title, encodeSegments(sr.DescriptionContent), boolInt(sr.Completed), sr.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert sub-task %d-%d: %w", pos, subPos, err)
			}
		}
	}
	return tx.Commit()
}

// Snapshot writes a consistent copy of the database to dst.
func (s *SQLite) Snapshot(ctx context.Context, dst string) error {
	if s.db == nil {
		return errors.New("database is closed")
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `VACUUM INTO ?;`, dst)
	return err
}

// Replace swaps the live database for the file at src and reopens it.
func (s *SQLite) Replace(_ context.Context, src string) error {
	if _, err := os.Stat(src); err != nil {
		return err
	}
	if err := s.Close(); err != nil {
		return err
	}
	if err := CopyFile(src, s.path); err != nil {
		if reopenErr := s.open(); reopenErr != nil {
			return errors.Join(err, reopenErr)
		}
		return err
	}
	return s.open()
}

func encodeSegments(segs []SegmentRecord) string {
	if segs == nil {
		segs = []SegmentRecord{}
	}
	data, err := json.Marshal(segs)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeSegments(v string) []SegmentRecord {
	var segs []SegmentRecord
	if err := json.Unmarshal([]byte(v), &segs); err != nil {
		return nil
	}
	return segs
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
