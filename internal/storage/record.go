package storage

import (
	"strings"
	"time"

	"protask/internal/task"
)

// Record is the on-disk shape of a task. Key names are fixed; "id" carries
// the stable identifier and is optional on input.
type Record struct {
	ID                 string          `json:"id,omitempty"`
	Title              string          `json:"title"`
	Priority           string          `json:"priority"`
	DueDatetime        *string         `json:"due_datetime"`
	DescriptionContent []SegmentRecord `json:"description_content"`
	Completed          bool            `json:"completed"`
	HasReminder        bool            `json:"has_reminder"`
	ReminderDatetime   *string         `json:"reminder_datetime"`
	IsRecurring        bool            `json:"is_recurring"`
	RecurringFrequency string          `json:"recurring_frequency"`
	CreatedAt          string          `json:"created_at"`
	SubTodos           []SubRecord     `json:"sub_todos"`
}

type SubRecord struct {
	ID                 string          `json:"id,omitempty"`
	Title              string          `json:"title"`
	DescriptionContent []SegmentRecord `json:"description_content"`
	Completed          bool            `json:"completed"`
	CreatedAt          string          `json:"created_at"`
}

type SegmentRecord struct {
	Text       string      `json:"text"`
	Formatting []task.Span `json:"formatting"`
}

// ToRecords converts tasks to their canonical records.
func ToRecords(tasks []task.Task) []Record {
	out := make([]Record, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toRecord(t))
	}
	return out
}

// FromRecords converts records to tasks. Unknown enum values fall back to
// their defaults and timestamps are kept verbatim so malformed values
// survive a load/save cycle.
func FromRecords(recs []Record) []task.Task {
	out := make([]task.Task, 0, len(recs))
	for _, r := range recs {
		out = append(out, fromRecord(r))
	}
	return out
}

func toRecord(t task.Task) Record {
	r := Record{
		ID:                 t.ID,
		Title:              t.Title,
		Priority:           string(t.Priority),
		DueDatetime:        stampPtr(t.Due),
		DescriptionContent: toSegments(t.Description),
		Completed:          t.Completed,
		HasReminder:        t.Reminder.Enabled,
		ReminderDatetime:   stampPtr(t.Reminder.At),
		IsRecurring:        t.Recurrence.Enabled,
		RecurringFrequency: string(t.Recurrence.Frequency),
		CreatedAt:          formatCreated(t.CreatedAt),
		SubTodos:           make([]SubRecord, 0, len(t.SubTasks)),
	}
	if r.RecurringFrequency == "" {
		r.RecurringFrequency = string(task.FrequencyNone)
	}
	for _, s := range t.SubTasks {
		r.SubTodos = append(r.SubTodos, SubRecord{
			ID:                 s.ID,
			Title:              s.Title,
			DescriptionContent: toSegments(s.Description),
			Completed:          s.Completed,
			CreatedAt:          formatCreated(s.CreatedAt),
		})
	}
	return r
}

func fromRecord(r Record) task.Task {
	prio, err := task.ParsePriority(r.Priority)
	if err != nil {
		prio = task.Priority(r.Priority)
	}
	freq, err := task.ParseFrequency(r.RecurringFrequency)
	if err != nil {
		freq = task.FrequencyNone
	}
	t := task.Task{
		ID:          r.ID,
		Title:       r.Title,
		Priority:    prio,
		Due:         ptrStamp(r.DueDatetime),
		Description: fromSegments(r.DescriptionContent),
		Completed:   r.Completed,
		Reminder:    task.Reminder{Enabled: r.HasReminder, At: ptrStamp(r.ReminderDatetime)},
		Recurrence:  task.Recurrence{Enabled: r.IsRecurring, Frequency: freq},
		CreatedAt:   parseCreated(r.CreatedAt),
	}
	for _, s := range r.SubTodos {
		t.SubTasks = append(t.SubTasks, task.SubTask{
			ID:          s.ID,
			Title:       s.Title,
			Description: fromSegments(s.DescriptionContent),
			Completed:   s.Completed,
			CreatedAt:   parseCreated(s.CreatedAt),
		})
	}
	return t
}

func toSegments(d task.Description) []SegmentRecord {
	out := make([]SegmentRecord, 0, len(d))
	for _, s := range d {
		f := s.Formatting
		if f == nil {
			f = []task.Span{}
		}
		out = append(out, SegmentRecord{Text: s.Text, Formatting: f})
	}
	return out
}

func fromSegments(recs []SegmentRecord) task.Description {
	if len(recs) == 0 {
		return nil
	}
	out := make(task.Description, 0, len(recs))
	for _, r := range recs {
		var f []task.Span
		if len(r.Formatting) > 0 {
			f = r.Formatting
		}
		out = append(out, task.Segment{Text: r.Text, Formatting: f})
	}
	return out
}

func stampPtr(s task.Stamp) *string {
	if s.IsZero() {
		return nil
	}
	v := string(s)
	return &v
}

func ptrStamp(p *string) task.Stamp {
	if p == nil {
		return ""
	}
	return task.Stamp(strings.TrimSpace(*p))
}

func formatCreated(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(task.CreatedLayout)
}

// parseCreated accepts second and minute precision. Unreadable values
// yield the zero time, which the store replaces on load.
func parseCreated(v string) time.Time {
	v = strings.TrimSpace(v)
	for _, layout := range []string{task.CreatedLayout, task.DateTimeLayout} {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
