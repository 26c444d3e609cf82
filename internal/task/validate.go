package task

import (
	"fmt"
	"strings"
	"time"

	"protask/internal/dateexpr"
)

// ValidationError reports user input that cannot become a task.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// Draft is raw form input for a task. Date fields accept the canonical
// layouts or natural language such as "next friday".
type Draft struct {
	Title           string
	Priority        string
	Due             string
	Description     string
	Completed       bool
	ReminderEnabled bool
	ReminderAt      string
	Recurring       bool
	Frequency       string
}

// Build validates the draft and converts it. now anchors relative dates.
func (d Draft) Build(now time.Time) (Task, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return Task{}, invalid("title", "title is required")
	}
	prio, err := ParsePriority(d.Priority)
	if err != nil {
		return Task{}, invalid("priority", err.Error())
	}

	t := Task{
		Title:       title,
		Priority:    prio,
		Description: PlainDescription(d.Description),
		Completed:   d.Completed,
		Recurrence:  Recurrence{Frequency: FrequencyNone},
	}

	if strings.TrimSpace(d.Due) != "" {
		due, err := dateexpr.ParseInput(d.Due, now)
		if err != nil {
			return Task{}, invalid("due", fmt.Sprintf("cannot read date %q", d.Due))
		}
		t.Due = StampOf(due)
	}

	if d.ReminderEnabled {
		if strings.TrimSpace(d.ReminderAt) == "" {
			return Task{}, invalid("reminder", "reminder time is required when the reminder is enabled")
		}
		at, err := dateexpr.ParseInput(d.ReminderAt, now)
		if err != nil {
			return Task{}, invalid("reminder", fmt.Sprintf("cannot read date %q", d.ReminderAt))
		}
		t.Reminder = Reminder{Enabled: true, At: StampOf(at)}
	}

	if d.Recurring {
		freq, err := ParseFrequency(d.Frequency)
		if err != nil {
			return Task{}, invalid("recurrence", err.Error())
		}
		if freq == FrequencyNone {
			return Task{}, invalid("recurrence", "pick Daily, Weekly or Monthly for a recurring task")
		}
		t.Recurrence = Recurrence{Enabled: true, Frequency: freq}
	}
	return t, nil
}

// DraftOf renders a stored task back into form input.
func DraftOf(t Task) Draft {
	d := Draft{
		Title:           t.Title,
		Priority:        string(t.Priority),
		Due:             string(t.Due),
		Description:     t.Description.PlainText(),
		Completed:       t.Completed,
		ReminderEnabled: t.Reminder.Enabled,
		ReminderAt:      string(t.Reminder.At),
		Recurring:       t.Recurrence.Enabled,
		Frequency:       string(t.Recurrence.Frequency),
	}
	return d
}

// SubDraft is raw form input for a sub-task.
type SubDraft struct {
	Title       string
	Description string
	Completed   bool
}

func (d SubDraft) Build() (SubTask, error) {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return SubTask{}, invalid("title", "title is required")
	}
	return SubTask{
		Title:       title,
		Description: PlainDescription(d.Description),
		Completed:   d.Completed,
	}, nil
}
