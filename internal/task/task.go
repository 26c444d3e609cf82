package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Layouts used for every stored timestamp.
const (
	DateTimeLayout = "2006-01-02 15:04"
	DateLayout     = "2006-01-02"
	CreatedLayout  = "2006-01-02 15:04:05"
)

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Priorities lists the levels in rank order.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Rank orders priorities High < Medium < Low. Unknown values rank as Medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

func ParsePriority(v string) (Priority, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return PriorityMedium, nil
	}
	for _, p := range Priorities {
		if strings.EqualFold(v, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown priority %q", v)
}

type Frequency string

const (
	FrequencyNone    Frequency = "None"
	FrequencyDaily   Frequency = "Daily"
	FrequencyWeekly  Frequency = "Weekly"
	FrequencyMonthly Frequency = "Monthly"
)

var Frequencies = []Frequency{FrequencyNone, FrequencyDaily, FrequencyWeekly, FrequencyMonthly}

func ParseFrequency(v string) (Frequency, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return FrequencyNone, nil
	}
	for _, f := range Frequencies {
		if strings.EqualFold(v, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown frequency %q", v)
}

// Stamp is a timestamp as stored on disk, in DateTimeLayout. A stamp that
// does not parse is kept verbatim and treated as absent by every reader.
type Stamp string

func StampOf(t time.Time) Stamp {
	return Stamp(t.Format(DateTimeLayout))
}

// Time parses the stamp in the local zone. ok is false for empty or malformed stamps.
func (s Stamp) Time() (t time.Time, ok bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DateTimeLayout, string(s), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s Stamp) IsZero() bool { return s == "" }

// Span marks a formatted range of a segment's text.
type Span struct {
	Style string `json:"style"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

const (
	StyleBold      = "bold"
	StyleItalic    = "italic"
	StyleUnderline = "underline"
)

type Segment struct {
	Text       string
	Formatting []Span
}

type Description []Segment

// PlainText joins segment texts with single spaces.
func (d Description) PlainText() string {
	parts := make([]string, 0, len(d))
	for _, s := range d {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, " ")
}

// PlainDescription wraps unformatted text as a one-segment description.
func PlainDescription(text string) Description {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return Description{{Text: text}}
}

func (d Description) clone() Description {
	if d == nil {
		return nil
	}
	out := make(Description, len(d))
	for i, s := range d {
		out[i] = Segment{Text: s.Text, Formatting: append([]Span(nil), s.Formatting...)}
	}
	return out
}

type Reminder struct {
	Enabled bool
	At      Stamp
}

type Recurrence struct {
	Enabled   bool
	Frequency Frequency
}

// Recurs reports whether the recurrence produces further occurrences.
func (r Recurrence) Recurs() bool {
	return r.Enabled && r.Frequency != FrequencyNone && r.Frequency != ""
}

type Task struct {
	ID          string
	Title       string
	Priority    Priority
	Due         Stamp
	Description Description
	Completed   bool
	Reminder    Reminder
	Recurrence  Recurrence
	CreatedAt   time.Time
	SubTasks    []SubTask
}

type SubTask struct {
	ID          string
	Title       string
	Description Description
	Completed   bool
	CreatedAt   time.Time
}

// Clone returns a deep copy sharing no slices with t.
func (t Task) Clone() Task {
	out := t
	out.Description = t.Description.clone()
	if t.SubTasks != nil {
		out.SubTasks = make([]SubTask, len(t.SubTasks))
		for i, s := range t.SubTasks {
			out.SubTasks[i] = s.Clone()
		}
	}
	return out
}

func (s SubTask) Clone() SubTask {
	out := s
	out.Description = s.Description.clone()
	return out
}

func newID() string {
	return uuid.NewString()
}
