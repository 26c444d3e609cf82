package task

import "time"

type Status string

const (
	StatusDone    Status = "Done"
	StatusOverdue Status = "Overdue"
	StatusActive  Status = "Active"
)

// IsOverdue reports an incomplete task whose due stamp parses and lies
// strictly before now. A malformed due stamp is never overdue.
func IsOverdue(t Task, now time.Time) bool {
	if t.Completed {
		return false
	}
	due, ok := t.Due.Time()
	if !ok {
		return false
	}
	return due.Before(now)
}

// Progress is the truncated percentage of completed sub-tasks.
func Progress(t Task) int {
	if len(t.SubTasks) == 0 {
		return 0
	}
	done := 0
	for _, s := range t.SubTasks {
		if s.Completed {
			done++
		}
	}
	return done * 100 / len(t.SubTasks)
}

func DisplayStatus(t Task, now time.Time) Status {
	if t.Completed {
		return StatusDone
	}
	if IsOverdue(t, now) {
		return StatusOverdue
	}
	return StatusActive
}

// DueReminders returns the indices of incomplete tasks whose enabled
// reminder falls in (since, now].
func DueReminders(tasks []Task, since, now time.Time) []int {
	var out []int
	for i, t := range tasks {
		if t.Completed || !t.Reminder.Enabled {
			continue
		}
		at, ok := t.Reminder.At.Time()
		if !ok {
			continue
		}
		if at.After(since) && !at.After(now) {
			out = append(out, i)
		}
	}
	return out
}

// NextOccurrence builds the follow-up of a recurring task: due and reminder
// shift by one period, completion is cleared on the task and its sub-tasks.
// ok is false when t does not recur or has no parseable due stamp.
func NextOccurrence(t Task) (Task, bool) {
	if !t.Recurrence.Recurs() {
		return Task{}, false
	}
	due, ok := t.Due.Time()
	if !ok {
		return Task{}, false
	}
	next := t.Clone()
	next.ID = ""
	next.CreatedAt = time.Time{}
	next.Completed = false
	next.Due = StampOf(advance(due, t.Recurrence.Frequency))
	if at, ok := t.Reminder.At.Time(); ok {
		next.Reminder.At = StampOf(advance(at, t.Recurrence.Frequency))
	}
	for i := range next.SubTasks {
		next.SubTasks[i].ID = ""
		next.SubTasks[i].CreatedAt = time.Time{}
		next.SubTasks[i].Completed = false
	}
	return next, true
}

func advance(t time.Time, f Frequency) time.Time {
	switch f {
	case FrequencyDaily:
		return t.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t
	}
}
