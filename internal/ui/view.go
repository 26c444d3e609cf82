package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"protask/internal/config"
	"protask/internal/task"
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.Title.Render("protask"))
	b.WriteString("\n")
	b.WriteString(m.theme.Accent.Render(m.summary.String()))
	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render(m.queryLine()))
	b.WriteString("\n\n")

	switch {
	case m.store.Len() == 0:
		b.WriteString("No tasks yet. Press '" + m.cfg.Keys.Add + "' to add one.")
	case len(m.rows) == 0:
		b.WriteString("No tasks match the current filter.")
	default:
		b.WriteString(m.renderTaskList())
	}

	b.WriteString("\n---\n")

	switch {
	case m.meta != nil:
		b.WriteString("Metadata editor (tab/shift+tab to move, enter to save/next, esc to cancel)")
		b.WriteString("\n\n")
		b.WriteString(m.renderMetaBox())
		b.WriteString("\n")
		b.WriteString(m.input.View())
	case m.mode != modeList:
		b.WriteString(m.input.View())
	default:
		b.WriteString(m.renderDetailPanel())
	}

	b.WriteString("\n\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render(renderHelp(m.cfg.Keys)))

	return b.String()
}

func (m Model) queryLine() string {
	line := fmt.Sprintf("Filter: %s • Sort: %s", m.filter, m.sort)
	if m.search != "" {
		line += fmt.Sprintf(" • Search: %q", m.search)
	}
	if m.dirty {
		line += " • unsaved"
	}
	return line
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s sub-task • %s toggle • %s delete • %s edit • %s rename • %s copy • "+
		"%s/%s priority • %s/%s due • %s filter • %s sort • %s search • %s save • %s backup • %s theme • %s quit",
		k.Up, k.Down, k.Add, k.AddSub, keyName(k.Toggle), k.Delete, k.Edit, k.Rename, k.Duplicate,
		k.PriorityUp, k.PriorityDown, k.DueForward, k.DueBack, k.Filter, k.Sort, k.Search, k.Save,
		k.Backup, k.Theme, k.Quit)
}

func keyName(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

func (m Model) renderTaskList() string {
	now := m.now()
	var b strings.Builder
	for i, r := range m.rows {
		cursor := " "
		if m.cursor == i && m.mode == modeList {
			cursor = ">"
		}
		t := m.entries[r.entry].Task

		if r.sub >= 0 {
			st := t.SubTasks[r.sub]
			line := fmt.Sprintf("%s     %s %s", cursor, checkbox(st.Completed), st.Title)
			if st.Completed {
				line = m.theme.Completed.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
			continue
		}

		title := fmt.Sprintf("%s %s %s %s", cursor, checkbox(t.Completed), m.priorityBadge(t.Priority), t.Title)
		if len(t.SubTasks) > 0 {
			title += fmt.Sprintf(" (%d%%)", task.Progress(t))
		}
		if t.Recurrence.Recurs() {
			title += " ↻"
		}
		due := m.dueLabel(t)

		switch task.DisplayStatus(t, now) {
		case task.StatusDone:
			b.WriteString(m.theme.Completed.Render(title + due))
		case task.StatusOverdue:
			b.WriteString(title + m.theme.Overdue.Render(due))
		default:
			b.WriteString(title + due)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) priorityBadge(p task.Priority) string {
	var style lipgloss.Style
	switch p {
	case task.PriorityHigh:
		style = m.theme.High
	case task.PriorityLow:
		style = m.theme.Low
	default:
		style = m.theme.Medium
	}
	return style.Render(fmt.Sprintf("%-6s", p))
}

func (m Model) dueLabel(t task.Task) string {
	if t.Due.IsZero() {
		return ""
	}
	return "  due " + m.relative(t.Due)
}

// relative renders a stamp with a humanized offset from now. Unparsable
// stamps are shown as stored.
func (m Model) relative(s task.Stamp) string {
	ts, ok := s.Time()
	if !ok {
		return string(s)
	}
	return fmt.Sprintf("%s (%s)", s, humanize.RelTime(ts, m.now(), "ago", "from now"))
}

func (m Model) renderDetailPanel() string {
	if len(m.rows) == 0 {
		return "No task selected"
	}
	r := m.rows[clampCursor(m.cursor, len(m.rows))]
	t := m.entries[r.entry].Task
	now := m.now()

	var b strings.Builder
	if r.sub >= 0 {
		st := t.SubTasks[r.sub]
		b.WriteString("Sub-task\n")
		b.WriteString(fmt.Sprintf("Title     : %s\n", st.Title))
		b.WriteString(fmt.Sprintf("Parent    : %s\n", t.Title))
		b.WriteString(fmt.Sprintf("Done      : %s\n", humanDone(st.Completed)))
		b.WriteString(fmt.Sprintf("Created   : %s\n", humanize.RelTime(st.CreatedAt, now, "ago", "from now")))
		b.WriteString(fmt.Sprintf("Notes     : %s\n", emptyPlaceholder(st.Description.PlainText())))
		return b.String()
	}

	done := 0
	for _, st := range t.SubTasks {
		if st.Completed {
			done++
		}
	}
	b.WriteString("Details\n")
	b.WriteString(fmt.Sprintf("Title     : %s\n", t.Title))
	b.WriteString(fmt.Sprintf("Status    : %s\n", task.DisplayStatus(t, now)))
	b.WriteString(fmt.Sprintf("Priority  : %s\n", t.Priority))
	b.WriteString(fmt.Sprintf("Due       : %s\n", emptyPlaceholder(m.relative(t.Due))))
	b.WriteString(fmt.Sprintf("Reminder  : %s\n", m.reminderLabel(t.Reminder)))
	b.WriteString(fmt.Sprintf("Repeat    : %s\n", t.Recurrence.Frequency))
	b.WriteString(fmt.Sprintf("Sub-tasks : %d/%d (%d%%)\n", done, len(t.SubTasks), task.Progress(t)))
	b.WriteString(fmt.Sprintf("Created   : %s\n", humanize.RelTime(t.CreatedAt, now, "ago", "from now")))
	b.WriteString(fmt.Sprintf("Notes     : %s\n", emptyPlaceholder(t.Description.PlainText())))
	return b.String()
}

func (m Model) reminderLabel(r task.Reminder) string {
	if !r.Enabled {
		return "(none)"
	}
	return m.relative(r.At)
}

func (m Model) detailLine() string {
	r, ok := m.selected()
	if !ok {
		return "No tasks"
	}
	ti, si, err := m.locate(r)
	if err != nil {
		return err.Error()
	}
	t, _ := m.store.At(ti)
	if si >= 0 {
		st := t.SubTasks[si]
		return fmt.Sprintf("Sub-task %d-%d • %s • %s", ti, si, st.Title, humanDone(st.Completed))
	}
	info := fmt.Sprintf("Task #%d • %s • %s • %s", ti, t.Title, task.DisplayStatus(t, m.now()), t.Priority)
	if !t.Due.IsZero() {
		info += " • due:" + string(t.Due)
	}
	if t.Recurrence.Recurs() {
		info += " • repeats " + strings.ToLower(string(t.Recurrence.Frequency))
	}
	return info
}

func (m Model) renderMetaBox() string {
	if m.meta == nil {
		return ""
	}
	var b strings.Builder
	for i, name := range metaFields {
		prefix := " "
		if i == m.meta.index {
			prefix = ">"
		}
		val := m.meta.values[i]
		if i == m.meta.index {
			val = m.input.Value()
		}
		b.WriteString(fmt.Sprintf("%s %-44s : %s\n", prefix, name, emptyPlaceholder(val)))
	}
	return b.String()
}

func emptyPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(empty)"
	}
	return v
}

func humanDone(done bool) string {
	if done {
		return "done"
	}
	return "pending"
}
