package ui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"protask/internal/task"
)

const (
	fieldPriority = iota
	fieldDue
	fieldReminder
	fieldRepeat
	fieldDescription
)

var metaFields = []string{
	"priority (High/Medium/Low)",
	"due (YYYY-MM-DD HH:MM, 'next friday', ...)",
	"reminder (empty for none)",
	"repeat (None/Daily/Weekly/Monthly)",
	"description",
}

type metaState struct {
	target ref
	draft  task.Draft
	values []string
	index  int
}

func (m Model) startMetadataEdit(r ref) (tea.Model, tea.Cmd) {
	ti, _, err := m.locate(r)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	t, _ := m.store.At(ti)
	d := task.DraftOf(t)

	values := make([]string, len(metaFields))
	values[fieldPriority] = d.Priority
	values[fieldDue] = d.Due
	if d.ReminderEnabled {
		values[fieldReminder] = d.ReminderAt
	}
	values[fieldRepeat] = string(task.FrequencyNone)
	if d.Recurring {
		values[fieldRepeat] = d.Frequency
	}
	values[fieldDescription] = d.Description

	m.meta = &metaState{target: r, draft: d, values: values}
	m.mode = modeMetadata
	m.input.SetValue(values[0])
	m.input.Placeholder = metaFields[0]
	m.input.CursorEnd()
	m.input.Focus()
	m.status = m.metaPrompt()
	return m, nil
}

func (m Model) updateMetadataMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.closeMeta()
		m.status = "Edit cancelled"
		return m, nil
	case "tab", "down":
		m.moveMeta(1)
		return m, nil
	case "shift+tab", "up":
		m.moveMeta(-1)
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.meta.values[m.meta.index] = m.input.Value()
		if m.meta.index >= len(metaFields)-1 {
			return m.saveMetadata()
		}
		m.moveMeta(1)
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

// moveMeta stores the field being edited and moves delta fields, wrapping.
func (m *Model) moveMeta(delta int) {
	m.meta.values[m.meta.index] = m.input.Value()
	m.showMetaField(wrapIndex(m.meta.index+delta, len(metaFields)))
}

func (m *Model) showMetaField(i int) {
	m.meta.index = i
	m.input.SetValue(m.meta.values[i])
	m.input.Placeholder = metaFields[i]
	m.input.CursorEnd()
	m.status = m.metaPrompt()
}

func (m *Model) closeMeta() {
	m.meta = nil
	m.mode = modeList
	m.input.SetValue("")
	m.input.Blur()
}

func (m Model) saveMetadata() (tea.Model, tea.Cmd) {
	ti, _, err := m.locate(m.meta.target)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	orig, _ := m.store.At(ti)

	v := m.meta.values
	d := m.meta.draft
	d.Priority = v[fieldPriority]
	d.Due = v[fieldDue]
	d.ReminderAt = strings.TrimSpace(v[fieldReminder])
	d.ReminderEnabled = d.ReminderAt != ""
	d.Frequency = strings.TrimSpace(v[fieldRepeat])
	d.Recurring = d.Frequency != "" && !strings.EqualFold(d.Frequency, string(task.FrequencyNone))
	d.Description = v[fieldDescription]

	built, err := d.Build(m.now())
	if err != nil {
		var verr *task.ValidationError
		if errors.As(err, &verr) {
			if i, ok := fieldFor(verr.Field); ok {
				m.showMetaField(i)
			}
		}
		m.status = fmt.Sprintf("not saved: %v", err)
		return m, nil
	}
	// Keep inline formatting unless the text itself changed.
	if d.Description == orig.Description.PlainText() {
		built.Description = orig.Description
	}

	if err := m.store.ReplaceAt(ti, built); err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		return m, nil
	}
	target := m.meta.target
	m.closeMeta()
	m.dirty = true
	m.refresh()
	m.focus(target)
	m.status = "Metadata saved"
	return m, nil
}

func fieldFor(name string) (int, bool) {
	switch name {
	case "priority":
		return fieldPriority, true
	case "due":
		return fieldDue, true
	case "reminder":
		return fieldReminder, true
	case "recurrence":
		return fieldRepeat, true
	}
	return 0, false
}

func (m Model) metaPrompt() string {
	if m.meta == nil {
		return ""
	}
	return fmt.Sprintf("Editing %s (field %d of %d). Enter to advance, Esc to cancel, tab to move.",
		metaFields[m.meta.index], m.meta.index+1, len(metaFields))
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}
