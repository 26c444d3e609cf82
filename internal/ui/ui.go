package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"protask/internal/backup"
	"protask/internal/config"
	"protask/internal/query"
	"protask/internal/storage"
	"protask/internal/task"
	"protask/internal/theme"
	pkgLog "protask/pkg/log"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeAddSub
	modeRename
	modeSearch
	modeMetadata
)

// ref addresses a task, or one of its sub-tasks when subID is set, by
// identifier so it survives re-sorting.
type ref struct {
	taskID string
	subID  string
}

// row is one visible line of the list. sub is -1 for the task itself.
type row struct {
	entry int
	sub   int
}

type tickMsg time.Time

type Options struct {
	Store      *task.Store
	Repo       storage.Repository
	Backups    *backup.Manager
	Config     config.Config
	ConfigPath string
	Logger     pkgLog.Logger
	Now        func() time.Time
}

type Model struct {
	ctx        context.Context
	store      *task.Store
	repo       storage.Repository
	backups    *backup.Manager
	cfg        config.Config
	configPath string
	l          pkgLog.Logger
	now        func() time.Time
	theme      theme.Theme

	filter  query.Filter
	sort    query.Sort
	search  string
	entries []query.Entry
	rows    []row
	summary query.Summary

	cursor     int
	mode       mode
	input      textinput.Model
	target     ref
	status     string
	confirmDel bool
	pendingDel *ref
	meta       *metaState
	dirty      bool
	quitArmed  bool
	lastCheck  time.Time
}

func New(ctx context.Context, opts Options) Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	l := opts.Logger
	if l == nil {
		l = pkgLog.NewNop()
	}

	filter, err := query.ParseFilter(opts.Config.DefaultFilter)
	if err != nil {
		l.Warnf(ctx, "ui.New: %v, showing all tasks", err)
		filter = query.FilterAll
	}
	sort, err := query.ParseSort(opts.Config.DefaultSort)
	if err != nil {
		l.Warnf(ctx, "ui.New: %v, sorting by due date", err)
		sort = query.SortDueDate
	}

	ti := textinput.New()
	ti.Placeholder = "Task title"
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		ctx:        ctx,
		store:      opts.Store,
		repo:       opts.Repo,
		backups:    opts.Backups,
		cfg:        opts.Config,
		configPath: opts.ConfigPath,
		l:          l,
		now:        now,
		theme:      theme.Get(opts.Config.Theme),
		filter:     filter,
		sort:       sort,
		input:      ti,
		mode:       modeList,
		status:     "Press 'a' to add, space to toggle, 'd' to delete.",
		lastCheck:  now(),
	}
	m.refresh()
	return m
}

// Run blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	program := tea.NewProgram(New(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	d := m.cfg.Autosave()
	if d <= 0 {
		return nil
	}
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m.onTick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if m.meta != nil {
			return m.updateMetadataMode(msg.String(), msg)
		}
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

// onTick saves pending edits and surfaces reminders that fired since the
// previous tick.
func (m Model) onTick() (tea.Model, tea.Cmd) {
	if m.dirty {
		if err := m.save(); err != nil {
			m.status = fmt.Sprintf("autosave failed: %v", err)
		}
	}
	now := m.now()
	tasks := m.store.Tasks()
	var titles []string
	for _, i := range task.DueReminders(tasks, m.lastCheck, now) {
		titles = append(titles, tasks[i].Title)
	}
	m.lastCheck = now
	if len(titles) > 0 {
		m.status = "Reminder: " + strings.Join(titles, ", ")
	}
	m.refresh()
	return m, m.tick()
}

func (m *Model) save() error {
	if err := m.repo.Save(m.ctx, m.store.Tasks()); err != nil {
		m.l.Errorf(m.ctx, "ui.save: %v", err)
		return err
	}
	m.dirty = false
	m.quitArmed = false
	return nil
}

// quit saves and exits. When the save fails the program stays open; a second
// quit leaves without saving.
func (m Model) quit() (tea.Model, tea.Cmd) {
	if err := m.save(); err != nil {
		if !m.quitArmed {
			m.quitArmed = true
			m.status = fmt.Sprintf("save failed: %v (quit again to discard changes)", err)
			return m, nil
		}
		m.l.Errorf(m.ctx, "ui.quit: leaving with unsaved changes: %v", err)
	}
	return m, tea.Quit
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch m.mode {
	case modeAdd, modeAddSub, modeRename:
		return m.updateInputMode(key, msg)
	case modeSearch:
		return m.updateSearchMode(key, msg)
	}
	return m.updateListMode(key)
}

func (m Model) updateInputMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.leaveInput()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		value := strings.TrimSpace(m.input.Value())
		var err error
		switch m.mode {
		case modeAdd:
			err = m.addTask(value)
		case modeAddSub:
			err = m.addSubTask(value)
		case modeRename:
			err = m.rename(value)
		}
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.leaveInput()
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateSearchMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.search = ""
		m.leaveInput()
		m.refresh()
		m.status = "Search cleared"
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.leaveInput()
		m.status = fmt.Sprintf("%d match(es) for %q", len(m.entries), m.search)
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.search = m.input.Value()
		m.refresh()
		return m, cmd
	}
}

func (m *Model) enterInput(md mode, placeholder, value string) {
	m.mode = md
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) leaveInput() {
	m.mode = modeList
	m.input.SetValue("")
	m.input.Blur()
	m.target = ref{}
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case k.Quit:
		return m.quit()
	case k.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.rows))
	case k.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.rows))
	case k.Add:
		m.enterInput(modeAdd, "Task title (append '@ tomorrow' to set a due date)", "")
		m.status = "Add mode: type a title and press Enter"
	case k.AddSub:
		r, ok := m.selected()
		if !ok {
			m.status = "Select a task first"
			return m, nil
		}
		m.target = ref{taskID: r.taskID}
		m.enterInput(modeAddSub, "Sub-task title", "")
		m.status = "Add a sub-task and press Enter"
	case k.Rename:
		r, ok := m.selected()
		if !ok {
			m.status = "No tasks to rename"
			return m, nil
		}
		m.target = r
		m.enterInput(modeRename, "New title", m.titleOf(r))
		m.status = "Rename: edit the title and press Enter"
	case k.Toggle:
		return m.toggle()
	case k.Delete:
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.confirmDel = true
		m.pendingDel = &r
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", m.titleOf(r))
	case k.Duplicate:
		return m.duplicate()
	case k.Detail:
		m.status = m.detailLine()
	case k.Edit:
		r, ok := m.selected()
		if !ok {
			m.status = "No tasks to edit"
			return m, nil
		}
		if r.subID != "" {
			m.status = "Sub-tasks have no scheduling fields; use rename"
			return m, nil
		}
		return m.startMetadataEdit(r)
	case k.PriorityUp:
		return m.shiftPriority(-1)
	case k.PriorityDown:
		return m.shiftPriority(1)
	case k.DueForward:
		return m.shiftDue(1)
	case k.DueBack:
		return m.shiftDue(-1)
	case k.Filter:
		m.filter = m.filter.Next()
		m.refresh()
		m.status = "Filter: " + string(m.filter)
	case k.Sort:
		m.sort = m.sort.Next()
		m.refresh()
		m.status = "Sort: " + string(m.sort)
	case k.Search:
		m.enterInput(modeSearch, "Search titles and descriptions", m.search)
		m.status = "Search: type to filter, Enter to keep, Esc to clear"
	case k.Save:
		if err := m.save(); err != nil {
			m.status = fmt.Sprintf("save failed: %v", err)
			return m, nil
		}
		m.status = "Saved to " + m.repo.Path()
	case k.Backup:
		return m.createBackup()
	case k.Theme:
		return m.nextTheme()
	}
	return m, nil
}

func (m *Model) addTask(text string) error {
	title, due := splitDue(text)
	t, err := task.Draft{Title: title, Due: due}.Build(m.now())
	if err != nil {
		return err
	}
	added := m.store.Append(t)
	m.dirty = true
	m.refresh()
	m.focus(ref{taskID: added.ID})
	m.status = "Added task"
	return nil
}

// splitDue separates a trailing "@ <date>" from a quick-add title.
func splitDue(text string) (title, due string) {
	i := strings.LastIndex(text, " @ ")
	if i < 0 {
		return text, ""
	}
	return strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+3:])
}

func (m *Model) addSubTask(text string) error {
	parent, _, err := m.locate(m.target)
	if err != nil {
		return err
	}
	st, err := task.SubDraft{Title: text}.Build()
	if err != nil {
		return err
	}
	added, err := m.store.AppendSubTask(parent, st)
	if err != nil {
		return err
	}
	m.dirty = true
	m.refresh()
	m.focus(ref{taskID: m.target.taskID, subID: added.ID})
	m.status = "Added sub-task"
	return nil
}

func (m *Model) rename(text string) error {
	if text == "" {
		return errors.New("title cannot be empty")
	}
	ti, si, err := m.locate(m.target)
	if err != nil {
		return err
	}
	t, err := m.store.At(ti)
	if err != nil {
		return err
	}
	if si >= 0 {
		st := t.SubTasks[si]
		st.Title = text
		err = m.store.ReplaceSubTaskAt(ti, si, st)
	} else {
		t.Title = text
		err = m.store.ReplaceAt(ti, t)
	}
	if err != nil {
		return err
	}
	m.dirty = true
	m.refresh()
	m.focus(m.target)
	m.status = "Renamed"
	return nil
}

func (m Model) toggle() (tea.Model, tea.Cmd) {
	r, ok := m.selected()
	if !ok {
		return m, nil
	}
	ti, si, err := m.locate(r)
	if err != nil {
		m.status = fmt.Sprintf("toggle failed: %v", err)
		return m, nil
	}
	t, _ := m.store.At(ti)
	switch {
	case si >= 0:
		err = m.store.SetSubTaskCompleted(ti, si, !t.SubTasks[si].Completed)
		m.status = "Toggled sub-task"
	case t.Completed:
		err = m.store.SetCompleted(ti, false)
		m.status = "Reopened task"
	default:
		var next int
		var spawned bool
		next, spawned, err = m.store.Complete(ti)
		m.status = "Completed task"
		if err == nil && spawned {
			follow, _ := m.store.At(next)
			m.status = fmt.Sprintf("Completed task; next occurrence due %s", follow.Due)
		}
	}
	if err != nil {
		m.status = fmt.Sprintf("toggle failed: %v", err)
		return m, nil
	}
	m.dirty = true
	m.refresh()
	return m, nil
}

func (m Model) duplicate() (tea.Model, tea.Cmd) {
	r, ok := m.selected()
	if !ok {
		return m, nil
	}
	ti, _, err := m.locate(ref{taskID: r.taskID})
	if err != nil {
		m.status = fmt.Sprintf("duplicate failed: %v", err)
		return m, nil
	}
	i, err := m.store.Duplicate(ti)
	if err != nil {
		m.status = fmt.Sprintf("duplicate failed: %v", err)
		return m, nil
	}
	dup, _ := m.store.At(i)
	m.dirty = true
	m.refresh()
	m.focus(ref{taskID: dup.ID})
	m.status = "Duplicated task"
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", "esc":
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.confirmDel = false
			return m, nil
		}
		target := *m.pendingDel
		m.confirmDel = false
		m.pendingDel = nil

		ti, si, err := m.locate(target)
		if err == nil {
			if si >= 0 {
				err = m.store.DeleteSubTaskAt(ti, si)
			} else {
				err = m.store.DeleteAt(ti)
			}
		}
		if err != nil {
			m.status = fmt.Sprintf("delete failed: %v", err)
			return m, nil
		}
		m.dirty = true
		m.refresh()
		m.status = "Deleted"
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) shiftPriority(delta int) (tea.Model, tea.Cmd) {
	r, ok := m.selected()
	if !ok || r.subID != "" {
		m.status = "Select a task to change its priority"
		return m, nil
	}
	ti, _, err := m.locate(r)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	t, _ := m.store.At(ti)
	rank := clampCursor(t.Priority.Rank()+delta, len(task.Priorities))
	t.Priority = task.Priorities[rank]
	if err := m.store.ReplaceAt(ti, t); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.dirty = true
	m.refresh()
	m.focus(r)
	m.status = "Priority: " + string(t.Priority)
	return m, nil
}

// shiftDue moves the due date by whole days. A task without a usable due
// date starts from now.
func (m Model) shiftDue(days int) (tea.Model, tea.Cmd) {
	r, ok := m.selected()
	if !ok || r.subID != "" {
		m.status = "Select a task to change its due date"
		return m, nil
	}
	ti, _, err := m.locate(r)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	t, _ := m.store.At(ti)
	base, ok := t.Due.Time()
	if !ok {
		base = m.now()
	}
	t.Due = task.StampOf(base.AddDate(0, 0, days))
	if err := m.store.ReplaceAt(ti, t); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.dirty = true
	m.refresh()
	m.focus(r)
	m.status = "Due: " + string(t.Due)
	return m, nil
}

func (m Model) createBackup() (tea.Model, tea.Cmd) {
	if m.backups == nil {
		m.status = "Backups are not configured"
		return m, nil
	}
	if err := m.save(); err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		return m, nil
	}
	name, err := m.backups.Create(m.ctx)
	switch {
	case errors.Is(err, backup.ErrNothingToBackup):
		m.status = "Nothing to back up yet"
	case err != nil:
		m.status = fmt.Sprintf("backup failed: %v", err)
	default:
		m.status = "Backup written: " + name
	}
	return m, nil
}

func (m Model) nextTheme() (tea.Model, tea.Cmd) {
	m.theme = theme.Get(theme.Next(m.theme.Key))
	m.cfg.Theme = m.theme.Key
	m.status = "Theme: " + m.theme.Palette.Name
	if m.configPath == "" {
		return m, nil
	}
	key := m.theme.Key
	if err := config.Update(m.configPath, func(c *config.Config) { c.Theme = key }); err != nil {
		m.l.Warnf(m.ctx, "ui.nextTheme: persist theme: %v", err)
	}
	return m, nil
}

// refresh recomputes the visible rows from the store.
func (m *Model) refresh() {
	tasks := m.store.Tasks()
	now := m.now()
	m.entries = query.View(tasks, query.Params{Filter: m.filter, Sort: m.sort, Search: m.search, Now: now})
	m.summary = query.Summarize(tasks, now)
	m.rows = make([]row, 0, len(m.entries))
	for i, e := range m.entries {
		m.rows = append(m.rows, row{entry: i, sub: -1})
		for j := range e.Task.SubTasks {
			m.rows = append(m.rows, row{entry: i, sub: j})
		}
	}
	m.cursor = clampCursor(m.cursor, len(m.rows))
}

func (m Model) refOf(r row) ref {
	t := m.entries[r.entry].Task
	if r.sub >= 0 {
		return ref{taskID: t.ID, subID: t.SubTasks[r.sub].ID}
	}
	return ref{taskID: t.ID}
}

func (m Model) selected() (ref, bool) {
	if len(m.rows) == 0 {
		return ref{}, false
	}
	return m.refOf(m.rows[clampCursor(m.cursor, len(m.rows))]), true
}

func (m *Model) focus(target ref) {
	for i, r := range m.rows {
		if m.refOf(r) == target {
			m.cursor = i
			return
		}
	}
}

// locate resolves a ref to store indices. si is -1 for a task.
func (m Model) locate(r ref) (ti, si int, err error) {
	ti, err = m.store.IndexOf(r.taskID)
	if err != nil {
		return -1, -1, err
	}
	if r.subID == "" {
		return ti, -1, nil
	}
	t, err := m.store.At(ti)
	if err != nil {
		return -1, -1, err
	}
	for j, st := range t.SubTasks {
		if st.ID == r.subID {
			return ti, j, nil
		}
	}
	return -1, -1, fmt.Errorf("sub-task %s: %w", r.subID, task.ErrNotFound)
}

func (m Model) titleOf(r ref) string {
	ti, si, err := m.locate(r)
	if err != nil {
		return ""
	}
	t, _ := m.store.At(ti)
	if si >= 0 {
		return t.SubTasks[si].Title
	}
	return t.Title
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
