package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"protask/internal/query"
	"protask/internal/task"
)

func newListCmd(a *app) *cobra.Command {
	var filter, sort, search string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print tasks",
		Args:    cobra.NoArgs,
	}
	cmd.RunE = a.withStore(func(cmd *cobra.Command, _ []string) error {
		if filter == "" {
			filter = a.cfg.DefaultFilter
		}
		if sort == "" {
			sort = a.cfg.DefaultSort
		}
		f, err := query.ParseFilter(filter)
		if err != nil {
			return err
		}
		s, err := query.ParseSort(sort)
		if err != nil {
			return err
		}

		now := a.now()
		tasks := a.store.Tasks()
		entries := query.View(tasks, query.Params{Filter: f, Sort: s, Search: search, Now: now})

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No tasks.")
		} else {
			tbl := table.New().
				Border(lipgloss.HiddenBorder()).
				Headers("#", "STATUS", "PRIORITY", "DUE", "TITLE")
			for _, e := range entries {
				t := e.Task
				title := t.Title
				if len(t.SubTasks) > 0 {
					title += fmt.Sprintf(" (%d%%)", task.Progress(t))
				}
				tbl.Row(fmt.Sprint(e.Index), string(task.DisplayStatus(t, now)), string(t.Priority), dueText(t.Due, a), title)
				for j, st := range t.SubTasks {
					tbl.Row(fmt.Sprintf("%d-%d", e.Index, j), subStatus(st), "", "", "  "+st.Title)
				}
			}
			fmt.Fprintln(out, tbl.String())
		}
		fmt.Fprintln(out, query.Summarize(tasks, now).String())
		return nil
	})
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "All, Active, Completed or Overdue")
	cmd.Flags().StringVarP(&sort, "sort", "s", "", "Priority, \"Due Date\" or Created")
	cmd.Flags().StringVarP(&search, "search", "q", "", "case-insensitive text in title or description")
	return cmd
}

func dueText(s task.Stamp, a *app) string {
	ts, ok := s.Time()
	if !ok {
		return string(s)
	}
	return fmt.Sprintf("%s (%s)", s, humanize.RelTime(ts, a.now(), "ago", "from now"))
}

func subStatus(st task.SubTask) string {
	if st.Completed {
		return string(task.StatusDone)
	}
	return string(task.StatusActive)
}

func newAddCmd(a *app) *cobra.Command {
	var d task.Draft
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Example: `  todo add "Pay rent" --due "end of month" --priority high
  todo add Standup --due "tomorrow" --repeat daily --remind "2024-05-11 09:45"`,
		Args: cobra.MinimumNArgs(1),
	}
	cmd.RunE = a.withStore(func(cmd *cobra.Command, args []string) error {
		d.Title = strings.Join(args, " ")
		d.ReminderEnabled = d.ReminderAt != ""
		d.Recurring = d.Frequency != "" && !strings.EqualFold(d.Frequency, string(task.FrequencyNone))
		t, err := d.Build(a.now())
		if err != nil {
			return err
		}
		added := a.store.Append(t)
		if err := a.save(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added #%d %s\n", a.store.Len()-1, added.Title)
		return nil
	})
	cmd.Flags().StringVarP(&d.Priority, "priority", "p", "", "High, Medium or Low (default Medium)")
	cmd.Flags().StringVarP(&d.Due, "due", "d", "", "due date: YYYY-MM-DD [HH:MM] or e.g. \"next friday\"")
	cmd.Flags().StringVar(&d.ReminderAt, "remind", "", "reminder time, same forms as --due")
	cmd.Flags().StringVar(&d.Frequency, "repeat", "", "Daily, Weekly or Monthly")
	cmd.Flags().StringVar(&d.Description, "desc", "", "description")
	return cmd
}

func newSubCmd(a *app) *cobra.Command {
	var desc string
	cmd := &cobra.Command{
		Use:   "sub <task> <title>",
		Short: "Add a sub-task",
		Args:  cobra.MinimumNArgs(2),
	}
	cmd.RunE = a.withStore(func(cmd *cobra.Command, args []string) error {
		ti, _, err := parseAddr(args[0])
		if err != nil {
			return err
		}
		st, err := task.SubDraft{Title: strings.Join(args[1:], " "), Description: desc}.Build()
		if err != nil {
			return err
		}
		added, err := a.store.AppendSubTask(ti, st)
		if err != nil {
			return err
		}
		if err := a.save(cmd.Context()); err != nil {
			return err
		}
		parent, _ := a.store.At(ti)
		fmt.Fprintf(cmd.OutOrStdout(), "Added #%d-%d %s\n", ti, len(parent.SubTasks)-1, added.Title)
		return nil
	})
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	return cmd
}

func newDoneCmd(a *app) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "done <task|task-sub>",
		Short: "Mark a task or sub-task done",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.withStore(func(cmd *cobra.Command, args []string) error {
		ti, si, err := parseAddr(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		switch {
		case si >= 0:
			err = a.store.SetSubTaskCompleted(ti, si, !undo)
		case undo:
			err = a.store.SetCompleted(ti, false)
		default:
			var next int
			var spawned bool
			next, spawned, err = a.store.Complete(ti)
			if err == nil && spawned {
				follow, _ := a.store.At(next)
				fmt.Fprintf(out, "Next occurrence #%d due %s\n", next, follow.Due)
			}
		}
		if err != nil {
			return err
		}
		if err := a.save(cmd.Context()); err != nil {
			return err
		}
		state := "done"
		if undo {
			state = "reopened"
		}
		fmt.Fprintf(out, "Marked #%s %s\n", args[0], state)
		return nil
	})
	cmd.Flags().BoolVar(&undo, "undo", false, "reopen instead")
	return cmd
}

func newDupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dup <task>",
		Short: "Duplicate a task with its sub-tasks",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.withStore(func(cmd *cobra.Command, args []string) error {
		ti, _, err := parseAddr(args[0])
		if err != nil {
			return err
		}
		i, err := a.store.Duplicate(ti)
		if err != nil {
			return err
		}
		if err := a.save(cmd.Context()); err != nil {
			return err
		}
		dup, _ := a.store.At(i)
		fmt.Fprintf(cmd.OutOrStdout(), "Added #%d %s\n", i, dup.Title)
		return nil
	})
	return cmd
}

func newRmCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <task|task-sub>",
		Short: "Delete a task or sub-task",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.withStore(func(cmd *cobra.Command, args []string) error {
		ti, si, err := parseAddr(args[0])
		if err != nil {
			return err
		}
		if si >= 0 {
			err = a.store.DeleteSubTaskAt(ti, si)
		} else {
			err = a.store.DeleteAt(ti)
		}
		if err != nil {
			return err
		}
		if err := a.save(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%s\n", args[0])
		return nil
	})
	return cmd
}
