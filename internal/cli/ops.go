package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"protask/internal/backup"
	"protask/internal/dateexpr"
	"protask/internal/export"
	"protask/internal/task"
)

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file.csv|->",
		Short: "Export tasks and sub-tasks as CSV",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.withStore(func(cmd *cobra.Command, args []string) error {
		if args[0] == "-" {
			return export.WriteCSV(cmd.OutOrStdout(), a.store.Tasks())
		}
		if err := export.ToFile(args[0], a.store.Tasks()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d task(s) to %s\n", a.store.Len(), args[0])
		return nil
	})
	return cmd
}

func newBackupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list and restore backups",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Snapshot the current data",
		Args:  cobra.NoArgs,
	}
	create.RunE = a.withStore(func(cmd *cobra.Command, _ []string) error {
		name, err := a.backups().Create(cmd.Context())
		if errors.Is(err, backup.ErrNothingToBackup) {
			return fmt.Errorf("%w: add a task first", err)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", name)
		return nil
	})

	list := &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
	}
	list.RunE = a.withStore(func(cmd *cobra.Command, _ []string) error {
		entries, err := a.backups().List()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No backups.")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(out, "%s\t%s\n", e.Name, humanize.RelTime(e.ModTime, a.now(), "ago", "from now"))
		}
		return nil
	})

	restore := &cobra.Command{
		Use:   "restore <name>",
		Short: "Replace the current data with a backup",
		Args:  cobra.ExactArgs(1),
	}
	restore.RunE = a.withStore(func(cmd *cobra.Command, args []string) error {
		if err := a.backups().Restore(cmd.Context(), args[0]); err != nil {
			return err
		}
		a.store.Reset(a.repo.Load(cmd.Context()))
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %s (%d task(s))\n", args[0], a.store.Len())
		return nil
	})

	cmd.AddCommand(create, list, restore)
	return cmd
}

func newDateCmd(a *app) *cobra.Command {
	var ref string
	cmd := &cobra.Command{
		Use:   "date <expression>",
		Short: "Resolve a date expression such as \"next friday\" or \"in 3 weeks\"",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := a.now()
			if ref != "" {
				t, err := time.ParseInLocation(task.DateTimeLayout, ref, time.Local)
				if err != nil {
					return fmt.Errorf("--ref: %w", err)
				}
				base = t
			}
			expr := strings.Join(args, " ")
			t, err := dateexpr.ParseInput(expr, base)
			if err != nil {
				if !dateexpr.LooksNatural(expr) {
					return fmt.Errorf("%q: %w (no date keywords found)", expr, err)
				}
				return fmt.Errorf("%q: %w", expr, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), task.StampOf(t))
			return nil
		},
	}
	cmd.Flags().StringVar(&ref, "ref", "", "reference time as YYYY-MM-DD HH:MM (default now)")
	return cmd
}
