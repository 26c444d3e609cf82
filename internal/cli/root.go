// Package cli wires configuration, logging and storage into the command line
// and the terminal UI.
package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"protask/internal/backup"
	"protask/internal/config"
	"protask/internal/storage"
	"protask/internal/task"
	"protask/internal/ui"
	pkgLog "protask/pkg/log"
)

// app is the state shared by every command of one invocation.
type app struct {
	configPath string
	cfg        config.Config
	l          pkgLog.Logger
	repo       storage.Repository
	store      *task.Store
	now        func() time.Time
}

// open loads the config, starts the logger and reads the task collection.
func (a *app) open(ctx context.Context) error {
	if a.configPath == "" {
		a.configPath = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	a.l = pkgLog.Init(pkgLog.ZapConfig{
		Level:    cfg.LogLevel,
		Mode:     "production",
		Encoding: "console",
		File:     cfg.LogFile,
	})

	repo, err := storage.Open(cfg.Backend, cfg.DataPath, a.l)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	a.repo = repo
	a.store = task.NewStore(task.WithClock(a.now))
	a.store.Reset(repo.Load(ctx))
	a.l.Debugf(ctx, "cli.open: %d task(s) from %s", a.store.Len(), repo.Path())
	return nil
}

func (a *app) close() {
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.l.Warnf(context.Background(), "cli.close: %v", err)
		}
	}
	if a.l != nil {
		_ = a.l.Sync()
	}
}

func (a *app) save(ctx context.Context) error {
	if err := a.repo.Save(ctx, a.store.Tasks()); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

func (a *app) backups() *backup.Manager {
	return backup.New(a.cfg.BackupDir, a.repo, a.l, backup.WithMax(a.cfg.MaxBackups), backup.WithClock(a.now))
}

// withStore opens the app around fn.
func (a *app) withStore(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.open(cmd.Context()); err != nil {
			return err
		}
		defer a.close()
		return fn(cmd, args)
	}
}

func newRootCmd(version string) *cobra.Command {
	a := &app{now: time.Now}

	root := &cobra.Command{
		Use:   "todo",
		Short: "protask - tasks, sub-tasks, reminders and recurrence in the terminal",
		Long: `protask keeps a prioritised task list with sub-tasks, due dates, reminders and
recurring tasks. Run without arguments to open the interactive list.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.RunE = a.withStore(func(cmd *cobra.Command, _ []string) error {
		return ui.Run(cmd.Context(), ui.Options{
			Store:      a.store,
			Repo:       a.repo,
			Backups:    a.backups(),
			Config:     a.cfg,
			ConfigPath: a.configPath,
			Logger:     a.l,
			Now:        a.now,
		})
	})
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $PROTASK_CONFIG or ~/.config/protask/config.toml)")

	root.AddCommand(
		newListCmd(a),
		newAddCmd(a),
		newSubCmd(a),
		newDoneCmd(a),
		newDupCmd(a),
		newRmCmd(a),
		newExportCmd(a),
		newBackupCmd(a),
		newDateCmd(a),
	)
	return root
}

// Execute runs the command line.
func Execute(version string) error {
	if err := newRootCmd(version).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// parseAddr reads a task address: "3" for a task or "3-1" for its second
// sub-task. sub is -1 for a task.
func parseAddr(s string) (ti, sub int, err error) {
	head, tail, hasSub := strings.Cut(strings.TrimSpace(s), "-")
	ti, err = strconv.Atoi(head)
	if err != nil || ti < 0 {
		return -1, -1, fmt.Errorf("invalid task address %q", s)
	}
	if !hasSub {
		return ti, -1, nil
	}
	sub, err = strconv.Atoi(tail)
	if err != nil || sub < 0 {
		return -1, -1, fmt.Errorf("invalid sub-task address %q", s)
	}
	return ti, sub, nil
}
