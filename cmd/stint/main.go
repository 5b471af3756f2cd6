package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abatilo/stint/internal/config"
	stinterrors "github.com/abatilo/stint/internal/errors"
	"github.com/abatilo/stint/internal/ledger"
	"github.com/abatilo/stint/internal/logger"
	"github.com/abatilo/stint/internal/output"
	"github.com/abatilo/stint/internal/storage"
	"github.com/abatilo/stint/internal/task"
)

const (
	sqliteFile      = "stint.db"
	defaultEstimate = 25
)

//nolint:gochecknoglobals // CLI flags and formatter are package-level by design
var (
	jsonOutput bool
	configPath string
	formatter  output.Formatter
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stint",
		Short: "Estimate tasks, time them, compare",
		Long:  "stint - Estimate how long tasks will take, time them as you work, and see how far off you were.",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if jsonOutput {
				formatter = output.NewJSONFormatter()
			} else {
				formatter = output.NewHumanFormatter()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/stint/config.yaml)")

	rootCmd.AddCommand(
		initCmd(),
		addCmd(),
		listCmd(),
		showCmd(),
		startCmd(),
		pauseCmd(),
		toggleCmd(),
		doneCmd(),
		renameCmd(),
		estimateCmd(),
		rmCmd(),
		moveCmd(),
		summaryCmd(),
		watchCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

// getStore opens the configured backend. Nothing is created until Init.
func getStore(cfg *config.Config) (storage.Store, error) {
	path := cfg.Storage.Path
	if path == "" {
		base, err := storage.DefaultBasePath(cfg.Storage.ProjectScoped)
		if err != nil {
			return nil, err
		}
		path = base
		if cfg.Storage.Backend == config.BackendSQLite {
			path = filepath.Join(base, sqliteFile)
		}
	}

	if cfg.Storage.Backend == config.BackendSQLite {
		return storage.OpenSQLite(path)
	}
	return storage.NewFileStore(path), nil
}

// getLedger loads the ledger from the configured store. The returned
// function stops the ledger and closes the store.
func getLedger(ctx context.Context) (*ledger.Ledger, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := getStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	l, err := ledger.Load(ctx, store,
		ledger.WithKey(cfg.Storage.Key),
		ledger.WithTickInterval(cfg.Ticker.Interval),
		ledger.WithLogger(logger.New(cfg.Logging, os.Stderr)),
	)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	return l, func() {
		l.Close()
		_ = store.Close()
	}, nil
}

func mustLedger(cmd *cobra.Command) (*ledger.Ledger, func()) {
	l, cleanup, err := getLedger(cmd.Context())
	if err != nil {
		printError(err)
	}
	return l, cleanup
}

// resolve expands an id prefix or exits with the lookup error.
func resolve(l *ledger.Ledger, prefix string) string {
	id, err := l.Resolve(prefix)
	if err != nil {
		printError(err)
	}
	return id
}

func parseMinutes(s string) float64 {
	minutes, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		printError(stinterrors.ValidationError{Field: "estimate", Reason: fmt.Sprintf("%q is not a number of minutes", s)})
	}
	return minutes
}

func printOutput(s string) {
	os.Stdout.WriteString(s) //nolint:gosec // stdout write errors are unrecoverable
}

func printError(err error) {
	os.Stdout.WriteString(formatter.FormatError(err)) //nolint:gosec // stdout write errors are unrecoverable
	os.Exit(1)
}

// initCmd implements 'stint init'.
func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize stint storage",
		Run: func(_ *cobra.Command, _ []string) {
			cfg, err := loadConfig()
			if err != nil {
				printError(err)
			}
			store, err := getStore(cfg)
			if err != nil {
				printError(err)
			}
			defer func() { _ = store.Close() }()

			if err = store.Init(force); err != nil {
				printError(err)
			}
			printOutput(formatter.FormatMessage("Initialized stint at " + store.Location()))
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Reinitialize even if already exists")
	return cmd
}

// addCmd implements 'stint add'.
func addCmd() *cobra.Command {
	var estimate float64
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a new task",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			l, cleanup := mustLedger(cmd)
			defer cleanup()

			t, err := l.AddTask(args[0], estimate)
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatTask(t, l.Now()))
		},
	}
	cmd.Flags().Float64VarP(&estimate, "estimate", "e", defaultEstimate,
		"Estimate in minutes (presets: 5, 10, 20, 30, 45, 60)")
	return cmd
}

// listCmd implements 'stint list'.
func listCmd() *cobra.Command {
	var showActive, showDone bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Run: func(cmd *cobra.Command, _ []string) {
			l, cleanup := mustLedger(cmd)
			defer cleanup()

			tasks := l.View()
			switch {
			case showActive && !showDone:
				tasks = filter(tasks, func(t *task.Task) bool { return !t.IsDone() })
			case showDone && !showActive:
				tasks = filter(tasks, (*task.Task).IsDone)
			}
			printOutput(formatter.FormatTaskList(tasks, l.Now()))
		},
	}
	cmd.Flags().BoolVar(&showActive, "active", false, "Show only tasks that are not done")
	cmd.Flags().BoolVar(&showDone, "done", false, "Show only done tasks")
	return cmd
}

func filter(tasks []*task.Task, keep func(*task.Task) bool) []*task.Task {
	var out []*task.Task
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// showCmd implements 'stint show'.
func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			l, cleanup := mustLedger(cmd)
			defer cleanup()

			t, _ := l.Get(resolve(l, args[0]))
			printOutput(formatter.FormatTask(t, l.Now()))
		},
	}
}

// startCmd implements 'stint start'.
func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <id>",
		Short: "Start or resume a task's timer",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			l, cleanup := mustLedger(cmd)
			defer cleanup()

			t, changed := l.StartTimer(resolve(l, args[0]))
			if !changed {
				printOutput(formatter.FormatMessage(fmt.Sprintf("Task %s is already %s", task.ShortID(t.ID), t.State())))
				return
			}
			printOutput(formatter.FormatTask(t, l.Now()))
		},
	}
}

// pauseCmd implements 'stint pause'.
func pauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause <id>",
		Short: "Pause a running timer",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			l, cleanup := mustLedger(cmd)
			defer cleanup()

			t, changed := l.PauseTimer(resolve(l, args[0]))
			if !changed {
				printOutput(formatter.FormatMessage(fmt.Sprintf("Task %s is not running", task.ShortID(t.ID))))
				return
			}
			printOutput(formatter.FormatTask(t, l.Now()))
		},
	}
}

// toggleCmd implements 'stint toggle'.
func toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Pause a running timer or start a stopped one",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			l, cleanup := mustLedger(cmd)
			defer cleanup()

			t, changed := l.Toggle(resolve(l, args[0]))
			if !changed {
				printOutput(formatter.FormatMessage(fmt.Sprintf("Task %s is already %s", task.ShortID(t.ID), t.State())))
				return
			}
			printOutput(formatter.FormatTask(t, l.Now()))
		},
	}
}

// doneCmd implements 'stint done'.
func doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Complete a running task and record its actual time",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			l, cleanup := mustLedger(cmd)
			defer cleanup()

			t, err := l.CompleteTask(resolve(l, args[0]))
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatTask(t, l.Now()))
		},
	}
}

// renameCmd implements 'stint rename'.
func renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Change a task's title",
		Args:  cobra.ExactArgs(2), //nolint:mnd // CLI takes 2 positional args
		Run: func(cmd *cobra.Command, args []string) {
			l, cleanup := mustLedger(cmd)
			defer cleanup()

			t, err := l.EditTitle(resolve(l, args[0]), args[1])
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatTask(t, l.Now()))
		},
	}
}

// estimateCmd implements 'stint estimate'.
func estimateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "estimate <id> <minutes>",
		Short: "Change the estimate of a task that has not been started",
		Args:  cobra.ExactArgs(2), //nolint:mnd // CLI takes 2 positional args
		Run: func(cmd *cobra.Command, args []string) {
			l, cleanup := mustLedger(cmd)
			defer cleanup()

			id := resolve(l, args[0])
			t, err := l.EditEstimate(id, parseMinutes(args[1]))
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatTask(t, l.Now()))
		},
	}
}

// rmCmd implements 'stint rm'.
func rmCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a task",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			l, cleanup := mustLedger(cmd)
			defer cleanup()

			id := resolve(l, args[0])
			if t, _ := l.Get(id); t.IsRunning() && !force {
				printError(RunningTaskError{ID: task.ShortID(id), Title: t.Title})
			}

			l.DeleteTask(id)
			printOutput(formatter.FormatMessage("Removed task " + task.ShortID(id)))
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Remove even if the timer is running")
	return cmd
}

// moveCmd implements 'stint move'.
func moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <target-id>",
		Short: "Move a task into another task's position",
		Args:  cobra.ExactArgs(2), //nolint:mnd // CLI takes 2 positional args
		Run: func(cmd *cobra.Command, args []string) {
			l, cleanup := mustLedger(cmd)
			defer cleanup()

			dragged := resolve(l, args[0])
			target := resolve(l, args[1])
			if !l.Reorder(dragged, target) {
				printOutput(formatter.FormatMessage("Nothing to move"))
				return
			}
			printOutput(formatter.FormatTaskList(l.View(), l.Now()))
		},
	}
}

// summaryCmd implements 'stint summary'.
func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show estimated against actual totals",
		Run: func(cmd *cobra.Command, _ []string) {
			l, cleanup := mustLedger(cmd)
			defer cleanup()

			printOutput(formatter.FormatSummary(task.Summarize(l.Tasks())))
		},
	}
}
