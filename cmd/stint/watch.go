package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/abatilo/stint/internal/ledger"
	"github.com/abatilo/stint/internal/task"
)

const clearScreen = "\033[H\033[2J"

// watchCmd implements 'stint watch'.
func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Show live progress until no task is running",
		Run: func(cmd *cobra.Command, _ []string) {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			l, cleanup := mustLedger(cmd)
			defer cleanup()

			if !l.Running() {
				printOutput(formatter.FormatMessage("No task is running"))
				return
			}

			redraw := !jsonOutput && term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec // fd fits in int
			ticks := make(chan struct{}, 1)
			idle := make(chan struct{}, 1)
			unsubscribe := l.Subscribe(func(ev ledger.Event) {
				switch ev.Kind {
				case ledger.EventTick:
					notify(ticks)
				case ledger.EventIdle:
					notify(idle)
				case ledger.EventChanged:
				}
			})
			defer unsubscribe()

			render(l, redraw)
			for {
				select {
				case <-ctx.Done():
					return
				case <-idle:
					render(l, redraw)
					return
				case <-ticks:
					// Other stint processes may have paused or completed
					// tasks since the last frame.
					if err := l.Reload(ctx); err != nil {
						if ctx.Err() != nil {
							return
						}
						printError(err)
					}
					render(l, redraw)
					if !l.Running() {
						return
					}
				}
			}
		},
	}
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func render(l *ledger.Ledger, redraw bool) {
	if redraw {
		printOutput(clearScreen)
	}
	tasks := l.View()
	printOutput(formatter.FormatTaskList(tasks, l.Now()))
	if !jsonOutput {
		printOutput(formatter.FormatSummary(task.Summarize(tasks)))
	}
}
