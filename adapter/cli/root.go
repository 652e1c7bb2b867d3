package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/felixgeelhaar/todolist/pkg/observability"
	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	logger     *slog.Logger
)

type timerKey struct{}

// rootCmd is the todolist command tree.
var rootCmd = &cobra.Command{
	Use:   "todolist",
	Short: "todolist - a small todo item service",
	Long: `todolist keeps todo items with a description and a due date.

Items move between "not done" and "done" until their due date passes;
after that they are past due and can no longer change.

Run "todolist serve" for the HTTP API and "todolist worker" for the
past-due sweep and event publishing. The remaining commands act on the
configured database directly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		// every write made by one command shares a correlation id
		ctx = observability.WithSource(observability.WithCorrelationID(ctx, ""), "cli")
		timer := observability.StartTimer("cli." + cmd.Name()).WithLogger(cliLogger())
		cmd.SetContext(context.WithValue(ctx, timerKey{}, timer))
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if timer, ok := cmd.Context().Value(timerKey{}).(*observability.Timer); ok {
			timer.Stop(cmd.Context(), nil)
		}
	},
}

func cliLogger() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// ExecuteContext runs the command line with ctx; serve and worker stop when
// it is cancelled. Errors go to stderr with exit status 1.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}
