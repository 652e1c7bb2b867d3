package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API on HTTP_ADDR. When MCP_ADDR is set the MCP server
starts alongside it. The past-due sweeper runs in-process unless
SWEEP_ENABLED=false; the outbox processor unless OUTBOX_PROCESSOR_ENABLED=false.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		return ignoreCanceled(app.Runtime.Serve(cmd.Context()))
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the past-due sweeper and the outbox processor",
	Long: `Run the background worker: the periodic past-due sweep, the outbox
processor and a health server on WORKER_HEALTH_ADDR (/healthz, /readyz).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		return ignoreCanceled(app.Runtime.RunWorker(cmd.Context()))
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}

		applied, err := app.Runtime.Migrate(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(applied) == 0 {
			fmt.Fprintln(out, "Schema is up to date.")
			return nil
		}
		for _, version := range applied {
			fmt.Fprintf(out, "applied %s\n", version)
		}
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Move every overdue NOT_DONE item to PAST_DUE now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}

		result, err := app.SweepPastDueHandler.Handle(cmd.Context())
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, map[string]any{
				"cutoff": result.Cutoff.UTC(),
				"count":  result.Count,
			})
		}
		fmt.Fprintf(out, "Swept %d item(s) past due (cutoff %s).\n", result.Count, result.Cutoff.UTC().Format(dateLayout))
		return nil
	},
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sweepCmd)
}
