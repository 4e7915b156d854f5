package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/pnp/internal/ports/primary"
	"github.com/example/pnp/internal/wire"
)

// LogCmd returns the log command
func LogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "View provisioning run logs",
		Long:  "View and manage the persisted log of provisioning runs",
	}
	cmd.AddCommand(logTailCmd())
	cmd.AddCommand(logPruneCmd())
	return cmd
}

func logTailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show recent run log entries",
		Long:  "Show recent run log entries (default 50)",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			runID, _ := cmd.Flags().GetString("run")
			severity, _ := cmd.Flags().GetString("severity")

			if limit <= 0 {
				limit = 50
			}

			_, err := wire.LogAdapter().Tail(NewContext(), primary.LogFilters{
				RunID:    runID,
				Severity: severity,
				Limit:    limit,
			})
			return err
		},
	}
	cmd.Flags().IntP("limit", "n", 50, "number of entries to show")
	cmd.Flags().String("run", "", "only show entries of this run")
	cmd.Flags().String("severity", "", "only show entries of this severity (info, warning, error)")
	return cmd
}

func logPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old log entries",
		Long:  "Delete log entries older than the specified number of days (default 30)",
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")

			if days <= 0 {
				days = 30
			}

			_, err := wire.LogAdapter().Prune(NewContext(), days)
			return err
		},
	}
	cmd.Flags().Int("days", 30, "delete entries older than this many days")
	return cmd
}
