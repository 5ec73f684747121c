package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"neupages/internal/bootstrap"
	"neupages/internal/usecase/report"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Work queue commands",
}

var queueStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pending and claimed counts",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, service *report.Service) error {
		status, err := service.QueueStatus(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "pending: %d\n", status.Pending)
		if status.Pending > 0 {
			fmt.Fprintf(out, "  oldest pending: %s\n", humanize.Time(time.Now().Add(-status.OldestPendingAge)))
		}
		fmt.Fprintf(out, "claimed: %d\n", status.Claimed)
		if status.Claimed > 0 {
			fmt.Fprintf(out, "  oldest claimed: %s\n", humanize.Time(time.Now().Add(-status.OldestClaimedAge)))
		}
		return nil
	}),
}

var queueRecoverOlderThan time.Duration

var queueRecoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Release claims orphaned by crashed workers",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, service *report.Service) error {
		recovered, err := service.RecoverOrphans(cmd.Context(), queueRecoverOlderThan)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(recovered) == 0 {
			fmt.Fprintln(out, "no stale claims found")
			return nil
		}
		for _, itemID := range recovered {
			fmt.Fprintf(out, "released %s\n", itemID)
		}
		return nil
	}),
}

func init() {
	queueRecoverCmd.Flags().DurationVar(&queueRecoverOlderThan, "older-than", 30*time.Minute, "Release claims untouched for at least this long")
	queueCmd.AddCommand(queueStatusCmd)
	queueCmd.AddCommand(queueRecoverCmd)
	rootCmd.AddCommand(queueCmd)
}
