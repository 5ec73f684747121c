package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"neupages/internal/bootstrap"
	"neupages/internal/bootstrap/logging"
	"neupages/internal/usecase/report"
)

var (
	workerCount int
	workerWait  bool
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run worker loops that drain the queue",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, service *report.Service) error {
		ctx := cmd.Context()

		// Optional startup sweep: with queue.recover_after configured, claims
		// orphaned by a previous unclean shutdown are released before work
		// starts. Never applied per claim attempt.
		if recoverAfter := app.Config.Queue.RecoverAfter; recoverAfter > 0 {
			recovered, err := service.RecoverOrphans(ctx, recoverAfter)
			if err != nil {
				return err
			}
			if len(recovered) > 0 {
				logging.Info(ctx, "recovered orphaned claims at startup", slog.Int("count", len(recovered)))
			}
		}

		processed, err := service.RunWorkers(ctx, workerCount, report.RunWorkerInput{Wait: workerWait})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "processed %d item(s)\n", processed)
		return nil
	}),
}

func init() {
	workerCmd.Flags().IntVar(&workerCount, "count", 1, "Concurrent worker loops in this process")
	workerCmd.Flags().BoolVar(&workerWait, "wait", false, "Keep waiting for new work instead of exiting on empty queue")
	rootCmd.AddCommand(workerCmd)
}
