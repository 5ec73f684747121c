package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"neupages/internal/bootstrap"
	"neupages/internal/usecase/report"
)

var popCmd = &cobra.Command{
	Use:   "pop",
	Short: "Claim and process a single queued item",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, service *report.Service) error {
		itemID, err := service.PopOne(cmd.Context())
		if err != nil {
			return err
		}
		if itemID == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "queue is empty")
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "processed %s\n", itemID)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(popCmd)
}
