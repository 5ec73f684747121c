package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"neupages/internal/bootstrap"
	"neupages/internal/usecase/report"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "List every neuron type ever scheduled",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, service *report.Service) error {
		itemIDs, err := service.ScheduledTypes(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, itemID := range itemIDs {
			fmt.Fprintln(out, itemID)
		}
		fmt.Fprintf(out, "%d type(s) scheduled\n", len(itemIDs))
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(manifestCmd)
}
