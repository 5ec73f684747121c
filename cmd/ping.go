package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"neupages/internal/bootstrap"
	"neupages/internal/usecase/report"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test the neuPrint connection",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, service *report.Service) error {
		datasets, err := service.Ping(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "connected to %s, datasets: %s\n",
			app.Config.NeuPrint.Server, strings.Join(datasets, ", "))
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
