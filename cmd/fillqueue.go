package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"neupages/internal/bootstrap"
	"neupages/internal/usecase/report"
)

var (
	fillQueueTypes []string
	fillQueueAll   bool
)

var fillQueueCmd = &cobra.Command{
	Use:   "fill-queue",
	Short: "Enqueue page generation work and update the manifest",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, service *report.Service) error {
		if !fillQueueAll && len(fillQueueTypes) == 0 {
			return errors.New("either --neuron-type or --all is required")
		}

		result, err := service.FillQueue(cmd.Context(), report.FillQueueInput{
			NeuronTypes: fillQueueTypes,
			All:         fillQueueAll,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "enqueued %d, skipped %d (already queued)\n",
			len(result.Enqueued), len(result.Skipped))
		return nil
	}),
}

func init() {
	fillQueueCmd.Flags().StringSliceVarP(&fillQueueTypes, "neuron-type", "n", nil, "Neuron type to enqueue (repeatable)")
	fillQueueCmd.Flags().BoolVar(&fillQueueAll, "all", false, "Enqueue every neuron type the dataset knows")
	rootCmd.AddCommand(fillQueueCmd)
}
