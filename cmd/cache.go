package cmd

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"neupages/internal/bootstrap"
	"neupages/internal/usecase/report"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Persistent cache commands",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry counts and sizes",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, service *report.Service) error {
		stats, err := service.CacheStats(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "disk entries: %d\n", stats.DiskEntries)
		fmt.Fprintf(out, "disk size: %s values, %s metadata\n",
			humanize.Bytes(uint64(stats.ValueBytes)), humanize.Bytes(uint64(stats.MetaBytes)))
		fmt.Fprintf(out, "memory entries: %d (%s)\n",
			stats.MemoryEntries, humanize.Bytes(uint64(stats.MemoryBytes)))
		return nil
	}),
}

var cacheInvalidateType string

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Drop the cached page for a neuron type",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, service *report.Service) error {
		if cacheInvalidateType == "" {
			return errors.New("--neuron-type is required")
		}

		if err := service.InvalidatePage(cmd.Context(), cacheInvalidateType); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "invalidated %s\n", cacheInvalidateType)
		return nil
	}),
}

func init() {
	cacheInvalidateCmd.Flags().StringVarP(&cacheInvalidateType, "neuron-type", "n", "", "Neuron type to invalidate")
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	rootCmd.AddCommand(cacheCmd)
}
