package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sparsh2712/DataPipeline/internal/governance"
	"github.com/sparsh2712/DataPipeline/internal/monitoring"
)

var governanceCmd = &cobra.Command{
	Use:   "governance",
	Short: "Collect board and committee composition for reference symbols",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := validate("session", "store"); err != nil {
			return err
		}
		errs, closeErrs, err := openErrLog()
		if err != nil {
			return err
		}
		defer closeErrs()

		metrics := monitoring.NewMetrics()
		defer flushMetrics(metrics)

		client, err := newClient(errs, metrics)
		if err != nil {
			return err
		}

		return withStore(cmd.Context(), func(ctx context.Context, st store) error {
			targets, err := governance.Targets(ctx, st.Exec)
			if err != nil {
				return err
			}
			stats, err := governance.NewCollector(client, st.Sink, errs, metrics).Collect(ctx, targets)
			if err != nil {
				return err
			}
			fmt.Printf("symbols=%d skipped=%d directors=%d committee_seats=%d\n",
				stats.Symbols, stats.Skipped, stats.Directors, stats.Committees)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(governanceCmd)
}
