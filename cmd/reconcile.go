package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sparsh2712/DataPipeline/internal/confcall"
	"github.com/sparsh2712/DataPipeline/internal/config"
	"github.com/sparsh2712/DataPipeline/internal/monitoring"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile-calls",
	Short: "Attach listed companies to scraped conference calls",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := validate("resolve"); err != nil {
			return err
		}
		if cfg.Store.Driver != "postgres" {
			return config.Invalidf("reconcile-calls: requires store.driver postgres")
		}
		metrics := monitoring.NewMetrics()
		defer flushMetrics(metrics)

		return withStore(cmd.Context(), func(ctx context.Context, st store) error {
			r, err := loadResolver(ctx, st, metrics)
			if err != nil {
				return err
			}
			stats, err := confcall.New(st.Exec, r, cfg.Resolve.CallsTable).Run(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("videos=%d matched=%d cleared=%d\n", stats.Videos, stats.Matched, stats.Cleared)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
