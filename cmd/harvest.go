package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sparsh2712/DataPipeline/internal/config"
	"github.com/sparsh2712/DataPipeline/internal/harvest"
	"github.com/sparsh2712/DataPipeline/internal/monitoring"
	"github.com/sparsh2712/DataPipeline/internal/runlog"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest every configured endpoint into the store",
	Long:  "Fetches each endpoint descriptor across its parameter combinations and date windows, projects records through the schema file and writes batches to the configured store.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := validate("harvest"); err != nil {
			return err
		}
		only, _ := cmd.Flags().GetStringSlice("endpoints")
		return runHarvest(cmd.Context(), only)
	},
}

func runHarvest(ctx context.Context, only []string) error {
	log := zap.L().With(zap.String("component", "cmd.harvest"))

	descriptors, err := harvest.LoadDescriptors(cfg.Harvest.EndpointsFile)
	if err != nil {
		return err
	}
	descriptors, err = selectDescriptors(descriptors, only)
	if err != nil {
		return err
	}
	schemas, err := harvest.LoadSchemas(cfg.Harvest.SchemaFile)
	if err != nil {
		return err
	}
	opts, err := harvest.OptionsFromConfig(cfg.Harvest)
	if err != nil {
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
	opts.ErrLog = errs
	opts.Metrics = metrics

	return withStore(ctx, func(ctx context.Context, st store) error {
		var runs *runlog.Log
		var runID uuid.UUID
		if st.Pool != nil {
			runs = runlog.New(st.Pool)
			if runID, err = runs.Start(ctx); err != nil {
				log.Warn("run log unavailable", zap.Error(err))
				runs = nil
			}
		}

		h := harvest.New(client, st.Sink, schemas, opts)
		stats, runErr := h.Run(ctx, descriptors)

		if runs != nil {
			// Record the outcome even when the run was interrupted.
			recordCtx := context.WithoutCancel(ctx)
			if runErr != nil {
				err = runs.Fail(recordCtx, runID, runErr.Error())
			} else {
				err = runs.Complete(recordCtx, runID, runlog.Result{
					Endpoints:   stats.Endpoints,
					RowsWritten: stats.Rows,
					FailedPages: stats.FailedPages,
				})
			}
			if err != nil {
				log.Warn("record run outcome", zap.Error(err))
			}
		}

		if runErr != nil {
			return eris.Wrap(runErr, "harvest")
		}
		fmt.Printf("endpoints=%d skipped=%d pages=%d failed_pages=%d rows=%d errors_logged=%d\n",
			stats.Endpoints, stats.Skipped, stats.Pages, stats.FailedPages, stats.Rows, errs.Count())
		return nil
	})
}

// selectDescriptors keeps the named descriptors in file order. An unknown
// name is a configuration error.
func selectDescriptors(all []harvest.Descriptor, only []string) ([]harvest.Descriptor, error) {
	if len(only) == 0 {
		return all, nil
	}
	var out []harvest.Descriptor
	for _, d := range all {
		if slices.Contains(only, d.Name) {
			out = append(out, d)
		}
	}
	for _, name := range only {
		if !slices.ContainsFunc(out, func(d harvest.Descriptor) bool { return d.Name == name }) {
			return nil, config.Invalidf("harvest: unknown endpoint %q", name)
		}
	}
	return out, nil
}

func init() {
	harvestCmd.Flags().StringSlice("endpoints", nil, "harvest only these descriptor names (comma-separated)")
	rootCmd.AddCommand(harvestCmd)
}
