package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sparsh2712/DataPipeline/internal/monitoring"
	"github.com/sparsh2712/DataPipeline/internal/runlog"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent harvest runs and health alerts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := validate("store"); err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		notify, _ := cmd.Flags().GetBool("notify")

		return withPostgres(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
			runs := runlog.New(pool)
			entries, err := runs.Recent(ctx, limit)
			if err != nil {
				return eris.Wrap(err, "status")
			}
			if len(entries) == 0 {
				fmt.Fprintln(os.Stderr, "No harvest runs found.")
				return nil
			}
			formatRuns(os.Stdout, entries)

			snap, err := monitoring.NewCollector(runs).Collect(ctx, cfg.Monitor.LookbackHours)
			if err != nil {
				return eris.Wrap(err, "status")
			}
			alerter := monitoring.NewAlerter(cfg.Monitor)
			alerts := alerter.Evaluate(snap)
			formatAlerts(os.Stdout, alerts)
			if notify {
				alerter.SendAlerts(ctx, alerts)
			}
			return nil
		})
	},
}

func formatRuns(out io.Writer, entries []runlog.Entry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tSTARTED\tDURATION\tENDPOINTS\tROWS\tFAILED_PAGES\tERROR")
	for _, e := range entries {
		dur := "-"
		if e.CompletedAt != nil {
			dur = e.CompletedAt.Sub(e.StartedAt).Round(time.Second).String()
		}
		errMsg := e.Error
		if len(errMsg) > 40 {
			errMsg = errMsg[:40] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			e.ID.String()[:8], e.Status, e.StartedAt.Format(time.DateTime), dur,
			e.Endpoints, e.RowsWritten, e.FailedPages, errMsg)
	}
	_ = w.Flush()
}

func formatAlerts(out io.Writer, alerts []monitoring.Alert) {
	if len(alerts) == 0 {
		_, _ = fmt.Fprintln(out, "\nNo alerts.")
		return
	}
	_, _ = fmt.Fprintln(out, "\nAlerts:")
	for _, a := range alerts {
		_, _ = fmt.Fprintf(out, "  [%s] %s\n", a.Severity, a.Message)
	}
}

func init() {
	statusCmd.Flags().Int("limit", 20, "max number of runs to display")
	statusCmd.Flags().Bool("notify", false, "post alerts to monitoring.webhook_url")
	rootCmd.AddCommand(statusCmd)
}
