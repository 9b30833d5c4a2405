package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sparsh2712/DataPipeline/internal/monitoring"
	"github.com/sparsh2712/DataPipeline/internal/reference"
	"github.com/sparsh2712/DataPipeline/internal/resolve"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <text>...",
	Short: "Resolve company mentions against the reference table",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validate("resolve"); err != nil {
			return err
		}
		titles, _ := cmd.Flags().GetBool("title")

		return withStore(cmd.Context(), func(ctx context.Context, st store) error {
			r, err := loadResolver(ctx, st, nil)
			if err != nil {
				return err
			}
			renderResolutions(os.Stdout, r, args, titles)
			return nil
		})
	},
}

func loadResolver(ctx context.Context, st store, metrics *monitoring.Metrics) (*resolve.Resolver, error) {
	t, err := reference.Load(ctx, st.Exec, cfg.Resolve.ReferenceQuery)
	if err != nil {
		return nil, err
	}
	return resolve.New(t, cfg.Resolve.Threshold, metrics), nil
}

func renderResolutions(out io.Writer, r *resolve.Resolver, inputs []string, titles bool) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Input", "Candidate", "Company", "Symbol", "Score"})
	for _, in := range inputs {
		candidate := in
		var m resolve.Match
		var ok bool
		if titles {
			candidate, m, ok = r.ResolveTitle(in)
		} else {
			m, ok = r.Resolve(in)
		}
		if !ok {
			t.AppendRow(table.Row{in, candidate, "-", "-", "-"})
			continue
		}
		t.AppendRow(table.Row{in, candidate, m.Name, m.Symbol, fmt.Sprintf("%.2f", m.Score)})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func init() {
	resolveCmd.Flags().Bool("title", false, "treat inputs as video titles and clean them first")
	rootCmd.AddCommand(resolveCmd)
}
