package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sparsh2712/DataPipeline/internal/discovery"
	"github.com/sparsh2712/DataPipeline/internal/errlog"
)

var discoverCmd = &cobra.Command{
	Use:   "discover <page>",
	Short: "Emit descriptor skeletons for a listing page's filing categories",
	Long:  "Fetches a portal listing page (for example /companies-listing/corporate-filings-insider-trading) and prints one descriptor per entry of its side menu.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validate("session"); err != nil {
			return err
		}
		client, err := newClient(errlog.Discard(), nil)
		if err != nil {
			return err
		}
		out, err := discovery.Discover(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}

		if path, _ := cmd.Flags().GetString("output"); path != "" {
			if err := os.WriteFile(path, out, 0o644); err != nil {
				return eris.Wrapf(err, "discover: write %s", path)
			}
			return nil
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

func init() {
	discoverCmd.Flags().StringP("output", "o", "", "write the skeleton to a file instead of stdout")
	rootCmd.AddCommand(discoverCmd)
}
