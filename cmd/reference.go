package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/sparsh2712/DataPipeline/internal/config"
	"github.com/sparsh2712/DataPipeline/internal/reference"
)

var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Manage the company reference table",
}

var referenceBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build nse.metadata from the governance master listing",
	Long:  "Keeps the latest corporate-governance filing per symbol, read from --input or fetched from the portal with --fetch, and upserts it into nse.metadata.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		input, _ := cmd.Flags().GetString("input")
		fetch, _ := cmd.Flags().GetBool("fetch")
		if (input == "") == !fetch {
			return config.Invalidf("reference build: exactly one of --input or --fetch is required")
		}
		modes := []string{"store"}
		if fetch {
			modes = append(modes, "session")
		}
		if err := validate(modes...); err != nil {
			return err
		}

		var doc gjson.Result
		if input != "" {
			data, err := os.ReadFile(input)
			if err != nil {
				return eris.Wrapf(err, "reference build: read %s", input)
			}
			if !gjson.ValidBytes(data) {
				return eris.Errorf("reference build: %s is not valid JSON", input)
			}
			doc = gjson.ParseBytes(data)
		} else {
			var err error
			if doc, err = fetchMaster(cmd.Context()); err != nil {
				return err
			}
		}

		return withStore(cmd.Context(), func(ctx context.Context, st store) error {
			n, err := reference.Build(ctx, st.Sink, doc)
			if err != nil {
				return err
			}
			fmt.Printf("reference rows written: %d\n", n)
			return nil
		})
	},
}

func fetchMaster(ctx context.Context) (gjson.Result, error) {
	errs, closeErrs, err := openErrLog()
	if err != nil {
		return gjson.Result{}, err
	}
	defer closeErrs()

	client, err := newClient(errs, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	params := url.Values{
		"index":        {"equities"},
		"from_date":    {cfg.Harvest.StartDate},
		"to_date":      {time.Now().Format(config.DateLayout)},
		"period_ended": {"all"},
	}
	res := client.Fetch(ctx, "corporate-governance-master", params, "corporate-filings-governance")
	if !res.OK() {
		return gjson.Result{}, eris.Wrap(res.Err, "reference build: fetch governance master")
	}
	return res.JSON(), nil
}

func init() {
	referenceBuildCmd.Flags().String("input", "", "governance master JSON file")
	referenceBuildCmd.Flags().Bool("fetch", false, "fetch the governance master from the portal")
	referenceCmd.AddCommand(referenceBuildCmd)
	rootCmd.AddCommand(referenceCmd)
}
