package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sparsh2712/DataPipeline/internal/errlog"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Acquire a portal session and print its cookies",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := validate("session"); err != nil {
			return err
		}
		client, err := newClient(errlog.Discard(), nil)
		if err != nil {
			return err
		}
		s, err := client.AcquireSession(cmd.Context(), cfg.Session.MaxRetries)
		if err != nil {
			return err
		}

		cookies := make(map[string]string)
		var names []string
		for _, c := range s.Cookies() {
			cookies[c.Name] = c.Value
			names = append(names, c.Name)
		}
		state := "full"
		if s.Degraded() {
			state = "degraded"
		}
		fmt.Printf("session %s: %s\n", state, strings.Join(names, ", "))

		if path, _ := cmd.Flags().GetString("save"); path != "" {
			data, err := json.MarshalIndent(cookies, "", "  ")
			if err != nil {
				return eris.Wrap(err, "session: encode cookies")
			}
			if err := os.WriteFile(path, data, 0o600); err != nil {
				return eris.Wrapf(err, "session: write %s", path)
			}
		}
		return nil
	},
}

func init() {
	sessionCmd.Flags().String("save", "", "write the cookie name/value map to this JSON file")
	rootCmd.AddCommand(sessionCmd)
}
