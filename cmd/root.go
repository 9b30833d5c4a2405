package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sparsh2712/DataPipeline/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "datapipeline",
	Short: "Exchange-portal data harvester",
	Long:  "Harvests paginated JSON endpoints of the NSE portal behind its cookie session, stores them in Postgres or SQLite and resolves company mentions against a reference table.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

// validate checks the config sections a command depends on.
func validate(modes ...string) error {
	for _, m := range modes {
		if err := cfg.Validate(m); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if config.IsConfigError(err) {
			fmt.Fprintln(os.Stderr, "configuration error:", err)
		}
		os.Exit(1)
	}
}
