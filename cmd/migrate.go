package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sparsh2712/DataPipeline/internal/config"
	"github.com/sparsh2712/DataPipeline/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations",
	Long:  "Applies all pending SQL migrations (run log, reference and governance tables) in lexicographic order. Postgres only.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := validate("store"); err != nil {
			return err
		}
		if cfg.Store.Driver != "postgres" {
			return config.Invalidf("migrate: store.driver %q has no migrations; sqlite tables are created on first write", cfg.Store.Driver)
		}
		return withPostgres(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
			if err := db.Migrate(ctx, pool); err != nil {
				return eris.Wrap(err, "migrate")
			}
			zap.L().Info("all migrations applied successfully")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
