package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/gcp-budget-notifier/internal/config"
	"github.com/donaldgifford/gcp-budget-notifier/internal/store"
	"github.com/donaldgifford/gcp-budget-notifier/pkg/logger"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations for the postgres state backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cfg.State.Backend != config.BackendPostgres {
				return fmt.Errorf("state.backend is %q; migrations only apply to %q",
					cfg.State.Backend, config.BackendPostgres)
			}

			log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			pg, err := store.NewPostgresStore(ctx, cfg.Database.ConnString(), cfg.Database.PoolSize)
			if err != nil {
				return err
			}
			defer func() { _ = pg.Close() }()

			log.Info("running migrations", "host", cfg.Database.Host)

			applied, err := pg.Migrate(ctx)
			if err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}

			if len(applied) == 0 {
				log.Info("schema up to date")
				return nil
			}
			log.Info("migrations complete", "applied", applied)
			return nil
		},
	}
}
