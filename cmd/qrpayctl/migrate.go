package main

import (
	"context"
	"fmt"

	"qrpay/internal/config"
	"qrpay/internal/repository"
	"qrpay/pkg/logger"
	"qrpay/pkg/storage/postgres"

	"github.com/spf13/cobra"
)

func migrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the Postgres schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}

			db, err := openPostgres(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.Migrate(cmd.Context(), db); err != nil {
				return fmt.Errorf("qrpayctl migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema is up to date on %s:%s/%s\n",
				cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.Name)
			return nil
		},
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, log logger.Logger) (*postgres.Postgres, error) {
	if cfg.Storage.Driver != config.StoragePostgres {
		return nil, fmt.Errorf("qrpayctl: storage driver is %q, this command needs %q",
			cfg.Storage.Driver, config.StoragePostgres)
	}

	db, err := postgres.NewPostgres(
		ctx,
		&cfg.Postgres,
		log.With("component", "database"),
		postgres.MaxPoolSize(2),
		postgres.MaxConnAttempts(cfg.Postgres.ConnAttempts),
		postgres.BaseRetryDelay(cfg.Postgres.BaseRetryDelay),
		postgres.MaxRetryDelay(cfg.Postgres.MaxRetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("qrpayctl: %w", err)
	}
	return db, nil
}
