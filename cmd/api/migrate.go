package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/persistence"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

func init() {
	for _, command := range []persistence.MigrationCommand{
		persistence.MigrateUp,
		persistence.MigrateDown,
		persistence.MigrateStatus,
	} {
		migrateCmd.AddCommand(newMigrateSubcommand(command))
	}
}

func newMigrateSubcommand(command persistence.MigrationCommand) *cobra.Command {
	return &cobra.Command{
		Use:   string(command),
		Short: fmt.Sprintf("Run goose %s against POSTGRES_DSN", command),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			if cfg.Postgres.DSN == "" {
				return fmt.Errorf("POSTGRES_DSN is required for migrate %s", command)
			}

			pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pg.Close()
			return persistence.Migrate(cmd.Context(), pg.PoolHandle(), command, logger)
		},
	}
}
