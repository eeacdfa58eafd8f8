package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fastygo/taskdeck/internal/config"
	pgInfra "github.com/fastygo/taskdeck/internal/infrastructure/postgres"
	"github.com/fastygo/taskdeck/pkg/logger"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(pgInfra.Up), string(pgInfra.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := pgInfra.Up
			if len(args) == 1 {
				dir = pgInfra.Direction(args[0])
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if path, _ := cmd.Flags().GetString("path"); path != "" {
				cfg.Migrations.Path = path
			}

			zapLogger, err := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
			if err != nil {
				return fmt.Errorf("logger error: %w", err)
			}
			defer func() { _ = zapLogger.Sync() }()

			return pgInfra.Migrate(cfg, dir, zapLogger)
		},
	}

	cmd.Flags().String("path", "", "migrations directory (overrides MIGRATIONS_PATH)")
	return cmd
}
