package cmd

import (
	"errors"
	"fmt"

	"github.com/chrisdamba/brewpos/internal/output"
	"github.com/chrisdamba/brewpos/internal/repositories/postgres"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the account, loyalty and event tables in Postgres",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Database.DSN == "" {
			return errors.New("database.dsn is not configured")
		}
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		pool, err := postgres.NewPool(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		if err := output.NewPostgresOutput(pool, logger).EnsureTables(ctx); err != nil {
			return err
		}
		logger.Info("schema ready", zap.String("database", pool.Config().ConnConfig.Database))
		fmt.Fprintln(cmd.OutOrStdout(), "schema ready")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
