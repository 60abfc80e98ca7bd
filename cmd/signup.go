package cmd

import (
	"errors"
	"fmt"

	"github.com/chrisdamba/brewpos/internal/accounts"
	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/chrisdamba/brewpos/internal/repositories/postgres"
	"github.com/spf13/cobra"
)

var (
	signupAdmin    bool
	signupPassword string
)

var signupCmd = &cobra.Command{
	Use:   "signup <username>",
	Short: "Create a customer or admin account in Postgres",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Database.DSN == "" {
			return errors.New("database.dsn is not configured; accounts need a durable store")
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

		role := models.RoleCustomer
		if signupAdmin {
			role = models.RoleAdmin
		}
		svc := accounts.NewService(postgres.NewAccountRepository(pool), accounts.WithLogger(logger))
		account, err := svc.Signup(ctx, args[0], signupPassword, role)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s account %s\n", account.Role, account.Username)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(signupCmd)
	signupCmd.Flags().BoolVar(&signupAdmin, "admin", false, "create an admin instead of a customer")
	signupCmd.Flags().StringVarP(&signupPassword, "password", "p", "", "account password")
	cobra.CheckErr(signupCmd.MarkFlagRequired("password"))
}
