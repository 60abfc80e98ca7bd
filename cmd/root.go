package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "brewpos",
	Short: "Point of sale for a single coffee shop",
	Long: `brewpos runs the till, kitchen queue, loyalty scheme and stock room of a coffee shop.
It can simulate trading days with synthetic customers and stream every order, restock,
loyalty and feedback event to the console, files, Kafka or Postgres.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml, then $HOME/.brewpos.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "development logging at debug level")
	rootCmd.PersistentFlags().String("database-dsn", "", "Postgres DSN for accounts and loyalty points")
	cobra.CheckErr(viper.BindPFlag("database.dsn", rootCmd.PersistentFlags().Lookup("database-dsn")))
}

// initConfig falls back to $HOME/.brewpos.yaml when no config file is named
// and there is none in the working directory.
func initConfig() {
	if cfgFile != "" {
		return
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	candidate := filepath.Join(home, ".brewpos.yaml")
	if _, err := os.Stat(candidate); err == nil {
		cfgFile = candidate
	}
}

func loadConfig() (*models.Config, error) {
	cfg, err := models.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if used := viper.ConfigFileUsed(); used != "" && verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// bindFlag ties a command flag to a config key, so a flag given on the
// command line wins over the file and the environment.
func bindFlag(cmd *cobra.Command, key, flag string) {
	cobra.CheckErr(viper.BindPFlag(key, cmd.Flags().Lookup(flag)))
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}
