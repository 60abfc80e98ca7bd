package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/chrisdamba/brewpos/internal/cloudwriter"
	"github.com/chrisdamba/brewpos/internal/events"
	"github.com/chrisdamba/brewpos/internal/invoice"
	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/chrisdamba/brewpos/internal/output"
	"github.com/chrisdamba/brewpos/internal/reporting"
	"github.com/chrisdamba/brewpos/internal/repositories"
	"github.com/chrisdamba/brewpos/internal/repositories/memory"
	"github.com/chrisdamba/brewpos/internal/repositories/postgres"
	"github.com/chrisdamba/brewpos/internal/shop"
	"github.com/chrisdamba/brewpos/internal/simulator"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var reportPeriod string

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Trade through a range of days with synthetic customers",
	Long: `simulate signs up a population of customers, then places, prepares and hands over
their orders day by day, restocking when stock runs low. Every event is written to the
configured output and the sales report is printed at the end.`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	f := simulateCmd.Flags()
	f.Int64("seed", 42, "random seed for simulation")
	f.String("start-date", "", "start date for simulation (RFC3339 or YYYY-MM-DD)")
	f.String("end-date", "", "end date for simulation (RFC3339 or YYYY-MM-DD)")
	f.Int("initial-customers", 50, "number of synthetic customers")
	f.Float64("orders-per-day", 40, "average orders on a weekday")
	f.Bool("kafka-enabled", false, "stream events to Kafka")
	f.String("kafka-broker-list", "localhost:9092", "comma separated Kafka brokers")
	f.String("output-format", "console", "event output: console, json, csv, parquet or postgres")
	f.String("output-path", "", "directory for file outputs")
	f.String("invoice-dir", "", "directory to archive receipts and restock invoices")
	f.StringVar(&reportPeriod, "period", "monthly", "sales report period: daily, weekly or monthly")

	bindFlag(simulateCmd, "seed", "seed")
	bindFlag(simulateCmd, "start_date", "start-date")
	bindFlag(simulateCmd, "end_date", "end-date")
	bindFlag(simulateCmd, "initial_customers", "initial-customers")
	bindFlag(simulateCmd, "orders_per_day", "orders-per-day")
	bindFlag(simulateCmd, "kafka_enabled", "kafka-enabled")
	bindFlag(simulateCmd, "kafka_broker_list", "kafka-broker-list")
	bindFlag(simulateCmd, "output_format", "output-format")
	bindFlag(simulateCmd, "output_path", "output-path")
	bindFlag(simulateCmd, "invoice_dir", "invoice-dir")
}

func runSimulate(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	period, err := reporting.ParsePeriod(reportPeriod)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.EndDate.After(cfg.StartDate) {
		return fmt.Errorf("end date %s is not after start date %s", cfg.EndDate.Format("2006-01-02"), cfg.StartDate.Format("2006-01-02"))
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	dest, err := output.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open event output: %w", err)
	}
	defer func() { err = multierr.Append(err, dest.Close()) }()

	archive, err := newArchive(ctx, cfg, logger)
	if err != nil {
		return err
	}

	accountRepo, loyaltyRepo, closeRepos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepos()

	sim := simulator.NewSimulator(cfg,
		simulator.WithLogger(logger),
		simulator.WithProgressWriter(os.Stderr),
	)
	sh, err := shop.New(cfg, accountRepo, loyaltyRepo,
		shop.WithClock(sim.Now),
		shop.WithPublisher(events.NewPublisher(dest, logger)),
		shop.WithArchive(archive),
		shop.WithLogger(logger),
		shop.WithHashCost(bcrypt.MinCost),
	)
	if err != nil {
		return err
	}

	if _, err := sim.Run(ctx, sh); err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, sh.SalesReport(period).Text(cfg.Currency))
	fmt.Fprintf(out, "Customers: %d  Orders: %d  Rejected: %d  Picked up: %d  Restocks: %d  Feedback: %d\n",
		sim.Stats.Customers, sim.Stats.OrdersPlaced, sim.Stats.Rejected,
		sim.Stats.PickedUp, sim.Stats.Restocks, sim.Stats.Feedback)

	if archive != nil && len(sh.RestockHistory()) > 0 {
		_, path, err := sh.RestockInvoice(ctx)
		if err != nil {
			return fmt.Errorf("failed to archive restock invoice: %w", err)
		}
		fmt.Fprintln(out, "Restock invoice:", path)
	}
	return nil
}

// newArchive files documents in the invoice bucket when output goes to the
// cloud, in invoice_dir otherwise, and nowhere when neither is set.
func newArchive(ctx context.Context, cfg *models.Config, logger *zap.Logger) (*invoice.Archive, error) {
	if cfg.InvoiceBucket != "" && cfg.OutputDestination == "cloud" {
		factory, err := output.NewCloudFactory(ctx, cfg.CloudStorage)
		if err != nil {
			return nil, err
		}
		return invoice.NewArchive(factory, cfg.InvoiceBucket, logger), nil
	}
	if cfg.InvoiceDir != "" {
		return invoice.NewArchive(cloudwriter.NewLocalWriterFactory(cfg.InvoiceDir), "", logger), nil
	}
	return nil, nil
}

// openRepositories uses Postgres when a DSN is configured and memory otherwise.
func openRepositories(ctx context.Context, cfg *models.Config) (repositories.AccountRepository, repositories.LoyaltyRepository, func(), error) {
	if cfg.Database.DSN == "" {
		store := memory.NewStore()
		return store, store, func() {}, nil
	}
	pool, err := postgres.NewPool(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	return postgres.NewAccountRepository(pool), postgres.NewLoyaltyRepository(pool), pool.Close, nil
}
