package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/chrisdamba/brewpos/internal/events"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresOutput inserts each event as a row of the topic's fact table.
type PostgresOutput struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresOutput(pool *pgxpool.Pool, logger *zap.Logger) *PostgresOutput {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresOutput{pool: pool, logger: logger}
}

const factTables = `
CREATE TABLE IF NOT EXISTS fact_order_placed (
    event_id TEXT PRIMARY KEY, event_type TEXT NOT NULL, timestamp BIGINT NOT NULL,
    order_number INTEGER, transaction_id TEXT, customer_name TEXT, items TEXT, cups INTEGER,
    payment_method TEXT, daily_offer TEXT, cart_total DOUBLE PRECISION, coupon_code TEXT,
    coupon_discount DOUBLE PRECISION, points_redeemed INTEGER, final_price DOUBLE PRECISION,
    points_earned INTEGER, status TEXT, estimated_wait_seconds BIGINT
);
CREATE TABLE IF NOT EXISTS fact_order_status (
    event_id TEXT PRIMARY KEY, event_type TEXT NOT NULL, timestamp BIGINT NOT NULL,
    order_number INTEGER, status TEXT, placed_at BIGINT, pickup_time BIGINT
);
CREATE TABLE IF NOT EXISTS fact_restock (
    event_id TEXT PRIMARY KEY, event_type TEXT NOT NULL, timestamp BIGINT NOT NULL,
    item TEXT, amount INTEGER, cost DOUBLE PRECISION, level INTEGER
);
CREATE TABLE IF NOT EXISTS fact_loyalty (
    event_id TEXT PRIMARY KEY, event_type TEXT NOT NULL, timestamp BIGINT NOT NULL,
    username TEXT, points INTEGER, balance INTEGER, description TEXT
);
CREATE TABLE IF NOT EXISTS fact_feedback (
    event_id TEXT PRIMARY KEY, event_type TEXT NOT NULL, timestamp BIGINT NOT NULL,
    name TEXT, coffee_purchased TEXT, coffee_rating INTEGER, service_rating INTEGER, comment TEXT
);
`

func (p *PostgresOutput) EnsureTables(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, factTables); err != nil {
		return fmt.Errorf("failed to create fact tables: %w", err)
	}
	return nil
}

func (p *PostgresOutput) WriteMessage(topic string, msg []byte) error {
	row, err := events.New(topic)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(msg, row); err != nil {
		return err
	}
	// round-trip through the typed event so only known columns are inserted
	typed, err := json.Marshal(row)
	if err != nil {
		return err
	}
	var event map[string]interface{}
	if err := json.Unmarshal(typed, &event); err != nil {
		return err
	}

	table := topicToTable(topic)
	cols, vals, placeholders := buildInsertComponents(event)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (event_id) DO NOTHING", table, cols, placeholders)

	return p.ExecTxWithRetry(context.Background(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(context.Background(), query, vals...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
		return nil
	}, 3)
}

func (p *PostgresOutput) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresOutput) ExecTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx failed: %v, rollback failed: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (p *PostgresOutput) ExecTxWithRetry(ctx context.Context, fn func(pgx.Tx) error, maxRetries int) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = p.ExecTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !isRetryableError(err) {
			return err
		}
		p.logger.Warn("retrying transaction", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
	}
	return fmt.Errorf("failed after %d retries: %w", maxRetries, err)
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", // serialization_failure
		"40P01", // deadlock_detected
		"55P03": // lock_not_available
		return true
	}
	return false
}

func topicToTable(topic string) string {
	tableMap := map[string]string{
		events.TopicOrderPlaced: "fact_order_placed",
		events.TopicOrderReady:  "fact_order_status",
		events.TopicOrderPickup: "fact_order_status",
		events.TopicRestock:     "fact_restock",
		events.TopicLoyalty:     "fact_loyalty",
		events.TopicFeedback:    "fact_feedback",
	}
	if table, ok := tableMap[topic]; ok {
		return table
	}
	return "fact_" + strings.TrimSuffix(topic, "_events")
}

// buildInsertComponents lists columns in sorted order so the same event
// shape always produces the same statement.
func buildInsertComponents(event map[string]interface{}) (string, []interface{}, string) {
	keys := make([]string, 0, len(event))
	for k := range event {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	columns := make([]string, 0, len(keys))
	values := make([]interface{}, 0, len(keys))
	placeholders := make([]string, 0, len(keys))
	for i, key := range keys {
		columns = append(columns, snakeCaseKey(key))
		values = append(values, event[key])
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}
	return strings.Join(columns, ", "), values, strings.Join(placeholders, ", ")
}

func snakeCaseKey(key string) string {
	var result strings.Builder
	for i, r := range key {
		if i > 0 && unicode.IsUpper(r) {
			result.WriteRune('_')
		}
		result.WriteRune(unicode.ToLower(r))
	}
	return result.String()
}
