// Package output routes published events to their destination: stdout,
// partitioned JSON, CSV or Parquet files (local or S3), Kafka, or Postgres.
package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/chrisdamba/brewpos/internal/cloudwriter"
	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/chrisdamba/brewpos/internal/repositories/postgres"
	"go.uber.org/zap"
)

type Destination interface {
	WriteMessage(topic string, msg []byte) error
	Close() error
}

// New picks the destination the config asks for. Kafka wins when enabled;
// otherwise file formats need an output path, and everything else goes to
// the console.
func New(ctx context.Context, cfg *models.Config, logger *zap.Logger) (Destination, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.KafkaEnabled {
		return NewKafkaOutput(cfg.KafkaBrokerList, logger)
	}

	switch cfg.OutputFormat {
	case "", "console":
		return NewConsoleOutput(nil), nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
		if err != nil {
			return nil, err
		}
		out := NewPostgresOutput(pool, logger)
		if err := out.EnsureTables(ctx); err != nil {
			out.Close()
			return nil, err
		}
		return out, nil
	}

	if cfg.OutputPath == "" && cfg.OutputDestination != "cloud" {
		return nil, fmt.Errorf("output format %q needs output_path", cfg.OutputFormat)
	}
	switch cfg.OutputFormat {
	case "json":
		return NewJSONOutput(cfg.OutputPath, cfg.OutputFolder), nil
	case "csv":
		return NewCSVOutput(cfg.OutputPath, cfg.OutputFolder), nil
	case "parquet":
		var factory cloudwriter.CloudWriterFactory
		if cfg.OutputDestination == "cloud" {
			f, err := NewCloudFactory(ctx, cfg.CloudStorage)
			if err != nil {
				return nil, err
			}
			factory = f
		}
		return NewParquetOutput(cfg.OutputPath, cfg.OutputFolder, factory, cfg.CloudStorage.BucketName, logger), nil
	}
	return nil, fmt.Errorf("unsupported output format: %s", cfg.OutputFormat)
}

// NewCloudFactory builds the object writer for the configured provider.
func NewCloudFactory(ctx context.Context, cfg models.CloudStorageConfig) (cloudwriter.CloudWriterFactory, error) {
	switch cfg.Provider {
	case "s3":
		f, err := cloudwriter.NewS3WriterFactory(ctx, cfg.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
		}
		return f, nil
	}
	return nil, fmt.Errorf("unsupported cloud storage provider: %s", cfg.Provider)
}

// decodeEvent reads a message into a generic map, keeping numbers exact.
func decodeEvent(msg []byte) (map[string]interface{}, time.Time, error) {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	var event map[string]interface{}
	if err := dec.Decode(&event); err != nil {
		return nil, time.Time{}, err
	}
	num, ok := event["timestamp"].(json.Number)
	if !ok {
		return nil, time.Time{}, fmt.Errorf("invalid timestamp")
	}
	ts, err := num.Int64()
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	return event, time.Unix(ts, 0).UTC(), nil
}

// partition is the hive style folder an event falls in.
func partition(t time.Time) string {
	year, month, day := t.Date()
	return fmt.Sprintf("year=%d/month=%02d/day=%02d/hour=%02d", year, month, day, t.Hour())
}

func objectPath(folder, topic string, t time.Time, file string) string {
	return path.Join(folder, topic, partition(t), file)
}
