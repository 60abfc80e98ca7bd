package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	BucketName string `mapstructure:"bucket_name"`
	Region     string `mapstructure:"region"`
}

type DatabaseConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type Config struct {
	Seed             int64     `mapstructure:"seed"`
	StartDate        time.Time `mapstructure:"start_date"`
	EndDate          time.Time `mapstructure:"end_date"`
	Timezone         string    `mapstructure:"timezone"`
	Currency         string    `mapstructure:"currency"`
	InitialCustomers int       `mapstructure:"initial_customers"`
	OrdersPerDay     float64   `mapstructure:"orders_per_day"`
	OpeningHour      int       `mapstructure:"opening_hour"`
	ClosingHour      int       `mapstructure:"closing_hour"`
	FeedbackRate     float64   `mapstructure:"feedback_rate"`
	CardPaymentRate  float64   `mapstructure:"card_payment_rate"`

	InitialInventory InventoryState `mapstructure:"initial_inventory"`
	LowStock         InventoryState `mapstructure:"low_stock"`
	AutoRestock      bool           `mapstructure:"auto_restock"`
	RestockAmount    InventoryState `mapstructure:"restock_amount"`
	Coupons          []Coupon       `mapstructure:"coupons"`

	KafkaEnabled      bool               `mapstructure:"kafka_enabled"`
	KafkaBrokerList   string             `mapstructure:"kafka_broker_list"`
	OutputFormat      string             `mapstructure:"output_format"`
	OutputPath        string             `mapstructure:"output_path"`
	OutputFolder      string             `mapstructure:"output_folder"`
	OutputDestination string             `mapstructure:"output_destination"`
	CloudStorage      CloudStorageConfig `mapstructure:"cloud_storage"`
	InvoiceDir        string             `mapstructure:"invoice_dir"`
	InvoiceBucket     string             `mapstructure:"invoice_bucket"`
	Database          DatabaseConfig     `mapstructure:"database"`
}

// SetDefaults registers the values the shop runs with when nothing is configured.
func SetDefaults(v *viper.Viper) {
	now := time.Now()
	v.SetDefault("seed", 42)
	v.SetDefault("start_date", now.Format(time.RFC3339))
	v.SetDefault("end_date", now.AddDate(0, 0, 7).Format(time.RFC3339))
	v.SetDefault("timezone", "Local")
	v.SetDefault("currency", "RM")
	v.SetDefault("initial_customers", 50)
	v.SetDefault("orders_per_day", 40)
	v.SetDefault("opening_hour", 7)
	v.SetDefault("closing_hour", 19)
	v.SetDefault("feedback_rate", 0.2)
	v.SetDefault("card_payment_rate", 0.6)

	v.SetDefault("initial_inventory.coffee_beans", 1000)
	v.SetDefault("initial_inventory.milk", 1000)
	v.SetDefault("initial_inventory.sugar", 1000)
	v.SetDefault("initial_inventory.cups", 500)
	v.SetDefault("low_stock.coffee_beans", 200)
	v.SetDefault("low_stock.milk", 200)
	v.SetDefault("low_stock.sugar", 200)
	v.SetDefault("low_stock.cups", 20)
	v.SetDefault("auto_restock", true)
	v.SetDefault("restock_amount.coffee_beans", 1000)
	v.SetDefault("restock_amount.milk", 2000)
	v.SetDefault("restock_amount.sugar", 500)
	v.SetDefault("restock_amount.cups", 200)

	v.SetDefault("kafka_enabled", false)
	v.SetDefault("kafka_broker_list", "localhost:9092")
	v.SetDefault("output_format", "console")
	v.SetDefault("output_folder", "events")
	v.SetDefault("output_path", "")
	v.SetDefault("output_destination", "local")
	v.SetDefault("cloud_storage.provider", "s3")
	v.SetDefault("cloud_storage.bucket_name", "")
	v.SetDefault("cloud_storage.region", "")
	v.SetDefault("invoice_dir", "")
	v.SetDefault("invoice_bucket", "")
	// keys without a default are invisible to AutomaticEnv on Unmarshal
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_conns", 4)
}

// LoadConfig initializes and reads the configuration using Viper
func LoadConfig(cfgFile string) (*Config, error) {
	return LoadConfigWith(viper.GetViper(), cfgFile)
}

// LoadConfigWith reads configuration into a Config using the given viper instance.
// A missing default config file is not an error; an explicit one is.
func LoadConfigWith(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("brewpos")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			StringToTimeHookFunc(),
			ToDecimalHookFunc(),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	return &config, nil
}

// Location resolves the configured timezone, falling back to local time.
func (cfg *Config) Location() *time.Location {
	if cfg.Timezone == "" || cfg.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// StringToTimeHookFunc accepts RFC3339 timestamps and plain dates.
func StringToTimeHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(time.Time{}) {
			return data, nil
		}
		s := data.(string)
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return ts, nil
		}
		return time.ParseInLocation(time.DateOnly, s, time.Local)
	}
}

// ToDecimalHookFunc decodes strings and numbers into decimal.Decimal.
func ToDecimalHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(decimal.Decimal{}) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return decimal.NewFromString(v)
		case float64:
			return decimal.NewFromFloat(v), nil
		case float32:
			return decimal.NewFromFloat32(v), nil
		case int:
			return decimal.NewFromInt(int64(v)), nil
		case int64:
			return decimal.NewFromInt(v), nil
		}
		return data, nil
	}
}
