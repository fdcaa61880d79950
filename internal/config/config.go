// Package config loads runtime settings from the environment, an optional
// .env file and an optional YAML config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// State backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendGCS      = "gcs"
)

// Config holds all configuration for the application.
type Config struct {
	Port        string
	Environment string
	LogLevel    string
	LogFormat   string
	StaticDir   string

	Stripe StripeConfig
	State  StateConfig

	InitialBalance int64
	NoticeCron     string

	Google GoogleConfig
	Notion NotionConfig
	Export ExportConfig
}

// StripeConfig holds payment provider settings. An empty SecretKey leaves
// checkout unconfigured.
type StripeConfig struct {
	SecretKey    string
	PricePremium string
	PriceOneTime string
}

// StateConfig selects where the dashboard snapshot is persisted.
type StateConfig struct {
	Backend     string
	SQLitePath  string
	DatabaseURL string
	GCSBucket   string
	GCSObject   string
}

type GoogleConfig struct {
	CredentialsFile string
	CalendarID      string
	DriveFolderID   string
}

type NotionConfig struct {
	Token      string
	DatabaseID string
}

type ExportConfig struct {
	QueueSize int
	Workers   int
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads configuration. configFile may be empty, in which case
// config.yaml is looked up in the working directory and in
// $HOME/.config/decision-ease; a missing file is not an error.
func Load(configFile string) (*Config, error) {
	// godotenv.Load never overrides variables that are already set.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "decision-ease"))
		}
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("Load: read config: %w", err)
		}
	}

	cfg := &Config{
		Port:        v.GetString("port"),
		Environment: strings.ToLower(v.GetString("environment")),
		LogLevel:    strings.ToLower(v.GetString("log_level")),
		LogFormat:   strings.ToLower(v.GetString("log_format")),
		StaticDir:   v.GetString("static_dir"),
		Stripe: StripeConfig{
			SecretKey:    v.GetString("stripe_secret_key"),
			PricePremium: v.GetString("stripe_price_premium"),
			PriceOneTime: v.GetString("stripe_price_one_time"),
		},
		State: StateConfig{
			Backend:     strings.ToLower(v.GetString("state_backend")),
			SQLitePath:  v.GetString("state_sqlite_path"),
			DatabaseURL: v.GetString("database_url"),
			GCSBucket:   v.GetString("state_gcs_bucket"),
			GCSObject:   v.GetString("state_gcs_object"),
		},
		InitialBalance: v.GetInt64("initial_balance"),
		NoticeCron:     v.GetString("notice_cron"),
		Google: GoogleConfig{
			CredentialsFile: v.GetString("google_credentials_file"),
			CalendarID:      v.GetString("google_calendar_id"),
			DriveFolderID:   v.GetString("google_drive_folder_id"),
		},
		Notion: NotionConfig{
			Token:      v.GetString("notion_token"),
			DatabaseID: v.GetString("notion_database_id"),
		},
		Export: ExportConfig{
			QueueSize: v.GetInt("export_queue_size"),
			Workers:   v.GetInt("export_workers"),
		},
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
		if cfg.IsProduction() {
			cfg.LogFormat = "json"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("static_dir", "public")
	v.SetDefault("state_backend", BackendSQLite)
	v.SetDefault("state_sqlite_path", "data/decision-ease.db")
	v.SetDefault("state_gcs_object", "decision-ease/state.json")
	v.SetDefault("initial_balance", 42000)
	v.SetDefault("notice_cron", "0 9 * * *")
	v.SetDefault("google_calendar_id", "primary")
	v.SetDefault("export_queue_size", 100)
	v.SetDefault("export_workers", 2)

	// Keys without a default still need registering so AutomaticEnv picks
	// them up from the environment.
	for _, key := range []string{
		"log_format",
		"stripe_secret_key", "stripe_price_premium", "stripe_price_one_time",
		"database_url", "state_gcs_bucket",
		"google_credentials_file", "google_drive_folder_id",
		"notion_token", "notion_database_id",
	} {
		_ = v.BindEnv(key)
	}
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("Validate: PORT must not be empty")
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("Validate: LOG_FORMAT must be console or json, got %q", c.LogFormat)
	}

	switch c.State.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.State.SQLitePath == "" {
			return fmt.Errorf("Validate: STATE_SQLITE_PATH is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.State.DatabaseURL == "" {
			return fmt.Errorf("Validate: DATABASE_URL is required for the postgres backend")
		}
	case BackendGCS:
		if c.State.GCSBucket == "" {
			return fmt.Errorf("Validate: STATE_GCS_BUCKET is required for the gcs backend")
		}
		if c.State.GCSObject == "" {
			return fmt.Errorf("Validate: STATE_GCS_OBJECT is required for the gcs backend")
		}
	default:
		return fmt.Errorf("Validate: unknown STATE_BACKEND %q", c.State.Backend)
	}

	if c.Export.QueueSize < 1 {
		return fmt.Errorf("Validate: EXPORT_QUEUE_SIZE must be positive")
	}
	if c.Export.Workers < 1 {
		return fmt.Errorf("Validate: EXPORT_WORKERS must be positive")
	}
	return nil
}
