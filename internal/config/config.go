package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage drivers
const (
	DriverSQLite    = "sqlite"
	DriverSurrealDB = "surrealdb"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Guilds    GuildsConfig
	Events    EventsConfig
	Telemetry TelemetryConfig
}

// ServerConfig holds process-level settings
type ServerConfig struct {
	Env             string        `env:"SERVER_ENV" envDefault:"development"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// StorageConfig selects and tunes the guild store
type StorageConfig struct {
	Driver        string        `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath    string        `env:"SQLITE_PATH" envDefault:"./data/guilds.db"`
	FlushInterval time.Duration `env:"STORAGE_FLUSH_INTERVAL" envDefault:"30s"`
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string `env:"DB_HOST" envDefault:"localhost"`
	Port      string `env:"DB_PORT" envDefault:"8000"`
	Namespace string `env:"DB_NAMESPACE" envDefault:"guilds"`
	Database  string `env:"DB_DATABASE" envDefault:"main"`
	User      string `env:"DB_USER" envDefault:"root"`
	Password  string `env:"DB_PASSWORD" envDefault:"root"`
}

// GuildsConfig holds guild engine settings
type GuildsConfig struct {
	CatalogPath     string        `env:"GUILDS_CATALOG_PATH"`
	ReadOnly        bool          `env:"GUILDS_READ_ONLY" envDefault:"false"`
	JoinCooldown    time.Duration `env:"GUILDS_JOIN_COOLDOWN" envDefault:"10m"`
	ResidencePrefix string        `env:"GUILDS_RESIDENCE_PREFIX" envDefault:"guilds.residence."`
	ResidenceFlags  []string      `env:"GUILDS_RESIDENCE_FLAGS" envSeparator:","`
	Timezone        string        `env:"GUILDS_TIMEZONE" envDefault:"Local"`
	Locale          string        `env:"GUILDS_LOCALE" envDefault:"en"`
	CurrencySymbol  string        `env:"GUILDS_CURRENCY_SYMBOL" envDefault:"$"`
}

// EventsConfig holds broker settings for event publishing. Each broker is
// enabled by setting its address.
type EventsConfig struct {
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"guild-events"`
	AMQPURL      string   `env:"AMQP_URL"`
	AMQPExchange string   `env:"AMQP_EXCHANGE" envDefault:"guilds"`
	Buffer       int      `env:"EVENTS_BUFFER" envDefault:"256"`
}

// TelemetryConfig holds tracing settings
type TelemetryConfig struct {
	Endpoint    string  `env:"OTEL_ENDPOINT"`
	SampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if _, err := c.Server.Level(); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.Server.LogFormat != "json" && c.Server.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be 'json' or 'text', got '%s'", c.Server.LogFormat))
	}

	// Storage validation
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required when STORAGE_DRIVER is sqlite"))
		}
	case DriverSurrealDB:
		if c.Database.Host == "" {
			errs = append(errs, errors.New("DB_HOST is required"))
		}
		if c.Database.Port == "" {
			errs = append(errs, errors.New("DB_PORT is required"))
		}
		if c.Database.Namespace == "" {
			errs = append(errs, errors.New("DB_NAMESPACE is required"))
		}
		if c.Database.Database == "" {
			errs = append(errs, errors.New("DB_DATABASE is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be 'sqlite' or 'surrealdb', got '%s'", c.Storage.Driver))
	}
	if c.Storage.FlushInterval <= 0 {
		errs = append(errs, errors.New("STORAGE_FLUSH_INTERVAL must be positive"))
	}

	// Guild validation
	if c.Guilds.JoinCooldown < 0 {
		errs = append(errs, errors.New("GUILDS_JOIN_COOLDOWN must not be negative"))
	}
	if _, err := c.Guilds.Location(); err != nil {
		errs = append(errs, fmt.Errorf("GUILDS_TIMEZONE: %w", err))
	}

	// Event validation
	if len(c.Events.KafkaBrokers) > 0 && c.Events.KafkaTopic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set"))
	}
	if c.Events.AMQPURL != "" && c.Events.AMQPExchange == "" {
		errs = append(errs, errors.New("AMQP_EXCHANGE is required when AMQP_URL is set"))
	}
	if c.Events.Buffer <= 0 {
		errs = append(errs, errors.New("EVENTS_BUFFER must be positive"))
	}

	// Telemetry validation
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATIO must be between 0 and 1, got %v", c.Telemetry.SampleRatio))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Level parses the configured log level
func (s ServerConfig) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// Location resolves the configured timezone used for displayed times
func (g GuildsConfig) Location() (*time.Location, error) {
	if g.Timezone == "" || g.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(g.Timezone)
}

// PublishesEvents returns true if any broker is configured
func (e EventsConfig) PublishesEvents() bool {
	return len(e.KafkaBrokers) > 0 || e.AMQPURL != ""
}
