// Package config manages application configuration for the guild server.
//
// The config package loads and validates configuration from environment variables.
// All configuration is centralized here to provide a single source of truth.
//
// # Configuration Loading
//
// Configuration is parsed from the environment into tagged structs. A .env file,
// when present, is loaded by the server binary before Load runs:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// # Configuration Groups
//
//   - ServerConfig: environment, logging and shutdown
//   - StorageConfig: store driver, SQLite path and flush interval
//   - DatabaseConfig: SurrealDB connection settings
//   - GuildsConfig: catalog file, cooldowns, residence flags and display
//   - EventsConfig: Kafka and AMQP publishing
//   - TelemetryConfig: OTLP tracing
//
// # Environment Variables
//
// Key environment variables:
//
//	STORAGE_DRIVER          - sqlite or surrealdb (default: sqlite)
//	SQLITE_PATH             - SQLite database file
//	DB_HOST, DB_PORT        - SurrealDB address
//	GUILDS_CATALOG_PATH     - YAML tier and role catalog
//	GUILDS_READ_ONLY        - reject all mutations
//	GUILDS_JOIN_COOLDOWN    - delay before a leaver may join again (default: 10m)
//	GUILDS_RESIDENCE_FLAGS  - comma separated residence flags
//	KAFKA_BROKERS           - comma separated brokers; enables Kafka events
//	AMQP_URL                - broker URL; enables AMQP events
//	OTEL_ENDPOINT           - OTLP/HTTP endpoint; enables tracing
package config
