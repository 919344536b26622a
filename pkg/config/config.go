package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the squeal server.
// Configuration can come from a YAML file (config.yaml) or environment
// variables; environment variables override YAML values. Secrets
// (passwords) must only come from environment variables.
type Config struct {
	// Server configuration. 7847 is the port the desktop client expects.
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"7847"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// Database configuration for the server's own record store (PostgreSQL).
	Database DatabaseConfig `yaml:"database"`

	// MigrationsPath is the directory containing SQL migrations.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	// Datasource holds settings for connections to registered databases.
	Datasource DatasourceConfig `yaml:"datasource"`
}

// DatabaseConfig holds PostgreSQL record store configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"squeal"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"squeal"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
}

// DatasourceConfig holds settings for outbound datasource connections.
type DatasourceConfig struct {
	// ConnectionTestTimeoutSeconds bounds the POST /connection-tests check
	// so a misconfigured host cannot hang the caller.
	ConnectionTestTimeoutSeconds int `yaml:"connection_test_timeout_seconds" env:"DATASOURCE_CONNECTION_TEST_TIMEOUT_SECONDS" env-default:"5"`
}

// URL builds a PostgreSQL connection URL for the record store.
func (d *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		url.QueryEscape(d.Database),
		d.SSLMode,
	)
}

// Load reads configuration from config.yaml (if present) and the
// environment. Environment variables win for fields that support both.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}
