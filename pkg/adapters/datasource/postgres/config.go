package postgres

import (
	"fmt"
	"net/url"
)

// Config contains PostgreSQL-specific connection options.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	SSLMode  string // empty means driver default ("prefer")
}

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// FromMap creates a Config from a stored connection-info map.
func FromMap(connectionInfo map[string]any) (*Config, error) {
	cfg := &Config{
		Port: DefaultPort(),
	}

	if host, ok := connectionInfo["host"].(string); ok && host != "" {
		cfg.Host = host
	} else {
		return nil, fmt.Errorf("host is required")
	}

	if port, ok := connectionInfo["port"].(float64); ok { // JSON numbers are float64
		cfg.Port = int(port)
	} else if port, ok := connectionInfo["port"].(int); ok {
		cfg.Port = port
	}

	if username, ok := connectionInfo["username"].(string); ok && username != "" {
		cfg.Username = username
	} else if user, ok := connectionInfo["user"].(string); ok && user != "" {
		cfg.Username = user
	} else {
		return nil, fmt.Errorf("username is required")
	}

	if password, ok := connectionInfo["password"].(string); ok {
		cfg.Password = password
	}

	if database, ok := connectionInfo["database"].(string); ok && database != "" {
		cfg.Database = database
	} else {
		return nil, fmt.Errorf("database is required")
	}

	if sslMode, ok := connectionInfo["sslMode"].(string); ok {
		cfg.SSLMode = sslMode
	} else if sslMode, ok := connectionInfo["ssl_mode"].(string); ok {
		cfg.SSLMode = sslMode
	}

	return cfg, nil
}

// ConnString builds a PostgreSQL URL with proper escaping. User-provided
// fields are URL-escaped so special characters in passwords (@, /, #, ?)
// do not break URL parsing.
func (c *Config) ConnString() string {
	connStr := fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s",
		url.QueryEscape(c.Username),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		url.QueryEscape(c.Database),
	)

	if c.SSLMode != "" {
		connStr += "?sslmode=" + url.QueryEscape(c.SSLMode)
	}

	return connStr
}
