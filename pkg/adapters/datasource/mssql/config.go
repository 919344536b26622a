package mssql

import (
	"fmt"
	"net/url"
)

// Config contains SQL Server-specific connection options.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string

	Encrypt                bool
	TrustServerCertificate bool
}

// DefaultPort returns the default SQL Server port.
func DefaultPort() int {
	return 1433
}

// FromMap creates a Config from a stored connection-info map.
func FromMap(connectionInfo map[string]any) (*Config, error) {
	cfg := &Config{
		Port:    DefaultPort(),
		Encrypt: true,
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

	if encrypt, ok := connectionInfo["encrypt"].(bool); ok {
		cfg.Encrypt = encrypt
	}

	if trust, ok := connectionInfo["trustServerCertificate"].(bool); ok {
		cfg.TrustServerCertificate = trust
	}

	return cfg, nil
}

// ConnString builds a sqlserver:// URL with proper escaping.
func (c *Config) ConnString() string {
	query := url.Values{}
	query.Add("database", c.Database)

	if c.Encrypt {
		query.Add("encrypt", "true")
	} else {
		query.Add("encrypt", "false")
	}

	if c.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(c.Username),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		query.Encode(),
	)
}
