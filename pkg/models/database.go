package models

import "time"

// Database is a registered external database that queries can run against.
// ConnectionInfo is an opaque map of driver-specific connection parameters;
// the datasource adapter for Type knows how to decode it.
type Database struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Type           string         `json:"type"`
	ConnectionInfo map[string]any `json:"connectionInfo"`
	CreatedAt      time.Time      `json:"createdAt"`
	LastUsedAt     *time.Time     `json:"lastUsedAt,omitempty"`
	DeletedAt      *time.Time     `json:"deletedAt,omitempty"`
}
