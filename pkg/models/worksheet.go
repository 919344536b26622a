package models

import "time"

// Worksheet is a named SQL editor buffer. DatabaseID is the worksheet's
// currently bound database, nil until one is chosen.
type Worksheet struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Content    string     `json:"content"`
	DatabaseID *string    `json:"databaseId"`
	CreatedAt  time.Time  `json:"createdAt"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
}
