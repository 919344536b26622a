package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb" // registers the sqlserver driver

	"github.com/Artmann/squeal/pkg/adapters/datasource"
)

// Adapter provides Microsoft SQL Server connectivity. Every operation is
// a fresh connect/execute/disconnect cycle.
type Adapter struct {
	config *Config
}

// NewAdapter creates a SQL Server adapter for the given connection options.
func NewAdapter(cfg *Config) *Adapter {
	return &Adapter{config: cfg}
}

func (a *Adapter) open() (*sql.DB, error) {
	db, err := sql.Open("sqlserver", a.config.ConnString())
	if err != nil {
		return nil, fmt.Errorf("open sqlserver connection: %w", err)
	}
	return db, nil
}

// TestConnection verifies the database is reachable with valid credentials.
func (a *Adapter) TestConnection(ctx context.Context) error {
	db, err := a.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	return nil
}

// RunQuery executes one statement and captures its tabular result. The
// connection is closed before returning, on success or failure.
func (a *Adapter) RunQuery(ctx context.Context, statement string) (*datasource.QueryResult, error) {
	db, err := a.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, statement)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read column names: %w", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}

		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		// database/sql returns []byte for text-ish columns; convert so
		// results serialize as strings rather than base64.
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}

		resultRows = append(resultRows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &datasource.QueryResult{
		Columns: columns,
		Rows:    resultRows,
	}, nil
}

// Ensure Adapter implements the datasource contract at compile time.
var _ datasource.Adapter = (*Adapter)(nil)
