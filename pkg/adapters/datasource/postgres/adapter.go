package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Artmann/squeal/pkg/adapters/datasource"
)

// Adapter provides PostgreSQL connectivity. Every operation is a fresh
// connect/execute/disconnect cycle.
type Adapter struct {
	config *Config
}

// NewAdapter creates a PostgreSQL adapter for the given connection options.
func NewAdapter(cfg *Config) *Adapter {
	return &Adapter{config: cfg}
}

// TestConnection verifies the database is reachable with valid credentials.
func (a *Adapter) TestConnection(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, a.config.ConnString())
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer conn.Close(ctx)

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	return nil
}

// RunQuery executes one statement and captures its tabular result. The
// connection is closed before returning, on success or failure.
func (a *Adapter) RunQuery(ctx context.Context, statement string) (*datasource.QueryResult, error) {
	conn, err := pgx.Connect(ctx, a.config.ConnString())
	if err != nil {
		return nil, err
	}
	defer conn.Close(ctx)

	rows, err := conn.Query(ctx, statement)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = string(fd.Name)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}

		row := make([]any, len(values))
		copy(row, values)
		resultRows = append(resultRows, row)
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
