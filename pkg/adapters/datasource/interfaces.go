package datasource

import "context"

// Adapter executes statements against one external database. Each call
// opens a fresh connection and closes it before returning - connections
// are never pooled or reused across calls, so concurrent queries against
// the same database cannot share state.
type Adapter interface {
	// TestConnection opens a connection, confirms round-trip liveness,
	// and closes it. Callers bound it with a context timeout so a
	// misconfigured host does not hang forever.
	TestConnection(ctx context.Context) error

	// RunQuery opens a connection, executes exactly one statement, and
	// captures the structured result. The connection is closed
	// unconditionally, on success or failure. Driver errors surface
	// unwrapped; message normalization is the caller's concern.
	RunQuery(ctx context.Context, statement string) (*QueryResult, error)
}

// QueryResult holds the tabular outcome of a statement, with row values
// in column order.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}
