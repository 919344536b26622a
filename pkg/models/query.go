package models

// QueryResult is the tabular payload captured from a finished query.
// Rows hold values in column order.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Query represents one submitted statement and its lifecycle. A query is
// created in a pending state (FinishedAt nil) and transitions exactly once
// to a terminal state where one of Result/Error is set.
type Query struct {
	ID          string       `json:"id"`
	Content     string       `json:"content"`
	DatabaseID  string       `json:"databaseId"`
	WorksheetID string       `json:"worksheetId"`
	QueriedAt   int64        `json:"queriedAt"`
	FinishedAt  *int64       `json:"finishedAt"`
	Result      *QueryResult `json:"result"`
	Error       *string      `json:"error"`
}

// IsFinished reports whether the query has reached a terminal state.
func (q *Query) IsFinished() bool {
	return q.FinishedAt != nil
}
