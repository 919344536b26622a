package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Artmann/squeal/pkg/apperrors"
	"github.com/Artmann/squeal/pkg/database"
	"github.com/Artmann/squeal/pkg/models"
)

// MaxQueryListLimit caps bounded listing of query records.
const MaxQueryListLimit = 250

// QueryRepository provides durable keyed storage for query records.
type QueryRepository interface {
	// Create appends a new record. Returns apperrors.ErrConflict if the
	// id already exists.
	Create(ctx context.Context, query *models.Query) error

	// GetByID returns the record or apperrors.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Query, error)

	// Finish writes the terminal state - result, error, and finished_at
	// together as one atomic update. Returns apperrors.ErrNotFound if the
	// id does not exist.
	Finish(ctx context.Context, id string, result *models.QueryResult, errMsg *string, finishedAt int64) error

	// List returns up to limit records, capped at MaxQueryListLimit.
	List(ctx context.Context, limit int) ([]*models.Query, error)
}

type queryRepository struct {
	db *database.DB
}

// NewQueryRepository creates a new QueryRepository backed by the record store.
func NewQueryRepository(db *database.DB) QueryRepository {
	return &queryRepository{db: db}
}

var _ QueryRepository = (*queryRepository)(nil)

func (r *queryRepository) Create(ctx context.Context, query *models.Query) error {
	sql := `
		INSERT INTO queries (id, content, database_id, worksheet_id, queried_at, finished_at, result, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, sql,
		query.ID, query.Content, query.DatabaseID, query.WorksheetID,
		query.QueriedAt, query.FinishedAt, query.Result, query.Error,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("query %s already exists: %w", query.ID, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to create query: %w", err)
	}

	return nil
}

func (r *queryRepository) GetByID(ctx context.Context, id string) (*models.Query, error) {
	sql := `
		SELECT id, content, database_id, worksheet_id, queried_at, finished_at, result, error
		FROM queries
		WHERE id = $1`

	q, err := scanQueryRow(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("query %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get query: %w", err)
	}

	return q, nil
}

func (r *queryRepository) Finish(ctx context.Context, id string, result *models.QueryResult, errMsg *string, finishedAt int64) error {
	sql := `
		UPDATE queries
		SET result = $2, error = $3, finished_at = $4
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, sql, id, result, errMsg, finishedAt)
	if err != nil {
		return fmt.Errorf("failed to finish query: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("query %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

func (r *queryRepository) List(ctx context.Context, limit int) ([]*models.Query, error) {
	if limit <= 0 || limit > MaxQueryListLimit {
		limit = MaxQueryListLimit
	}

	sql := `
		SELECT id, content, database_id, worksheet_id, queried_at, finished_at, result, error
		FROM queries
		ORDER BY queried_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, sql, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	defer rows.Close()

	queries := make([]*models.Query, 0)
	for rows.Next() {
		q, err := scanQueryRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan query: %w", err)
		}
		queries = append(queries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queries: %w", err)
	}

	return queries, nil
}

func scanQueryRow(row pgx.Row) (*models.Query, error) {
	var q models.Query
	err := row.Scan(
		&q.ID, &q.Content, &q.DatabaseID, &q.WorksheetID,
		&q.QueriedAt, &q.FinishedAt, &q.Result, &q.Error,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}
