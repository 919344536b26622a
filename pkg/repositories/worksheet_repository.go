package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Artmann/squeal/pkg/apperrors"
	"github.com/Artmann/squeal/pkg/database"
	"github.com/Artmann/squeal/pkg/models"
)

// WorksheetRepository provides data access for worksheets.
type WorksheetRepository interface {
	Create(ctx context.Context, ws *models.Worksheet) error
	GetByID(ctx context.Context, id string) (*models.Worksheet, error)
	List(ctx context.Context) ([]*models.Worksheet, error)
	// ListUnbound returns worksheets with no bound database.
	ListUnbound(ctx context.Context) ([]*models.Worksheet, error)
	Update(ctx context.Context, ws *models.Worksheet) error
}

type worksheetRepository struct {
	db *database.DB
}

// NewWorksheetRepository creates a new WorksheetRepository backed by the record store.
func NewWorksheetRepository(db *database.DB) WorksheetRepository {
	return &worksheetRepository{db: db}
}

var _ WorksheetRepository = (*worksheetRepository)(nil)

func (r *worksheetRepository) Create(ctx context.Context, ws *models.Worksheet) error {
	if ws.ID == "" {
		ws.ID = uuid.New().String()
	}
	if ws.Name == "" {
		ws.Name = "Untitled Worksheet"
	}
	if ws.CreatedAt.IsZero() {
		ws.CreatedAt = time.Now()
	}

	sql := `
		INSERT INTO worksheets (id, name, content, database_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, sql, ws.ID, ws.Name, ws.Content, ws.DatabaseID, ws.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create worksheet: %w", err)
	}

	return nil
}

func (r *worksheetRepository) GetByID(ctx context.Context, id string) (*models.Worksheet, error) {
	sql := `
		SELECT id, name, content, database_id, created_at
		FROM worksheets
		WHERE id = $1 AND deleted_at IS NULL`

	var ws models.Worksheet
	err := r.db.QueryRow(ctx, sql, id).Scan(&ws.ID, &ws.Name, &ws.Content, &ws.DatabaseID, &ws.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("worksheet %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get worksheet: %w", err)
	}

	return &ws, nil
}

func (r *worksheetRepository) List(ctx context.Context) ([]*models.Worksheet, error) {
	sql := `
		SELECT id, name, content, database_id, created_at
		FROM worksheets
		WHERE deleted_at IS NULL
		ORDER BY created_at`

	return r.queryWorksheets(ctx, sql)
}

func (r *worksheetRepository) ListUnbound(ctx context.Context) ([]*models.Worksheet, error) {
	sql := `
		SELECT id, name, content, database_id, created_at
		FROM worksheets
		WHERE database_id IS NULL AND deleted_at IS NULL
		ORDER BY created_at`

	return r.queryWorksheets(ctx, sql)
}

func (r *worksheetRepository) Update(ctx context.Context, ws *models.Worksheet) error {
	sql := `
		UPDATE worksheets
		SET name = $2, content = $3, database_id = $4
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, sql, ws.ID, ws.Name, ws.Content, ws.DatabaseID)
	if err != nil {
		return fmt.Errorf("failed to update worksheet: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("worksheet %s: %w", ws.ID, apperrors.ErrNotFound)
	}

	return nil
}

func (r *worksheetRepository) queryWorksheets(ctx context.Context, sql string, args ...any) ([]*models.Worksheet, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list worksheets: %w", err)
	}
	defer rows.Close()

	worksheets := make([]*models.Worksheet, 0)
	for rows.Next() {
		var ws models.Worksheet
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.Content, &ws.DatabaseID, &ws.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan worksheet: %w", err)
		}
		worksheets = append(worksheets, &ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating worksheets: %w", err)
	}

	return worksheets, nil
}
