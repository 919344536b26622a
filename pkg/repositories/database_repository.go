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

// DatabaseRepository provides data access for registered databases.
// Soft-deleted rows are invisible to every method except SoftDelete
// itself: a deleted database does not exist as far as callers can tell.
type DatabaseRepository interface {
	Create(ctx context.Context, db *models.Database) error
	// GetByID resolves a database for execution. Returns
	// apperrors.ErrNotFound for unknown and soft-deleted ids alike.
	GetByID(ctx context.Context, id string) (*models.Database, error)
	List(ctx context.Context) ([]*models.Database, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, db *models.Database) error
	SoftDelete(ctx context.Context, id string) error
	TouchLastUsed(ctx context.Context, id string) error
}

type databaseRepository struct {
	db *database.DB
}

// NewDatabaseRepository creates a new DatabaseRepository backed by the record store.
func NewDatabaseRepository(db *database.DB) DatabaseRepository {
	return &databaseRepository{db: db}
}

var _ DatabaseRepository = (*databaseRepository)(nil)

func (r *databaseRepository) Create(ctx context.Context, db *models.Database) error {
	if db.ID == "" {
		db.ID = uuid.New().String()
	}
	if db.CreatedAt.IsZero() {
		db.CreatedAt = time.Now()
	}

	sql := `
		INSERT INTO databases (id, name, type, connection_info, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, sql, db.ID, db.Name, db.Type, db.ConnectionInfo, db.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	return nil
}

func (r *databaseRepository) GetByID(ctx context.Context, id string) (*models.Database, error) {
	sql := `
		SELECT id, name, type, connection_info, created_at, last_used_at
		FROM databases
		WHERE id = $1 AND deleted_at IS NULL`

	var db models.Database
	err := r.db.QueryRow(ctx, sql, id).Scan(
		&db.ID, &db.Name, &db.Type, &db.ConnectionInfo, &db.CreatedAt, &db.LastUsedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("database %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get database: %w", err)
	}

	return &db, nil
}

func (r *databaseRepository) List(ctx context.Context) ([]*models.Database, error) {
	sql := `
		SELECT id, name, type, connection_info, created_at, last_used_at
		FROM databases
		WHERE deleted_at IS NULL
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	defer rows.Close()

	databases := make([]*models.Database, 0)
	for rows.Next() {
		var db models.Database
		if err := rows.Scan(&db.ID, &db.Name, &db.Type, &db.ConnectionInfo, &db.CreatedAt, &db.LastUsedAt); err != nil {
			return nil, fmt.Errorf("failed to scan database: %w", err)
		}
		databases = append(databases, &db)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating databases: %w", err)
	}

	return databases, nil
}

func (r *databaseRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM databases WHERE deleted_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count databases: %w", err)
	}
	return count, nil
}

func (r *databaseRepository) Update(ctx context.Context, db *models.Database) error {
	sql := `
		UPDATE databases
		SET name = $2, type = $3, connection_info = $4
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, sql, db.ID, db.Name, db.Type, db.ConnectionInfo)
	if err != nil {
		return fmt.Errorf("failed to update database: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("database %s: %w", db.ID, apperrors.ErrNotFound)
	}

	return nil
}

func (r *databaseRepository) SoftDelete(ctx context.Context, id string) error {
	sql := `
		UPDATE databases
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("failed to soft-delete database: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("database %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

func (r *databaseRepository) TouchLastUsed(ctx context.Context, id string) error {
	sql := `
		UPDATE databases
		SET last_used_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	if _, err := r.db.Exec(ctx, sql, id); err != nil {
		return fmt.Errorf("failed to update last used timestamp: %w", err)
	}

	return nil
}
