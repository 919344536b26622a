package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Artmann/squeal/pkg/adapters/datasource"
	"github.com/Artmann/squeal/pkg/models"
	"github.com/Artmann/squeal/pkg/repositories"
)

// CreateDatabaseRequest carries a database registration.
type CreateDatabaseRequest struct {
	Name           string
	Type           string
	ConnectionInfo map[string]any
}

// UpdateDatabaseRequest carries a partial database update.
type UpdateDatabaseRequest struct {
	Name           *string
	ConnectionInfo map[string]any
}

// DatabaseService owns the database registry: registration, listing,
// updates, and soft deletion. Execution-path resolution goes straight to
// the repository; this service is the CRUD surface.
type DatabaseService interface {
	// Create registers a database. When it is the first database and
	// exactly one worksheet exists with no bound database, that worksheet
	// is bound to the new database and returned as the second value.
	Create(ctx context.Context, req *CreateDatabaseRequest) (*models.Database, *models.Worksheet, error)

	List(ctx context.Context) ([]*models.Database, error)
	Update(ctx context.Context, id string, req *UpdateDatabaseRequest) (*models.Database, error)
	// Delete soft-deletes; the database disappears from listing and from
	// execution-time resolution but the row is retained.
	Delete(ctx context.Context, id string) error
}

type databaseService struct {
	databases  repositories.DatabaseRepository
	worksheets repositories.WorksheetRepository
	logger     *zap.Logger
}

// NewDatabaseService creates a new DatabaseService.
func NewDatabaseService(
	databases repositories.DatabaseRepository,
	worksheets repositories.WorksheetRepository,
	logger *zap.Logger,
) DatabaseService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &databaseService{
		databases:  databases,
		worksheets: worksheets,
		logger:     logger,
	}
}

var _ DatabaseService = (*databaseService)(nil)

func (s *databaseService) Create(ctx context.Context, req *CreateDatabaseRequest) (*models.Database, *models.Worksheet, error) {
	dsType := req.Type
	if dsType == "" {
		dsType = "postgres"
	}

	if !datasource.IsRegistered(dsType) {
		return nil, nil, fmt.Errorf("unsupported database type: %s", dsType)
	}

	existing, err := s.databases.Count(ctx)
	if err != nil {
		return nil, nil, err
	}

	db := &models.Database{
		Name:           req.Name,
		Type:           dsType,
		ConnectionInfo: req.ConnectionInfo,
	}

	if err := s.databases.Create(ctx, db); err != nil {
		return nil, nil, err
	}

	var boundWorksheet *models.Worksheet
	if existing == 0 {
		boundWorksheet = s.bindSoleUnboundWorksheet(ctx, db.ID)
	}

	return db, boundWorksheet, nil
}

// bindSoleUnboundWorksheet implements the first-database convenience: if
// exactly one worksheet exists with no bound database, bind it to the new
// database so the user can run queries immediately. This is a
// read-then-write sequence with no isolation against a concurrent
// registration; losing the race just skips the convenience.
func (s *databaseService) bindSoleUnboundWorksheet(ctx context.Context, databaseID string) *models.Worksheet {
	unbound, err := s.worksheets.ListUnbound(ctx)
	if err != nil {
		s.logger.Warn("Failed to look up unbound worksheets", zap.Error(err))
		return nil
	}

	if len(unbound) != 1 {
		return nil
	}

	ws := unbound[0]
	ws.DatabaseID = &databaseID

	if err := s.worksheets.Update(ctx, ws); err != nil {
		s.logger.Warn("Failed to bind worksheet to new database",
			zap.String("worksheet_id", ws.ID),
			zap.Error(err))
		return nil
	}

	s.logger.Info("Bound worksheet to first registered database",
		zap.String("worksheet_id", ws.ID),
		zap.String("database_id", databaseID))

	return ws
}

func (s *databaseService) List(ctx context.Context) ([]*models.Database, error) {
	return s.databases.List(ctx)
}

func (s *databaseService) Update(ctx context.Context, id string, req *UpdateDatabaseRequest) (*models.Database, error) {
	db, err := s.databases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		db.Name = *req.Name
	}
	if req.ConnectionInfo != nil {
		db.ConnectionInfo = req.ConnectionInfo
	}

	if err := s.databases.Update(ctx, db); err != nil {
		return nil, err
	}

	return db, nil
}

func (s *databaseService) Delete(ctx context.Context, id string) error {
	return s.databases.SoftDelete(ctx, id)
}
