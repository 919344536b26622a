package services

import (
	"context"

	"github.com/Artmann/squeal/pkg/models"
	"github.com/Artmann/squeal/pkg/repositories"
)

// UpdateWorksheetRequest carries a partial worksheet update. DatabaseID is
// applied only when SetDatabaseID is true, so an explicit null can unbind
// the worksheet while an absent field leaves the binding alone.
type UpdateWorksheetRequest struct {
	Name          *string
	Content       *string
	DatabaseID    *string
	SetDatabaseID bool
}

// WorksheetService owns worksheet CRUD.
type WorksheetService interface {
	Create(ctx context.Context, name string) (*models.Worksheet, error)
	Get(ctx context.Context, id string) (*models.Worksheet, error)
	List(ctx context.Context) ([]*models.Worksheet, error)
	Update(ctx context.Context, id string, req *UpdateWorksheetRequest) (*models.Worksheet, error)
}

type worksheetService struct {
	worksheets repositories.WorksheetRepository
}

// NewWorksheetService creates a new WorksheetService.
func NewWorksheetService(worksheets repositories.WorksheetRepository) WorksheetService {
	return &worksheetService{worksheets: worksheets}
}

var _ WorksheetService = (*worksheetService)(nil)

func (s *worksheetService) Create(ctx context.Context, name string) (*models.Worksheet, error) {
	ws := &models.Worksheet{Name: name}
	if err := s.worksheets.Create(ctx, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

func (s *worksheetService) Get(ctx context.Context, id string) (*models.Worksheet, error) {
	return s.worksheets.GetByID(ctx, id)
}

func (s *worksheetService) List(ctx context.Context) ([]*models.Worksheet, error) {
	return s.worksheets.List(ctx)
}

func (s *worksheetService) Update(ctx context.Context, id string, req *UpdateWorksheetRequest) (*models.Worksheet, error) {
	ws, err := s.worksheets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		ws.Name = *req.Name
	}
	if req.Content != nil {
		ws.Content = *req.Content
	}
	if req.SetDatabaseID {
		ws.DatabaseID = req.DatabaseID
	}

	if err := s.worksheets.Update(ctx, ws); err != nil {
		return nil, err
	}

	return ws, nil
}
