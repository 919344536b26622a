package handlers

import (
	"context"
	"fmt"

	"github.com/Artmann/squeal/pkg/apperrors"
	"github.com/Artmann/squeal/pkg/models"
	"github.com/Artmann/squeal/pkg/services"
)

// mockQueryRunner records submissions without dispatching anything.
type mockQueryRunner struct {
	queries map[string]*models.Query

	submitErr error
	listErr   error
	submitted []*services.SubmitQueryRequest
}

func newMockQueryRunner(queries ...*models.Query) *mockQueryRunner {
	m := &mockQueryRunner{queries: make(map[string]*models.Query)}
	for _, q := range queries {
		m.queries[q.ID] = q
	}
	return m
}

func (m *mockQueryRunner) Submit(ctx context.Context, req *services.SubmitQueryRequest) (*models.Query, error) {
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	if _, exists := m.queries[req.ID]; exists {
		return nil, fmt.Errorf("query %s already exists: %w", req.ID, apperrors.ErrConflict)
	}

	m.submitted = append(m.submitted, req)
	query := &models.Query{
		ID:          req.ID,
		Content:     req.Content,
		DatabaseID:  req.DatabaseID,
		WorksheetID: req.WorksheetID,
		QueriedAt:   req.QueriedAt,
	}
	m.queries[query.ID] = query
	return query, nil
}

func (m *mockQueryRunner) Get(ctx context.Context, id string) (*models.Query, error) {
	query, ok := m.queries[id]
	if !ok {
		return nil, fmt.Errorf("query %s: %w", id, apperrors.ErrNotFound)
	}
	return query, nil
}

func (m *mockQueryRunner) List(ctx context.Context, limit int) ([]*models.Query, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}

	queries := make([]*models.Query, 0, len(m.queries))
	for _, q := range m.queries {
		queries = append(queries, q)
		if len(queries) >= limit {
			break
		}
	}
	return queries, nil
}

func (m *mockQueryRunner) Wait() {}

var _ services.QueryRunner = (*mockQueryRunner)(nil)

// mockDatabaseService returns canned values.
type mockDatabaseService struct {
	database  *models.Database
	worksheet *models.Worksheet
	databases []*models.Database

	createErr error
	updateErr error
	deleteErr error
	listErr   error
}

func (m *mockDatabaseService) Create(ctx context.Context, req *services.CreateDatabaseRequest) (*models.Database, *models.Worksheet, error) {
	if m.createErr != nil {
		return nil, nil, m.createErr
	}
	return m.database, m.worksheet, nil
}

func (m *mockDatabaseService) List(ctx context.Context) ([]*models.Database, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.databases, nil
}

func (m *mockDatabaseService) Update(ctx context.Context, id string, req *services.UpdateDatabaseRequest) (*models.Database, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return m.database, nil
}

func (m *mockDatabaseService) Delete(ctx context.Context, id string) error {
	return m.deleteErr
}

var _ services.DatabaseService = (*mockDatabaseService)(nil)

// mockWorksheetService returns canned values and records update requests.
type mockWorksheetService struct {
	worksheet  *models.Worksheet
	worksheets []*models.Worksheet

	createErr error
	getErr    error
	updateErr error

	lastUpdate *services.UpdateWorksheetRequest
}

func (m *mockWorksheetService) Create(ctx context.Context, name string) (*models.Worksheet, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if name == "" {
		name = "Untitled Worksheet"
	}
	return &models.Worksheet{ID: "ws-1", Name: name}, nil
}

func (m *mockWorksheetService) Get(ctx context.Context, id string) (*models.Worksheet, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.worksheet, nil
}

func (m *mockWorksheetService) List(ctx context.Context) ([]*models.Worksheet, error) {
	return m.worksheets, nil
}

func (m *mockWorksheetService) Update(ctx context.Context, id string, req *services.UpdateWorksheetRequest) (*models.Worksheet, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.lastUpdate = req
	return m.worksheet, nil
}

var _ services.WorksheetService = (*mockWorksheetService)(nil)

// mockConnectionService fails when testErr is set.
type mockConnectionService struct {
	testErr error

	lastType string
	lastInfo map[string]any
}

func (m *mockConnectionService) Test(ctx context.Context, dsType string, connectionInfo map[string]any) error {
	m.lastType = dsType
	m.lastInfo = connectionInfo
	return m.testErr
}

var _ services.ConnectionService = (*mockConnectionService)(nil)
