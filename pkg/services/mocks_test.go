package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Artmann/squeal/pkg/adapters/datasource"
	"github.com/Artmann/squeal/pkg/apperrors"
	"github.com/Artmann/squeal/pkg/models"
	"github.com/Artmann/squeal/pkg/repositories"
)

// mockQueryRepository is an in-memory, thread-safe query store. The
// runner mutates it from background goroutines while tests poll it.
type mockQueryRepository struct {
	mu      sync.Mutex
	records map[string]*models.Query

	createErr error
	finishErr error
}

func newMockQueryRepository() *mockQueryRepository {
	return &mockQueryRepository{records: make(map[string]*models.Query)}
}

func (m *mockQueryRepository) Create(ctx context.Context, query *models.Query) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.records[query.ID]; exists {
		return fmt.Errorf("query %s already exists: %w", query.ID, apperrors.ErrConflict)
	}

	stored := *query
	m.records[query.ID] = &stored
	return nil
}

func (m *mockQueryRepository) GetByID(ctx context.Context, id string) (*models.Query, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("query %s: %w", id, apperrors.ErrNotFound)
	}

	record := *stored
	return &record, nil
}

func (m *mockQueryRepository) Finish(ctx context.Context, id string, result *models.QueryResult, errMsg *string, finishedAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finishErr != nil {
		return m.finishErr
	}

	stored, ok := m.records[id]
	if !ok {
		return fmt.Errorf("query %s: %w", id, apperrors.ErrNotFound)
	}

	stored.Result = result
	stored.Error = errMsg
	stored.FinishedAt = &finishedAt
	return nil
}

func (m *mockQueryRepository) List(ctx context.Context, limit int) ([]*models.Query, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	queries := make([]*models.Query, 0, len(m.records))
	for _, stored := range m.records {
		record := *stored
		queries = append(queries, &record)
		if len(queries) >= limit {
			break
		}
	}
	return queries, nil
}

var _ repositories.QueryRepository = (*mockQueryRepository)(nil)

// mockDatabaseRepository resolves databases from a fixed map. Missing and
// soft-deleted ids behave identically: apperrors.ErrNotFound.
type mockDatabaseRepository struct {
	mu        sync.Mutex
	databases map[string]*models.Database

	count     int
	countErr  error
	createErr error

	lastUsed []string
}

func newMockDatabaseRepository(databases ...*models.Database) *mockDatabaseRepository {
	m := &mockDatabaseRepository{databases: make(map[string]*models.Database)}
	for _, db := range databases {
		m.databases[db.ID] = db
	}
	return m
}

func (m *mockDatabaseRepository) Create(ctx context.Context, db *models.Database) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	if db.ID == "" {
		db.ID = fmt.Sprintf("db-%d", len(m.databases)+1)
	}
	m.databases[db.ID] = db
	return nil
}

func (m *mockDatabaseRepository) GetByID(ctx context.Context, id string) (*models.Database, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	db, ok := m.databases[id]
	if !ok || db.DeletedAt != nil {
		return nil, fmt.Errorf("database %s: %w", id, apperrors.ErrNotFound)
	}
	return db, nil
}

func (m *mockDatabaseRepository) List(ctx context.Context) ([]*models.Database, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	databases := make([]*models.Database, 0, len(m.databases))
	for _, db := range m.databases {
		if db.DeletedAt == nil {
			databases = append(databases, db)
		}
	}
	return databases, nil
}

func (m *mockDatabaseRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.count, nil
}

func (m *mockDatabaseRepository) Update(ctx context.Context, db *models.Database) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.databases[db.ID]; !ok {
		return fmt.Errorf("database %s: %w", db.ID, apperrors.ErrNotFound)
	}
	m.databases[db.ID] = db
	return nil
}

func (m *mockDatabaseRepository) SoftDelete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	db, ok := m.databases[id]
	if !ok || db.DeletedAt != nil {
		return fmt.Errorf("database %s: %w", id, apperrors.ErrNotFound)
	}
	now := time.Now()
	db.DeletedAt = &now
	return nil
}

func (m *mockDatabaseRepository) TouchLastUsed(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastUsed = append(m.lastUsed, id)
	return nil
}

var _ repositories.DatabaseRepository = (*mockDatabaseRepository)(nil)

// mockWorksheetRepository holds a slice of worksheets for binding tests.
type mockWorksheetRepository struct {
	mu         sync.Mutex
	worksheets []*models.Worksheet

	updateErr error
	updated   []*models.Worksheet
}

func (m *mockWorksheetRepository) Create(ctx context.Context, ws *models.Worksheet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ws.ID == "" {
		ws.ID = fmt.Sprintf("ws-%d", len(m.worksheets)+1)
	}
	if ws.Name == "" {
		ws.Name = "Untitled Worksheet"
	}
	m.worksheets = append(m.worksheets, ws)
	return nil
}

func (m *mockWorksheetRepository) GetByID(ctx context.Context, id string) (*models.Worksheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ws := range m.worksheets {
		if ws.ID == id {
			return ws, nil
		}
	}
	return nil, fmt.Errorf("worksheet %s: %w", id, apperrors.ErrNotFound)
}

func (m *mockWorksheetRepository) List(ctx context.Context) ([]*models.Worksheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]*models.Worksheet{}, m.worksheets...), nil
}

func (m *mockWorksheetRepository) ListUnbound(ctx context.Context) ([]*models.Worksheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	unbound := make([]*models.Worksheet, 0)
	for _, ws := range m.worksheets {
		if ws.DatabaseID == nil {
			unbound = append(unbound, ws)
		}
	}
	return unbound, nil
}

func (m *mockWorksheetRepository) Update(ctx context.Context, ws *models.Worksheet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = append(m.updated, ws)
	return nil
}

var _ repositories.WorksheetRepository = (*mockWorksheetRepository)(nil)

// mockAdapter returns a canned result or error. An optional release
// channel holds RunQuery open so tests can observe the pending state.
type mockAdapter struct {
	result  *datasource.QueryResult
	err     error
	testErr error
	release chan struct{}

	mu       sync.Mutex
	runCalls []string
}

func (m *mockAdapter) TestConnection(ctx context.Context) error {
	return m.testErr
}

func (m *mockAdapter) RunQuery(ctx context.Context, statement string) (*datasource.QueryResult, error) {
	m.mu.Lock()
	m.runCalls = append(m.runCalls, statement)
	m.mu.Unlock()

	if m.release != nil {
		<-m.release
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockAdapter) statements() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.runCalls...)
}

var _ datasource.Adapter = (*mockAdapter)(nil)

// fixedAdapterFactory always hands out the same adapter.
func fixedAdapterFactory(adapter datasource.Adapter) AdapterFactory {
	return func(dsType string, connectionInfo map[string]any) (datasource.Adapter, error) {
		return adapter, nil
	}
}
