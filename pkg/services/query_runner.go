package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Artmann/squeal/pkg/adapters/datasource"
	"github.com/Artmann/squeal/pkg/apperrors"
	"github.com/Artmann/squeal/pkg/models"
	"github.com/Artmann/squeal/pkg/repositories"
)

// SubmitQueryRequest carries a client-generated query submission. The id
// is caller-supplied so the client can start polling before the server
// responds.
type SubmitQueryRequest struct {
	ID          string
	Content     string
	DatabaseID  string
	WorksheetID string
	QueriedAt   int64
}

// AdapterFactory builds a datasource adapter for a database type and its
// stored connection info. The default is the package registry; tests
// substitute their own.
type AdapterFactory func(dsType string, connectionInfo map[string]any) (datasource.Adapter, error)

// QueryRunner owns the query state machine end to end: it persists the
// pending record, dispatches execution against the target database off the
// request path, and records the terminal outcome exactly once. Callers
// observe completion by polling Get until FinishedAt is set.
type QueryRunner interface {
	// Submit inserts a pending record and schedules background execution.
	// It returns the pending record immediately and never waits for
	// execution. Returns apperrors.ErrConflict for a duplicate id.
	Submit(ctx context.Context, req *SubmitQueryRequest) (*models.Query, error)

	// Get returns the current state of a query.
	Get(ctx context.Context, id string) (*models.Query, error)

	// List returns up to limit records for diagnostics.
	List(ctx context.Context, limit int) ([]*models.Query, error)

	// Wait blocks until all in-flight executions have finished. Used for
	// graceful shutdown and tests.
	Wait()
}

type queryRunner struct {
	queries    repositories.QueryRepository
	databases  repositories.DatabaseRepository
	newAdapter AdapterFactory
	logger     *zap.Logger

	inFlight sync.WaitGroup
}

// NewQueryRunner creates the query execution engine. Pass nil adapterFactory
// to use the datasource registry.
func NewQueryRunner(
	queries repositories.QueryRepository,
	databases repositories.DatabaseRepository,
	adapterFactory AdapterFactory,
	logger *zap.Logger,
) QueryRunner {
	if adapterFactory == nil {
		adapterFactory = datasource.New
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &queryRunner{
		queries:    queries,
		databases:  databases,
		newAdapter: adapterFactory,
		logger:     logger,
	}
}

var _ QueryRunner = (*queryRunner)(nil)

func (r *queryRunner) Submit(ctx context.Context, req *SubmitQueryRequest) (*models.Query, error) {
	query := &models.Query{
		ID:          req.ID,
		Content:     req.Content,
		DatabaseID:  req.DatabaseID,
		WorksheetID: req.WorksheetID,
		QueriedAt:   req.QueriedAt,
	}

	if err := r.queries.Create(ctx, query); err != nil {
		return nil, err
	}

	r.logger.Debug("Query submitted",
		zap.String("query_id", query.ID),
		zap.String("database_id", query.DatabaseID))

	// One detached execution unit per submission. The unit carries its
	// own context: the submitter's request finishing must not cancel it.
	r.inFlight.Add(1)
	go r.execute(query)

	return query, nil
}

func (r *queryRunner) Get(ctx context.Context, id string) (*models.Query, error) {
	return r.queries.GetByID(ctx, id)
}

func (r *queryRunner) List(ctx context.Context, limit int) ([]*models.Query, error) {
	return r.queries.List(ctx, limit)
}

func (r *queryRunner) Wait() {
	r.inFlight.Wait()
}

// execute runs once per submitted query. Whatever happens in here, the
// query must end up terminal: failures are captured on the record, never
// re-thrown, and there is no automatic retry - statements may have side
// effects, so a retry is always an explicit new submission.
func (r *queryRunner) execute(query *models.Query) {
	defer r.inFlight.Done()

	ctx := context.Background()

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Query execution panicked",
				zap.String("query_id", query.ID),
				zap.Any("panic", rec))
			r.finishWithError(ctx, query.ID, fmt.Sprintf("%v", rec))
		}
	}()

	db, err := r.databases.GetByID(ctx, query.DatabaseID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			r.finishWithError(ctx, query.ID, fmt.Sprintf("Database not found: %s", query.DatabaseID))
			return
		}
		r.finishWithError(ctx, query.ID, NormalizeError(err))
		return
	}

	adapter, err := r.newAdapter(db.Type, db.ConnectionInfo)
	if err != nil {
		r.finishWithError(ctx, query.ID, NormalizeError(err))
		return
	}

	if err := r.databases.TouchLastUsed(ctx, db.ID); err != nil {
		r.logger.Warn("Failed to update database last used timestamp",
			zap.String("database_id", db.ID),
			zap.Error(err))
	}

	result, err := adapter.RunQuery(ctx, query.Content)
	if err != nil {
		r.logger.Info("Query failed",
			zap.String("query_id", query.ID),
			zap.Error(err))
		r.finishWithError(ctx, query.ID, NormalizeError(err))
		return
	}

	r.finishWithResult(ctx, query.ID, &models.QueryResult{
		Columns: result.Columns,
		Rows:    result.Rows,
	})
}

func (r *queryRunner) finishWithResult(ctx context.Context, id string, result *models.QueryResult) {
	if err := r.queries.Finish(ctx, id, result, nil, nowMillis()); err != nil {
		// The record stays pending only if the store itself is down.
		r.logger.Error("Failed to persist query result",
			zap.String("query_id", id),
			zap.Error(err))
		return
	}

	r.logger.Debug("Query finished",
		zap.String("query_id", id),
		zap.Int("rows", len(result.Rows)))
}

func (r *queryRunner) finishWithError(ctx context.Context, id string, message string) {
	if err := r.queries.Finish(ctx, id, nil, &message, nowMillis()); err != nil {
		r.logger.Error("Failed to persist query error",
			zap.String("query_id", id),
			zap.Error(err))
	}
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// NormalizeError turns a driver failure into the single human-readable
// string stored on the query record. Composite errors (errors.Join and
// friends) have their causes joined with "; ". Empty messages fall back
// to the error's type name, then to a generic message.
func NormalizeError(err error) string {
	if err == nil {
		return "Unknown error"
	}

	if agg, ok := err.(interface{ Unwrap() []error }); ok {
		messages := make([]string, 0)
		for _, cause := range agg.Unwrap() {
			if cause == nil {
				continue
			}
			if msg := cause.Error(); msg != "" {
				messages = append(messages, msg)
			}
		}

		if len(messages) > 0 {
			return strings.Join(messages, "; ")
		}
		if msg := err.Error(); msg != "" {
			return msg
		}
		return "Connection failed"
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	if name := fmt.Sprintf("%T", err); name != "" {
		return strings.TrimPrefix(name, "*")
	}
	return "Unknown error"
}
