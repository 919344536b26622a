package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Artmann/squeal/pkg/adapters/datasource"
)

// DefaultConnectionTestTimeout bounds a connectivity check so a
// misconfigured host fails fast instead of hanging the caller.
const DefaultConnectionTestTimeout = 5 * time.Second

// ConnectionService runs setup-time connectivity checks against
// connection parameters that have not been saved yet.
type ConnectionService interface {
	// Test builds an adapter for the given type and confirms round-trip
	// liveness within the configured timeout.
	Test(ctx context.Context, dsType string, connectionInfo map[string]any) error
}

type connectionService struct {
	newAdapter AdapterFactory
	timeout    time.Duration
	logger     *zap.Logger
}

// NewConnectionService creates a ConnectionService. Pass nil adapterFactory
// to use the datasource registry; zero timeout uses the default.
func NewConnectionService(adapterFactory AdapterFactory, timeout time.Duration, logger *zap.Logger) ConnectionService {
	if adapterFactory == nil {
		adapterFactory = datasource.New
	}
	if timeout <= 0 {
		timeout = DefaultConnectionTestTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &connectionService{
		newAdapter: adapterFactory,
		timeout:    timeout,
		logger:     logger,
	}
}

var _ ConnectionService = (*connectionService)(nil)

func (s *connectionService) Test(ctx context.Context, dsType string, connectionInfo map[string]any) error {
	if dsType == "" {
		dsType = "postgres"
	}

	adapter, err := s.newAdapter(dsType, connectionInfo)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := adapter.TestConnection(ctx); err != nil {
		s.logger.Info("Connection test failed",
			zap.String("type", dsType),
			zap.Error(err))
		return err
	}

	return nil
}
