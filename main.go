package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	_ "github.com/Artmann/squeal/pkg/adapters/datasource/mssql"
	_ "github.com/Artmann/squeal/pkg/adapters/datasource/postgres"
	"github.com/Artmann/squeal/pkg/config"
	"github.com/Artmann/squeal/pkg/database"
	"github.com/Artmann/squeal/pkg/handlers"
	"github.com/Artmann/squeal/pkg/middleware"
	"github.com/Artmann/squeal/pkg/repositories"
	"github.com/Artmann/squeal/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("database", cfg.Database.Host))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Migrations run through database/sql; the server itself uses pgx.
	migrationDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := migrationDB.Close(); err != nil {
		logger.Warn("Failed to close migration connection", zap.Error(err))
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to record store", zap.Error(err))
	}
	defer db.Close()

	queryRepo := repositories.NewQueryRepository(db)
	databaseRepo := repositories.NewDatabaseRepository(db)
	worksheetRepo := repositories.NewWorksheetRepository(db)

	queryRunner := services.NewQueryRunner(queryRepo, databaseRepo, nil, logger)
	databaseService := services.NewDatabaseService(databaseRepo, worksheetRepo, logger)
	worksheetService := services.NewWorksheetService(worksheetRepo)
	connectionService := services.NewConnectionService(nil,
		time.Duration(cfg.Datasource.ConnectionTestTimeoutSeconds)*time.Second, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewQueriesHandler(queryRunner, logger).RegisterRoutes(mux)
	handlers.NewDatabasesHandler(databaseService, logger).RegisterRoutes(mux)
	handlers.NewWorksheetsHandler(worksheetService, logger).RegisterRoutes(mux)
	handlers.NewConnectionTestsHandler(connectionService, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: middleware.RequestLogger(logger)(mux),
	}

	go func() {
		logger.Info("Starting squeal server",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	// Let in-flight query executions record their terminal state.
	queryRunner.Wait()
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
