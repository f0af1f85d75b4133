package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/SscSPs/maika_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/maika_backend/internal/core/ports/repositories"
	"github.com/SscSPs/maika_backend/internal/core/services"
	"github.com/SscSPs/maika_backend/internal/handlers"
	"github.com/SscSPs/maika_backend/internal/middleware"
	"github.com/SscSPs/maika_backend/internal/platform/config"
	"github.com/SscSPs/maika_backend/internal/repositories/database/memory"
	"github.com/SscSPs/maika_backend/internal/repositories/database/pgsql"
	"github.com/SscSPs/maika_backend/internal/repositories/database/sqlite"
	"github.com/SscSPs/maika_backend/internal/utils"
	"github.com/SscSPs/maika_backend/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// @title Maika Backend API
// @version 1.0
// @description Ledger and access-control backend for Maika.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	repos, cleanup, err := setupRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to set up repositories", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	var opts []services.ContainerOption
	switch cfg.AuditSink {
	case config.AuditSinkSQLite:
		auditRepo, err := sqlite.NewAuditRepository(cfg.AuditSQLitePath)
		if err != nil {
			logger.Error("Failed to open sqlite audit sink", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer auditRepo.Close()
		opts = append(opts, services.WithAuditSink(services.NewAuditService(auditRepo)))
		logger.Info("Audit records go to sqlite", slog.String("path", cfg.AuditSQLitePath))
	case config.AuditSinkNone:
		opts = append(opts, services.WithAuditSink(services.NewAuditService(nil)))
		logger.Warn("Audit sink disabled")
	}

	if cfg.BootstrapAdminUserID != "" {
		if err := bootstrapAdmin(ctx, repos.PermissionRepo, cfg.BootstrapAdminUserID); err != nil {
			logger.Error("Failed to bootstrap admin", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Admin grant ensured", slog.String("user_id", cfg.BootstrapAdminUserID))
	}

	serviceContainer := services.NewServiceContainer(cfg, repos, opts...)

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, cfg.PosthogEndpoint, logger)
	defer posthogClient.Close()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, cors)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSAllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "Authorization", middleware.APITokenHeader},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
	}))

	err = r.SetTrustedProxies(nil)
	if err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := handlers.RegisterRoutes(r, cfg, serviceContainer, posthogClient); err != nil {
		logger.Error("Failed to register routes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// setupRepositories connects to Postgres and migrates it. Without PGSQL_URL the
// in-memory store is used, which keeps nothing across restarts.
func setupRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("PGSQL_URL not set, using the in-memory store")
		return memory.New().Provider(), func() {}, nil
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, fmt.Errorf("failed to initialize database pool: %w", err)
	}
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg, logger); err != nil {
		dbPool.Close()
		return portsrepo.RepositoryProvider{}, nil, err
	}
	return pgsql.NewRepositoryProvider(dbPool), func() { database.ClosePgxPool(dbPool) }, nil
}

func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")
	// Using pgx/v5/stdlib driver to be compatible with the main pool
	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database connection for migrations: %w", err)
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create postgres driver instance for migrations: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return fmt.Errorf("migration source error: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("migration database error: %w", dbErr)
	}

	if errors.Is(upErr, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

// bootstrapAdmin grants ADMIN to the configured user unless it already has it, so
// a fresh deployment has someone able to hand out permissions.
func bootstrapAdmin(ctx context.Context, repo portsrepo.PermissionRepositoryFacade, userID string) error {
	perms, err := repo.ListDirectUserPermissions(ctx, userID)
	if err != nil {
		return err
	}
	for _, p := range perms {
		if p.Name == domain.PermAdmin {
			return nil
		}
	}
	return repo.ReplaceUserPermissions(ctx, userID, append(perms, domain.Permission{Name: domain.PermAdmin}))
}
