package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	gocache "github.com/patrickmn/go-cache"

	database "github.com/teachmeskills/todo-api/app/db"
	"github.com/teachmeskills/todo-api/app/mail"
	"github.com/teachmeskills/todo-api/config"
	"github.com/teachmeskills/todo-api/internal/api/auth"
	"github.com/teachmeskills/todo-api/internal/api/todo"
)

// Container holds the application's explicit dependency graph, built once
// at process start and passed by reference into the router. No component
// does ambient global lookups.
type Container struct {
	Config      *config.Config
	Logger      *slog.Logger
	Pool        *pgxpool.Pool
	Mailer      mail.Sender
	AuthHandler *auth.HandlerImpl
	TodoHandler *todo.HandlerImpl
}

// NewContainer initializes and returns a new dependency container
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	mailer, err := mail.NewSender(cfg.Mail, logger)
	if err != nil {
		logger.Error("Failed to initialize mail sender", slog.Any("error", err))
		return nil, err
	}
	todoCache := gocache.New(cfg.Cache.TTL, cfg.Cache.CleanupInterval)

	// Repositories
	authRepo := auth.NewPostgresAuthRepo(pool, logger)
	todoRepo := todo.NewRepository(pool, logger)

	// Services
	authService := auth.NewAuthService(authRepo, cfg, mailer, logger)
	todoService := todo.NewService(todoRepo, todoCache, logger)

	// Handlers
	authHandler := auth.NewHandler(authService, logger)
	todoHandler := todo.NewHandler(todoService, logger)

	return &Container{
		Config:      cfg,
		Logger:      logger,
		Pool:        pool,
		Mailer:      mailer,
		AuthHandler: authHandler,
		TodoHandler: todoHandler,
	}, nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
