package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/brus83/proactive-it-support-hub-sub001/internal/api"
	"github.com/brus83/proactive-it-support-hub-sub001/internal/config"
	"github.com/brus83/proactive-it-support-hub-sub001/internal/logging"
	"github.com/brus83/proactive-it-support-hub-sub001/internal/mcp"
	"github.com/brus83/proactive-it-support-hub-sub001/internal/repository"
	"github.com/brus83/proactive-it-support-hub-sub001/internal/services"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "support-hub-server",
		Short:        "IT support hub backend: ticket workflows, chatbot and auto-responses",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("configuration loading failed: %w", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Support Hub backend")

	dbPool, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("database initialization failed: %w", err)
	}
	defer dbPool.Close()
	logger.Info("Database connected")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	defer rdb.Close()

	// Repository layer. Workflow definition reads go through the redis
	// cache; steps are immutable once referenced, so caching is safe.
	var workflows repository.WorkflowStore = repository.NewPostgresWorkflowStore(dbPool)
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("redis unreachable, workflow cache disabled")
	} else {
		workflows = repository.NewCachedWorkflowStore(workflows, rdb,
			time.Duration(cfg.Redis.TTLSeconds)*time.Second, logger)
	}
	executions := repository.NewPostgresExecutionStore(dbPool)
	logs := repository.NewPostgresLogStore(dbPool)
	rules := repository.NewPostgresRuleStore(dbPool)

	// Service layer
	notifier := services.NewHTTPNotifier(cfg.Notifier.URL)
	engine := services.NewWorkflowEngine(workflows, executions, logs, notifier, logger)
	chatbot := services.NewChatbotService(rules, logger)
	responder := services.NewAutoResponder(rules)
	logger.Info("Service layer initialized")

	// Create Echo server
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware("support-hub"))

	e.GET("/healthz", api.HandleHealth)

	// Mount REST API handlers
	apiServer := api.NewServer(engine, chatbot, responder)
	apiServer.RegisterRoutes(e.Group("/api/v1"))
	logger.Info("REST API handlers mounted")

	// Mount MCP protocol handlers
	mcpServer := mcp.NewServer(engine, chatbot)
	mcpHandlers := http.NewServeMux()
	mcp.MountHTTPHandlers(mcpHandlers, mcpServer.GetMCPServer())
	e.Any("/mcp/*", echo.WrapHandler(mcpHandlers))
	logger.Info("MCP protocol handlers mounted")

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	serverErrors := make(chan error, 1)
	go func() {
		logger.WithField("address", cfg.Server.Addr).Info("Server starting")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		logger.WithField("signal", sig.String()).Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Server shutdown error")
			if err := server.Close(); err != nil {
				logger.WithError(err).Error("Server close error")
			}
		}
		logger.Info("Server stopped gracefully")
	}
	return nil
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*pgxpool.Pool, error) {
	logger.Debug("Initializing database connection")

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
