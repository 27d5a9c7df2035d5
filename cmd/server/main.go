/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the retirement engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and build the logger
  2. Open SQLite (custom profiles, and settings unless another backend is chosen)
  3. Build the profile registry: presets, then the YAML file, then stored profiles
  4. Build the settings service on the chosen backend
  5. Configure HTTP router and start the server with graceful shutdown

COMMAND-LINE FLAGS:
  -port              HTTP server port (default: 8080)
  -db                SQLite database path (default: retirement.db)
                     Use ":memory:" for in-memory database
  -settings-backend  sqlite | redis | memory (default: sqlite)
  -redis-addr        Redis address for the redis backend (default: localhost:6379)
  -profiles          Optional YAML file of extra jurisdiction profiles
  -log-level         debug | info | warn | error (default depends on -env)
  -env               development | production (default: production)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database and Redis connections
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/retirement.db"

  # Share settings between instances
  ./server -settings-backend=redis -redis-addr=redis:6379

  # Add jurisdictions from a file
  ./server -profiles=./profiles.yaml -env=development

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go, store/redis/redis.go: Settings backends
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/retirement-engine/api"
	"github.com/warp/retirement-engine/factory"
	"github.com/warp/retirement-engine/profile"
	"github.com/warp/retirement-engine/retirement"
	"github.com/warp/retirement-engine/settings"
	"github.com/warp/retirement-engine/settings/store"
	redisstore "github.com/warp/retirement-engine/store/redis"
	"github.com/warp/retirement-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "retirement.db", "SQLite database path")
	backend := flag.String("settings-backend", "sqlite", "Settings backend: sqlite, redis or memory")
	redisAddr := flag.String("redis-addr", "localhost:6379", "Redis address for the redis settings backend")
	profilesFile := flag.String("profiles", "", "YAML file of extra jurisdiction profiles")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	env := flag.String("env", "production", "Environment: development or production")
	flag.Parse()

	logger, err := newLogger(*env, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger, *port, *dbPath, *backend, *redisAddr, *profilesFile); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(logger *zap.Logger, port int, dbPath, backend, redisAddr, profilesFile string) error {
	ctx := context.Background()

	// Initialize store
	db, err := sqlite.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Profiles
	registry := profile.NewRegistry()
	if profilesFile != "" {
		extra, err := factory.LoadProfilesFile(profilesFile)
		if err != nil {
			return err
		}
		for _, p := range extra {
			if err := registry.Register(p); err != nil {
				return fmt.Errorf("profiles file: %w", err)
			}
		}
		logger.Info("loaded profiles file", zap.String("path", profilesFile), zap.Int("count", len(extra)))
	}

	// Settings
	var settingsStore settings.Store
	switch backend {
	case "sqlite":
		settingsStore = db
	case "memory":
		settingsStore = store.NewMemory()
	case "redis":
		rs, err := redisstore.Dial(ctx, redisAddr)
		if err != nil {
			return err
		}
		defer rs.Close()
		settingsStore = rs
	default:
		return fmt.Errorf("unknown settings backend %q", backend)
	}
	svc := settings.NewService(settingsStore, registry)

	// Initialize handler
	handler := api.NewHandler(retirement.NewEngine(), registry, svc,
		api.WithProfileStore(db),
		api.WithLogger(logger),
	)
	if err := handler.LoadProfiles(ctx); err != nil {
		logger.Warn("failed to load stored profiles", zap.Error(err))
	}

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.Int("port", port),
			zap.String("settings_backend", backend),
			zap.Int("profiles", len(registry.List())),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
