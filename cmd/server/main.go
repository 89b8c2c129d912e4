/*
main.go - Application entry point

PURPOSE:
  Starts the PAYG withholding HTTP server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env, the YAML config file and PAYG_* variables
  2. Apply command-line flags
  3. Initialize logging
  4. Build the scale catalog from embedded coefficient data
  5. Open the SQLite journal
  6. Configure the HTTP router and serve

COMMAND-LINE FLAGS:
  -config  YAML config file (default: payg.yaml, optional)
  -port    HTTP server port (overrides config)
  -db      SQLite database path (overrides config)
           Use ":memory:" for an in-memory journal

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  ./server -db="./data/payg.db"
  ./server -db=":memory:" -port=3000
  PAYG_LOG_FORMAT=json ./server

SEE ALSO:
  - internal/config/config.go: Configuration precedence
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Journal implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/manageitwa/payg-tax/api"
	"github.com/manageitwa/payg-tax/factory"
	"github.com/manageitwa/payg-tax/internal/config"
	"github.com/manageitwa/payg-tax/internal/logging"
	"github.com/manageitwa/payg-tax/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Flags
	configPath := flag.String("config", "payg.yaml", "YAML config file")
	port := flag.Int("port", 0, "HTTP server port")
	dbPath := flag.String("db", "", "SQLite database path")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logging.Initialize(cfg.Logging); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logging.Sync()
	log := logging.Component("server")

	catalog, err := factory.NewDefaultCatalog()
	if err != nil {
		return fmt.Errorf("build scale catalog: %w", err)
	}
	log.Info("scale catalog loaded", zap.Int("scales", len(catalog.Scales())))

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	handler := api.NewHandler(store, catalog)
	handler.BatchWorkers = cfg.Batch.Workers
	handler.MaxBatchItems = cfg.Batch.MaxItems

	router := api.NewRouter(handler, api.RouterOptions{AllowedOrigins: cfg.CORS.AllowedOrigins})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("db", cfg.Database.Path))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
