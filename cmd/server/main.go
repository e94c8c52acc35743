/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the allocation engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, then flags)
  2. Initialize logging and the SQLite store
  3. Open the dataset (seeded from the selected roster when none is stored)
  4. Create API handler and router
  5. Start the autosave retrier and the server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides ALLOC_PORT)
  -db      SQLite database path (overrides ALLOC_DB)
           Use ":memory:" for in-memory database
  -roster  YAML roster file (overrides ALLOC_ROSTER)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Flush any change whose save failed
  4. Close database connection

EXAMPLES:
  # Run with file database
  ./server -db="./data/allocation.db"

  # Run with in-memory database and a custom roster
  ./server -db=":memory:" -roster=./rosters/q1.yaml

ENVIRONMENT:
  See config/config.go.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
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

	"github.com/rs/zerolog/log"
	"github.com/warp/allocation-engine/allocation"
	"github.com/warp/allocation-engine/api"
	"github.com/warp/allocation-engine/config"
	"github.com/warp/allocation-engine/logging"
	"github.com/warp/allocation-engine/roster"
	"github.com/warp/allocation-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Flags
	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "SQLite database path")
	flag.StringVar(&cfg.RosterPath, "roster", cfg.RosterPath, "YAML roster file")
	flag.Parse()

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logging.SetGlobalLogger(logger)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Rosters
	scenarios := []roster.Roster{roster.Default()}
	current := scenarios[0]
	if cfg.RosterPath != "" {
		r, err := roster.LoadFile(cfg.RosterPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.RosterPath).Msg("failed to load roster")
		}
		scenarios = append(scenarios, r)
		current = r
	}

	// Initialize store
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("failed to initialize database")
	}
	defer db.Close()

	store, err := allocation.Open(context.Background(), db, current.Seeder(), logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open dataset")
	}

	// Initialize handler
	handler := api.NewHandler(store, db, scenarios, current.ID, logger)
	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins: cfg.CORSOrigins,
		StaticDir:   cfg.StaticDir,
	})

	autosave := api.NewAutosaveScheduler(store, logger)
	autosave.CheckInterval = cfg.AutosaveInterval
	autosave.Start()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Int("port", cfg.Port).
			Str("db", cfg.DatabasePath).
			Str("scenario", current.ID).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	autosave.Stop()
	if store.Dirty() {
		log.Error().Msg("unsaved changes were lost")
	}

	log.Info().Msg("server stopped")
}
