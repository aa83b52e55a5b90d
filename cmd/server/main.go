/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the pricing engine server: configuration,
  dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Build the zap logger
  3. Open the SQLite store
  4. Create the pricing service (loads persisted catalog + rules)
  5. Configure the HTTP router
  6. Start the server with graceful shutdown

CONFIGURATION:
  -port       HTTP server port (default: 8080, env PORT)
  -db         SQLite database path (default: pricing.db, env DATABASE_PATH)
              Use ":memory:" for an in-memory database
  -log-level  zap log level (default: info, env LOG_LEVEL)

  Flags win over environment variables; a .env file in the working
  directory is loaded first.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the database connection
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/freshmark/pricing-engine/api"
	"github.com/freshmark/pricing-engine/logger"
	"github.com/freshmark/pricing-engine/pricing"
	"github.com/freshmark/pricing-engine/store/sqlite"
)

func main() {
	// .env is optional; flags override environment.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DATABASE_PATH", "pricing.db"), "SQLite database path")
	logLevel := flag.String("log-level", envStr("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	flag.Parse()

	zlog, err := logger.New(*logLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	service, err := pricing.NewService(context.Background(), store, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize pricing service", zap.Error(err))
	}

	handler := api.NewHandler(service, zlog)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info("server starting",
			zap.Int("port", *port),
			zap.String("db", *dbPath))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zlog.Fatal("server forced to shutdown", zap.Error(err))
	}

	zlog.Info("server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
