/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the VendaForte RV engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load the organization time zone
  3. Initialize SQLite store
  4. Create API handler with dependencies
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: rv.db)
           Use ":memory:" for an in-memory database
  -tz      Organization time zone for month boundaries
           (default: America/Sao_Paulo)
  -cap     Cap pillar payouts at 100% achievement (default: false)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/rv.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run with capped payouts
  ./server -cap

ENVIRONMENT:
  No environment variables currently. All config via flags.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
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
	"syscall"
	"time"

	"github.com/vendaforte/rv-engine/api"
	"github.com/vendaforte/rv-engine/engine"
	"github.com/vendaforte/rv-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "rv.db", "SQLite database path")
	tz := flag.String("tz", "America/Sao_Paulo", "organization time zone")
	capAchievement := flag.Bool("cap", false, "cap pillar payouts at 100% achievement")
	flag.Parse()

	// The time zone convention decides which month every timestamp
	// belongs to; fail fast if it can't be loaded.
	loc, err := time.LoadLocation(*tz)
	if err != nil {
		log.Fatalf("Failed to load time zone %q: %v", *tz, err)
	}

	// Initialize store
	st, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer st.Close()

	// Initialize handler and router
	handler := api.NewHandler(st, loc, engine.Options{CapAchievement: *capAchievement})
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
