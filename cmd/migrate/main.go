package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/abouzarnameh/bombbase-api/internal/adapter/store"
	"github.com/abouzarnameh/bombbase-api/internal/platform/config"
	"github.com/abouzarnameh/bombbase-api/internal/platform/logging"
)

func main() {
	var (
		databaseURL = flag.String("database", envOr("DATABASE_URL", "app.db"), "Postgres URL or SQLite file path (or set DATABASE_URL env)")
		verbose     = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	if *databaseURL == "" {
		log.Fatal("Database location required (--database or DATABASE_URL env)")
	}

	// Configure logging
	level := "info"
	if *verbose {
		level = "debug"
	}
	logging.InitLogger(level, "text")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	st, err := store.Open(ctx, *databaseURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer st.Close()
	slog.Info("Connected to database", "driver", st.Driver, "location", sanitizeLocation(*databaseURL))

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		log.Fatalf("Migration failed: %v", err)
	}

	slog.Info("Migration complete", "duration", time.Since(start))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// sanitizeLocation hides the password of a Postgres URL.
func sanitizeLocation(location string) string {
	if config.DriverFor(location) != config.DriverPostgres {
		return location
	}
	u, err := url.Parse(location)
	if err != nil {
		return "<unparseable>"
	}
	return u.Redacted()
}
