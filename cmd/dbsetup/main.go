// Command dbsetup creates the hospital schema and seeds the default roles.
// It only needs DATABASE_URL and is safe to run repeatedly.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"hospital-api/internal/database"
	"hospital-api/internal/logger"
)

func main() {
	_ = godotenv.Load()

	log := logger.New(os.Stdout, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	slog.SetDefault(log)

	url := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if url == "" {
		log.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.New(ctx, url, database.PoolOptions{MaxConns: 2, MinConns: 0})
	if err != nil {
		log.Error("connect", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Error("database setup failed", "error", err)
		db.Close()
		os.Exit(1)
	}

	log.Info("database setup complete")
}
