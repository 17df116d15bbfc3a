package main

import (
	"log/slog"
	"os"

	"hospital-api/internal/app"
	"hospital-api/internal/config"
	"hospital-api/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	application, err := app.New(cfg, log)
	if err != nil {
		log.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		log.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
