// hamyon-init brings the local database schema up to date and seeds a
// user's default data set (default categories plus one cash account).
// Safe to run repeatedly.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"hamyon/internal/config"
	applog "hamyon/internal/log"
	"hamyon/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: "hamyon-init"})
	applog.SetDefault(logger)

	userID := flag.String("user", "", "user id to seed defaults for")
	currency := flag.String("currency", "", "ISO currency for the seeded cash account (default from config)")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if *currency == "" {
		*currency = cfg.DefaultCurrency
	}

	store, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	logger.Info("Schema is up to date", "path", cfg.SQLiteDBPath)

	if *userID == "" {
		logger.Info("No -user given, skipping seed")
		return
	}

	seeded, err := store.SeedDefaults(context.Background(), *userID, *currency)
	if err != nil {
		logger.Error("Failed to seed defaults", "user_id", *userID, "error", err)
		os.Exit(1)
	}
	if seeded {
		logger.Info("Seeded default categories and cash account",
			"user_id", *userID, "currency", *currency)
	} else {
		logger.Info("User already has data, seed skipped", "user_id", *userID)
	}
}
