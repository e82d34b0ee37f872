package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/nett/internal/config"
	"github.com/dvloznov/nett/internal/gcs"
	"github.com/dvloznov/nett/internal/logger"
	"github.com/dvloznov/nett/internal/store/sqlite"
)

func main() {
	var (
		envFile  = flag.String("env", ".env", "Path to an optional .env file")
		source   = flag.String("snapshot", "", "JSON snapshot to import: a local path or gs://bucket/object (required)")
		database = flag.String("db", "", "SQLite database path (overrides NETT_SQLITE_PATH)")
	)
	flag.Parse()

	log := logger.New()
	if *source == "" {
		log.Fatal().Msg("Error: --snapshot is required")
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.NewWithLevel(cfg.LogLevel)
	dbPath := cfg.SQLitePath
	if *database != "" {
		dbPath = *database
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().Str("snapshot", *source).Str("db", dbPath).Msg("Starting import")

	data, err := readSource(ctx, gcs.NewClient(), *source)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read snapshot")
	}
	snap, err := sqlite.DecodeSnapshot(data)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid snapshot")
	}

	repo, err := sqlite.Open(dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer repo.Close()

	if err := repo.Import(ctx, snap); err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	log.Info().
		Int("categories", len(snap.Categories)).
		Int("accounts", len(snap.Accounts)).
		Int("transactions", len(snap.Transactions)).
		Int("budgets", len(snap.Budgets)).
		Msg("Import completed")
	fmt.Println("Import completed successfully.")
}

// readSource returns the bytes of a local file or a gs:// object.
func readSource(ctx context.Context, storage gcs.StorageService, source string) ([]byte, error) {
	if !gcs.IsURI(source) {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("readSource: %w", err)
		}
		return data, nil
	}
	bucket, object, err := gcs.ParseURI(source)
	if err != nil {
		return nil, fmt.Errorf("readSource: %w", err)
	}
	data, err := storage.Download(ctx, bucket, object)
	if err != nil {
		return nil, fmt.Errorf("readSource: %w", err)
	}
	return data, nil
}
