package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvloznov/nett/internal/config"
	"github.com/dvloznov/nett/internal/domain"
	"github.com/dvloznov/nett/internal/logger"
	"github.com/dvloznov/nett/internal/notionsync"
	"github.com/dvloznov/nett/internal/store/backend"
)

func main() {
	var (
		envFile      = flag.String("env", ".env", "Path to an optional .env file")
		startDateStr = flag.String("start-date", "", "Only mirror transactions on or after this date (YYYY-MM-DD)")
		endDateStr   = flag.String("end-date", "", "Only mirror transactions on or before this date (YYYY-MM-DD)")
		notionToken  = flag.String("notion-token", "", "Notion API token (overrides NOTION_TOKEN)")
		notionDBID   = flag.String("notion-db-id", "", "Notion database ID (overrides NOTION_TRANSACTIONS_DB)")
		retries      = flag.Int("retries", 3, "Retries per Notion API call")
		dryRun       = flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	)
	flag.Parse()

	log := logger.New()
	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.NewWithLevel(cfg.LogLevel)

	if *notionToken != "" {
		cfg.NotionToken = *notionToken
	}
	if *notionDBID != "" {
		cfg.NotionTransactionsDB = *notionDBID
	}
	if !cfg.NotionEnabled() {
		log.Fatal().Msg("Error: a Notion token and database ID are required")
	}

	startDate, endDate, err := parseRange(*startDateStr, *endDateStr)
	if err != nil {
		log.Fatal().Err(err).Msg("Error: invalid date range")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo, err := backend.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Backend).Msg("Failed to open record store")
	}
	defer repo.Close()

	txns, err := repo.ListTransactions(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list transactions")
	}

	mirror := notionsync.NewMirror(notionsync.NewClient(cfg.NotionToken, *retries), cfg.NotionTransactionsDB)
	res, err := mirror.Sync(ctx, txns, notionsync.SyncOptions{
		DryRun:  *dryRun,
		Include: inRange(startDate, endDate),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d updated, %d archived.\n", res.Created, res.Updated, res.Archived)
}

// parseRange parses optional YYYY-MM-DD bounds. Missing bounds are zero.
func parseRange(start, end string) (time.Time, time.Time, error) {
	var startDate, endDate time.Time
	var err error
	if start != "" {
		if startDate, err = time.Parse("2006-01-02", start); err != nil {
			return startDate, endDate, fmt.Errorf("start-date: %w", err)
		}
	}
	if end != "" {
		if endDate, err = time.Parse("2006-01-02", end); err != nil {
			return startDate, endDate, fmt.Errorf("end-date: %w", err)
		}
	}
	if !startDate.IsZero() && !endDate.IsZero() && endDate.Before(startDate) {
		return startDate, endDate, fmt.Errorf("end-date must be after start-date")
	}
	return startDate, endDate, nil
}

// inRange selects transactions dated within [start, end]; zero bounds are open.
func inRange(start, end time.Time) func(domain.Transaction) bool {
	return func(t domain.Transaction) bool {
		if !start.IsZero() && t.Date.Before(start) {
			return false
		}
		if !end.IsZero() && !t.Date.Before(end.AddDate(0, 0, 1)) {
			return false
		}
		return true
	}
}
