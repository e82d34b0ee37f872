// Package backend opens the record store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/dvloznov/nett/internal/config"
	"github.com/dvloznov/nett/internal/store"
	"github.com/dvloznov/nett/internal/store/bigquery"
	"github.com/dvloznov/nett/internal/store/sqlite"
	"github.com/dvloznov/nett/internal/store/supabase"
)

// Open connects to cfg.Backend. The returned repository also implements
// store.BudgetRepository for every backend shipped here.
func Open(ctx context.Context, cfg *config.Config) (store.TransactionRepository, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		repo, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("backend.Open: %w", err)
		}
		return repo, nil
	case config.BackendBigQuery:
		repo, err := bigquery.NewRepository(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			return nil, fmt.Errorf("backend.Open: %w", err)
		}
		return repo, nil
	case config.BackendSupabase:
		repo, err := supabase.NewRepository(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			return nil, fmt.Errorf("backend.Open: %w", err)
		}
		return repo, nil
	}
	return nil, fmt.Errorf("backend.Open: unknown backend %q", cfg.Backend)
}

var (
	_ store.BudgetRepository = (*sqlite.Repository)(nil)
	_ store.BudgetRepository = (*bigquery.Repository)(nil)
	_ store.BudgetRepository = (*supabase.Repository)(nil)
)
