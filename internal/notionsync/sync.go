package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/nett/internal/domain"
	"github.com/dvloznov/nett/internal/jobs"
	"github.com/dvloznov/nett/internal/logger"
)

const (
	// BatchSize is the page size used when querying the database.
	BatchSize = 100
)

// TransactionGetter loads the current state of a transaction.
type TransactionGetter interface {
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
}

// Mirror keeps one Notion database in step with the record store, one page per
// transaction keyed by the Transaction ID property.
type Mirror struct {
	pages      Pages
	databaseID string
}

// NewMirror creates a Mirror writing to databaseID.
func NewMirror(pages Pages, databaseID string) *Mirror {
	return &Mirror{pages: pages, databaseID: databaseID}
}

// FindPage returns the id of the page for transactionID, or "" when there is none.
func (m *Mirror) FindPage(ctx context.Context, transactionID string) (string, error) {
	found, err := m.pages.Find(ctx, m.databaseID, transactionID)
	if err != nil {
		return "", fmt.Errorf("FindPage: %w", err)
	}
	for _, page := range found {
		if extractTransactionID(page) == transactionID {
			return string(page.ID), nil
		}
	}
	return "", nil
}

// Upsert writes txn to its page, creating the page when missing.
func (m *Mirror) Upsert(ctx context.Context, txn domain.Transaction) error {
	log := logger.FromContext(ctx)

	pageID, err := m.FindPage(ctx, txn.ID)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}

	props := TransactionToNotionProperties(txn)
	if pageID != "" {
		if err := m.pages.Update(ctx, pageID, props); err != nil {
			return fmt.Errorf("Upsert: %w", err)
		}
		log.Info().Str("transaction_id", txn.ID).Str("page_id", pageID).Msg("Updated Notion page")
		return nil
	}

	pageID, err = m.pages.Create(ctx, m.databaseID, props)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	log.Info().Str("transaction_id", txn.ID).Str("page_id", pageID).Msg("Created Notion page")
	return nil
}

// Archive archives the page of a deleted transaction. A transaction without a page
// is already in step.
func (m *Mirror) Archive(ctx context.Context, transactionID string) error {
	pageID, err := m.FindPage(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("Archive: %w", err)
	}
	if pageID == "" {
		return nil
	}
	if err := m.pages.Archive(ctx, pageID); err != nil {
		return fmt.Errorf("Archive: %w", err)
	}
	log := logger.FromContext(ctx)
	log.Info().
		Str("transaction_id", transactionID).
		Str("page_id", pageID).
		Msg("Archived Notion page")
	return nil
}

// HandleJob returns a jobs.JobHandler that applies mirror jobs, loading the
// transaction from txns for upserts.
func (m *Mirror) HandleJob(txns TransactionGetter) jobs.JobHandler {
	return func(ctx context.Context, job *jobs.MirrorJob) error {
		switch job.Action {
		case jobs.MirrorUpsert:
			txn, err := txns.GetTransaction(ctx, job.TransactionID)
			if err != nil {
				return fmt.Errorf("HandleJob: loading transaction %s: %w", job.TransactionID, err)
			}
			return m.Upsert(ctx, *txn)
		case jobs.MirrorArchive:
			return m.Archive(ctx, job.TransactionID)
		default:
			return fmt.Errorf("HandleJob: unknown action %q", job.Action)
		}
	}
}

// SyncResult counts what a full Sync changed.
type SyncResult struct {
	Created  int
	Updated  int
	Archived int
}

// SyncOptions narrows a Sync.
type SyncOptions struct {
	// DryRun counts changes without writing to Notion.
	DryRun bool
	// Include selects the transactions whose pages are written. Nil selects all.
	// Excluded transactions still keep their pages from being archived.
	Include func(domain.Transaction) bool
}

// Sync reconciles the whole database with all, the complete set of stored
// transactions: pages of transactions no longer present are archived, existing
// pages are updated and missing ones created. Per-page failures are logged and skipped.
func (m *Mirror) Sync(ctx context.Context, all []domain.Transaction, opts SyncOptions) (SyncResult, error) {
	log := logger.FromContext(ctx)
	var res SyncResult
	dryRun := opts.DryRun

	var txns []domain.Transaction
	for _, txn := range all {
		if opts.Include == nil || opts.Include(txn) {
			txns = append(txns, txn)
		}
	}

	log.Info().
		Int("transaction_count", len(txns)).
		Bool("dry_run", dryRun).
		Msg("Starting transaction sync to Notion")

	pages, err := m.queryAllPages(ctx)
	if err != nil {
		return res, fmt.Errorf("Sync: %w", err)
	}
	log.Info().Int("notion_page_count", len(pages)).Msg("Retrieved existing Notion pages")

	valid := make(map[string]bool, len(all))
	for _, txn := range all {
		valid[txn.ID] = true
	}

	pageByTxn := make(map[string]string, len(pages))
	for _, page := range pages {
		txID := extractTransactionID(page)
		if txID != "" && valid[txID] {
			pageByTxn[txID] = string(page.ID)
			continue
		}

		if dryRun {
			log.Info().Str("transaction_id", txID).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive stale Notion page")
			res.Archived++
			continue
		}
		if err := m.pages.Archive(ctx, string(page.ID)); err != nil {
			log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to archive stale Notion page")
			continue
		}
		res.Archived++
	}

	for _, txn := range txns {
		pageID, exists := pageByTxn[txn.ID]
		if dryRun {
			if exists {
				res.Updated++
			} else {
				res.Created++
			}
			continue
		}

		props := TransactionToNotionProperties(txn)
		if exists {
			if err := m.pages.Update(ctx, pageID, props); err != nil {
				log.Warn().Err(err).Str("transaction_id", txn.ID).Str("page_id", pageID).Msg("Failed to update Notion page")
				continue
			}
			res.Updated++
			continue
		}
		if _, err := m.pages.Create(ctx, m.databaseID, props); err != nil {
			log.Warn().Err(err).Str("transaction_id", txn.ID).Msg("Failed to create Notion page")
			continue
		}
		res.Created++
	}

	log.Info().
		Int("archived", res.Archived).
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("total", len(txns)).
		Msg("Transaction sync completed")

	return res, nil
}

// queryAllPages lists every page in the database, BatchSize at a time.
func (m *Mirror) queryAllPages(ctx context.Context) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor
	for {
		batch, err := m.pages.List(ctx, m.databaseID, cursor, BatchSize)
		if err != nil {
			return nil, fmt.Errorf("queryAllPages: %w", err)
		}
		all = append(all, batch.Pages...)
		if batch.Next == "" {
			return all, nil
		}
		cursor = batch.Next
	}
}
