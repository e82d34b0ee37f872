// Package supabase is the Supabase (PostgREST) implementation of the record store.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"

	"github.com/dvloznov/nett/internal/domain"
	"github.com/dvloznov/nett/internal/logger"
	"github.com/dvloznov/nett/internal/store"
)

const (
	transactionsTable  = "transactions"
	categoriesTable    = "categories"
	subcategoriesTable = "subcategories"
	accountsTable      = "accounts"
	budgetsTable       = "budgets"
)

// Repository implements store.TransactionRepository, store.BudgetRepository
// and store.CategoryRepository on top of the Supabase REST API.
type Repository struct {
	client *supabase.Client
}

var (
	_ store.TransactionRepository = (*Repository)(nil)
	_ store.BudgetRepository      = (*Repository)(nil)
	_ store.CategoryRepository    = (*Repository)(nil)
)

// NewRepository creates a Repository for the project at url.
func NewRepository(url, key string) (*Repository, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("supabase.NewRepository: %w", err)
	}
	return &Repository{client: client}, nil
}

// Close is a no-op; the REST client holds no connections of its own.
func (r *Repository) Close() error { return nil }

func selectAll(r *Repository, table string, out interface{}) error {
	data, _, err := r.client.From(table).Select("*", "", false).Execute()
	if err != nil {
		return fmt.Errorf("selecting %s: %w", table, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", table, err)
	}
	return nil
}

func (r *Repository) catalog() (domain.Catalog, error) {
	var cats []categoryRow
	if err := selectAll(r, categoriesTable, &cats); err != nil {
		return nil, err
	}
	var subs []subcategoryRow
	if err := selectAll(r, subcategoriesTable, &subs); err != nil {
		return nil, err
	}
	return buildCatalog(cats, subs), nil
}

func (r *Repository) accountIndex() (map[string]domain.Account, error) {
	var rows []accountRow
	if err := selectAll(r, accountsTable, &rows); err != nil {
		return nil, err
	}
	index := make(map[string]domain.Account, len(rows))
	for _, a := range rows {
		index[a.ID] = a.toDomain()
	}
	return index, nil
}

// join resolves category and account names for rows.
func (r *Repository) join(rows []transactionRow) ([]domain.Transaction, error) {
	catalog, err := r.catalog()
	if err != nil {
		return nil, err
	}
	accounts, err := r.accountIndex()
	if err != nil {
		return nil, err
	}
	return assemble(rows, catalog, accounts)
}

// ListCategories returns categories with their subcategories.
func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	catalog, err := r.catalog()
	if err != nil {
		return nil, fmt.Errorf("ListCategories: %w", err)
	}
	return catalog, nil
}

// ListTransactions returns every transaction, newest first.
func (r *Repository) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	var rows []transactionRow
	if err := selectAll(r, transactionsTable, &rows); err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	txns, err := r.join(rows)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	log := logger.FromContext(ctx)
	log.Debug().Int("count", len(txns)).Msg("Loaded transactions from supabase")
	return txns, nil
}

// ListAccountTransactions returns the transactions of one account, newest first.
func (r *Repository) ListAccountTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	data, _, err := r.client.From(transactionsTable).
		Select("*", "", false).
		Eq("account_id", accountID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("ListAccountTransactions: %w", err)
	}
	var rows []transactionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("ListAccountTransactions: parsing: %w", err)
	}
	txns, err := r.join(rows)
	if err != nil {
		return nil, fmt.Errorf("ListAccountTransactions: %w", err)
	}
	return txns, nil
}

// ListAccounts returns accounts with their transaction counts.
func (r *Repository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	var rows []accountRow
	if err := selectAll(r, accountsTable, &rows); err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}

	data, _, err := r.client.From(transactionsTable).Select("account_id", "", false).Execute()
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: counting transactions: %w", err)
	}
	var refs []struct {
		AccountID string `json:"account_id"`
	}
	if err := json.Unmarshal(data, &refs); err != nil {
		return nil, fmt.Errorf("ListAccounts: parsing counts: %w", err)
	}
	counts := map[string]int{}
	for _, ref := range refs {
		counts[ref.AccountID]++
	}

	out := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		a := row.toDomain()
		a.TransactionCount = counts[a.ID]
		out = append(out, a)
	}
	return out, nil
}

// GetTransaction returns one transaction or store.ErrNotFound.
func (r *Repository) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	data, _, err := r.client.From(transactionsTable).
		Select("*", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	var rows []transactionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("GetTransaction: parsing: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("GetTransaction %s: %w", id, store.ErrNotFound)
	}
	txns, err := r.join(rows[:1])
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	return &txns[0], nil
}

// updateColumns maps update onto column values. A nil value clears the column.
func updateColumns(current domain.Transaction, update domain.TransactionUpdate) map[string]interface{} {
	columns := map[string]interface{}{}
	if update.Name != nil {
		columns["name"] = *update.Name
	}
	if update.Category != nil {
		columns["category_id"] = update.Category.ID
		if update.Subcategory == nil && current.Subcategory != nil && current.Subcategory.CategoryID != update.Category.ID {
			columns["subcategory_id"] = nil
		}
	}
	switch {
	case update.ClearSubcategory:
		columns["subcategory_id"] = nil
	case update.Subcategory != nil:
		columns["subcategory_id"] = update.Subcategory.ID
	}
	return columns
}

// UpdateTransaction writes the set fields of update and returns the stored result.
func (r *Repository) UpdateTransaction(ctx context.Context, id string, update domain.TransactionUpdate) (*domain.Transaction, error) {
	current, err := r.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := store.ValidateUpdate(*current, update); err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}
	if update.Category != nil {
		catalog, err := r.catalog()
		if err != nil {
			return nil, fmt.Errorf("UpdateTransaction: %w", err)
		}
		if _, ok := catalog.ByID(update.Category.ID); !ok {
			return nil, fmt.Errorf("UpdateTransaction: category %s: %w", update.Category.ID, store.ErrNotFound)
		}
	}

	_, _, err = r.client.From(transactionsTable).
		Update(updateColumns(*current, update), "", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}
	return r.GetTransaction(ctx, id)
}

// DeleteTransaction removes one transaction or returns store.ErrNotFound.
func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	return r.deleteByID(transactionsTable, id)
}

func (r *Repository) deleteByID(table, id string) error {
	data, _, err := r.client.From(table).
		Delete("representation", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", table, err)
	}
	var deleted []json.RawMessage
	if err := json.Unmarshal(data, &deleted); err != nil {
		return fmt.Errorf("parsing deleted %s: %w", table, err)
	}
	if len(deleted) == 0 {
		return fmt.Errorf("deleting %s from %s: %w", id, table, store.ErrNotFound)
	}
	return nil
}

// ListBudgets returns every budget.
func (r *Repository) ListBudgets(ctx context.Context) ([]domain.Budget, error) {
	var rows []budgetRow
	if err := selectAll(r, budgetsTable, &rows); err != nil {
		return nil, fmt.Errorf("ListBudgets: %w", err)
	}
	out := make([]domain.Budget, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// GetBudget returns one budget or store.ErrNotFound.
func (r *Repository) GetBudget(ctx context.Context, id string) (*domain.Budget, error) {
	data, _, err := r.client.From(budgetsTable).
		Select("*", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("GetBudget: %w", err)
	}
	var rows []budgetRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("GetBudget: parsing: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("GetBudget %s: %w", id, store.ErrNotFound)
	}
	b := rows[0].toDomain()
	return &b, nil
}

func toBudgetRow(b domain.Budget) budgetRow {
	row := budgetRow{
		ID:         b.ID,
		Amount:     b.Amount,
		Frequency:  string(b.Frequency),
		CategoryID: b.CategoryID,
	}
	if b.SubcategoryID != "" {
		sub := b.SubcategoryID
		row.SubcategoryID = &sub
	}
	return row
}

// CreateBudget stores b, assigning an id when it has none.
func (r *Repository) CreateBudget(ctx context.Context, b *domain.Budget) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if _, _, err := r.client.From(budgetsTable).Insert(toBudgetRow(*b), false, "", "", "").Execute(); err != nil {
		return fmt.Errorf("CreateBudget: %w", err)
	}
	return nil
}

// UpdateBudget replaces the stored budget with b.
func (r *Repository) UpdateBudget(ctx context.Context, b domain.Budget) error {
	data, _, err := r.client.From(budgetsTable).
		Update(toBudgetRow(b), "representation", "").
		Eq("id", b.ID).
		Execute()
	if err != nil {
		return fmt.Errorf("UpdateBudget: %w", err)
	}
	var updated []json.RawMessage
	if err := json.Unmarshal(data, &updated); err != nil {
		return fmt.Errorf("UpdateBudget: parsing: %w", err)
	}
	if len(updated) == 0 {
		return fmt.Errorf("UpdateBudget %s: %w", b.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteBudget removes one budget or returns store.ErrNotFound.
func (r *Repository) DeleteBudget(ctx context.Context, id string) error {
	if err := r.deleteByID(budgetsTable, id); err != nil {
		return fmt.Errorf("DeleteBudget: %w", err)
	}
	return nil
}
