package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/nett/internal/domain"
	"github.com/dvloznov/nett/internal/store"
)

// Repository is the BigQuery implementation of store.TransactionRepository,
// store.BudgetRepository and store.CategoryRepository. It holds a shared
// client to avoid creating a new connection for each operation.
type Repository struct {
	client  *bigquery.Client
	dataset Dataset
}

var (
	_ store.TransactionRepository = (*Repository)(nil)
	_ store.BudgetRepository      = (*Repository)(nil)
	_ store.CategoryRepository    = (*Repository)(nil)
)

// NewRepository creates a Repository with a shared BigQuery client.
func NewRepository(ctx context.Context, project, dataset string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return &Repository{
		client:  client,
		dataset: Dataset{Project: project, Name: dataset},
	}, nil
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ListCategories delegates to ListCategoriesWithClient.
func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return ListCategoriesWithClient(ctx, r.client, r.dataset)
}

// ListTransactions delegates to ListTransactionsWithClient.
func (r *Repository) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return ListTransactionsWithClient(ctx, r.client, r.dataset, "")
}

// ListAccountTransactions delegates to ListTransactionsWithClient for one account.
func (r *Repository) ListAccountTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	return ListTransactionsWithClient(ctx, r.client, r.dataset, accountID)
}

// ListAccounts delegates to ListAccountsWithClient.
func (r *Repository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return ListAccountsWithClient(ctx, r.client, r.dataset)
}

// GetTransaction delegates to GetTransactionWithClient.
func (r *Repository) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return GetTransactionWithClient(ctx, r.client, r.dataset, id)
}

// UpdateTransaction delegates to UpdateTransactionWithClient.
func (r *Repository) UpdateTransaction(ctx context.Context, id string, update domain.TransactionUpdate) (*domain.Transaction, error) {
	return UpdateTransactionWithClient(ctx, r.client, r.dataset, id, update)
}

// DeleteTransaction delegates to DeleteTransactionWithClient.
func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	return DeleteTransactionWithClient(ctx, r.client, r.dataset, id)
}

// ListBudgets delegates to ListBudgetsWithClient.
func (r *Repository) ListBudgets(ctx context.Context) ([]domain.Budget, error) {
	return ListBudgetsWithClient(ctx, r.client, r.dataset)
}

// GetBudget delegates to GetBudgetWithClient.
func (r *Repository) GetBudget(ctx context.Context, id string) (*domain.Budget, error) {
	return GetBudgetWithClient(ctx, r.client, r.dataset, id)
}

// CreateBudget delegates to CreateBudgetWithClient.
func (r *Repository) CreateBudget(ctx context.Context, b *domain.Budget) error {
	return CreateBudgetWithClient(ctx, r.client, r.dataset, b)
}

// UpdateBudget delegates to UpdateBudgetWithClient.
func (r *Repository) UpdateBudget(ctx context.Context, b domain.Budget) error {
	return UpdateBudgetWithClient(ctx, r.client, r.dataset, b)
}

// DeleteBudget delegates to DeleteBudgetWithClient.
func (r *Repository) DeleteBudget(ctx context.Context, id string) error {
	return DeleteBudgetWithClient(ctx, r.client, r.dataset, id)
}

// CreateCategory delegates to CreateCategoryWithClient.
func (r *Repository) CreateCategory(ctx context.Context, c *domain.Category) error {
	return CreateCategoryWithClient(ctx, r.client, r.dataset, c)
}

// UpdateCategory delegates to UpdateCategoryWithClient.
func (r *Repository) UpdateCategory(ctx context.Context, c domain.Category) error {
	return UpdateCategoryWithClient(ctx, r.client, r.dataset, c)
}

// DeleteCategory delegates to DeleteCategoryWithClient.
func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	return DeleteCategoryWithClient(ctx, r.client, r.dataset, id)
}

// GetSubcategory delegates to GetSubcategoryWithClient.
func (r *Repository) GetSubcategory(ctx context.Context, id string) (*domain.Subcategory, error) {
	return GetSubcategoryWithClient(ctx, r.client, r.dataset, id)
}

// CreateSubcategory delegates to CreateSubcategoryWithClient.
func (r *Repository) CreateSubcategory(ctx context.Context, s *domain.Subcategory) error {
	return CreateSubcategoryWithClient(ctx, r.client, r.dataset, s)
}

// UpdateSubcategory delegates to UpdateSubcategoryWithClient.
func (r *Repository) UpdateSubcategory(ctx context.Context, s domain.Subcategory) error {
	return UpdateSubcategoryWithClient(ctx, r.client, r.dataset, s)
}

// DeleteSubcategory delegates to DeleteSubcategoryWithClient.
func (r *Repository) DeleteSubcategory(ctx context.Context, id string) error {
	return DeleteSubcategoryWithClient(ctx, r.client, r.dataset, id)
}
