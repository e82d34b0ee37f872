package store

import (
	"context"
	"errors"

	"github.com/dvloznov/nett/internal/domain"
)

// ErrNotFound is returned when a transaction, category or budget does not exist.
var ErrNotFound = errors.New("store: not found")

// TransactionRepository is the server-side record store behind the REST API.
type TransactionRepository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	ListAccountTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	// UpdateTransaction applies the set fields of update and returns the stored result.
	UpdateTransaction(ctx context.Context, id string, update domain.TransactionUpdate) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	Close() error
}

// BudgetRepository is implemented by backends that also store budgets.
type BudgetRepository interface {
	ListBudgets(ctx context.Context) ([]domain.Budget, error)
	GetBudget(ctx context.Context, id string) (*domain.Budget, error)
	CreateBudget(ctx context.Context, b *domain.Budget) error
	UpdateBudget(ctx context.Context, b domain.Budget) error
	DeleteBudget(ctx context.Context, id string) error
}

// CategoryRepository is implemented by backends whose categories can be edited.
// Deleting a category also deletes its subcategories. Deletes are refused with
// ErrInUse while a transaction still points at the category or subcategory.
type CategoryRepository interface {
	// CreateCategory stores c at the end of the list, assigning an id when it
	// has none. Subcategories in c are ignored.
	CreateCategory(ctx context.Context, c *domain.Category) error
	// UpdateCategory renames the stored category with c's id.
	UpdateCategory(ctx context.Context, c domain.Category) error
	DeleteCategory(ctx context.Context, id string) error

	GetSubcategory(ctx context.Context, id string) (*domain.Subcategory, error)
	// CreateSubcategory stores s at the end of its category's list. It returns
	// ErrNotFound when s.CategoryID does not exist.
	CreateSubcategory(ctx context.Context, s *domain.Subcategory) error
	// UpdateSubcategory changes the name and description; the owning category
	// never changes.
	UpdateSubcategory(ctx context.Context, s domain.Subcategory) error
	DeleteSubcategory(ctx context.Context, id string) error
}

// ValidateUpdate checks that a subcategory in update belongs to the category it is
// paired with. current is the transaction as stored before the update.
func ValidateUpdate(current domain.Transaction, update domain.TransactionUpdate) error {
	if update.IsEmpty() {
		return ErrEmptyUpdate
	}
	if update.Subcategory == nil || update.ClearSubcategory {
		return nil
	}
	cat := current.Category
	if update.Category != nil {
		cat = update.Category
	}
	if cat == nil {
		return ErrSubcategoryMismatch
	}
	if update.Subcategory.CategoryID != "" && update.Subcategory.CategoryID != cat.ID {
		return ErrSubcategoryMismatch
	}
	return nil
}

var (
	// ErrEmptyUpdate is returned when an update carries no fields.
	ErrEmptyUpdate = errors.New("store: update has no fields")
	// ErrSubcategoryMismatch is returned when a subcategory does not belong to the category.
	ErrSubcategoryMismatch = errors.New("store: subcategory does not belong to category")
	// ErrInUse is returned when deleting a category or subcategory that transactions use.
	ErrInUse = errors.New("store: still used by transactions")
)
