// Package sqlite is the gorm-backed SQLite implementation of the record store.
package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dvloznov/nett/internal/domain"
	"github.com/dvloznov/nett/internal/store"
)

// Repository implements store.TransactionRepository and store.BudgetRepository.
type Repository struct {
	db *gorm.DB
}

var (
	_ store.TransactionRepository = (*Repository)(nil)
	_ store.BudgetRepository      = (*Repository)(nil)
)

// Open connects to the database at dbPath and migrates the schema.
func Open(dbPath string) (*Repository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite.Open: connecting to database: %w", err)
	}
	if err := db.AutoMigrate(&Category{}, &Subcategory{}, &Account{}, &Transaction{}, &Budget{}); err != nil {
		return nil, fmt.Errorf("sqlite.Open: migrating schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("sqlite.Close: %w", err)
	}
	return sqlDB.Close()
}

func orderedSubcategories(db *gorm.DB) *gorm.DB {
	return db.Order("position, id")
}

func (r *Repository) transactions(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Category").
		Preload("Category.Subcategories", orderedSubcategories).
		Preload("Subcategory").
		Preload("Account")
}

// ListCategories returns categories with their subcategories in display order.
func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var rows []Category
	err := r.db.WithContext(ctx).
		Preload("Subcategories", orderedSubcategories).
		Order("position, name").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ListCategories: %w", err)
	}
	out := make([]domain.Category, 0, len(rows))
	for i := range rows {
		out = append(out, categoryToDomain(&rows[i]))
	}
	return out, nil
}

// ListTransactions returns every transaction, newest first.
func (r *Repository) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	var rows []Transaction
	if err := r.transactions(ctx).Order("date DESC, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return toDomainTransactions(rows), nil
}

// ListAccountTransactions returns the transactions of one account, newest first.
func (r *Repository) ListAccountTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	var rows []Transaction
	err := r.transactions(ctx).
		Where("account_id = ?", accountID).
		Order("date DESC, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ListAccountTransactions: %w", err)
	}
	return toDomainTransactions(rows), nil
}

func toDomainTransactions(rows []Transaction) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, transactionToDomain(&rows[i]))
	}
	return out
}

// ListAccounts returns accounts with their transaction counts.
func (r *Repository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	var rows []Account
	if err := r.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}

	var counts []struct {
		AccountID string
		N         int
	}
	err := r.db.WithContext(ctx).Model(&Transaction{}).
		Select("account_id, COUNT(*) AS n").
		Group("account_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: counting transactions: %w", err)
	}
	byAccount := make(map[string]int, len(counts))
	for _, c := range counts {
		byAccount[c.AccountID] = c.N
	}

	out := make([]domain.Account, 0, len(rows))
	for i := range rows {
		a := accountToDomain(&rows[i])
		a.TransactionCount = byAccount[a.ID]
		out = append(out, a)
	}
	return out, nil
}

// GetTransaction returns one transaction or store.ErrNotFound.
func (r *Repository) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	var row Transaction
	err := r.transactions(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("GetTransaction %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	txn := transactionToDomain(&row)
	return &txn, nil
}

// UpdateTransaction writes the set fields of update. A category change without a
// subcategory drops a subcategory that no longer belongs to the new category.
func (r *Repository) UpdateTransaction(ctx context.Context, id string, update domain.TransactionUpdate) (*domain.Transaction, error) {
	current, err := r.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := store.ValidateUpdate(*current, update); err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}

	columns := map[string]interface{}{}
	if update.Name != nil {
		columns["name"] = *update.Name
	}
	if update.Category != nil {
		var cat Category
		err := r.db.WithContext(ctx).Where("id = ?", update.Category.ID).First(&cat).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("UpdateTransaction: category %s: %w", update.Category.ID, store.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("UpdateTransaction: looking up category: %w", err)
		}
		columns["category_id"] = cat.ID
		if update.Subcategory == nil && current.Subcategory != nil && current.Subcategory.CategoryID != cat.ID {
			columns["subcategory_id"] = nil
		}
	}
	switch {
	case update.ClearSubcategory:
		columns["subcategory_id"] = nil
	case update.Subcategory != nil:
		columns["subcategory_id"] = update.Subcategory.ID
	}

	if err := r.db.WithContext(ctx).Model(&Transaction{ID: id}).Updates(columns).Error; err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}
	return r.GetTransaction(ctx, id)
}

// DeleteTransaction removes one transaction or returns store.ErrNotFound.
func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&Transaction{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("DeleteTransaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("DeleteTransaction %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// ListBudgets returns every budget.
func (r *Repository) ListBudgets(ctx context.Context) ([]domain.Budget, error) {
	var rows []Budget
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ListBudgets: %w", err)
	}
	out := make([]domain.Budget, 0, len(rows))
	for i := range rows {
		out = append(out, budgetToDomain(&rows[i]))
	}
	return out, nil
}

// GetBudget returns one budget or store.ErrNotFound.
func (r *Repository) GetBudget(ctx context.Context, id string) (*domain.Budget, error) {
	var row Budget
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("GetBudget %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetBudget: %w", err)
	}
	b := budgetToDomain(&row)
	return &b, nil
}

// CreateBudget stores b, assigning an id when it has none.
func (r *Repository) CreateBudget(ctx context.Context, b *domain.Budget) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	row := Budget{
		ID:            b.ID,
		Amount:        b.Amount,
		Frequency:     string(b.Frequency),
		CategoryID:    b.CategoryID,
		SubcategoryID: optional(b.SubcategoryID),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("CreateBudget: %w", err)
	}
	return nil
}

// UpdateBudget replaces the stored budget with b.
func (r *Repository) UpdateBudget(ctx context.Context, b domain.Budget) error {
	res := r.db.WithContext(ctx).Model(&Budget{ID: b.ID}).Updates(map[string]interface{}{
		"amount":         b.Amount,
		"frequency":      string(b.Frequency),
		"category_id":    b.CategoryID,
		"subcategory_id": optional(b.SubcategoryID),
	})
	if res.Error != nil {
		return fmt.Errorf("UpdateBudget: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("UpdateBudget %s: %w", b.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteBudget removes one budget or returns store.ErrNotFound.
func (r *Repository) DeleteBudget(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&Budget{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("DeleteBudget: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("DeleteBudget %s: %w", id, store.ErrNotFound)
	}
	return nil
}
