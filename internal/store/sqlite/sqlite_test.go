package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/nett/internal/domain"
	"github.com/dvloznov/nett/internal/store"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "nett.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	food := domain.Category{ID: "cat-food", Name: "Food", Subcategories: []domain.Subcategory{
		{ID: "sub-dining", Name: "Dining", CategoryID: "cat-food"},
		{ID: "sub-groceries", Name: "Groceries", CategoryID: "cat-food"},
	}}
	travel := domain.Category{ID: "cat-travel", Name: "Travel", Subcategories: []domain.Subcategory{
		{ID: "sub-airfare", Name: "Airfare", CategoryID: "cat-travel"},
	}}
	balance := decimal.RequireFromString("1200.50")

	snap := Snapshot{
		Categories: []domain.Category{food, travel},
		Accounts: []domain.Account{
			{ID: "acc-1", Name: "Checking", Type: domain.AccountTypeDepository, Balance: &balance},
			{ID: "acc-2", Name: "Credit Card", Type: domain.AccountTypeCredit},
		},
		Transactions: []domain.Transaction{
			{
				ID: "t1", Name: "Coffee Shop", Amount: decimal.RequireFromString("4.50"),
				Category: &food, Subcategory: &food.Subcategories[0],
				Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), AccountID: "acc-1",
			},
			{
				ID: "t2", Name: "Grocery Store", Amount: decimal.RequireFromString("82.10"),
				Category: &food, Subcategory: &food.Subcategories[1],
				Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), AccountID: "acc-1",
			},
			{
				ID: "t3", Name: "Airline", Amount: decimal.RequireFromString("420"),
				Category: &travel, Subcategory: &travel.Subcategories[0],
				Date: time.Date(2023, 12, 20, 0, 0, 0, 0, time.UTC), AccountID: "acc-2",
			},
		},
		Budgets: []domain.Budget{
			{ID: "b1", Amount: decimal.RequireFromString("300"), Frequency: domain.FrequencyMonthly, CategoryID: "cat-food"},
		},
	}
	if err := repo.Import(context.Background(), snap); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	return repo
}

func TestListCategories(t *testing.T) {
	repo := newTestRepository(t)

	cats, err := repo.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	if len(cats) != 2 || cats[0].Name != "Food" || cats[1].Name != "Travel" {
		t.Fatalf("categories = %+v", cats)
	}
	subs := cats[0].Subcategories
	if len(subs) != 2 || subs[0].Name != "Dining" || subs[1].Name != "Groceries" {
		t.Errorf("Food subcategories = %+v", subs)
	}
}

func TestListTransactions(t *testing.T) {
	repo := newTestRepository(t)

	txns, err := repo.ListTransactions(context.Background())
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txns))
	}
	if txns[0].ID != "t2" || txns[2].ID != "t3" {
		t.Errorf("order = %s,%s,%s, want newest first", txns[0].ID, txns[1].ID, txns[2].ID)
	}
	got := txns[0]
	if got.CategoryName() != "Food" || got.SubcategoryName() != "Groceries" {
		t.Errorf("category = %q/%q", got.CategoryName(), got.SubcategoryName())
	}
	if got.AccountName != "Checking" || got.AccountType != domain.AccountTypeDepository {
		t.Errorf("account = %q (%s)", got.AccountName, got.AccountType)
	}
	if !got.Amount.Equal(decimal.RequireFromString("82.10")) {
		t.Errorf("Amount = %s", got.Amount)
	}
}

func TestListAccountTransactions(t *testing.T) {
	repo := newTestRepository(t)

	txns, err := repo.ListAccountTransactions(context.Background(), "acc-2")
	if err != nil {
		t.Fatalf("ListAccountTransactions failed: %v", err)
	}
	if len(txns) != 1 || txns[0].ID != "t3" {
		t.Errorf("got %+v, want only t3", txns)
	}
}

func TestListAccounts(t *testing.T) {
	repo := newTestRepository(t)

	accounts, err := repo.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("got %d accounts", len(accounts))
	}
	checking := accounts[0]
	if checking.Name != "Checking" || checking.TransactionCount != 2 {
		t.Errorf("checking = %+v", checking)
	}
	if checking.Balance == nil || !checking.Balance.Equal(decimal.RequireFromString("1200.50")) {
		t.Errorf("checking balance = %v", checking.Balance)
	}
	if accounts[1].Balance != nil {
		t.Errorf("credit card balance = %v, want nil", accounts[1].Balance)
	}
}

func TestUpdateTransaction(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	cats, _ := repo.ListCategories(ctx)
	food, travel := cats[0], cats[1]

	tests := []struct {
		name    string
		update  domain.TransactionUpdate
		wantCat string
		wantSub string
		wantErr error
	}{
		{
			name:    "rename",
			update:  domain.TransactionUpdate{Name: strPtr("Latte")},
			wantCat: "Food", wantSub: "Dining",
		},
		{
			name:    "change subcategory",
			update:  domain.TransactionUpdate{Subcategory: &food.Subcategories[1]},
			wantCat: "Food", wantSub: "Groceries",
		},
		{
			name:    "change category drops foreign subcategory",
			update:  domain.TransactionUpdate{Category: &travel},
			wantCat: "Travel", wantSub: "",
		},
		{
			name:    "change category with first subcategory",
			update:  domain.TransactionUpdate{Category: &travel, Subcategory: &travel.Subcategories[0]},
			wantCat: "Travel", wantSub: "Airfare",
		},
		{
			name:    "clear subcategory",
			update:  domain.TransactionUpdate{ClearSubcategory: true},
			wantCat: "Food", wantSub: "",
		},
		{
			name:    "subcategory from another category",
			update:  domain.TransactionUpdate{Subcategory: &travel.Subcategories[0]},
			wantErr: store.ErrSubcategoryMismatch,
		},
		{
			name:    "unknown category",
			update:  domain.TransactionUpdate{Category: &domain.Category{ID: "cat-nope", Name: "Nope"}},
			wantErr: store.ErrNotFound,
		},
		{
			name:    "empty update",
			update:  domain.TransactionUpdate{},
			wantErr: store.ErrEmptyUpdate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestRepository(t)
			got, err := repo.UpdateTransaction(ctx, "t1", tt.update)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateTransaction failed: %v", err)
			}
			if got.CategoryName() != tt.wantCat || got.SubcategoryName() != tt.wantSub {
				t.Errorf("category = %q/%q, want %q/%q", got.CategoryName(), got.SubcategoryName(), tt.wantCat, tt.wantSub)
			}
		})
	}
}

func TestUpdateTransaction_NotFound(t *testing.T) {
	repo := newTestRepository(t)
	_, err := repo.UpdateTransaction(context.Background(), "missing", domain.TransactionUpdate{Name: strPtr("x")})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteTransaction(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	if err := repo.DeleteTransaction(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTransaction failed: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, "t1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetTransaction after delete: err = %v", err)
	}
	if err := repo.DeleteTransaction(ctx, "t1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestBudgets(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	b := domain.Budget{
		Amount:        decimal.RequireFromString("50"),
		Frequency:     domain.FrequencyWeekly,
		CategoryID:    "cat-food",
		SubcategoryID: "sub-dining",
	}
	if err := repo.CreateBudget(ctx, &b); err != nil {
		t.Fatalf("CreateBudget failed: %v", err)
	}
	if b.ID == "" {
		t.Fatal("CreateBudget did not assign an id")
	}

	b.Amount = decimal.RequireFromString("75")
	if err := repo.UpdateBudget(ctx, b); err != nil {
		t.Fatalf("UpdateBudget failed: %v", err)
	}
	got, err := repo.GetBudget(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBudget failed: %v", err)
	}
	if !got.Amount.Equal(decimal.RequireFromString("75")) || got.SubcategoryID != "sub-dining" {
		t.Errorf("budget = %+v", got)
	}

	all, err := repo.ListBudgets(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListBudgets = %v, %v; want 2 budgets", all, err)
	}

	if err := repo.DeleteBudget(ctx, b.ID); err != nil {
		t.Fatalf("DeleteBudget failed: %v", err)
	}
	if err := repo.DeleteBudget(ctx, b.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second DeleteBudget: err = %v", err)
	}
	if err := repo.UpdateBudget(ctx, b); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateBudget of deleted budget: err = %v", err)
	}
}

func strPtr(s string) *string { return &s }
