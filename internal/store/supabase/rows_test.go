package supabase

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dvloznov/nett/internal/domain"
)

func TestBuildCatalog(t *testing.T) {
	cats := []categoryRow{
		{ID: "cat-travel", Name: "Travel", Position: 1},
		{ID: "cat-food", Name: "Food", Position: 0},
	}
	subs := []subcategoryRow{
		{ID: "sub-groceries", Name: "Groceries", CategoryID: "cat-food", Position: 1},
		{ID: "sub-dining", Name: "Dining", CategoryID: "cat-food", Position: 0},
		{ID: "sub-lost", Name: "Lost", CategoryID: "cat-gone"},
	}

	catalog := buildCatalog(cats, subs)
	if len(catalog) != 2 || catalog[0].ID != "cat-food" {
		t.Fatalf("catalog = %+v", catalog)
	}
	if got := catalog[0].Subcategories; len(got) != 2 || got[0].Name != "Dining" {
		t.Errorf("Food subcategories = %+v", got)
	}
	if len(catalog[1].Subcategories) != 0 {
		t.Errorf("Travel subcategories = %+v", catalog[1].Subcategories)
	}
}

func TestAssemble(t *testing.T) {
	raw := `[
		{"id": "t1", "name": "Coffee Shop", "amount": 4.5, "date": "2024-01-05",
		 "account_id": "acc-1", "category_id": "cat-food", "subcategory_id": "sub-dining"},
		{"id": "t2", "name": "Grocery Store", "amount": "82.10", "date": "2024-01-10T00:00:00Z",
		 "account_id": "acc-1", "category_id": "cat-food", "subcategory_id": null},
		{"id": "t3", "name": "Mystery", "amount": 1, "date": "2024-01-10",
		 "account_id": "acc-9", "category_id": null}
	]`
	var rows []transactionRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	catalog := buildCatalog(
		[]categoryRow{{ID: "cat-food", Name: "Food"}},
		[]subcategoryRow{{ID: "sub-dining", Name: "Dining", CategoryID: "cat-food"}},
	)
	accounts := map[string]domain.Account{
		"acc-1": {ID: "acc-1", Name: "Checking", Type: domain.AccountTypeDepository},
	}

	txns, err := assemble(rows, catalog, accounts)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	if len(txns) != 3 || txns[0].ID != "t2" || txns[1].ID != "t3" || txns[2].ID != "t1" {
		t.Fatalf("order = %v", txns)
	}
	coffee := txns[2]
	if coffee.CategoryName() != "Food" || coffee.SubcategoryName() != "Dining" || coffee.AccountName != "Checking" {
		t.Errorf("coffee = %+v", coffee)
	}
	if !coffee.Date.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", coffee.Date)
	}
	if txns[0].Subcategory != nil || txns[1].Category != nil || txns[1].AccountName != "" {
		t.Errorf("unexpected joins: %+v / %+v", txns[0], txns[1])
	}
}

func TestAssemble_BadDate(t *testing.T) {
	rows := []transactionRow{{ID: "t1", Date: "yesterday"}}
	if _, err := assemble(rows, nil, nil); err == nil {
		t.Error("expected error for unparseable date")
	}
}

func TestUpdateColumns(t *testing.T) {
	current := domain.Transaction{
		Category:    &domain.Category{ID: "cat-food"},
		Subcategory: &domain.Subcategory{ID: "sub-dining", CategoryID: "cat-food"},
	}
	name := "Latte"

	cols := updateColumns(current, domain.TransactionUpdate{Name: &name})
	if len(cols) != 1 || cols["name"] != "Latte" {
		t.Errorf("rename columns = %v", cols)
	}

	cols = updateColumns(current, domain.TransactionUpdate{Category: &domain.Category{ID: "cat-travel"}})
	if v, ok := cols["subcategory_id"]; !ok || v != nil {
		t.Errorf("category change columns = %v, want subcategory_id cleared", cols)
	}

	cols = updateColumns(current, domain.TransactionUpdate{ClearSubcategory: true})
	body, _ := json.Marshal(cols)
	if string(body) != `{"subcategory_id":null}` {
		t.Errorf("clear body = %s", body)
	}
}
