package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"2024-01-05T10:00:00Z", time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC), false},
		{"Fri, 05 Jan 2024 10:00:00 GMT", time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC), false},
		{"2024-01-05 10:00:00", time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC), false},
		{"2024-01-05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), false},
		{"", time.Time{}, false},
		{"None", time.Time{}, false},
		{"5th of January", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTransactionUnmarshalJSON(t *testing.T) {
	raw := `{
		"id": "txn-1",
		"name": "Coffee Shop",
		"amount": 4.5,
		"category": {"id": "cat-1", "name": "Food", "subcategories": [
			{"id": "sub-1", "name": "Dining", "description": "Dining out", "category_id": "cat-1"}
		]},
		"subcategory": {"id": "sub-1", "name": "Dining", "description": "Dining out", "category_id": "cat-1"},
		"date": "Fri, 05 Jan 2024 10:00:00 GMT",
		"account_id": "acc-1",
		"account_name": "Checking",
		"logo_url": "https://logo.test/coffee.png"
	}`

	var txn Transaction
	if err := json.Unmarshal([]byte(raw), &txn); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if txn.ID != "txn-1" || txn.Name != "Coffee Shop" {
		t.Errorf("unexpected identity fields: %+v", txn)
	}
	if !txn.Amount.Equal(decimal.RequireFromString("4.5")) {
		t.Errorf("Amount = %s, want 4.5", txn.Amount)
	}
	if txn.CategoryName() != "Food" || txn.SubcategoryName() != "Dining" {
		t.Errorf("category = %q/%q", txn.CategoryName(), txn.SubcategoryName())
	}
	if !txn.Date.Equal(time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", txn.Date)
	}
}

func TestTransactionUpdate_MarshalWithID(t *testing.T) {
	name := "Latte"
	body, err := TransactionUpdate{Name: &name}.MarshalWithID("txn-1")
	if err != nil {
		t.Fatalf("MarshalWithID failed: %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(got) != 2 || got["id"] != "txn-1" || got["name"] != "Latte" {
		t.Errorf("body = %s, want only id and name", body)
	}
	if strings.Contains(string(body), "category") {
		t.Errorf("body should not carry unchanged fields: %s", body)
	}
}

func TestCategorySubcategory(t *testing.T) {
	food := Category{ID: "cat-1", Name: "Food", Subcategories: []Subcategory{
		{ID: "sub-1", Name: "Dining", CategoryID: "cat-1"},
		{ID: "sub-2", Name: "Groceries", CategoryID: "cat-1"},
		{ID: "sub-9", Name: "Airfare", CategoryID: "cat-2"},
	}}

	if s, ok := food.Subcategory("Groceries"); !ok || s.ID != "sub-2" {
		t.Errorf("Subcategory(Groceries) = %v, %v", s, ok)
	}
	if _, ok := food.Subcategory("Airfare"); ok {
		t.Error("Subcategory should reject entries belonging to another category")
	}
	if first := food.FirstSubcategory(); first == nil || first.Name != "Dining" {
		t.Errorf("FirstSubcategory() = %v", first)
	}
	empty := Category{ID: "cat-3", Name: "Empty"}
	if empty.FirstSubcategory() != nil {
		t.Error("FirstSubcategory() of empty category should be nil")
	}
}

func TestAmountPolicy_Tone(t *testing.T) {
	policy := DefaultAmountPolicy()

	tests := []struct {
		name   string
		amount string
		typ    AccountType
		want   Tone
	}{
		{"depository positive is a charge", "4.50", AccountTypeDepository, ToneCharge},
		{"depository negative is income", "-4.50", AccountTypeDepository, ToneIncome},
		{"credit positive is income", "4.50", AccountTypeCredit, ToneIncome},
		{"credit negative is a charge", "-4.50", AccountTypeCredit, ToneCharge},
		{"unknown type uses default", "4.50", "", ToneCharge},
		{"zero is neutral", "0", AccountTypeDepository, ToneNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.Tone(decimal.RequireFromString(tt.amount), tt.typ)
			if got != tt.want {
				t.Errorf("Tone(%s, %s) = %s, want %s", tt.amount, tt.typ, got, tt.want)
			}
		})
	}
}

func TestTransactionUpdate_ClearSubcategory(t *testing.T) {
	travel := Category{ID: "cat-2", Name: "Travel"}
	upd := TransactionUpdate{Category: &travel, ClearSubcategory: true}

	txn := Transaction{
		ID:          "txn-1",
		Category:    &Category{ID: "cat-1", Name: "Food"},
		Subcategory: &Subcategory{ID: "sub-1", Name: "Dining", CategoryID: "cat-1"},
	}
	upd.Apply(&txn)
	if txn.Subcategory != nil {
		t.Errorf("Subcategory = %v, want nil", txn.Subcategory)
	}
	if txn.CategoryName() != "Travel" {
		t.Errorf("CategoryName() = %q, want Travel", txn.CategoryName())
	}

	body, err := upd.MarshalWithID("txn-1")
	if err != nil {
		t.Fatalf("MarshalWithID failed: %v", err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	sub, present := got["subcategory"]
	if !present || sub != nil {
		t.Errorf("body = %s, want explicit null subcategory", body)
	}
	if fields := upd.Fields(); len(fields) != 2 {
		t.Errorf("Fields() = %v, want category and subcategory", fields)
	}
}
