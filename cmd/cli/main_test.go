package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/nett/internal/apiclient"
	"github.com/dvloznov/nett/internal/domain"
	"github.com/dvloznov/nett/internal/onboarding"
	"github.com/dvloznov/nett/internal/table"
	"github.com/shopspring/decimal"
)

func TestSplitIDs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"t1", []string{"t1"}},
		{" t1, ,t2 ,", []string{"t1", "t2"}},
	}
	for _, tt := range tests {
		got := splitIDs(tt.in)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("splitIDs(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		c := table.Confirmation{TargetIDs: []string{"t1", "t2"}, Bulk: true}
		if got := confirm(strings.NewReader(tt.answer), &out, c); got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.answer, got, tt.want)
		}
		if !strings.Contains(out.String(), "delete these 2 transactions") {
			t.Errorf("prompt = %q", out.String())
		}
	}
}

func TestUserMessage(t *testing.T) {
	apiErr := fmt.Errorf("DeleteTransaction: %w", &apiclient.APIError{StatusCode: 404, DisplayMessage: "Transaction t9 not found."})
	if got := userMessage(apiErr); got != "Error: Transaction t9 not found." {
		t.Errorf("api error message = %q", got)
	}
	if got := userMessage(fmt.Errorf("unknown category %q", "Pets")); got != `Error: unknown category "Pets"` {
		t.Errorf("local error message = %q", got)
	}
}

func TestPrintPage(t *testing.T) {
	var buf bytes.Buffer
	p := table.Page{
		Rows: []table.Row{{
			Transaction: domain.Transaction{
				ID:          "t1",
				Name:        "Coffee",
				Amount:      decimal.RequireFromString("4.5"),
				Date:        time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
				AccountName: "Checking",
			},
			CategoryName:    "Food",
			SubcategoryName: "Dining",
			Tone:            domain.ToneCharge,
		}},
		Total:     1,
		PageSize:  25,
		PageCount: 1,
	}
	if err := printPage(&buf, p); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Coffee", "2024-01-05", "$4.50", "Dining", "Page 1 of 1 (1 transactions)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := printPage(&buf, table.Page{Empty: true, EmptyMessage: table.EmptyNoMatches}); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != table.EmptyNoMatches {
		t.Errorf("empty output = %q", buf.String())
	}
}

func TestPalette_Amount(t *testing.T) {
	var buf bytes.Buffer
	pal := newPalette(&buf)

	tests := []struct {
		tone domain.Tone
		want string
	}{
		{domain.ToneCharge, "$4.50"},
		{domain.ToneIncome, "+$4.50"},
		{domain.ToneNeutral, "$4.50"},
	}
	for _, tt := range tests {
		if got := pal.amount("$4.50", tt.tone); got != tt.want {
			t.Errorf("amount(%s) = %q, want %q", tt.tone, got, tt.want)
		}
	}

	if pal.charge.GetForeground() != chargeColor || pal.income.GetForeground() != incomeColor {
		t.Errorf("tone colors = %v, %v", pal.charge.GetForeground(), pal.income.GetForeground())
	}
}

func TestPrintBudgets_ResolvesNames(t *testing.T) {
	cats := domain.Catalog{{
		ID:   "cat-food",
		Name: "Food",
		Subcategories: []domain.Subcategory{
			{ID: "sub-dining", Name: "Dining", CategoryID: "cat-food"},
		},
	}}
	budgets := []domain.Budget{
		{ID: "b1", Amount: decimal.NewFromInt(100), Frequency: domain.FrequencyMonthly, CategoryID: "cat-food", SubcategoryID: "sub-dining"},
		{ID: "b2", Amount: decimal.NewFromInt(50), Frequency: domain.FrequencyWeekly, CategoryID: "cat-gone"},
	}

	var buf bytes.Buffer
	if err := printBudgets(&buf, budgets, cats); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Food", "Dining", "monthly", "$100.00", "cat-gone"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestPrintPeriods_MarksOverspend(t *testing.T) {
	periods := []domain.BudgetPeriod{{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Limit: decimal.NewFromInt(10),
		Spent: decimal.NewFromInt(12),
	}}
	var buf bytes.Buffer
	if err := printPeriods(&buf, periods); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "-$2.00 (over)") {
		t.Errorf("output = %q", buf.String())
	}
}

type memStatus struct {
	done bool
}

func (m *memStatus) Completed() (bool, error) { return m.done, nil }
func (m *memStatus) MarkComplete() error      { m.done = true; return nil }
func (m *memStatus) Reset() error             { m.done = false; return nil }

func TestRunWizard(t *testing.T) {
	cats := []domain.Category{{ID: "c1", Name: "Food"}}

	status := &memStatus{}
	var out bytes.Buffer
	w := onboarding.NewWizard(status)
	if err := runWizard(w, cats, strings.NewReader("n\nb\nn\ns\nn\n"), &out); err != nil {
		t.Fatalf("runWizard: %v", err)
	}
	if !w.Done() || !status.done {
		t.Errorf("done = %v, status = %v", w.Done(), status.done)
	}
	if !strings.Contains(out.String(), "Onboarding complete.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunWizard_NoCategoriesBlocks(t *testing.T) {
	var out bytes.Buffer
	w := onboarding.NewWizard(&memStatus{})
	if err := runWizard(w, nil, strings.NewReader("n\nq\n"), &out); err != nil {
		t.Fatalf("runWizard: %v", err)
	}
	if w.Done() || w.Step() != onboarding.StepCategories {
		t.Errorf("wizard advanced: step = %v, done = %v", w.Step(), w.Done())
	}
	if !strings.Contains(out.String(), onboarding.ErrCategoriesIncomplete.Error()) {
		t.Errorf("output = %q", out.String())
	}
}
