package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/dvloznov/nett/internal/domain"
	"github.com/dvloznov/nett/internal/store"
)

func budgetSelect(ds Dataset) string {
	return `
		SELECT budget_id, amount, frequency, category_id, subcategory_id
		FROM ` + ds.Table(budgetsTable) + `
	`
}

func readBudgets(ctx context.Context, q *bigquery.Query) ([]domain.Budget, error) {
	return readRows(ctx, q, (*BudgetRow).toDomain)
}

// ListBudgetsWithClient returns every budget.
func ListBudgetsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset) ([]domain.Budget, error) {
	budgets, err := readBudgets(ctx, client.Query(budgetSelect(ds)+"ORDER BY budget_id"))
	if err != nil {
		return nil, fmt.Errorf("ListBudgets: %w", err)
	}
	return budgets, nil
}

// GetBudgetWithClient returns one budget or store.ErrNotFound.
func GetBudgetWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, id string) (*domain.Budget, error) {
	q := client.Query(budgetSelect(ds) + "WHERE budget_id = @budget_id")
	q.Parameters = []bigquery.QueryParameter{{Name: "budget_id", Value: id}}

	budgets, err := readBudgets(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("GetBudget: %w", err)
	}
	if len(budgets) == 0 {
		return nil, fmt.Errorf("GetBudget %s: %w", id, store.ErrNotFound)
	}
	return &budgets[0], nil
}

func budgetParams(b domain.Budget) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "budget_id", Value: b.ID},
		{Name: "amount", Value: decimalToRat(b.Amount)},
		{Name: "frequency", Value: string(b.Frequency)},
		{Name: "category_id", Value: b.CategoryID},
		{Name: "subcategory_id", Value: nullString(b.SubcategoryID)},
	}
}

// CreateBudgetWithClient inserts b, assigning an id when it has none.
func CreateBudgetWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, b *domain.Budget) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}

	q := client.Query(`
		INSERT INTO ` + ds.Table(budgetsTable) + `
		  (budget_id, amount, frequency, category_id, subcategory_id)
		VALUES
		  (@budget_id, @amount, @frequency, @category_id, @subcategory_id)
	`)
	q.Parameters = budgetParams(*b)

	if _, err := runDML(ctx, q); err != nil {
		return fmt.Errorf("CreateBudget: %w", err)
	}
	return nil
}

// UpdateBudgetWithClient replaces the stored budget with b.
func UpdateBudgetWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, b domain.Budget) error {
	q := client.Query(`
		UPDATE ` + ds.Table(budgetsTable) + `
		SET amount = @amount,
		    frequency = @frequency,
		    category_id = @category_id,
		    subcategory_id = @subcategory_id
		WHERE budget_id = @budget_id
	`)
	q.Parameters = budgetParams(b)

	n, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("UpdateBudget: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("UpdateBudget %s: %w", b.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteBudgetWithClient removes one budget or returns store.ErrNotFound.
func DeleteBudgetWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, id string) error {
	q := client.Query(`
		DELETE FROM ` + ds.Table(budgetsTable) + `
		WHERE budget_id = @budget_id
	`)
	q.Parameters = []bigquery.QueryParameter{{Name: "budget_id", Value: id}}

	n, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("DeleteBudget: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("DeleteBudget %s: %w", id, store.ErrNotFound)
	}
	return nil
}
