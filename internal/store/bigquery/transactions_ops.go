package bigquery

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/nett/internal/domain"
	"github.com/dvloznov/nett/internal/store"
)

// transactionSelect joins transactions with account and category names.
// Callers append WHERE and ORDER BY clauses.
func transactionSelect(ds Dataset) string {
	return `
		SELECT
			t.transaction_id,
			t.name,
			t.amount,
			t.transaction_date,
			t.account_id,
			a.account_name,
			a.account_type,
			t.category_id,
			c.name AS category_name,
			t.subcategory_id,
			s.name AS subcategory_name,
			t.logo_url
		FROM ` + ds.Table(transactionsTable) + ` t
		LEFT JOIN ` + ds.Table(accountsTable) + ` a
		  ON t.account_id = a.account_id
		LEFT JOIN ` + ds.Table(categoriesTable) + ` c
		  ON t.category_id = c.category_id
		LEFT JOIN ` + ds.Table(categoriesTable) + ` s
		  ON t.subcategory_id = s.category_id
	`
}

func readTransactions(ctx context.Context, q *bigquery.Query, catalog domain.Catalog) ([]domain.Transaction, error) {
	return readRows(ctx, q, func(r *TransactionRow) domain.Transaction {
		return r.toDomain(catalog)
	})
}

// ListTransactionsWithClient returns transactions newest first. A non-empty accountID
// limits the result to that account.
func ListTransactionsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, accountID string) ([]domain.Transaction, error) {
	catalog, err := ListCategoriesWithClient(ctx, client, ds)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}

	sql := transactionSelect(ds)
	var params []bigquery.QueryParameter
	if accountID != "" {
		sql += "WHERE t.account_id = @account_id\n"
		params = append(params, bigquery.QueryParameter{Name: "account_id", Value: accountID})
	}
	sql += "ORDER BY t.transaction_date DESC, t.transaction_id"

	q := client.Query(sql)
	q.Parameters = params

	txns, err := readTransactions(ctx, q, catalog)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return txns, nil
}

// GetTransactionWithClient returns one transaction or store.ErrNotFound.
func GetTransactionWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, id string) (*domain.Transaction, error) {
	catalog, err := ListCategoriesWithClient(ctx, client, ds)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}

	q := client.Query(transactionSelect(ds) + "WHERE t.transaction_id = @transaction_id\nLIMIT 1")
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: id},
	}

	txns, err := readTransactions(ctx, q, catalog)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	if len(txns) == 0 {
		return nil, fmt.Errorf("GetTransaction %s: %w", id, store.ErrNotFound)
	}
	return &txns[0], nil
}

// buildUpdateQuery renders the UPDATE statement for the set fields of update.
// current is used to drop a subcategory that does not belong to a new category.
func buildUpdateQuery(ds Dataset, id string, current domain.Transaction, update domain.TransactionUpdate) (string, []bigquery.QueryParameter) {
	var sets []string
	params := []bigquery.QueryParameter{{Name: "transaction_id", Value: id}}

	if update.Name != nil {
		sets = append(sets, "name = @name")
		params = append(params, bigquery.QueryParameter{Name: "name", Value: *update.Name})
	}
	if update.Category != nil {
		sets = append(sets, "category_id = @category_id")
		params = append(params, bigquery.QueryParameter{Name: "category_id", Value: update.Category.ID})
	}

	switch {
	case update.ClearSubcategory:
		sets = append(sets, "subcategory_id = NULL")
	case update.Subcategory != nil:
		sets = append(sets, "subcategory_id = @subcategory_id")
		params = append(params, bigquery.QueryParameter{Name: "subcategory_id", Value: update.Subcategory.ID})
	case update.Category != nil && current.Subcategory != nil && current.Subcategory.CategoryID != update.Category.ID:
		sets = append(sets, "subcategory_id = NULL")
	}

	sets = append(sets, "updated_ts = CURRENT_TIMESTAMP()")

	sql := fmt.Sprintf("UPDATE %s\nSET %s\nWHERE transaction_id = @transaction_id",
		ds.Table(transactionsTable), strings.Join(sets, ", "))
	return sql, params
}

// UpdateTransactionWithClient applies update with a DML statement and returns the stored row.
func UpdateTransactionWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, id string, update domain.TransactionUpdate) (*domain.Transaction, error) {
	current, err := GetTransactionWithClient(ctx, client, ds, id)
	if err != nil {
		return nil, err
	}
	if err := store.ValidateUpdate(*current, update); err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}
	if update.Category != nil {
		catalog, err := ListCategoriesWithClient(ctx, client, ds)
		if err != nil {
			return nil, fmt.Errorf("UpdateTransaction: %w", err)
		}
		if _, ok := catalog.ByID(update.Category.ID); !ok {
			return nil, fmt.Errorf("UpdateTransaction: category %s: %w", update.Category.ID, store.ErrNotFound)
		}
	}

	sql, params := buildUpdateQuery(ds, id, *current, update)
	q := client.Query(sql)
	q.Parameters = params

	if _, err := runDML(ctx, q); err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}
	return GetTransactionWithClient(ctx, client, ds, id)
}

// DeleteTransactionWithClient deletes one transaction or returns store.ErrNotFound.
func DeleteTransactionWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, id string) error {
	q := client.Query(`
		DELETE FROM ` + ds.Table(transactionsTable) + `
		WHERE transaction_id = @transaction_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: id},
	}

	n, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("DeleteTransaction %s: %w", id, store.ErrNotFound)
	}
	return nil
}
