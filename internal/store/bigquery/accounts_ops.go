package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/nett/internal/domain"
)

// ListAccountsWithClient retrieves all accounts with their transaction counts.
func ListAccountsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset) ([]domain.Account, error) {
	query := `
		SELECT
			a.account_id,
			a.account_name,
			a.account_type,
			a.account_subtype,
			a.balance,
			a.institution_name,
			a.logo,
			a.updated_ts,
			COUNT(t.transaction_id) AS transaction_count
		FROM ` + ds.Table(accountsTable) + ` a
		LEFT JOIN ` + ds.Table(transactionsTable) + ` t
		  ON t.account_id = a.account_id
		GROUP BY
			a.account_id, a.account_name, a.account_type, a.account_subtype,
			a.balance, a.institution_name, a.logo, a.updated_ts
		ORDER BY a.account_name
	`

	accounts, err := readRows(ctx, client.Query(query), (*AccountRow).toDomain)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return accounts, nil
}
