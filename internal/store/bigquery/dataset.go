// Package bigquery is the BigQuery implementation of the record store.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const (
	transactionsTable = "transactions"
	categoriesTable   = "categories"
	accountsTable     = "accounts"
	budgetsTable      = "budgets"
	dateFormat        = "2006-01-02"
)

// Dataset names the project and dataset holding the record tables.
type Dataset struct {
	Project string
	Name    string
}

// Table returns the fully qualified, backquoted name of table.
func (d Dataset) Table(table string) string {
	return fmt.Sprintf("`%s.%s.%s`", d.Project, d.Name, table)
}

// runDML runs a DML statement and returns the number of affected rows.
func runDML(ctx context.Context, q *bigquery.Query) (int64, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("wait for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}

	if status.Statistics == nil {
		return 0, nil
	}
	if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		return qs.NumDMLAffectedRows, nil
	}
	return 0, nil
}

// readRows runs q and converts every result row with conv.
func readRows[R, T any](ctx context.Context, q *bigquery.Query, conv func(*R) T) ([]T, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query read: %w", err)
	}

	var out []T
	for {
		var row R
		switch err := it.Next(&row); {
		case err == iterator.Done:
			return out, nil
		case err != nil:
			return nil, fmt.Errorf("row %d: %w", len(out), err)
		}
		out = append(out, conv(&row))
	}
}
