// Package export writes the table's current view as CSV to a file or to
// Google Cloud Storage.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/dvloznov/nett/internal/table"
)

// Header is the CSV header row.
var Header = []string{"id", "date", "name", "amount", "category", "subcategory", "account"}

// WriteCSV writes rows in the order given, one record per row.
func WriteCSV(w io.Writer, rows []table.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("WriteCSV: writing header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.ID,
			r.Date.Format(time.DateOnly),
			r.Name,
			r.Amount.StringFixed(2),
			r.CategoryName,
			r.SubcategoryName,
			r.AccountName,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("WriteCSV: writing %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("WriteCSV: %w", err)
	}
	return nil
}
