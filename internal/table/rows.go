package table

import (
	"strings"

	"github.com/dvloznov/nett/internal/domain"
)

// Row is a transaction flattened for display.
type Row struct {
	domain.Transaction
	CategoryName    string
	SubcategoryName string
	Tone            domain.Tone

	search string
}

// SearchText returns the lowercase blob free-text queries are matched against.
func (r Row) SearchText() string {
	return r.search
}

func newRow(t domain.Transaction, policy domain.AmountPolicy) Row {
	r := Row{
		Transaction:     t.Clone(),
		CategoryName:    t.CategoryName(),
		SubcategoryName: t.SubcategoryName(),
		Tone:            policy.Tone(t.Amount, t.AccountType),
	}
	r.search = strings.ToLower(strings.Join([]string{t.Name, r.CategoryName, r.SubcategoryName, t.AccountName}, " "))
	return r
}

func buildRows(txns []domain.Transaction, policy domain.AmountPolicy) []Row {
	rows := make([]Row, len(txns))
	for i, t := range txns {
		rows[i] = newRow(t, policy)
	}
	return rows
}
