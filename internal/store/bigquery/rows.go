package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/nett/internal/domain"
)

// TransactionRow is a transaction joined with its account and category names.
type TransactionRow struct {
	TransactionID   string              `bigquery:"transaction_id"`   // REQUIRED
	Name            string              `bigquery:"name"`             // REQUIRED
	Amount          *big.Rat            `bigquery:"amount"`           // REQUIRED NUMERIC
	TransactionDate civil.Date          `bigquery:"transaction_date"` // REQUIRED
	AccountID       string              `bigquery:"account_id"`       // REQUIRED
	AccountName     bigquery.NullString `bigquery:"account_name"`     // from accounts
	AccountType     bigquery.NullString `bigquery:"account_type"`     // from accounts
	CategoryID      bigquery.NullString `bigquery:"category_id"`      // NULLABLE
	CategoryName    bigquery.NullString `bigquery:"category_name"`    // from categories
	SubcategoryID   bigquery.NullString `bigquery:"subcategory_id"`   // NULLABLE
	SubcategoryName bigquery.NullString `bigquery:"subcategory_name"` // from categories
	LogoURL         bigquery.NullString `bigquery:"logo_url"`         // NULLABLE
}

// CategoryRow is one node of the two-level category tree. Top-level categories have
// no parent; subcategories point at their category through ParentCategoryID.
type CategoryRow struct {
	CategoryID       string              `bigquery:"category_id"`        // REQUIRED
	ParentCategoryID bigquery.NullString `bigquery:"parent_category_id"` // NULLABLE
	Name             string              `bigquery:"name"`               // REQUIRED
	Description      bigquery.NullString `bigquery:"description"`        // NULLABLE
	Position         int64               `bigquery:"position"`
}

// AccountRow is an account with its transaction count.
type AccountRow struct {
	AccountID        string                 `bigquery:"account_id"` // REQUIRED
	AccountName      string                 `bigquery:"account_name"`
	AccountType      string                 `bigquery:"account_type"`
	AccountSubtype   bigquery.NullString    `bigquery:"account_subtype"`
	Balance          *big.Rat               `bigquery:"balance"` // NULLABLE NUMERIC
	InstitutionName  bigquery.NullString    `bigquery:"institution_name"`
	Logo             bigquery.NullString    `bigquery:"logo"`
	UpdatedTS        bigquery.NullTimestamp `bigquery:"updated_ts"`
	TransactionCount int64                  `bigquery:"transaction_count"`
}

// BudgetRow is a stored budget.
type BudgetRow struct {
	BudgetID      string              `bigquery:"budget_id"` // REQUIRED
	Amount        *big.Rat            `bigquery:"amount"`    // REQUIRED NUMERIC
	Frequency     string              `bigquery:"frequency"` // REQUIRED
	CategoryID    string              `bigquery:"category_id"`
	SubcategoryID bigquery.NullString `bigquery:"subcategory_id"`
}

func ratToDecimal(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigRat(r, 9)
}

func decimalToRat(d decimal.Decimal) *big.Rat {
	return d.Rat()
}

func dateToTime(d civil.Date) time.Time {
	return d.In(time.UTC)
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

// toDomain maps a joined row onto a transaction. catalog supplies the full category,
// including its subcategories, when the row's category is known.
func (r *TransactionRow) toDomain(catalog domain.Catalog) domain.Transaction {
	txn := domain.Transaction{
		ID:          r.TransactionID,
		Name:        r.Name,
		Amount:      ratToDecimal(r.Amount),
		Date:        dateToTime(r.TransactionDate),
		AccountID:   r.AccountID,
		AccountName: r.AccountName.StringVal,
		AccountType: domain.AccountType(r.AccountType.StringVal),
		LogoURL:     r.LogoURL.StringVal,
	}
	if r.CategoryID.Valid {
		if c, ok := catalog.ByID(r.CategoryID.StringVal); ok {
			txn.Category = c
		} else {
			txn.Category = &domain.Category{ID: r.CategoryID.StringVal, Name: r.CategoryName.StringVal}
		}
	}
	if r.SubcategoryID.Valid {
		txn.Subcategory = &domain.Subcategory{
			ID:         r.SubcategoryID.StringVal,
			Name:       r.SubcategoryName.StringVal,
			CategoryID: r.CategoryID.StringVal,
		}
	}
	return txn
}

func (r *AccountRow) toDomain() domain.Account {
	a := domain.Account{
		ID:               r.AccountID,
		Name:             r.AccountName,
		Type:             domain.AccountType(r.AccountType),
		Subtype:          r.AccountSubtype.StringVal,
		InstitutionName:  r.InstitutionName.StringVal,
		Logo:             r.Logo.StringVal,
		TransactionCount: int(r.TransactionCount),
	}
	if r.Balance != nil {
		b := ratToDecimal(r.Balance)
		a.Balance = &b
	}
	if r.UpdatedTS.Valid {
		ts := r.UpdatedTS.Timestamp
		a.LastUpdated = &ts
	}
	return a
}

func (r *BudgetRow) toDomain() domain.Budget {
	return domain.Budget{
		ID:            r.BudgetID,
		Amount:        ratToDecimal(r.Amount),
		Frequency:     domain.BudgetFrequency(r.Frequency),
		CategoryID:    r.CategoryID,
		SubcategoryID: r.SubcategoryID.StringVal,
	}
}

// buildCatalog folds category rows into categories with ordered subcategories.
// Rows must arrive ordered by position; orphaned subcategories are dropped.
func buildCatalog(rows []CategoryRow) domain.Catalog {
	var catalog domain.Catalog
	index := map[string]int{}
	for _, r := range rows {
		if r.ParentCategoryID.Valid {
			continue
		}
		index[r.CategoryID] = len(catalog)
		catalog = append(catalog, domain.Category{ID: r.CategoryID, Name: r.Name, Subcategories: []domain.Subcategory{}})
	}
	for _, r := range rows {
		if !r.ParentCategoryID.Valid {
			continue
		}
		i, ok := index[r.ParentCategoryID.StringVal]
		if !ok {
			continue
		}
		catalog[i].Subcategories = append(catalog[i].Subcategories, r.toSubcategory())
	}
	return catalog
}

func (r *CategoryRow) toSubcategory() domain.Subcategory {
	return domain.Subcategory{
		ID:          r.CategoryID,
		Name:        r.Name,
		Description: r.Description.StringVal,
		CategoryID:  r.ParentCategoryID.StringVal,
	}
}
