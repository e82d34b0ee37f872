package supabase

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/nett/internal/domain"
)

type categoryRow struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

type subcategoryRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id"`
	Position    int    `json:"position"`
}

type accountRow struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Type            string           `json:"account_type"`
	Subtype         string           `json:"account_subtype"`
	Balance         *decimal.Decimal `json:"balance"`
	InstitutionName string           `json:"institution_name"`
	LastUpdated     *time.Time       `json:"last_updated"`
	Logo            string           `json:"logo"`
}

type transactionRow struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	Date          string          `json:"date"`
	AccountID     string          `json:"account_id"`
	CategoryID    *string         `json:"category_id"`
	SubcategoryID *string         `json:"subcategory_id"`
	LogoURL       string          `json:"logo_url"`
}

type budgetRow struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	Frequency     string          `json:"frequency"`
	CategoryID    string          `json:"category_id"`
	SubcategoryID *string         `json:"subcategory_id"`
}

// buildCatalog attaches subcategories to their categories, both ordered by position.
func buildCatalog(cats []categoryRow, subs []subcategoryRow) domain.Catalog {
	sort.SliceStable(cats, func(i, j int) bool { return cats[i].Position < cats[j].Position })
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].Position < subs[j].Position })

	catalog := make(domain.Catalog, 0, len(cats))
	index := make(map[string]int, len(cats))
	for _, c := range cats {
		index[c.ID] = len(catalog)
		catalog = append(catalog, domain.Category{ID: c.ID, Name: c.Name, Subcategories: []domain.Subcategory{}})
	}
	for _, s := range subs {
		i, ok := index[s.CategoryID]
		if !ok {
			continue
		}
		catalog[i].Subcategories = append(catalog[i].Subcategories, s.toDomain())
	}
	return catalog
}

func (r subcategoryRow) toDomain() domain.Subcategory {
	return domain.Subcategory{ID: r.ID, Name: r.Name, Description: r.Description, CategoryID: r.CategoryID}
}

func (r accountRow) toDomain() domain.Account {
	return domain.Account{
		ID:              r.ID,
		Name:            r.Name,
		Type:            domain.AccountType(r.Type),
		Subtype:         r.Subtype,
		Balance:         r.Balance,
		InstitutionName: r.InstitutionName,
		LastUpdated:     r.LastUpdated,
		Logo:            r.Logo,
	}
}

func findSubcategory(c *domain.Category, id string) *domain.Subcategory {
	for _, s := range c.Subcategories {
		if s.ID == id {
			found := s
			return &found
		}
	}
	return nil
}

// assemble joins transaction rows with the catalog and accounts.
func assemble(rows []transactionRow, catalog domain.Catalog, accounts map[string]domain.Account) ([]domain.Transaction, error) {
	out := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		date, err := domain.ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", r.ID, err)
		}
		txn := domain.Transaction{
			ID:        r.ID,
			Name:      r.Name,
			Amount:    r.Amount,
			Date:      date,
			AccountID: r.AccountID,
			LogoURL:   r.LogoURL,
		}
		if a, ok := accounts[r.AccountID]; ok {
			txn.AccountName = a.Name
			txn.AccountType = a.Type
		}
		if r.CategoryID != nil {
			if c, ok := catalog.ByID(*r.CategoryID); ok {
				txn.Category = c
				if r.SubcategoryID != nil {
					txn.Subcategory = findSubcategory(c, *r.SubcategoryID)
				}
			}
		}
		out = append(out, txn)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r budgetRow) toDomain() domain.Budget {
	b := domain.Budget{
		ID:         r.ID,
		Amount:     r.Amount,
		Frequency:  domain.BudgetFrequency(r.Frequency),
		CategoryID: r.CategoryID,
	}
	if r.SubcategoryID != nil {
		b.SubcategoryID = *r.SubcategoryID
	}
	return b
}
