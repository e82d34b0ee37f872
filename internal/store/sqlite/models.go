package sqlite

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/nett/internal/domain"
)

// Category is a stored spending category.
type Category struct {
	ID            string `gorm:"primaryKey"`
	Name          string `gorm:"not null;uniqueIndex"`
	Position      int
	Subcategories []Subcategory `gorm:"foreignKey:CategoryID"`
}

func (Category) TableName() string { return "categories" }

// Subcategory is a stored subcategory, owned by one category.
type Subcategory struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Description string
	CategoryID  string `gorm:"index;not null"`
	Position    int
}

func (Subcategory) TableName() string { return "subcategories" }

// Account is a stored linked account.
type Account struct {
	ID              string `gorm:"primaryKey"`
	Name            string
	Type            string
	Subtype         string
	Balance         decimal.NullDecimal `gorm:"type:text"`
	InstitutionName string
	LastUpdated     *time.Time
	Logo            string
}

func (Account) TableName() string { return "accounts" }

// Transaction is a stored transaction row.
type Transaction struct {
	ID            string          `gorm:"primaryKey"`
	Name          string          `gorm:"not null"`
	Amount        decimal.Decimal `gorm:"type:text;not null"`
	CategoryID    *string         `gorm:"index"`
	Category      *Category
	SubcategoryID *string
	Subcategory   *Subcategory
	Date          time.Time `gorm:"index"`
	AccountID     string    `gorm:"index"`
	Account       *Account
	LogoURL       string
}

func (Transaction) TableName() string { return "transactions" }

// Budget is a stored budget.
type Budget struct {
	ID            string          `gorm:"primaryKey"`
	Amount        decimal.Decimal `gorm:"type:text;not null"`
	Frequency     string          `gorm:"not null"`
	CategoryID    string          `gorm:"index;not null"`
	SubcategoryID *string
}

func (Budget) TableName() string { return "budgets" }

func categoryToDomain(c *Category) domain.Category {
	out := domain.Category{ID: c.ID, Name: c.Name, Subcategories: []domain.Subcategory{}}
	for _, s := range c.Subcategories {
		out.Subcategories = append(out.Subcategories, subcategoryToDomain(&s))
	}
	return out
}

func subcategoryToDomain(s *Subcategory) domain.Subcategory {
	return domain.Subcategory{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		CategoryID:  s.CategoryID,
	}
}

func accountToDomain(a *Account) domain.Account {
	out := domain.Account{
		ID:              a.ID,
		Name:            a.Name,
		Type:            domain.AccountType(a.Type),
		Subtype:         a.Subtype,
		InstitutionName: a.InstitutionName,
		LastUpdated:     a.LastUpdated,
		Logo:            a.Logo,
	}
	if a.Balance.Valid {
		b := a.Balance.Decimal
		out.Balance = &b
	}
	return out
}

func transactionToDomain(t *Transaction) domain.Transaction {
	out := domain.Transaction{
		ID:        t.ID,
		Name:      t.Name,
		Amount:    t.Amount,
		Date:      t.Date.UTC(),
		AccountID: t.AccountID,
		LogoURL:   t.LogoURL,
	}
	if t.Category != nil {
		c := categoryToDomain(t.Category)
		out.Category = &c
	}
	if t.Subcategory != nil {
		s := subcategoryToDomain(t.Subcategory)
		out.Subcategory = &s
	}
	if t.Account != nil {
		out.AccountName = t.Account.Name
		out.AccountType = domain.AccountType(t.Account.Type)
	}
	return out
}

func budgetToDomain(b *Budget) domain.Budget {
	out := domain.Budget{
		ID:         b.ID,
		Amount:     b.Amount,
		Frequency:  domain.BudgetFrequency(b.Frequency),
		CategoryID: b.CategoryID,
	}
	if b.SubcategoryID != nil {
		out.SubcategoryID = *b.SubcategoryID
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
