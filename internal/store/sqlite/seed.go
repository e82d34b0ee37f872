package sqlite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dvloznov/nett/internal/domain"
)

// Snapshot is a full set of records, as read from a fixture file or another backend.
type Snapshot struct {
	Categories   []domain.Category    `json:"categories"`
	Accounts     []domain.Account     `json:"accounts"`
	Transactions []domain.Transaction `json:"transactions"`
	Budgets      []domain.Budget      `json:"budgets"`
}

// Import upserts every record in snap inside a single database transaction.
func (r *Repository) Import(ctx context.Context, snap Snapshot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := tx.Clauses(clause.OnConflict{UpdateAll: true}).Session(&gorm.Session{})

		for i, c := range snap.Categories {
			if err := upsert.Omit("Subcategories").Create(&Category{ID: c.ID, Name: c.Name, Position: i}).Error; err != nil {
				return fmt.Errorf("Import: category %s: %w", c.ID, err)
			}
			for j, s := range c.Subcategories {
				catID := s.CategoryID
				if catID == "" {
					catID = c.ID
				}
				row := Subcategory{ID: s.ID, Name: s.Name, Description: s.Description, CategoryID: catID, Position: j}
				if err := upsert.Create(&row).Error; err != nil {
					return fmt.Errorf("Import: subcategory %s: %w", s.ID, err)
				}
			}
		}

		for _, a := range snap.Accounts {
			row := Account{
				ID:              a.ID,
				Name:            a.Name,
				Type:            string(a.Type),
				Subtype:         a.Subtype,
				InstitutionName: a.InstitutionName,
				LastUpdated:     a.LastUpdated,
				Logo:            a.Logo,
			}
			if a.Balance != nil {
				row.Balance.Decimal = *a.Balance
				row.Balance.Valid = true
			}
			if err := upsert.Create(&row).Error; err != nil {
				return fmt.Errorf("Import: account %s: %w", a.ID, err)
			}
		}

		for _, t := range snap.Transactions {
			row := Transaction{
				ID:        t.ID,
				Name:      t.Name,
				Amount:    t.Amount,
				Date:      t.Date.UTC(),
				AccountID: t.AccountID,
				LogoURL:   t.LogoURL,
			}
			if t.Category != nil {
				row.CategoryID = optional(t.Category.ID)
			}
			if t.Subcategory != nil {
				row.SubcategoryID = optional(t.Subcategory.ID)
			}
			if err := upsert.Omit(clause.Associations).Create(&row).Error; err != nil {
				return fmt.Errorf("Import: transaction %s: %w", t.ID, err)
			}
		}

		for _, b := range snap.Budgets {
			row := Budget{
				ID:            b.ID,
				Amount:        b.Amount,
				Frequency:     string(b.Frequency),
				CategoryID:    b.CategoryID,
				SubcategoryID: optional(b.SubcategoryID),
			}
			if err := upsert.Create(&row).Error; err != nil {
				return fmt.Errorf("Import: budget %s: %w", b.ID, err)
			}
		}
		return nil
	})
}

// DecodeSnapshot decodes a snapshot and checks that every transaction references
// an account in it and every subcategory belongs to the transaction's category.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return snap, fmt.Errorf("DecodeSnapshot: %w", err)
	}

	accounts := make(map[string]bool, len(snap.Accounts))
	for _, a := range snap.Accounts {
		accounts[a.ID] = true
	}
	for _, t := range snap.Transactions {
		if t.ID == "" {
			return snap, fmt.Errorf("DecodeSnapshot: transaction without id")
		}
		if !accounts[t.AccountID] {
			return snap, fmt.Errorf("DecodeSnapshot: transaction %s: unknown account %q", t.ID, t.AccountID)
		}
		if t.Subcategory == nil {
			continue
		}
		if t.Category == nil || (t.Subcategory.CategoryID != "" && t.Subcategory.CategoryID != t.Category.ID) {
			return snap, fmt.Errorf("DecodeSnapshot: transaction %s: subcategory %s outside its category", t.ID, t.Subcategory.ID)
		}
	}
	return snap, nil
}
