package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/dvloznov/nett/internal/domain"
	"github.com/dvloznov/nett/internal/store"
)

type positionRow struct {
	Position int `json:"position"`
}

// nextPosition is one past the highest position in rows, or 0 for none.
func nextPosition(rows []positionRow) int {
	next := 0
	for _, r := range rows {
		if r.Position >= next {
			next = r.Position + 1
		}
	}
	return next
}

// positionAfter returns the position that appends a row to table. A non-empty
// categoryID limits the siblings to that category's subcategories.
func (r *Repository) positionAfter(table, categoryID string) (int, error) {
	q := r.client.From(table).Select("position", "", false)
	if categoryID != "" {
		q = q.Eq("category_id", categoryID)
	}
	data, _, err := q.Execute()
	if err != nil {
		return 0, fmt.Errorf("reading %s positions: %w", table, err)
	}
	var rows []positionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, fmt.Errorf("parsing %s positions: %w", table, err)
	}
	return nextPosition(rows), nil
}

// unused returns store.ErrInUse when a transaction has id in column.
func (r *Repository) unused(column, id string) error {
	_, n, err := r.client.From(transactionsTable).
		Select("id", "exact", true).
		Eq(column, id).
		Execute()
	if err != nil {
		return fmt.Errorf("counting transactions: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%d transaction(s): %w", n, store.ErrInUse)
	}
	return nil
}

// updateByID applies columns to one row and reports store.ErrNotFound when no
// row matched.
func (r *Repository) updateByID(table, id string, columns map[string]interface{}) error {
	data, _, err := r.client.From(table).
		Update(columns, "representation", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("updating %s: %w", table, err)
	}
	var updated []json.RawMessage
	if err := json.Unmarshal(data, &updated); err != nil {
		return fmt.Errorf("parsing updated %s: %w", table, err)
	}
	if len(updated) == 0 {
		return fmt.Errorf("updating %s in %s: %w", id, table, store.ErrNotFound)
	}
	return nil
}

func (r *Repository) exists(table, id string) error {
	_, n, err := r.client.From(table).
		Select("id", "exact", true).
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("reading %s: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", table, id, store.ErrNotFound)
	}
	return nil
}

// CreateCategory appends a category, assigning an id when it has none.
func (r *Repository) CreateCategory(ctx context.Context, c *domain.Category) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	pos, err := r.positionAfter(categoriesTable, "")
	if err != nil {
		return fmt.Errorf("CreateCategory: %w", err)
	}
	row := categoryRow{ID: c.ID, Name: c.Name, Position: pos}
	if _, _, err := r.client.From(categoriesTable).Insert(row, false, "", "", "").Execute(); err != nil {
		return fmt.Errorf("CreateCategory: %w", err)
	}
	c.Subcategories = []domain.Subcategory{}
	return nil
}

// UpdateCategory renames a category.
func (r *Repository) UpdateCategory(ctx context.Context, c domain.Category) error {
	if err := r.updateByID(categoriesTable, c.ID, map[string]interface{}{"name": c.Name}); err != nil {
		return fmt.Errorf("UpdateCategory: %w", err)
	}
	return nil
}

// DeleteCategory removes a category and then its subcategories.
func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	if err := r.exists(categoriesTable, id); err != nil {
		return fmt.Errorf("DeleteCategory: %w", err)
	}
	if err := r.unused("category_id", id); err != nil {
		return fmt.Errorf("DeleteCategory %s: %w", id, err)
	}
	if _, _, err := r.client.From(subcategoriesTable).Delete("minimal", "").Eq("category_id", id).Execute(); err != nil {
		return fmt.Errorf("DeleteCategory: subcategories: %w", err)
	}
	if err := r.deleteByID(categoriesTable, id); err != nil {
		return fmt.Errorf("DeleteCategory: %w", err)
	}
	return nil
}

// GetSubcategory returns one subcategory or store.ErrNotFound.
func (r *Repository) GetSubcategory(ctx context.Context, id string) (*domain.Subcategory, error) {
	data, _, err := r.client.From(subcategoriesTable).
		Select("*", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("GetSubcategory: %w", err)
	}
	var rows []subcategoryRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("GetSubcategory: parsing: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("GetSubcategory %s: %w", id, store.ErrNotFound)
	}
	s := rows[0].toDomain()
	return &s, nil
}

// CreateSubcategory appends s under its category.
func (r *Repository) CreateSubcategory(ctx context.Context, s *domain.Subcategory) error {
	if err := r.exists(categoriesTable, s.CategoryID); err != nil {
		return fmt.Errorf("CreateSubcategory: %w", err)
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	pos, err := r.positionAfter(subcategoriesTable, s.CategoryID)
	if err != nil {
		return fmt.Errorf("CreateSubcategory: %w", err)
	}
	row := subcategoryRow{ID: s.ID, Name: s.Name, Description: s.Description, CategoryID: s.CategoryID, Position: pos}
	if _, _, err := r.client.From(subcategoriesTable).Insert(row, false, "", "", "").Execute(); err != nil {
		return fmt.Errorf("CreateSubcategory: %w", err)
	}
	return nil
}

// UpdateSubcategory changes a subcategory's name and description.
func (r *Repository) UpdateSubcategory(ctx context.Context, s domain.Subcategory) error {
	columns := map[string]interface{}{"name": s.Name, "description": s.Description}
	if err := r.updateByID(subcategoriesTable, s.ID, columns); err != nil {
		return fmt.Errorf("UpdateSubcategory: %w", err)
	}
	return nil
}

// DeleteSubcategory removes one subcategory.
func (r *Repository) DeleteSubcategory(ctx context.Context, id string) error {
	if err := r.exists(subcategoriesTable, id); err != nil {
		return fmt.Errorf("DeleteSubcategory: %w", err)
	}
	if err := r.unused("subcategory_id", id); err != nil {
		return fmt.Errorf("DeleteSubcategory %s: %w", id, err)
	}
	if err := r.deleteByID(subcategoriesTable, id); err != nil {
		return fmt.Errorf("DeleteSubcategory: %w", err)
	}
	return nil
}
