package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/dvloznov/nett/internal/domain"
	"github.com/dvloznov/nett/internal/store"
)

// ListCategoriesWithClient returns active categories with their subcategories,
// both ordered by position then name.
func ListCategoriesWithClient(ctx context.Context, client *bigquery.Client, ds Dataset) (domain.Catalog, error) {
	q := client.Query(`
		SELECT
		  category_id,
		  parent_category_id,
		  name,
		  description,
		  position
		FROM ` + ds.Table(categoriesTable) + `
		WHERE is_active = TRUE
		ORDER BY position, name
	`)

	rows, err := readRows(ctx, q, func(r *CategoryRow) CategoryRow { return *r })
	if err != nil {
		return nil, fmt.Errorf("ListCategories: %w", err)
	}
	return buildCatalog(rows), nil
}

type countRow struct {
	N int64 `bigquery:"n"`
}

// activeNodeSQL selects one active node of the category tree. Top-level
// categories have no parent; subcategories have one.
func activeNodeSQL(ds Dataset, sub bool) string {
	parent := "parent_category_id IS NULL"
	if sub {
		parent = "parent_category_id IS NOT NULL"
	}
	return `
		SELECT category_id, parent_category_id, name, description, position
		FROM ` + ds.Table(categoriesTable) + `
		WHERE category_id = @category_id AND is_active = TRUE AND ` + parent + `
	`
}

func getNode(ctx context.Context, client *bigquery.Client, ds Dataset, id string, sub bool) (*CategoryRow, error) {
	q := client.Query(activeNodeSQL(ds, sub))
	q.Parameters = []bigquery.QueryParameter{{Name: "category_id", Value: id}}
	rows, err := readRows(ctx, q, func(r *CategoryRow) CategoryRow { return *r })
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return &rows[0], nil
}

// insertNodeSQL appends a node after its active siblings.
func insertNodeSQL(ds Dataset) string {
	return `
		INSERT INTO ` + ds.Table(categoriesTable) + `
		  (category_id, parent_category_id, name, description, position, is_active)
		SELECT
		  @category_id, @parent_category_id, @name, @description,
		  COALESCE(MAX(position), -1) + 1, TRUE
		FROM ` + ds.Table(categoriesTable) + `
		WHERE is_active = TRUE
		  AND IFNULL(parent_category_id, '') = IFNULL(@parent_category_id, '')
	`
}

func insertNode(ctx context.Context, client *bigquery.Client, ds Dataset, id, parent, name, description string) error {
	q := client.Query(insertNodeSQL(ds))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "category_id", Value: id},
		{Name: "parent_category_id", Value: nullString(parent)},
		{Name: "name", Value: name},
		{Name: "description", Value: nullString(description)},
	}
	_, err := runDML(ctx, q)
	return err
}

// usedBy counts the transactions whose column holds id.
func usedBy(ctx context.Context, client *bigquery.Client, ds Dataset, column, id string) error {
	q := client.Query(`
		SELECT COUNT(*) AS n
		FROM ` + ds.Table(transactionsTable) + `
		WHERE ` + column + ` = @id
	`)
	q.Parameters = []bigquery.QueryParameter{{Name: "id", Value: id}}
	counts, err := readRows(ctx, q, func(r *countRow) int64 { return r.N })
	if err != nil {
		return err
	}
	if len(counts) > 0 && counts[0] > 0 {
		return fmt.Errorf("%d transaction(s): %w", counts[0], store.ErrInUse)
	}
	return nil
}

// CreateCategoryWithClient appends a top-level category, assigning an id when
// it has none.
func CreateCategoryWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, c *domain.Category) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if err := insertNode(ctx, client, ds, c.ID, "", c.Name, ""); err != nil {
		return fmt.Errorf("CreateCategory: %w", err)
	}
	c.Subcategories = []domain.Subcategory{}
	return nil
}

// UpdateCategoryWithClient renames an active top-level category.
func UpdateCategoryWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, c domain.Category) error {
	q := client.Query(`
		UPDATE ` + ds.Table(categoriesTable) + `
		SET name = @name
		WHERE category_id = @category_id AND is_active = TRUE AND parent_category_id IS NULL
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "category_id", Value: c.ID},
		{Name: "name", Value: c.Name},
	}
	n, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("UpdateCategory: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("UpdateCategory %s: %w", c.ID, store.ErrNotFound)
	}
	return nil
}

// deactivateSQL soft-deletes a node and, for a category, its subcategories.
func deactivateSQL(ds Dataset) string {
	return `
		UPDATE ` + ds.Table(categoriesTable) + `
		SET is_active = FALSE
		WHERE is_active = TRUE
		  AND (category_id = @category_id OR parent_category_id = @category_id)
	`
}

func deactivate(ctx context.Context, client *bigquery.Client, ds Dataset, id string) error {
	q := client.Query(deactivateSQL(ds))
	q.Parameters = []bigquery.QueryParameter{{Name: "category_id", Value: id}}
	_, err := runDML(ctx, q)
	return err
}

// DeleteCategoryWithClient deactivates a category and its subcategories.
func DeleteCategoryWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, id string) error {
	if _, err := getNode(ctx, client, ds, id, false); err != nil {
		return fmt.Errorf("DeleteCategory %s: %w", id, err)
	}
	if err := usedBy(ctx, client, ds, "category_id", id); err != nil {
		return fmt.Errorf("DeleteCategory %s: %w", id, err)
	}
	if err := deactivate(ctx, client, ds, id); err != nil {
		return fmt.Errorf("DeleteCategory: %w", err)
	}
	return nil
}

// GetSubcategoryWithClient returns one active subcategory or store.ErrNotFound.
func GetSubcategoryWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, id string) (*domain.Subcategory, error) {
	row, err := getNode(ctx, client, ds, id, true)
	if err != nil {
		return nil, fmt.Errorf("GetSubcategory %s: %w", id, err)
	}
	s := row.toSubcategory()
	return &s, nil
}

// CreateSubcategoryWithClient appends s under its category.
func CreateSubcategoryWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, s *domain.Subcategory) error {
	if _, err := getNode(ctx, client, ds, s.CategoryID, false); err != nil {
		return fmt.Errorf("CreateSubcategory: category %s: %w", s.CategoryID, err)
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if err := insertNode(ctx, client, ds, s.ID, s.CategoryID, s.Name, s.Description); err != nil {
		return fmt.Errorf("CreateSubcategory: %w", err)
	}
	return nil
}

// UpdateSubcategoryWithClient changes the name and description of an active
// subcategory.
func UpdateSubcategoryWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, s domain.Subcategory) error {
	q := client.Query(`
		UPDATE ` + ds.Table(categoriesTable) + `
		SET name = @name, description = @description
		WHERE category_id = @category_id AND is_active = TRUE AND parent_category_id IS NOT NULL
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "category_id", Value: s.ID},
		{Name: "name", Value: s.Name},
		{Name: "description", Value: nullString(s.Description)},
	}
	n, err := runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("UpdateSubcategory: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("UpdateSubcategory %s: %w", s.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteSubcategoryWithClient deactivates one subcategory.
func DeleteSubcategoryWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, id string) error {
	if _, err := getNode(ctx, client, ds, id, true); err != nil {
		return fmt.Errorf("DeleteSubcategory %s: %w", id, err)
	}
	if err := usedBy(ctx, client, ds, "subcategory_id", id); err != nil {
		return fmt.Errorf("DeleteSubcategory %s: %w", id, err)
	}
	if err := deactivate(ctx, client, ds, id); err != nil {
		return fmt.Errorf("DeleteSubcategory: %w", err)
	}
	return nil
}
