package bigquery

import (
	"strings"
	"testing"
)

func TestCategoryNodeSQL(t *testing.T) {
	ds := Dataset{Project: "proj", Name: "finance"}

	tests := []struct {
		name    string
		sql     string
		want    []string
		notWant []string
	}{
		{
			name: "category lookup",
			sql:  activeNodeSQL(ds, false),
			want: []string{"`proj.finance.categories`", "is_active = TRUE", "parent_category_id IS NULL"},
		},
		{
			name: "subcategory lookup",
			sql:  activeNodeSQL(ds, true),
			want: []string{"parent_category_id IS NOT NULL"},
		},
		{
			name: "insert appends after siblings",
			sql:  insertNodeSQL(ds),
			want: []string{"COALESCE(MAX(position), -1) + 1", "IFNULL(parent_category_id, '') = IFNULL(@parent_category_id, '')"},
		},
		{
			name:    "delete is soft and cascades",
			sql:     deactivateSQL(ds),
			want:    []string{"SET is_active = FALSE", "parent_category_id = @category_id"},
			notWant: []string{"DELETE"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, w := range tt.want {
				if !strings.Contains(tt.sql, w) {
					t.Errorf("sql missing %q:\n%s", w, tt.sql)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(tt.sql, w) {
					t.Errorf("sql contains %q:\n%s", w, tt.sql)
				}
			}
		})
	}
}

func TestCategoryRowToSubcategory(t *testing.T) {
	row := CategoryRow{
		CategoryID:       "sub-power",
		ParentCategoryID: nullString("cat-bills"),
		Name:             "Power",
		Description:      nullString("Electricity"),
	}
	s := row.toSubcategory()
	if s.ID != "sub-power" || s.CategoryID != "cat-bills" || s.Name != "Power" || s.Description != "Electricity" {
		t.Errorf("toSubcategory() = %+v", s)
	}
}
