package supabase

import (
	"encoding/json"
	"testing"
)

func TestNextPosition(t *testing.T) {
	tests := []struct {
		name string
		rows []positionRow
		want int
	}{
		{"empty", nil, 0},
		{"contiguous", []positionRow{{0}, {1}, {2}}, 3},
		{"gaps and disorder", []positionRow{{4}, {0}, {2}}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextPosition(tt.rows); got != tt.want {
				t.Errorf("nextPosition() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSubcategoryRowToDomain(t *testing.T) {
	var row subcategoryRow
	raw := `{"id":"sub-power","name":"Power","description":"Electricity","category_id":"cat-bills","position":3}`
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	s := row.toDomain()
	if s.ID != "sub-power" || s.CategoryID != "cat-bills" || s.Description != "Electricity" {
		t.Errorf("toDomain() = %+v", s)
	}
}
