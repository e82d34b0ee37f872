package table

import (
	"slices"
	"strings"
	"testing"
	"time"
)

func TestSearch_Matching(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		want      []string
		wantEmpty string
	}{
		{"substring of name", "shop", []string{"t1"}, ""},
		{"case-insensitive", "SHOP", []string{"t1"}, ""},
		{"category name", "food", []string{"t2", "t1"}, ""},
		{"subcategory name", "airfare", []string{"t3"}, ""},
		{"account name", "credit", []string{"t3"}, ""},
		{"spans fields", "dining checking", []string{"t1"}, ""},
		{"no match", "xyz", nil, EmptyNoMatches},
		{"empty", "", []string{"t2", "t1", "t4", "t3"}, ""},
		{"whitespace only", "   ", []string{"t2", "t1", "t4", "t3"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, &fakeStore{}, Options{})
			e.SetSearchInput(tt.query)
			e.FlushSearch()

			page := e.View()
			if got := rowIDs(page.Rows); !slices.Equal(got, tt.want) && !(len(got) == 0 && len(tt.want) == 0) {
				t.Errorf("rows = %v, want %v", got, tt.want)
			}
			if page.EmptyMessage != tt.wantEmpty {
				t.Errorf("EmptyMessage = %q, want %q", page.EmptyMessage, tt.wantEmpty)
			}
		})
	}
}

func TestSearch_EveryMatchContainsQuery(t *testing.T) {
	e, _ := newTestEngine(t, &fakeStore{}, Options{PageSize: 100})
	all := e.View().Rows

	for _, q := range []string{"e", "o", "ch", "in", "card"} {
		e.SetSearchInput(q)
		e.FlushSearch()
		got := rowIDs(e.View().Rows)

		var want []string
		for _, r := range all {
			if strings.Contains(r.SearchText(), q) {
				want = append(want, r.ID)
			}
		}
		if !slices.Equal(got, want) {
			t.Errorf("query %q: rows = %v, want %v", q, got, want)
		}
	}
}

func TestSearch_Debounce(t *testing.T) {
	e, _ := newTestEngine(t, &fakeStore{}, Options{SearchDebounce: 20 * time.Millisecond})

	e.SetSearchInput("s")
	e.SetSearchInput("sh")
	e.SetSearchInput("sho")

	if got := e.SearchInput(); got != "sho" {
		t.Errorf("SearchInput() = %q, want sho", got)
	}
	if got := e.SearchQuery(); got != "" {
		t.Errorf("SearchQuery() = %q before the quiet period, want empty", got)
	}
	if got := e.View().Total; got != 4 {
		t.Errorf("Total = %d before commit, want 4", got)
	}

	eventually(t, func() bool { return e.SearchQuery() == "sho" })
	if got := rowIDs(e.View().Rows); !slices.Equal(got, []string{"t1"}) {
		t.Errorf("rows = %v, want [t1]", got)
	}
}

func TestSearch_ClearIsImmediate(t *testing.T) {
	e, _ := newTestEngine(t, &fakeStore{}, Options{SearchDebounce: time.Hour})

	e.SetSearchInput("shop")
	e.FlushSearch()
	if e.View().Total != 1 {
		t.Fatalf("Total = %d, want 1", e.View().Total)
	}

	e.SetSearchInput("shopx")
	e.ClearSearch()

	if e.SearchInput() != "" || e.SearchQuery() != "" {
		t.Errorf("input/query = %q/%q, want both empty", e.SearchInput(), e.SearchQuery())
	}
	if got := e.View().Total; got != 4 {
		t.Errorf("Total = %d after clear, want 4", got)
	}
}

func TestSearch_ClearCancelsPendingCommit(t *testing.T) {
	e, _ := newTestEngine(t, &fakeStore{}, Options{SearchDebounce: 10 * time.Millisecond})

	e.SetSearchInput("shop")
	e.ClearSearch()
	time.Sleep(40 * time.Millisecond)

	if got := e.SearchQuery(); got != "" {
		t.Errorf("SearchQuery() = %q, want empty after clear", got)
	}
}

func TestFilters(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		filters Filters
		want    []string
	}{
		{"category", "", Filters{CategoryID: "cat-food"}, []string{"t2", "t1"}},
		{"account", "", Filters{AccountID: "acc-2"}, []string{"t3"}},
		{"category and account", "", Filters{CategoryID: "cat-income", AccountID: "acc-1"}, []string{"t4"}},
		{"filters AND query", "grocery", Filters{CategoryID: "cat-food"}, []string{"t2"}},
		{"query outside filter", "airline", Filters{CategoryID: "cat-food"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, &fakeStore{}, Options{})
			e.SetFilters(tt.filters)
			e.SetSearchInput(tt.query)
			e.FlushSearch()

			got := rowIDs(e.View().Rows)
			if !slices.Equal(got, tt.want) && !(len(got) == 0 && len(tt.want) == 0) {
				t.Errorf("rows = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestView_EmptyMessages(t *testing.T) {
	e, _ := newTestEngine(t, &fakeStore{}, Options{})

	e.SetTransactions(nil)
	page := e.View()
	if !page.Empty || page.EmptyMessage != EmptyNoData {
		t.Errorf("no data: Empty=%v message=%q", page.Empty, page.EmptyMessage)
	}

	e.SetTransactions(fixtures())
	e.SetFilters(Filters{AccountID: "acc-missing"})
	page = e.View()
	if !page.Empty || page.EmptyMessage != EmptyNoMatches {
		t.Errorf("filtered out: Empty=%v message=%q", page.Empty, page.EmptyMessage)
	}
}

func TestView_Memoized(t *testing.T) {
	e, _ := newTestEngine(t, &fakeStore{}, Options{})

	e.View()
	e.mu.Lock()
	first := e.cachedAt
	e.mu.Unlock()

	e.View()
	if _, err := e.ToggleRow("t1"); err != nil {
		t.Fatal(err)
	}
	e.View()
	e.mu.Lock()
	second := e.cachedAt
	e.mu.Unlock()
	if first != second {
		t.Errorf("view recomputed without input change: %d != %d", first, second)
	}

	e.SetFilters(Filters{AccountID: "acc-1"})
	e.View()
	e.mu.Lock()
	third := e.cachedAt
	e.mu.Unlock()
	if third == second {
		t.Error("view not recomputed after filter change")
	}
}
