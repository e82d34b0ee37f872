package table

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Column is a sortable column.
type Column string

const (
	ColumnDate        Column = "date"
	ColumnName        Column = "name"
	ColumnAmount      Column = "amount"
	ColumnCategory    Column = "category"
	ColumnSubcategory Column = "subcategory"
	ColumnAccount     Column = "account"
)

// Columns lists the sortable columns in display order.
var Columns = []Column{ColumnDate, ColumnName, ColumnAmount, ColumnCategory, ColumnSubcategory, ColumnAccount}

// ParseColumn validates a column name.
func ParseColumn(name string) (Column, error) {
	c := Column(strings.ToLower(strings.TrimSpace(name)))
	if !slices.Contains(Columns, c) {
		return "", fmt.Errorf("ParseColumn: unknown column %q", name)
	}
	return c, nil
}

// Direction is a sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Sort is the single active sort.
type Sort struct {
	Column    Column
	Direction Direction
}

// DefaultSort shows the most recent transactions first.
var DefaultSort = Sort{Column: ColumnDate, Direction: Descending}

// PageSizes are the selectable page sizes.
var PageSizes = []int{10, 25, 50, 100}

const DefaultPageSize = 25

// ErrInvalidPageSize is returned for a page size outside PageSizes.
var ErrInvalidPageSize = errors.New("invalid page size")

func validPageSize(n int) bool {
	return slices.Contains(PageSizes, n)
}

// ToggleSort flips the direction when col is already active. A new column
// starts ascending, except date which starts descending.
func (e *Engine) ToggleSort(col Column) error {
	if !slices.Contains(Columns, col) {
		return fmt.Errorf("ToggleSort: unknown column %q", col)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.sort.Column == col && e.sort.Direction == Ascending:
		e.sort.Direction = Descending
	case e.sort.Column == col:
		e.sort.Direction = Ascending
	case col == ColumnDate:
		e.sort = Sort{Column: col, Direction: Descending}
	default:
		e.sort = Sort{Column: col, Direction: Ascending}
	}
	e.invalidateLocked()
	return nil
}

// SetSort sets the sort directly.
func (e *Engine) SetSort(s Sort) error {
	if !slices.Contains(Columns, s.Column) {
		return fmt.Errorf("SetSort: unknown column %q", s.Column)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sort != s {
		e.sort = s
		e.invalidateLocked()
	}
	return nil
}

// Sort returns the active sort.
func (e *Engine) Sort() Sort {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sort
}

// sortRows orders rows by s. Ties are always broken by ascending id.
func sortRows(rows []Row, s Sort) {
	slices.SortStableFunc(rows, func(a, b Row) int {
		c := compareColumn(&a, &b, s.Column)
		if s.Direction == Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func compareColumn(a, b *Row, col Column) int {
	switch col {
	case ColumnDate:
		return a.Date.Compare(b.Date)
	case ColumnAmount:
		return a.Amount.Cmp(b.Amount)
	case ColumnName:
		return compareFold(a.Name, b.Name)
	case ColumnCategory:
		return compareFold(a.CategoryName, b.CategoryName)
	case ColumnSubcategory:
		return compareFold(a.SubcategoryName, b.SubcategoryName)
	case ColumnAccount:
		return compareFold(a.AccountName, b.AccountName)
	}
	return 0
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// SetPage moves to page index i. Indexes past the end are clamped when the view is built.
func (e *Engine) SetPage(i int) error {
	if i < 0 {
		return fmt.Errorf("SetPage: negative page index %d", i)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.page = i
	return nil
}

// NextPage advances one page if there is one.
func (e *Engine) NextPage() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.page+1 < pageCount(len(e.filteredLocked()), e.size) {
		e.page++
	}
}

// PrevPage goes back one page if there is one.
func (e *Engine) PrevPage() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.page > 0 {
		e.page--
	}
}

// SetPageSize changes the page size. The page index is kept and clamped.
func (e *Engine) SetPageSize(n int) error {
	if !validPageSize(n) {
		return fmt.Errorf("SetPageSize: %w: %d", ErrInvalidPageSize, n)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.size = n
	return nil
}

func pageCount(total, size int) int {
	return (total + size - 1) / size
}

const (
	EmptyNoData    = "No transactions to display."
	EmptyNoMatches = "No transactions match your filters"
)

// Page is one rendered page of the filtered, sorted view.
type Page struct {
	Rows         []Row
	Total        int
	PageIndex    int
	PageSize     int
	PageCount    int
	Empty        bool
	EmptyMessage string
	Header       HeaderState
}

// View builds the current page. Filtering and sorting are recomputed only
// when data, query, filters or sort changed since the last call.
func (e *Engine) View() Page {
	e.mu.Lock()
	defer e.mu.Unlock()

	rows := e.filteredLocked()
	total := len(rows)
	count := pageCount(total, e.size)

	switch {
	case count == 0:
		e.page = 0
	case e.page >= count:
		e.page = count - 1
	}

	p := Page{
		Total:     total,
		PageIndex: e.page,
		PageSize:  e.size,
		PageCount: count,
		Header:    e.headerLocked(rows),
	}
	if total == 0 {
		p.Empty = true
		p.EmptyMessage = EmptyNoData
		if len(e.rows) > 0 && e.filtersActive() {
			p.EmptyMessage = EmptyNoMatches
		}
		return p
	}

	start := e.page * e.size
	end := min(start+e.size, total)
	p.Rows = slices.Clone(rows[start:end])
	return p
}
