package table

import (
	"strings"
	"time"
)

// searchState holds the two stages of the search box: the raw input and the
// query committed after the input has been quiet for delay.
type searchState struct {
	delay     time.Duration
	input     string
	committed string
	timer     *time.Timer
	gen       uint64
}

func (s *searchState) stop() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// Filters are equality filters ANDed with the free-text query. Empty fields match everything.
type Filters struct {
	CategoryID string
	AccountID  string
}

func (f Filters) match(r *Row) bool {
	if f.CategoryID != "" && (r.Category == nil || r.Category.ID != f.CategoryID) {
		return false
	}
	if f.AccountID != "" && r.AccountID != f.AccountID {
		return false
	}
	return true
}

// SetSearchInput records a keystroke. The committed query follows once no
// further input arrives within the debounce delay.
func (e *Engine) SetSearchInput(q string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	e.search.input = q
	e.search.stop()
	gen := e.search.gen
	e.search.timer = time.AfterFunc(e.search.delay, func() {
		e.commitSearch(gen)
	})
}

func (e *Engine) commitSearch(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || gen != e.search.gen {
		return
	}
	e.search.timer = nil
	e.commitSearchLocked()
}

func (e *Engine) commitSearchLocked() {
	if e.search.committed == e.search.input {
		return
	}
	e.search.committed = e.search.input
	e.invalidateLocked()
}

// FlushSearch commits the current input immediately.
func (e *Engine) FlushSearch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.search.stop()
	e.commitSearchLocked()
}

// ClearSearch resets the input and the committed query at once.
func (e *Engine) ClearSearch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.search.stop()
	e.search.input = ""
	e.commitSearchLocked()
}

// SearchInput returns the raw search box value.
func (e *Engine) SearchInput() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.search.input
}

// SearchQuery returns the committed query the view is filtered by.
func (e *Engine) SearchQuery() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.search.committed
}

// SetFilters replaces the column filters.
func (e *Engine) SetFilters(f Filters) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.filters == f {
		return
	}
	e.filters = f
	e.invalidateLocked()
}

// Filters returns the active column filters.
func (e *Engine) Filters() Filters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filters
}

// filteredLocked returns the rows passing the query and column filters, sorted.
// The result is cached until an input changes.
func (e *Engine) filteredLocked() []Row {
	if e.cacheOK && e.cachedAt == e.version {
		return e.filtered
	}

	needle := ""
	if strings.TrimSpace(e.search.committed) != "" {
		needle = strings.ToLower(e.search.committed)
	}

	out := make([]Row, 0, len(e.rows))
	for i := range e.rows {
		r := &e.rows[i]
		if needle != "" && !strings.Contains(r.search, needle) {
			continue
		}
		if !e.filters.match(r) {
			continue
		}
		out = append(out, *r)
	}
	sortRows(out, e.sort)

	e.filtered = out
	e.cachedAt = e.version
	e.cacheOK = true
	return out
}

// filtersActive reports whether the query or a column filter narrows the rows.
func (e *Engine) filtersActive() bool {
	return strings.TrimSpace(e.search.committed) != "" || e.filters != (Filters{})
}
