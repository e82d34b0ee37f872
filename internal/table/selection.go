package table

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dvloznov/nett/internal/domain"
	"github.com/dvloznov/nett/internal/notify"
	"golang.org/x/sync/errgroup"
)

// HeaderState is the derived state of the select-all checkbox.
type HeaderState int

const (
	HeaderUnchecked HeaderState = iota
	HeaderIndeterminate
	HeaderChecked
)

func (h HeaderState) String() string {
	switch h {
	case HeaderChecked:
		return "checked"
	case HeaderIndeterminate:
		return "indeterminate"
	default:
		return "unchecked"
	}
}

func (e *Engine) headerLocked(rows []Row) HeaderState {
	n := 0
	for i := range rows {
		if _, ok := e.selected[rows[i].ID]; ok {
			n++
		}
	}
	switch {
	case n == 0:
		return HeaderUnchecked
	case n == len(rows):
		return HeaderChecked
	default:
		return HeaderIndeterminate
	}
}

// ToggleRow flips the selection of one row and returns its new state.
func (e *Engine) ToggleRow(id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.index[id]; !ok {
		return false, fmt.Errorf("ToggleRow: transaction %s: %w", id, ErrNotFound)
	}
	if _, ok := e.selected[id]; ok {
		delete(e.selected, id)
		return false, nil
	}
	e.selected[id] = struct{}{}
	return true, nil
}

// ToggleAll sets every row passing the current filters to checked.
// Rows hidden by filters keep their selection.
func (e *Engine) ToggleAll(checked bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, r := range e.filteredLocked() {
		if checked {
			e.selected[r.ID] = struct{}{}
		} else {
			delete(e.selected, r.ID)
		}
	}
}

// ClearSelection empties the selection.
func (e *Engine) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.selected)
}

// IsSelected reports whether id is selected.
func (e *Engine) IsSelected(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.selected[id]
	return ok
}

// Selected returns the selected ids in shadow-list order.
func (e *Engine) Selected() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selectedLocked()
}

func (e *Engine) selectedLocked() []string {
	ids := make([]string, 0, len(e.selected))
	for _, t := range e.txns {
		if _, ok := e.selected[t.ID]; ok {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// BulkDeleteLabel is the caption of the bulk delete action.
func (e *Engine) BulkDeleteLabel() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fmt.Sprintf("Delete Selected (%d)", len(e.selected))
}

// Confirmation is a delete waiting for the user's answer.
type Confirmation struct {
	TargetIDs []string
	Bulk      bool
}

// Title is the dialog heading.
func (c Confirmation) Title() string {
	if len(c.TargetIDs) == 1 {
		return "Delete Transaction"
	}
	return "Delete Transactions"
}

// Prompt is the dialog body, singular or plural.
func (c Confirmation) Prompt() string {
	if len(c.TargetIDs) == 1 {
		return "Are you sure you want to delete this transaction? This action cannot be undone."
	}
	return fmt.Sprintf("Are you sure you want to delete these %d transactions? This action cannot be undone.", len(c.TargetIDs))
}

// RequestDelete asks for confirmation to delete one row. No data changes.
func (e *Engine) RequestDelete(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if _, ok := e.index[id]; !ok {
		return fmt.Errorf("RequestDelete: transaction %s: %w", id, ErrNotFound)
	}
	e.pending = &Confirmation{TargetIDs: []string{id}}
	return nil
}

// RequestBulkDelete asks for confirmation to delete the whole selection.
func (e *Engine) RequestBulkDelete() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	ids := e.selectedLocked()
	if len(ids) == 0 {
		return ErrNoSelection
	}
	e.pending = &Confirmation{TargetIDs: ids, Bulk: true}
	return nil
}

// Confirmation returns the pending confirmation, if any.
func (e *Engine) Confirmation() (Confirmation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return Confirmation{}, false
	}
	return Confirmation{TargetIDs: slices.Clone(e.pending.TargetIDs), Bulk: e.pending.Bulk}, true
}

// CancelDelete drops the pending confirmation without side effects.
func (e *Engine) CancelDelete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = nil
}

// ConfirmDelete runs the pending delete and returns to idle.
func (e *Engine) ConfirmDelete(ctx context.Context) ([]string, error) {
	e.mu.Lock()
	c := e.pending
	e.pending = nil
	e.mu.Unlock()

	if c == nil {
		return nil, ErrNoPendingDelete
	}
	return e.deleteRows(ctx, c.TargetIDs, c.Bulk)
}

// Delete removes ids from the record store, one call per id, all in flight at
// once. Rows leave the shadow list according to the commit policy. It returns
// the ids removed locally. An id missing from the shadow list fails the whole
// call with ErrNotFound before anything is sent.
func (e *Engine) Delete(ctx context.Context, ids []string) ([]string, error) {
	ids = dedupe(ids)
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	for _, id := range ids {
		if _, ok := e.index[id]; !ok {
			e.mu.Unlock()
			return nil, fmt.Errorf("Delete %s: %w", id, ErrNotFound)
		}
	}
	e.mu.Unlock()
	return e.deleteRows(ctx, ids, len(ids) > 1)
}

func (e *Engine) deleteRows(ctx context.Context, ids []string, bulk bool) ([]string, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	if e.Closed() {
		return nil, ErrClosed
	}

	callCtx, stop := e.callContext(ctx)
	defer stop()

	errs := make([]error, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			if err := e.store.DeleteTransaction(callCtx, id); err != nil {
				errs[i] = fmt.Errorf("deleting transaction %s: %w", id, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	var succeeded []string
	var failed []error
	for i, err := range errs {
		if err != nil {
			failed = append(failed, err)
			continue
		}
		succeeded = append(succeeded, ids[i])
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	removed := succeeded
	if e.commit == CommitAllOrNothing && len(failed) > 0 {
		removed = nil
	}
	e.removeLocked(removed)
	e.mu.Unlock()

	for _, err := range failed {
		e.log.Error().Err(err).Msg("Delete failed")
	}

	if len(removed) > 0 {
		if bulk {
			e.notify(fmt.Sprintf("%d transaction(s) deleted", len(removed)), notify.SeveritySuccess)
		} else {
			e.notify(fmt.Sprintf("Transaction %s deleted", removed[0]), notify.SeveritySuccess)
		}
	}
	if len(failed) > 0 {
		e.notify(fmt.Sprintf("Failed to delete %d transaction(s)", len(failed)), notify.SeverityError)
		return removed, fmt.Errorf("Delete: %w", errors.Join(failed...))
	}
	return removed, nil
}

// removeLocked drops ids from the shadow list and the selection.
func (e *Engine) removeLocked(ids []string) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
		delete(e.selected, id)
		delete(e.status, id)
	}
	e.txns = slices.DeleteFunc(e.txns, func(t domain.Transaction) bool {
		_, ok := drop[t.ID]
		return ok
	})
	e.rebuildLocked()
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
