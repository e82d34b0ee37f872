package table

import (
	"context"
	"fmt"

	"github.com/dvloznov/nett/internal/domain"
	"github.com/dvloznov/nett/internal/notify"
)

// FieldStatus tracks an optimistic field change until the store answers.
type FieldStatus int

const (
	FieldPending FieldStatus = iota + 1
	FieldConfirmed
	FieldFailed
)

func (s FieldStatus) String() string {
	switch s {
	case FieldPending:
		return "pending"
	case FieldConfirmed:
		return "confirmed"
	case FieldFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type fieldState struct {
	status FieldStatus
	seq    uint64
}

// FieldStatus returns the status of the latest change to field of transaction id.
func (e *Engine) FieldStatus(id, field string) (FieldStatus, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.status[id][field]
	return st.status, ok
}

func (e *Engine) markLocked(id string, fields []string, status FieldStatus, seq uint64) {
	m := e.status[id]
	if m == nil {
		m = make(map[string]fieldState)
		e.status[id] = m
	}
	for _, f := range fields {
		if status != FieldPending && m[f].seq != seq {
			continue
		}
		m[f] = fieldState{status: status, seq: seq}
	}
}

// UpdateField applies update to the shadow copy at once, then sends it to the
// store. On failure each changed field that still holds the optimistic value
// is reverted. Exactly one of successMsg or failureMsg is sent to the sink.
func (e *Engine) UpdateField(ctx context.Context, id string, update domain.TransactionUpdate, successMsg, failureMsg string) error {
	if update.IsEmpty() {
		return nil
	}
	fields := update.Fields()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	i, ok := e.index[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("UpdateField: transaction %s: %w", id, ErrNotFound)
	}
	before := e.txns[i].Clone()
	update.Apply(&e.txns[i])
	optimistic := e.txns[i].Clone()
	e.seq++
	seq := e.seq
	e.markLocked(id, fields, FieldPending, seq)
	e.rebuildLocked()
	e.mu.Unlock()

	callCtx, stop := e.callContext(ctx)
	err := e.store.UpdateTransaction(callCtx, id, update)
	stop()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		if i, ok := e.index[id]; ok {
			revert(&e.txns[i], before, optimistic, update)
			e.rebuildLocked()
		}
		e.markLocked(id, fields, FieldFailed, seq)
		e.mu.Unlock()

		e.log.Error().Err(err).Str("transaction_id", id).Strs("fields", fields).Msg("Update failed")
		e.notify(failureMsg, notify.SeverityError)
		return fmt.Errorf("UpdateField: updating transaction %s: %w", id, err)
	}
	e.markLocked(id, fields, FieldConfirmed, seq)
	e.mu.Unlock()

	e.notify(successMsg, notify.SeveritySuccess)
	return nil
}

// revert restores the changed fields of t from before, skipping any field that
// was changed again after the optimistic apply.
func revert(t *domain.Transaction, before, optimistic domain.Transaction, update domain.TransactionUpdate) {
	if update.Name != nil && t.Name == optimistic.Name {
		t.Name = before.Name
	}
	if update.Category != nil && sameCategory(t.Category, optimistic.Category) {
		t.Category = before.Clone().Category
	}
	if (update.Subcategory != nil || update.ClearSubcategory) && sameSubcategory(t.Subcategory, optimistic.Subcategory) {
		t.Subcategory = before.Clone().Subcategory
	}
}

func sameCategory(a, b *domain.Category) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID && a.Name == b.Name
}

func sameSubcategory(a, b *domain.Subcategory) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID && a.Name == b.Name
}

// LoadCategories fetches the category catalog used by ChangeCategory.
func (e *Engine) LoadCategories(ctx context.Context) error {
	callCtx, stop := e.callContext(ctx)
	defer stop()

	cats, err := e.store.ListCategories(callCtx)
	if err != nil {
		e.log.Error().Err(err).Msg("Failed to load categories")
		return fmt.Errorf("LoadCategories: %w", err)
	}
	e.SetCategories(cats)
	if e.Closed() {
		return ErrClosed
	}
	return nil
}

// SetCategories replaces the catalog.
func (e *Engine) SetCategories(cats []domain.Category) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.catalog = make(domain.Catalog, len(cats))
	for i, c := range cats {
		e.catalog[i] = c.Clone()
	}
}

// Categories returns a copy of the catalog.
func (e *Engine) Categories() domain.Catalog {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(domain.Catalog, len(e.catalog))
	for i, c := range e.catalog {
		out[i] = c.Clone()
	}
	return out
}

// ChangeCategory moves transaction id to the category named name and resets
// its subcategory to that category's first one, in a single update.
func (e *Engine) ChangeCategory(ctx context.Context, id, name string) error {
	e.mu.Lock()
	cat, found := e.catalog.ByName(name)
	_, exists := e.index[id]
	e.mu.Unlock()

	if !exists {
		e.notify(fmt.Sprintf("Transaction %s not found", id), notify.SeverityError)
		return fmt.Errorf("ChangeCategory: transaction %s: %w", id, ErrNotFound)
	}
	if !found {
		e.notify(fmt.Sprintf("Category %q not found", name), notify.SeverityError)
		return fmt.Errorf("ChangeCategory: category %q: %w", name, ErrNotFound)
	}

	update := domain.TransactionUpdate{Category: cat}
	subName := "none"
	if sub := cat.FirstSubcategory(); sub != nil {
		update.Subcategory = sub
		subName = sub.Name
	} else {
		update.ClearSubcategory = true
	}

	return e.UpdateField(ctx, id, update,
		fmt.Sprintf("Transaction %s: Category changed to %s, subcategory set to %s", id, cat.Name, subName),
		fmt.Sprintf("Failed to change category of transaction %s", id),
	)
}

// ChangeSubcategory sets the subcategory of transaction id to the one named
// name within its current category.
func (e *Engine) ChangeSubcategory(ctx context.Context, id, name string) error {
	e.mu.Lock()
	var cat *domain.Category
	i, exists := e.index[id]
	if exists && e.txns[i].Category != nil {
		if c, ok := e.catalog.ByID(e.txns[i].Category.ID); ok {
			cat = c
		} else {
			c := e.txns[i].Category.Clone()
			cat = &c
		}
	}
	e.mu.Unlock()

	if !exists {
		e.notify(fmt.Sprintf("Transaction %s not found", id), notify.SeverityError)
		return fmt.Errorf("ChangeSubcategory: transaction %s: %w", id, ErrNotFound)
	}
	if cat == nil {
		e.notify(fmt.Sprintf("Transaction %s has no category", id), notify.SeverityError)
		return fmt.Errorf("ChangeSubcategory: transaction %s has no category: %w", id, ErrNotFound)
	}
	sub, ok := cat.Subcategory(name)
	if !ok {
		e.notify(fmt.Sprintf("Subcategory %q not found in category %s", name, cat.Name), notify.SeverityError)
		return fmt.Errorf("ChangeSubcategory: subcategory %q in %s: %w", name, cat.Name, ErrNotFound)
	}

	return e.UpdateField(ctx, id, domain.TransactionUpdate{Subcategory: sub},
		fmt.Sprintf("Transaction %s: Subcategory changed to %s", id, sub.Name),
		fmt.Sprintf("Failed to change subcategory of transaction %s", id),
	)
}
