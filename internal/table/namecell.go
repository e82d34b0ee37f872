package table

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/dvloznov/nett/internal/domain"
)

// CellMode is the mode of an editable cell.
type CellMode int

const (
	CellViewing CellMode = iota
	CellEditing
)

// NameCell is the inline editor for a transaction's name plus its avatar.
type NameCell struct {
	engine   *Engine
	id       string
	mode     CellMode
	original string
	draft    string
}

// NameCell returns the name cell for transaction id.
func (e *Engine) NameCell(id string) (*NameCell, error) {
	if _, ok := e.Transaction(id); !ok {
		return nil, fmt.Errorf("NameCell: transaction %s: %w", id, ErrNotFound)
	}
	return &NameCell{engine: e, id: id}, nil
}

// Mode returns whether the cell is viewing or editing.
func (c *NameCell) Mode() CellMode {
	return c.mode
}

// Text is what the cell shows: the draft while editing, the stored name otherwise.
func (c *NameCell) Text() string {
	if c.mode == CellEditing {
		return c.draft
	}
	t, _ := c.engine.Transaction(c.id)
	return t.Name
}

// BeginEdit switches to editing with the current name as the draft.
func (c *NameCell) BeginEdit() {
	if c.mode == CellEditing {
		return
	}
	t, _ := c.engine.Transaction(c.id)
	c.original = t.Name
	c.draft = t.Name
	c.mode = CellEditing
}

// SetDraft replaces the edited text.
func (c *NameCell) SetDraft(s string) {
	if c.mode == CellEditing {
		c.draft = s
	}
}

// Cancel leaves editing without saving.
func (c *NameCell) Cancel() {
	c.mode = CellViewing
	c.draft = ""
}

// Commit leaves editing and saves the draft when it differs from the name the
// edit started from. It reports whether an update was sent.
func (c *NameCell) Commit(ctx context.Context) (bool, error) {
	if c.mode != CellEditing {
		return false, nil
	}
	c.mode = CellViewing
	if c.draft == c.original {
		return false, nil
	}

	name := c.draft
	err := c.engine.UpdateField(ctx, c.id, domain.TransactionUpdate{Name: &name},
		fmt.Sprintf(`Transaction name updated to "%s"`, name),
		"Failed to update transaction name",
	)
	return true, err
}

// AvatarState is how the avatar renders.
type AvatarState int

const (
	AvatarLoading AvatarState = iota
	AvatarLoaded
	AvatarFallback
)

// Avatar describes the counterparty image next to the name.
type Avatar struct {
	State   AvatarState
	URL     string
	Initial string
}

// Avatar reports the avatar state from the engine's image cache.
func (c *NameCell) Avatar() Avatar {
	t, _ := c.engine.Transaction(c.id)
	a := Avatar{URL: t.LogoURL, Initial: initial(t.Name), State: AvatarFallback}
	if t.LogoURL == "" {
		return a
	}
	switch c.engine.images.Status(t.LogoURL) {
	case ImageLoaded:
		a.State = AvatarLoaded
	case ImageUnknown:
		a.State = AvatarLoading
	}
	return a
}

// CheckMounted checks an image right after mount. A decoded image already has a
// natural width, and the load event may never fire for it.
func (c *NameCell) CheckMounted(naturalWidth int) {
	if naturalWidth > 0 {
		c.ImageLoaded()
	}
}

// ImageLoaded records that the avatar image loaded.
func (c *NameCell) ImageLoaded() {
	if url := c.logoURL(); url != "" {
		c.engine.images.MarkLoaded(url)
	}
}

// ImageFailed records that the avatar image failed to load.
func (c *NameCell) ImageFailed() {
	if url := c.logoURL(); url != "" {
		c.engine.images.MarkErrored(url)
	}
}

func (c *NameCell) logoURL() string {
	t, _ := c.engine.Transaction(c.id)
	return t.LogoURL
}

func initial(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 || r == utf8.RuneError {
		return ""
	}
	return string(r)
}

// Images exposes the engine's image cache.
func (e *Engine) Images() *ImageCache {
	return e.images
}
