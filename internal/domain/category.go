package domain

// Category is a spending category with its ordered subcategories.
type Category struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Subcategory belongs to exactly one category through CategoryID.
type Subcategory struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id"`
}

// Clone returns a deep copy of c.
func (c Category) Clone() Category {
	if c.Subcategories != nil {
		subs := make([]Subcategory, len(c.Subcategories))
		copy(subs, c.Subcategories)
		c.Subcategories = subs
	}
	return c
}

// FirstSubcategory returns the category's first subcategory, or nil when it has none.
func (c *Category) FirstSubcategory() *Subcategory {
	if len(c.Subcategories) == 0 {
		return nil
	}
	s := c.Subcategories[0]
	return &s
}

// Subcategory finds a subcategory by display name within c only.
// Entries whose CategoryID points at another category are never returned.
func (c *Category) Subcategory(name string) (*Subcategory, bool) {
	for _, s := range c.Subcategories {
		if s.Name != name {
			continue
		}
		if s.CategoryID != "" && c.ID != "" && s.CategoryID != c.ID {
			continue
		}
		found := s
		return &found, true
	}
	return nil, false
}

// Catalog is an ordered list of categories as returned by the record store.
type Catalog []Category

// ByName looks a category up by display name.
func (cs Catalog) ByName(name string) (*Category, bool) {
	for i := range cs {
		if cs[i].Name == name {
			c := cs[i].Clone()
			return &c, true
		}
	}
	return nil, false
}

// ByID looks a category up by id.
func (cs Catalog) ByID(id string) (*Category, bool) {
	for i := range cs {
		if cs[i].ID == id {
			c := cs[i].Clone()
			return &c, true
		}
	}
	return nil, false
}
