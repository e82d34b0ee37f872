package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one posted transaction as served by the record store.
// Amount sign convention depends on the owning account's type; see AmountPolicy.
type Transaction struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Category    *Category       `json:"category"`
	Subcategory *Subcategory    `json:"subcategory,omitempty"`
	Date        time.Time       `json:"date"`
	AccountID   string          `json:"account_id"`
	AccountName string          `json:"account_name"`
	AccountType AccountType     `json:"account_type,omitempty"`
	LogoURL     string          `json:"logo_url,omitempty"`
}

// dateLayouts are the date encodings seen on the wire, most specific first.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123,
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses a transaction date in any of the accepted layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("ParseDate: unrecognized date %q", s)
}

// UnmarshalJSON accepts every layout in dateLayouts for the date field.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type alias Transaction
	aux := struct {
		Date string `json:"date"`
		*alias
	}{alias: (*alias)(t)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("Transaction.UnmarshalJSON: %w", err)
	}

	date, err := ParseDate(aux.Date)
	if err != nil {
		return fmt.Errorf("Transaction.UnmarshalJSON: %w", err)
	}
	t.Date = date
	return nil
}

// CategoryName returns the display name of the category, or "" when unset.
func (t *Transaction) CategoryName() string {
	if t.Category == nil {
		return ""
	}
	return t.Category.Name
}

// SubcategoryName returns the display name of the subcategory, or "" when unset.
func (t *Transaction) SubcategoryName() string {
	if t.Subcategory == nil {
		return ""
	}
	return t.Subcategory.Name
}

// Clone returns a copy that shares no pointers with t.
func (t Transaction) Clone() Transaction {
	if t.Category != nil {
		c := t.Category.Clone()
		t.Category = &c
	}
	if t.Subcategory != nil {
		s := *t.Subcategory
		t.Subcategory = &s
	}
	return t
}

// TransactionUpdate carries the changed fields of a transaction. Nil fields are untouched.
// ClearSubcategory removes the subcategory; it wins over a non-nil Subcategory.
type TransactionUpdate struct {
	Name             *string      `json:"name,omitempty"`
	Category         *Category    `json:"category,omitempty"`
	Subcategory      *Subcategory `json:"subcategory,omitempty"`
	ClearSubcategory bool         `json:"-"`
}

// IsEmpty reports whether no field is set.
func (u TransactionUpdate) IsEmpty() bool {
	return u.Name == nil && u.Category == nil && u.Subcategory == nil && !u.ClearSubcategory
}

// Fields lists the names of the fields set on u.
func (u TransactionUpdate) Fields() []string {
	var fields []string
	if u.Name != nil {
		fields = append(fields, FieldName)
	}
	if u.Category != nil {
		fields = append(fields, FieldCategory)
	}
	if u.Subcategory != nil || u.ClearSubcategory {
		fields = append(fields, FieldSubcategory)
	}
	return fields
}

// Apply writes the set fields onto t.
func (u TransactionUpdate) Apply(t *Transaction) {
	if u.Name != nil {
		t.Name = *u.Name
	}
	if u.Category != nil {
		c := u.Category.Clone()
		t.Category = &c
	}
	switch {
	case u.ClearSubcategory:
		t.Subcategory = nil
	case u.Subcategory != nil:
		s := *u.Subcategory
		t.Subcategory = &s
	}
}

// MarshalWithID encodes the update as the PUT body {id, ...changedFields}.
// A cleared subcategory is sent as an explicit null.
func (u TransactionUpdate) MarshalWithID(id string) ([]byte, error) {
	body := map[string]interface{}{"id": id}
	if u.Name != nil {
		body[FieldName] = *u.Name
	}
	if u.Category != nil {
		body[FieldCategory] = u.Category
	}
	switch {
	case u.ClearSubcategory:
		body[FieldSubcategory] = nil
	case u.Subcategory != nil:
		body[FieldSubcategory] = u.Subcategory
	}
	return json.Marshal(body)
}

// Updatable transaction fields.
const (
	FieldName        = "name"
	FieldCategory    = "category"
	FieldSubcategory = "subcategory"
)
