// Package budget computes budget periods and the spending inside them.
package budget

import (
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/nett/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrUnsupportedFrequency is returned for frequencies without period math.
var ErrUnsupportedFrequency = errors.New("unsupported budget frequency")

// ParseFrequency validates a frequency name.
func ParseFrequency(s string) (domain.BudgetFrequency, error) {
	switch f := domain.BudgetFrequency(s); f {
	case domain.FrequencyWeekly, domain.FrequencyBiweekly, domain.FrequencyMonthly,
		domain.FrequencyQuarterly, domain.FrequencyYearly:
		return f, nil
	}
	return "", fmt.Errorf("ParseFrequency: frequency %q not supported", s)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// PeriodStart returns the first day of the period containing t.
// Weeks start on Monday.
func PeriodStart(freq domain.BudgetFrequency, t time.Time) (time.Time, error) {
	day := truncateDay(t)
	switch freq {
	case domain.FrequencyWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset), nil
	case domain.FrequencyMonthly:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location()), nil
	case domain.FrequencyYearly:
		return time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, day.Location()), nil
	}
	return time.Time{}, fmt.Errorf("PeriodStart: %w: %s", ErrUnsupportedFrequency, freq)
}

// PeriodEnd returns the last day of the period containing t.
func PeriodEnd(freq domain.BudgetFrequency, t time.Time) (time.Time, error) {
	start, err := PeriodStart(freq, t)
	if err != nil {
		return time.Time{}, fmt.Errorf("PeriodEnd: %w", err)
	}
	switch freq {
	case domain.FrequencyWeekly:
		return start.AddDate(0, 0, 6), nil
	case domain.FrequencyMonthly:
		return start.AddDate(0, 1, -1), nil
	default:
		return start.AddDate(1, 0, -1), nil
	}
}

// Window is one period with the total amount spent in it.
type Window struct {
	Start time.Time       `json:"start_date"`
	End   time.Time       `json:"end_date"`
	Spent decimal.Decimal `json:"spent_amount"`
}

// contains reports whether t falls on any day from start to end inclusive.
func contains(start, end, t time.Time) bool {
	return !t.Before(start) && t.Before(end.AddDate(0, 0, 1))
}

// windows splits [from, now] into consecutive periods of freq.
func windows(freq domain.BudgetFrequency, from, now time.Time) ([]Window, error) {
	start, err := PeriodStart(freq, from)
	if err != nil {
		return nil, err
	}
	var out []Window
	for !start.After(now) {
		end, err := PeriodEnd(freq, start)
		if err != nil {
			return nil, err
		}
		out = append(out, Window{Start: start, End: end})
		start = end.AddDate(0, 0, 1)
	}
	return out, nil
}

// Matches reports whether txn counts against b.
func Matches(b domain.Budget, txn domain.Transaction) bool {
	if txn.Category == nil || txn.Category.ID != b.CategoryID {
		return false
	}
	if b.SubcategoryID == "" {
		return true
	}
	return txn.Subcategory != nil && txn.Subcategory.ID == b.SubcategoryID
}

// Periods returns every period of b from the one containing start up to the
// one containing now, with the spending of matching transactions.
func Periods(b domain.Budget, catalog domain.Catalog, txns []domain.Transaction, start, now time.Time) ([]domain.BudgetPeriod, error) {
	ws, err := windows(b.Frequency, start, now)
	if err != nil {
		return nil, fmt.Errorf("Periods: budget %s: %w", b.ID, err)
	}

	var catName, subName string
	if cat, ok := catalog.ByID(b.CategoryID); ok {
		catName = cat.Name
		for _, s := range cat.Subcategories {
			if s.ID == b.SubcategoryID {
				subName = s.Name
			}
		}
	}

	periods := make([]domain.BudgetPeriod, len(ws))
	for i, w := range ws {
		spent := decimal.Zero
		for _, t := range txns {
			if Matches(b, t) && contains(w.Start, w.End, t.Date) {
				spent = spent.Add(t.Amount)
			}
		}
		periods[i] = domain.BudgetPeriod{
			Start:           w.Start,
			End:             w.End,
			CategoryName:    catName,
			SubcategoryName: subName,
			Limit:           b.Amount,
			Spent:           spent,
		}
	}
	return periods, nil
}

// OldestDate returns the earliest transaction date.
func OldestDate(txns []domain.Transaction) (time.Time, bool) {
	var oldest time.Time
	for _, t := range txns {
		if t.Date.IsZero() {
			continue
		}
		if oldest.IsZero() || t.Date.Before(oldest) {
			oldest = t.Date
		}
	}
	return oldest, !oldest.IsZero()
}

// SpendingByFrequency totals every transaction per period of freq, from the
// oldest transaction up to now. It returns nil when there are no transactions.
func SpendingByFrequency(freq domain.BudgetFrequency, txns []domain.Transaction, now time.Time) ([]Window, error) {
	oldest, ok := OldestDate(txns)
	if !ok {
		return nil, nil
	}
	ws, err := windows(freq, oldest, now)
	if err != nil {
		return nil, fmt.Errorf("SpendingByFrequency: %w", err)
	}
	for i := range ws {
		total := decimal.Zero
		for _, t := range txns {
			if contains(ws[i].Start, ws[i].End, t.Date) {
				total = total.Add(t.Amount)
			}
		}
		ws[i].Spent = total
	}
	return ws, nil
}
