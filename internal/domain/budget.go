package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetFrequency is how often a budget resets.
type BudgetFrequency string

const (
	FrequencyWeekly    BudgetFrequency = "weekly"
	FrequencyBiweekly  BudgetFrequency = "biweekly"
	FrequencyMonthly   BudgetFrequency = "monthly"
	FrequencyQuarterly BudgetFrequency = "quarterly"
	FrequencyYearly    BudgetFrequency = "yearly"
)

// Budget is a spending limit for a category, optionally narrowed to one subcategory.
type Budget struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	Frequency     BudgetFrequency `json:"frequency"`
	CategoryID    string          `json:"category_id"`
	SubcategoryID string          `json:"subcategory_id,omitempty"`
}

// BudgetPeriod is one window of a budget with what was spent in it.
type BudgetPeriod struct {
	Start           time.Time       `json:"start_date"`
	End             time.Time       `json:"end_date"`
	CategoryName    string          `json:"category_name"`
	SubcategoryName string          `json:"subcategory_name,omitempty"`
	Limit           decimal.Decimal `json:"limit_amount"`
	Spent           decimal.Decimal `json:"spent_amount"`
}

// Remaining returns Limit minus Spent.
func (p BudgetPeriod) Remaining() decimal.Decimal {
	return p.Limit.Sub(p.Spent)
}

// Over reports whether spending exceeded the limit.
func (p BudgetPeriod) Over() bool {
	return p.Spent.GreaterThan(p.Limit)
}
