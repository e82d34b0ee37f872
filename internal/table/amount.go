package table

import (
	"github.com/dvloznov/nett/internal/domain"
	"github.com/shopspring/decimal"
)

// FormatAmount renders an amount as currency, e.g. "$4.50" or "-$4.50".
func FormatAmount(amount decimal.Decimal) string {
	s := "$" + amount.Abs().StringFixed(2)
	if amount.IsNegative() {
		return "-" + s
	}
	return s
}

// Tone classifies a row's amount under the engine's amount policy.
func (e *Engine) Tone(t domain.Transaction) domain.Tone {
	return e.policy.Tone(t.Amount, t.AccountType)
}
