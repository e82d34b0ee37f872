package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the aggregator's top-level account classification.
type AccountType string

const (
	AccountTypeDepository AccountType = "depository"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeLoan       AccountType = "loan"
	AccountTypeOther      AccountType = "other"
)

// Account is a linked bank account.
type Account struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Type             AccountType      `json:"account_type"`
	Subtype          string           `json:"account_subtype"`
	Balance          *decimal.Decimal `json:"balance"`
	InstitutionName  string           `json:"institution_name"`
	LastUpdated      *time.Time       `json:"last_updated,omitempty"`
	TransactionCount int              `json:"transaction_count"`
	Logo             string           `json:"logo,omitempty"`
}

// Tone is how an amount should be presented.
type Tone string

const (
	ToneCharge  Tone = "charge"
	ToneIncome  Tone = "income"
	ToneNeutral Tone = "neutral"
)

// SignConvention says which sign means money coming in.
type SignConvention int

const (
	// PositiveIsOutflow is the asset-account convention: negative amounts are inflows.
	PositiveIsOutflow SignConvention = iota
	// PositiveIsInflow is the credit-liability convention.
	PositiveIsInflow
)

// AmountPolicy maps account types to a sign convention. Types not listed use Default.
type AmountPolicy struct {
	Default SignConvention
	ByType  map[AccountType]SignConvention
}

// DefaultAmountPolicy treats credit accounts as positive-is-inflow and everything else
// as positive-is-outflow.
func DefaultAmountPolicy() AmountPolicy {
	return AmountPolicy{
		Default: PositiveIsOutflow,
		ByType: map[AccountType]SignConvention{
			AccountTypeCredit: PositiveIsInflow,
		},
	}
}

// Tone classifies amount for an account of type t.
func (p AmountPolicy) Tone(amount decimal.Decimal, t AccountType) Tone {
	if amount.IsZero() {
		return ToneNeutral
	}
	conv := p.Default
	if c, ok := p.ByType[t]; ok {
		conv = c
	}
	positive := amount.IsPositive()
	if conv == PositiveIsInflow {
		positive = !positive
	}
	if positive {
		return ToneCharge
	}
	return ToneIncome
}
