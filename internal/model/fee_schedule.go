package model

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethodType string

const (
	MethodCash         PaymentMethodType = "cash"
	MethodPix          PaymentMethodType = "pix"
	MethodDebitCard    PaymentMethodType = "debitCard"
	MethodCreditCard   PaymentMethodType = "creditCard"
	MethodBankTransfer PaymentMethodType = "bankTransfer"
	MethodBoleto       PaymentMethodType = "boleto"
	MethodCheck        PaymentMethodType = "check"
)

// PaymentMethodTypes lists every supported method in display order.
var PaymentMethodTypes = []PaymentMethodType{
	MethodCash, MethodPix, MethodDebitCard, MethodCreditCard, MethodBankTransfer, MethodBoleto, MethodCheck,
}

func (m PaymentMethodType) Valid() bool {
	for _, known := range PaymentMethodTypes {
		if m == known {
			return true
		}
	}
	return false
}

// Tiered reports whether the method prices by installment count.
func (m PaymentMethodType) Tiered() bool {
	return m == MethodCreditCard
}

func ParsePaymentMethodType(s string) (PaymentMethodType, error) {
	m := PaymentMethodType(s)
	if !m.Valid() {
		return "", NewError(KindUnknownMethod, "method", fmt.Sprintf("payment method %q is not supported", s))
	}
	return m, nil
}

type FeeTier struct {
	Installments int             `json:"installments"`
	FeePercent   decimal.Decimal `json:"fee_percent"`
	Active       bool            `json:"active"`
}

type FeeSchedule struct {
	MethodType     PaymentMethodType `json:"method_type"`
	FlatFeePercent decimal.Decimal   `json:"flat_fee_percent"`
	Tiers          []FeeTier         `json:"tiers"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// SortTiers orders tiers by installment count ascending.
func (s *FeeSchedule) SortTiers() {
	sort.Slice(s.Tiers, func(i, j int) bool {
		return s.Tiers[i].Installments < s.Tiers[j].Installments
	})
}

// MaxInstallments returns the largest configured tier, active or not.
func (s *FeeSchedule) MaxInstallments() int {
	highest := 0
	for _, t := range s.Tiers {
		if t.Installments > highest {
			highest = t.Installments
		}
	}
	return highest
}

// ActiveTier returns the active tier for exactly n installments.
func (s *FeeSchedule) ActiveTier(n int) (FeeTier, bool) {
	for _, t := range s.Tiers {
		if t.Installments == n && t.Active {
			return t, true
		}
	}
	return FeeTier{}, false
}

// Validate checks the schedule before it is saved.
func (s *FeeSchedule) Validate() error {
	if !s.MethodType.Valid() {
		return NewError(KindUnknownMethod, "method_type", fmt.Sprintf("payment method %q is not supported", s.MethodType))
	}
	if err := validatePercent("flat_fee_percent", s.FlatFeePercent); err != nil {
		return err
	}
	if !s.MethodType.Tiered() {
		if len(s.Tiers) > 0 {
			return NewError(KindInvalidInput, "tiers", fmt.Sprintf("method %s does not accept installment tiers", s.MethodType))
		}
		return nil
	}
	seen := make(map[int]bool, len(s.Tiers))
	for i, t := range s.Tiers {
		field := fmt.Sprintf("tiers[%d]", i)
		if t.Installments < 1 {
			return NewError(KindInvalidInput, field+".installments", "installments must be at least 1")
		}
		if err := validatePercent(field+".fee_percent", t.FeePercent); err != nil {
			return err
		}
		if seen[t.Installments] {
			return NewError(KindInvalidInput, field+".installments", fmt.Sprintf("duplicate tier for %d installments", t.Installments))
		}
		seen[t.Installments] = true
	}
	return nil
}

// Fee percents are stored as NUMERIC(7, 4).
const percentPlaces = 4

var maxPercent = decimal.NewFromInt(1000)

func validatePercent(field string, pct decimal.Decimal) error {
	switch {
	case pct.IsNegative():
		return NewError(KindInvalidInput, field, "fee percent must not be negative")
	case pct.GreaterThanOrEqual(maxPercent):
		return NewError(KindInvalidInput, field, "fee percent must be below 1000")
	case !pct.Equal(pct.Round(percentPlaces)):
		return NewError(KindInvalidInput, field, "fee percent must have at most 4 decimal places")
	}
	return nil
}

// DefaultScheduleName identifies the schedule set seeded when no tenant
// configuration exists.
const DefaultScheduleName = "kontrolla-default"

// DefaultFeeSchedules is the named fallback configuration. It is only ever
// written into the store by seeding; resolution always reads the store.
func DefaultFeeSchedules() []FeeSchedule {
	pct := decimal.RequireFromString
	return []FeeSchedule{
		{MethodType: MethodCash, FlatFeePercent: decimal.Zero},
		{MethodType: MethodPix, FlatFeePercent: decimal.Zero},
		{MethodType: MethodDebitCard, FlatFeePercent: pct("2")},
		{MethodType: MethodCreditCard, FlatFeePercent: decimal.Zero, Tiers: []FeeTier{
			{Installments: 1, FeePercent: pct("3.5"), Active: true},
			{Installments: 2, FeePercent: pct("4"), Active: true},
			{Installments: 3, FeePercent: pct("5"), Active: true},
			{Installments: 6, FeePercent: pct("7.5"), Active: true},
			{Installments: 12, FeePercent: pct("12"), Active: true},
		}},
		{MethodType: MethodBankTransfer, FlatFeePercent: decimal.Zero},
		{MethodType: MethodBoleto, FlatFeePercent: pct("1.5")},
		{MethodType: MethodCheck, FlatFeePercent: decimal.Zero},
	}
}
