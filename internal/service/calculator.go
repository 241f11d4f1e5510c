package service

import (
	"github.com/shopspring/decimal"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
)

// Amounts are kept to the cent. decimal rounds half away from zero, which is
// half-up for the positive amounts handled here.
const moneyPlaces = 2

var (
	hundred       = decimal.NewFromInt(100)
	settleEpsilon = decimal.New(1, -moneyPlaces)
)

// GrossAmount returns base × (1 + feePercent/100), rounded once at the end.
func GrossAmount(base, feePercent decimal.Decimal) (decimal.Decimal, error) {
	if !base.IsPositive() {
		return decimal.Zero, model.NewError(model.KindInvalidInput, "base_amount", "base amount must be positive")
	}
	if feePercent.IsNegative() {
		return decimal.Zero, model.NewError(model.KindInvalidInput, "fee_percent", "fee percent must not be negative")
	}
	if feePercent.IsZero() {
		return base, nil
	}
	factor := decimal.NewFromInt(1).Add(feePercent.Div(hundred))
	return base.Mul(factor).Round(moneyPlaces), nil
}

// InstallmentPlan splits gross into n installments. Every installment but the
// last is gross/n rounded to the cent; the last absorbs the residue so the plan
// sums to gross exactly.
func InstallmentPlan(gross decimal.Decimal, n int) ([]decimal.Decimal, error) {
	if n <= 0 {
		return nil, model.NewError(model.KindInvalidInput, "installments", "installments must be positive")
	}
	if !gross.IsPositive() {
		return nil, model.NewError(model.KindInvalidInput, "gross_amount", "gross amount must be positive")
	}
	if n == 1 {
		return []decimal.Decimal{gross}, nil
	}
	count := decimal.NewFromInt(int64(n))
	each := gross.DivRound(count, moneyPlaces)
	last := gross.Sub(each.Mul(decimal.NewFromInt(int64(n - 1))))
	if !each.IsPositive() || !last.IsPositive() {
		return nil, model.Errorf(model.KindInvalidInput, "installments", "%s cannot be split into %d positive installments", gross, n)
	}

	plan := make([]decimal.Decimal, n)
	for i := 0; i < n-1; i++ {
		plan[i] = each
	}
	plan[n-1] = last
	return plan, nil
}

// InstallmentAmount is the regular (non-final) installment of the plan.
func InstallmentAmount(gross decimal.Decimal, n int) (decimal.Decimal, error) {
	plan, err := InstallmentPlan(gross, n)
	if err != nil {
		return decimal.Zero, err
	}
	return plan[0], nil
}

// settledStatus derives the stored status after settledAmount has changed.
func settledStatus(original, settled decimal.Decimal, current model.ObligationStatus) model.ObligationStatus {
	switch {
	case settled.GreaterThanOrEqual(original.Sub(settleEpsilon)):
		return model.StatusSettled
	case settled.IsPositive():
		return model.StatusPartiallySettled
	default:
		return current
	}
}
