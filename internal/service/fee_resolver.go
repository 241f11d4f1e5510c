package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
)

// FeeScheduleSource is the settings collaborator that owns fee configuration.
// Returns nil, nil when the method has no schedule.
type FeeScheduleSource interface {
	GetFeeSchedule(ctx context.Context, method model.PaymentMethodType) (*model.FeeSchedule, error)
}

// FeeResolver maps a payment method and installment count to a fee percentage.
// The schedule is read from the source on every call.
type FeeResolver struct {
	source FeeScheduleSource
}

func NewFeeResolver(source FeeScheduleSource) *FeeResolver {
	return &FeeResolver{source: source}
}

func (r *FeeResolver) Resolve(ctx context.Context, method model.PaymentMethodType, installments *int) (decimal.Decimal, error) {
	if !method.Valid() {
		return decimal.Zero, model.Errorf(model.KindUnknownMethod, "method", "payment method %q is not supported", method)
	}

	schedule, err := r.source.GetFeeSchedule(ctx, method)
	if err != nil {
		return decimal.Zero, model.StorageFailure("load fee schedule", err)
	}
	if schedule == nil {
		return decimal.Zero, model.Errorf(model.KindUnknownMethod, "method", "no fee schedule configured for %s", method)
	}

	if !method.Tiered() {
		if installments != nil && *installments != 1 {
			return decimal.Zero, model.Errorf(model.KindInvalidInstallmentCount, "installments",
				"%s does not accept installments (got %d)", method, *installments)
		}
		return schedule.FlatFeePercent, nil
	}

	return resolveTier(schedule, installments)
}

func resolveTier(schedule *model.FeeSchedule, installments *int) (decimal.Decimal, error) {
	if len(schedule.Tiers) == 0 {
		return decimal.Zero, model.Errorf(model.KindTiersNotConfigured, "method", "%s has no installment tiers", schedule.MethodType)
	}
	if _, ok := schedule.ActiveTier(1); !ok {
		return decimal.Zero, model.Errorf(model.KindTiersNotConfigured, "method", "%s has no active 1-installment tier", schedule.MethodType)
	}
	if installments == nil {
		return decimal.Zero, model.NewError(model.KindInvalidInstallmentCount, "installments", "installments are required for creditCard")
	}

	n := *installments
	maxTier := schedule.MaxInstallments()
	switch {
	case n < 1:
		return decimal.Zero, model.Errorf(model.KindInvalidInstallmentCount, "installments", "installments must be at least 1 (got %d)", n)
	case n > maxTier:
		return decimal.Zero, model.Errorf(model.KindInvalidInstallmentCount, "installments", "%d installments exceeds the maximum of %d", n, maxTier)
	}

	tier, ok := schedule.ActiveTier(n)
	if !ok {
		return decimal.Zero, &model.Error{
			Kind:    model.KindInvalidInstallmentCount,
			Field:   "installments",
			Message: fmt.Sprintf("no active tier for %d installments", n),
		}
	}
	return tier.FeePercent, nil
}
