package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
)

// FeeScheduleService is the settings side of fee configuration. Saved
// schedules take effect on the next resolution.
type FeeScheduleService struct {
	store FeeScheduleStore
	clock Clock
}

func NewFeeScheduleService(store FeeScheduleStore, clock Clock) *FeeScheduleService {
	return &FeeScheduleService{store: store, clock: clock}
}

func (s *FeeScheduleService) List(ctx context.Context) ([]model.FeeSchedule, error) {
	schedules, err := s.store.ListFeeSchedules(ctx)
	if err != nil {
		return nil, model.StorageFailure("list fee schedules", err)
	}
	if schedules == nil {
		schedules = []model.FeeSchedule{}
	}
	return schedules, nil
}

func (s *FeeScheduleService) Get(ctx context.Context, method model.PaymentMethodType) (*model.FeeSchedule, error) {
	if !method.Valid() {
		return nil, model.Errorf(model.KindUnknownMethod, "method", "payment method %q is not supported", method)
	}
	sched, err := s.store.GetFeeSchedule(ctx, method)
	if err != nil {
		return nil, model.StorageFailure("get fee schedule", err)
	}
	if sched == nil {
		return nil, model.Errorf(model.KindUnknownMethod, "method", "no fee schedule configured for %s", method)
	}
	return sched, nil
}

func (s *FeeScheduleService) Save(ctx context.Context, sched *model.FeeSchedule) (*model.FeeSchedule, error) {
	if err := sched.Validate(); err != nil {
		return nil, err
	}
	if sched.Tiers == nil {
		sched.Tiers = []model.FeeTier{}
	}
	sched.SortTiers()
	sched.UpdatedAt = s.clock.Now()

	if err := s.store.SaveFeeSchedule(ctx, sched); err != nil {
		return nil, model.StorageFailure("save fee schedule", err)
	}
	log.Info().
		Str("method", string(sched.MethodType)).
		Str("flat_fee_percent", sched.FlatFeePercent.String()).
		Int("tiers", len(sched.Tiers)).
		Msg("fee schedule saved")
	return sched, nil
}
