package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/lock"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/repository"
)

const maxIdempotencyKeyLen = 128

type SettleCommand struct {
	ObligationID    uuid.UUID
	RequestedAmount decimal.Decimal
	Method          model.PaymentMethodType
	Installments    *int
	IdempotencyKey  string
	Note            string
}

type QuoteCommand struct {
	ObligationID    uuid.UUID
	RequestedAmount decimal.Decimal
	Method          model.PaymentMethodType
	Installments    *int
}

// SettlementService applies settlements to obligations and records them.
type SettlementService struct {
	obligations ObligationStore
	settlements SettlementStore
	resolver    *FeeResolver
	locker      lock.Locker
	clock       Clock
}

func NewSettlementService(obligations ObligationStore, settlements SettlementStore, resolver *FeeResolver, locker lock.Locker, clock Clock) *SettlementService {
	return &SettlementService{
		obligations: obligations,
		settlements: settlements,
		resolver:    resolver,
		locker:      locker,
		clock:       clock,
	}
}

// pricing is the outcome of fee resolution and calculation for one amount.
type pricing struct {
	feePercent   decimal.Decimal
	gross        decimal.Decimal
	installments int
	plan         []decimal.Decimal
}

// SettleOutcome is the event a settlement produced. Replayed is set when the
// idempotency key was already recorded and nothing changed.
type SettleOutcome struct {
	Event    *model.SettlementEvent
	Replayed bool
}

// Settle applies cmd to its obligation. A repeated idempotency key returns the
// event recorded the first time and changes nothing.
func (s *SettlementService) Settle(ctx context.Context, cmd SettleCommand) (*model.SettlementEvent, error) {
	out, err := s.Apply(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return out.Event, nil
}

// Apply is Settle that also reports whether the call was a replay.
func (s *SettlementService) Apply(ctx context.Context, cmd SettleCommand) (*SettleOutcome, error) {
	if err := validateSettle(cmd); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, lock.ObligationKey(cmd.ObligationID))
	if err != nil {
		return nil, lockFailure(cmd.ObligationID, err)
	}
	defer unlock()

	prior, err := s.replay(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		return &SettleOutcome{Event: prior, Replayed: true}, nil
	}

	var event *model.SettlementEvent
	err = s.obligations.WithTx(ctx, func(ctx context.Context, tx repository.LedgerTx) error {
		o, err := tx.LockObligation(ctx, cmd.ObligationID)
		if err != nil {
			return err
		}
		if err := checkSettleable(o); err != nil {
			return err
		}

		p, err := s.price(ctx, cmd.Method, cmd.Installments, cmd.RequestedAmount)
		if err != nil {
			return err
		}
		remaining := o.RemainingPrincipal()
		if cmd.RequestedAmount.GreaterThan(remaining) {
			return model.Errorf(model.KindOverpaymentRejected, "requested_amount",
				"requested %s exceeds remaining principal %s", cmd.RequestedAmount.StringFixed(moneyPlaces), remaining.StringFixed(moneyPlaces))
		}

		now := s.clock.Now()
		settled := o.SettledAmount.Add(cmd.RequestedAmount)
		status := settledStatus(o.OriginalAmount, settled, o.Status)

		ev := &model.SettlementEvent{
			ID:                    uuid.New(),
			ObligationID:          o.ID,
			IdempotencyKey:        cmd.IdempotencyKey,
			RequestedAmount:       cmd.RequestedAmount,
			MethodType:            cmd.Method,
			FeePercentApplied:     p.feePercent,
			GrossAmountCharged:    p.gross,
			InstallmentAmount:     p.plan[0],
			LastInstallmentAmount: p.plan[len(p.plan)-1],
			AppliedToPrincipal:    cmd.RequestedAmount,
			RemainingPrincipal:    o.OriginalAmount.Sub(settled),
			ResultingStatus:       status,
			SettledAt:             now,
			Note:                  cmd.Note,
		}
		if cmd.Method.Tiered() {
			n := p.installments
			ev.Installments = &n
		}

		if err := tx.AppendSettlement(ctx, ev); err != nil {
			return err
		}
		if err := tx.ApplySettlement(ctx, o.ID, o.SettledAmount, settled, status, now); err != nil {
			return err
		}
		event = ev
		return nil
	})

	if errors.Is(err, repository.ErrDuplicateIdempotencyKey) {
		// another instance committed the same key between lookup and commit
		prior, lookupErr := s.replay(ctx, cmd)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if prior != nil {
			return &SettleOutcome{Event: prior, Replayed: true}, nil
		}
		return nil, model.NewError(model.KindConcurrentModification, "idempotency_key", "settlement with this key is being recorded; retry")
	}
	if err != nil {
		if model.KindOf(err) == model.KindConcurrentModification {
			log.Warn().Str("obligation_id", cmd.ObligationID.String()).Msg("settlement conflicted with a concurrent change")
		}
		return nil, model.StorageFailure("commit settlement", err)
	}

	log.Info().
		Str("obligation_id", event.ObligationID.String()).
		Str("event_id", event.ID.String()).
		Str("method", string(event.MethodType)).
		Str("principal", event.AppliedToPrincipal.StringFixed(moneyPlaces)).
		Str("gross", event.GrossAmountCharged.StringFixed(moneyPlaces)).
		Str("status", string(event.ResultingStatus)).
		Msg("settlement recorded")

	return &SettleOutcome{Event: event}, nil
}

// Quote previews what Settle would charge without mutating anything.
func (s *SettlementService) Quote(ctx context.Context, cmd QuoteCommand) (*model.Quote, error) {
	if err := validateAmount("requested_amount", cmd.RequestedAmount); err != nil {
		return nil, err
	}

	o, err := s.obligations.GetObligation(ctx, cmd.ObligationID)
	if err != nil {
		return nil, model.StorageFailure("get obligation", err)
	}
	if err := checkSettleable(o); err != nil {
		return nil, err
	}

	p, err := s.price(ctx, cmd.Method, cmd.Installments, cmd.RequestedAmount)
	if err != nil {
		return nil, err
	}
	remaining := o.RemainingPrincipal()
	if cmd.RequestedAmount.GreaterThan(remaining) {
		return nil, model.Errorf(model.KindOverpaymentRejected, "requested_amount",
			"requested %s exceeds remaining principal %s", cmd.RequestedAmount.StringFixed(moneyPlaces), remaining.StringFixed(moneyPlaces))
	}

	return &model.Quote{
		ObligationID:          o.ID,
		RequestedAmount:       cmd.RequestedAmount,
		MethodType:            cmd.Method,
		Installments:          p.installments,
		FeePercentApplied:     p.feePercent,
		GrossAmount:           p.gross,
		InstallmentAmount:     p.plan[0],
		LastInstallmentAmount: p.plan[len(p.plan)-1],
		Plan:                  p.plan,
		RemainingPrincipal:    remaining.Sub(cmd.RequestedAmount),
	}, nil
}

// History returns the obligation's settlement events, oldest first.
func (s *SettlementService) History(ctx context.Context, obligationID uuid.UUID) ([]model.SettlementEvent, error) {
	if _, err := s.obligations.GetObligation(ctx, obligationID); err != nil {
		return nil, model.StorageFailure("get obligation", err)
	}
	events, err := s.settlements.HistoryFor(ctx, obligationID)
	if err != nil {
		return nil, model.StorageFailure("load settlement history", err)
	}
	if events == nil {
		events = []model.SettlementEvent{}
	}
	return events, nil
}

func (s *SettlementService) price(ctx context.Context, method model.PaymentMethodType, installments *int, amount decimal.Decimal) (pricing, error) {
	fee, err := s.resolver.Resolve(ctx, method, installments)
	if err != nil {
		return pricing{}, err
	}
	gross, err := GrossAmount(amount, fee)
	if err != nil {
		return pricing{}, err
	}
	n := 1
	if installments != nil {
		n = *installments
	}
	plan, err := InstallmentPlan(gross, n)
	if err != nil {
		return pricing{}, err
	}
	return pricing{feePercent: fee, gross: gross, installments: n, plan: plan}, nil
}

func (s *SettlementService) replay(ctx context.Context, cmd SettleCommand) (*model.SettlementEvent, error) {
	prior, err := s.settlements.FindSettlementByKey(ctx, cmd.ObligationID, cmd.IdempotencyKey)
	if err != nil {
		return nil, model.StorageFailure("look up idempotency key", err)
	}
	if prior == nil {
		return nil, nil
	}

	logger := log.Info()
	if !prior.RequestedAmount.Equal(cmd.RequestedAmount) || prior.MethodType != cmd.Method {
		logger = log.Warn().
			Str("requested_amount", cmd.RequestedAmount.String()).
			Str("requested_method", string(cmd.Method))
	}
	logger.
		Str("obligation_id", cmd.ObligationID.String()).
		Str("event_id", prior.ID.String()).
		Str("idempotency_key", cmd.IdempotencyKey).
		Msg("idempotent settlement replay")
	return prior, nil
}

func checkSettleable(o *model.Obligation) error {
	switch {
	case o.Status == model.StatusCanceled:
		return model.Errorf(model.KindObligationCanceled, "obligation_id", "obligation %s is canceled", o.ID)
	case o.Status == model.StatusSettled || !o.RemainingPrincipal().IsPositive():
		return model.Errorf(model.KindObligationAlreadySettled, "obligation_id", "obligation %s is already settled", o.ID)
	}
	return nil
}

func validateSettle(cmd SettleCommand) error {
	if err := validateAmount("requested_amount", cmd.RequestedAmount); err != nil {
		return err
	}
	switch {
	case cmd.IdempotencyKey == "":
		return model.NewError(model.KindInvalidInput, "idempotency_key", "idempotency key is required")
	case len(cmd.IdempotencyKey) > maxIdempotencyKeyLen:
		return model.Errorf(model.KindInvalidInput, "idempotency_key", "idempotency key must be at most %d characters", maxIdempotencyKeyLen)
	}
	return nil
}

// validateAmount requires a positive amount expressed in whole cents.
func validateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return model.NewError(model.KindInvalidInput, field, "amount must be greater than zero")
	}
	if !amount.Equal(amount.Round(moneyPlaces)) {
		return model.NewError(model.KindInvalidInput, field, "amount must have at most 2 decimal places")
	}
	return nil
}

func lockFailure(id uuid.UUID, err error) error {
	if errors.Is(err, lock.ErrLockTimeout) {
		return &model.Error{
			Kind:    model.KindConcurrentModification,
			Field:   "obligation_id",
			Message: "obligation " + id.String() + " is busy with another settlement; retry",
			Err:     err,
		}
	}
	return model.StorageFailure("acquire obligation lock", err)
}
