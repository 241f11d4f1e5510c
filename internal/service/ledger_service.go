package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/lock"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/repository"
)

type CreateObligationCommand struct {
	Direction       model.Direction
	CounterpartyRef string
	Description     string
	OriginalAmount  decimal.Decimal
	DueDate         time.Time
}

// LedgerService owns obligation reads and the non-settlement writes: creation
// by the sales/purchase collaborators and cancellation by the authorization step.
// Obligations it returns carry their effective status, with overdue derived at
// the service clock's current time.
type LedgerService struct {
	obligations ObligationStore
	settlements SettlementStore
	locker      lock.Locker
	clock       Clock
}

func NewLedgerService(obligations ObligationStore, settlements SettlementStore, locker lock.Locker, clock Clock) *LedgerService {
	return &LedgerService{obligations: obligations, settlements: settlements, locker: locker, clock: clock}
}

func (s *LedgerService) CreateObligation(ctx context.Context, cmd CreateObligationCommand) (*model.Obligation, error) {
	if err := validateCreate(cmd); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	o := &model.Obligation{
		ID:              uuid.New(),
		Direction:       cmd.Direction,
		CounterpartyRef: strings.TrimSpace(cmd.CounterpartyRef),
		Description:     cmd.Description,
		OriginalAmount:  cmd.OriginalAmount,
		SettledAmount:   decimal.Zero,
		DueDate:         cmd.DueDate.UTC(),
		Status:          model.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.obligations.InsertObligation(ctx, o); err != nil {
		return nil, model.StorageFailure("insert obligation", err)
	}

	log.Info().
		Str("obligation_id", o.ID.String()).
		Str("direction", string(o.Direction)).
		Str("amount", o.OriginalAmount.StringFixed(moneyPlaces)).
		Msg("obligation created")
	return o, nil
}

func (s *LedgerService) Get(ctx context.Context, id uuid.UUID) (*model.Obligation, error) {
	o, err := s.obligations.GetObligation(ctx, id)
	if err != nil {
		return nil, model.StorageFailure("get obligation", err)
	}
	o.Status = o.EffectiveStatus(s.clock.Now())
	return o, nil
}

// Status returns the effective status of the obligation.
func (s *LedgerService) Status(ctx context.Context, id uuid.UUID) (model.ObligationStatus, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return o.Status, nil
}

// Detail loads the obligation and its history concurrently.
func (s *LedgerService) Detail(ctx context.Context, id uuid.UUID) (*model.ObligationDetail, error) {
	var (
		o      *model.Obligation
		events []model.SettlementEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		o, err = s.obligations.GetObligation(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = s.settlements.HistoryFor(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, model.StorageFailure("load obligation detail", err)
	}
	if events == nil {
		events = []model.SettlementEvent{}
	}

	return &model.ObligationDetail{
		Obligation:         *o,
		EffectiveStatus:    o.EffectiveStatus(s.clock.Now()),
		RemainingPrincipal: o.RemainingPrincipal(),
		Settlements:        events,
	}, nil
}

// ListByStatus filters on effective status. An empty status lists everything.
func (s *LedgerService) ListByStatus(ctx context.Context, status model.ObligationStatus, limit, offset int) ([]model.Obligation, int, error) {
	if status != "" && !status.Valid() {
		return nil, 0, model.Errorf(model.KindInvalidInput, "status", "unknown obligation status %q", status)
	}
	if status == model.StatusOverdue {
		return s.ListOverdue(ctx, limit, offset)
	}

	now := s.clock.Now()
	filter := repository.ObligationFilter{Status: status, Limit: limit, Offset: offset}
	if status == model.StatusPending || status == model.StatusPartiallySettled {
		filter.OpenAt = &now
	}
	items, total, err := s.obligations.ListObligations(ctx, filter)
	if err != nil {
		return nil, 0, model.StorageFailure("list obligations", err)
	}
	return withEffectiveStatus(items, now), total, nil
}

// ListOverdue is the computed overdue view at the current time.
func (s *LedgerService) ListOverdue(ctx context.Context, limit, offset int) ([]model.Obligation, int, error) {
	now := s.clock.Now()
	items, total, err := s.obligations.ListOverdueObligations(ctx, now, limit, offset)
	if err != nil {
		return nil, 0, model.StorageFailure("list overdue obligations", err)
	}
	return withEffectiveStatus(items, now), total, nil
}

// Cancel marks an open obligation canceled. It takes the same per-obligation
// lock as settlement so the two never interleave.
func (s *LedgerService) Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.Obligation, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, model.NewError(model.KindInvalidInput, "reason", "cancellation reason is required")
	}

	unlock, err := s.locker.Lock(ctx, lock.ObligationKey(id))
	if err != nil {
		return nil, lockFailure(id, err)
	}
	defer unlock()

	o, err := s.obligations.GetObligation(ctx, id)
	if err != nil {
		return nil, model.StorageFailure("get obligation", err)
	}
	if err := checkSettleable(o); err != nil {
		return nil, err
	}

	if err := s.obligations.CancelObligation(ctx, id, reason, s.clock.Now()); err != nil {
		return nil, model.StorageFailure("cancel obligation", err)
	}
	log.Info().Str("obligation_id", id.String()).Str("reason", reason).Msg("obligation canceled")

	return s.Get(ctx, id)
}

// Aging buckets remaining principal of open obligations by days past due as
// of asOf. A zero asOf means now.
func (s *LedgerService) Aging(ctx context.Context, asOf time.Time) (*model.AgingReport, error) {
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}
	report := &model.AgingReport{AsOf: asOf}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.agingFor(gctx, model.DirectionReceivable, asOf)
		report.Receivable = b
		return err
	})
	g.Go(func() error {
		b, err := s.agingFor(gctx, model.DirectionPayable, asOf)
		report.Payable = b
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, model.StorageFailure("aging report", err)
	}
	return report, nil
}

func (s *LedgerService) agingFor(ctx context.Context, direction model.Direction, asOf time.Time) (model.AgingBucket, error) {
	items, err := s.obligations.ListOpenObligations(ctx, direction)
	if err != nil {
		return model.AgingBucket{}, err
	}

	var bucket model.AgingBucket
	for _, o := range items {
		remaining := o.RemainingPrincipal()
		days := int(asOf.Sub(o.DueDate).Hours() / 24)
		switch {
		case days <= 0:
			bucket.Current = bucket.Current.Add(remaining)
		case days <= 30:
			bucket.Bucket30 = bucket.Bucket30.Add(remaining)
		case days <= 60:
			bucket.Bucket60 = bucket.Bucket60.Add(remaining)
		case days <= 90:
			bucket.Bucket90 = bucket.Bucket90.Add(remaining)
		default:
			bucket.Bucket120 = bucket.Bucket120.Add(remaining)
		}
		bucket.Total = bucket.Total.Add(remaining)
	}
	return bucket, nil
}

func withEffectiveStatus(items []model.Obligation, now time.Time) []model.Obligation {
	if items == nil {
		return []model.Obligation{}
	}
	for i := range items {
		items[i].Status = items[i].EffectiveStatus(now)
	}
	return items
}

func validateCreate(cmd CreateObligationCommand) error {
	switch {
	case !cmd.Direction.Valid():
		return model.Errorf(model.KindInvalidInput, "direction", "direction must be receivable or payable (got %q)", cmd.Direction)
	case strings.TrimSpace(cmd.CounterpartyRef) == "":
		return model.NewError(model.KindInvalidInput, "counterparty_ref", "counterparty reference is required")
	case cmd.DueDate.IsZero():
		return model.NewError(model.KindInvalidInput, "due_date", "due date is required")
	}
	return validateAmount("original_amount", cmd.OriginalAmount)
}
