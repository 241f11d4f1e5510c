package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/repository"
)

// ObligationStore is implemented by repository.ObligationRepository and
// repository.MemoryStore.
type ObligationStore interface {
	InsertObligation(ctx context.Context, o *model.Obligation) error
	GetObligation(ctx context.Context, id uuid.UUID) (*model.Obligation, error)
	ListObligations(ctx context.Context, f repository.ObligationFilter) ([]model.Obligation, int, error)
	ListOverdueObligations(ctx context.Context, now time.Time, limit, offset int) ([]model.Obligation, int, error)
	ListOpenObligations(ctx context.Context, direction model.Direction) ([]model.Obligation, error)
	CancelObligation(ctx context.Context, id uuid.UUID, reason string, at time.Time) error
	WithTx(ctx context.Context, fn func(context.Context, repository.LedgerTx) error) error
}

type SettlementStore interface {
	HistoryFor(ctx context.Context, obligationID uuid.UUID) ([]model.SettlementEvent, error)
	FindSettlementByKey(ctx context.Context, obligationID uuid.UUID, key string) (*model.SettlementEvent, error)
}

type FeeScheduleStore interface {
	FeeScheduleSource
	ListFeeSchedules(ctx context.Context) ([]model.FeeSchedule, error)
	SaveFeeSchedule(ctx context.Context, s *model.FeeSchedule) error
}
