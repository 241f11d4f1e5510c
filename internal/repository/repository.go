package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
)

// ErrDuplicateIdempotencyKey is returned by AppendSettlement when an event with
// the same (obligation, idempotency key) already exists.
var ErrDuplicateIdempotencyKey = errors.New("settlement with this idempotency key already recorded")

// LedgerTx groups the writes that must commit together: the settlement event
// append and the obligation balance update.
type LedgerTx interface {
	// LockObligation loads the obligation and holds it for the rest of the transaction.
	LockObligation(ctx context.Context, id uuid.UUID) (*model.Obligation, error)
	AppendSettlement(ctx context.Context, event *model.SettlementEvent) error
	// ApplySettlement moves settled_amount from previous to settled. It fails
	// with ConcurrentModification when the stored amount is no longer previous.
	ApplySettlement(ctx context.Context, id uuid.UUID, previous, settled decimal.Decimal, status model.ObligationStatus, at time.Time) error
}

type ObligationFilter struct {
	Status    model.ObligationStatus
	Direction model.Direction
	// OpenAt excludes obligations that are overdue at this instant.
	OpenAt *time.Time
	Limit  int
	Offset int
}

func concurrentModification(id uuid.UUID) error {
	return model.Errorf(model.KindConcurrentModification, "obligation_id",
		"obligation %s changed since it was read; retry with fresh data", id)
}

func obligationNotFound(id uuid.UUID) error {
	return model.Errorf(model.KindObligationNotFound, "obligation_id", "obligation %s not found", id)
}
