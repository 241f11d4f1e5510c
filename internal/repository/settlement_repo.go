package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
)

const settlementColumns = `id, obligation_id, idempotency_key, requested_amount, method_type, installments,
	fee_percent_applied, gross_amount_charged, installment_amount, last_installment_amount,
	applied_to_principal, remaining_principal, resulting_status, settled_at, note`

// SettlementRepository reads the append-only settlement history. Appends go
// through LedgerTx so they commit with the balance update.
type SettlementRepository struct {
	pool *pgxpool.Pool
}

func NewSettlementRepository(pool *pgxpool.Pool) *SettlementRepository {
	return &SettlementRepository{pool: pool}
}

func (r *SettlementRepository) HistoryFor(ctx context.Context, obligationID uuid.UUID) ([]model.SettlementEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+settlementColumns+` FROM settlement_events WHERE obligation_id = $1 ORDER BY settled_at, seq`,
		obligationID)
	if err != nil {
		return nil, fmt.Errorf("query settlement history: %w", err)
	}
	defer rows.Close()

	var out []model.SettlementEvent
	for rows.Next() {
		ev, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		out = append(out, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settlements: %w", err)
	}
	return out, nil
}

func (r *SettlementRepository) FindSettlementByKey(ctx context.Context, obligationID uuid.UUID, key string) (*model.SettlementEvent, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+settlementColumns+` FROM settlement_events WHERE obligation_id = $1 AND idempotency_key = $2`,
		obligationID, key)
	ev, err := scanSettlement(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find settlement by key: %w", err)
	}
	return ev, nil
}

func scanSettlement(row pgx.Row) (*model.SettlementEvent, error) {
	ev := &model.SettlementEvent{}
	err := row.Scan(&ev.ID, &ev.ObligationID, &ev.IdempotencyKey, &ev.RequestedAmount, &ev.MethodType, &ev.Installments,
		&ev.FeePercentApplied, &ev.GrossAmountCharged, &ev.InstallmentAmount, &ev.LastInstallmentAmount,
		&ev.AppliedToPrincipal, &ev.RemainingPrincipal, &ev.ResultingStatus, &ev.SettledAt, &ev.Note)
	if err != nil {
		return nil, err
	}
	return ev, nil
}
