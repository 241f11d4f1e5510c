package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
)

const obligationColumns = `id, direction, counterparty_ref, description, original_amount, settled_amount,
	due_date, status, cancel_reason, canceled_at, created_at, updated_at`

type ObligationRepository struct {
	pool *pgxpool.Pool
}

func NewObligationRepository(pool *pgxpool.Pool) *ObligationRepository {
	return &ObligationRepository{pool: pool}
}

func (r *ObligationRepository) InsertObligation(ctx context.Context, o *model.Obligation) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO obligations (id, direction, counterparty_ref, description, original_amount, settled_amount, due_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.Direction, o.CounterpartyRef, o.Description, o.OriginalAmount, o.SettledAmount,
		o.DueDate, o.Status, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert obligation: %w", err)
	}
	return nil
}

func (r *ObligationRepository) GetObligation(ctx context.Context, id uuid.UUID) (*model.Obligation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+obligationColumns+` FROM obligations WHERE id = $1`, id)
	o, err := scanObligation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, obligationNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get obligation: %w", err)
	}
	return o, nil
}

func (r *ObligationRepository) ListObligations(ctx context.Context, f ObligationFilter) ([]model.Obligation, int, error) {
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Direction != "" {
		args = append(args, f.Direction)
		conds = append(conds, fmt.Sprintf("direction = $%d", len(args)))
	}
	if f.OpenAt != nil {
		args = append(args, *f.OpenAt)
		conds = append(conds, fmt.Sprintf("NOT (due_date < $%d AND settled_amount < original_amount AND status NOT IN ('settled', 'canceled'))", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	return r.list(ctx, where, args, f.Limit, f.Offset)
}

func (r *ObligationRepository) ListOverdueObligations(ctx context.Context, now time.Time, limit, offset int) ([]model.Obligation, int, error) {
	where := ` WHERE due_date < $1 AND settled_amount < original_amount AND status NOT IN ('settled', 'canceled')`
	return r.list(ctx, where, []any{now}, limit, offset)
}

func (r *ObligationRepository) ListOpenObligations(ctx context.Context, direction model.Direction) ([]model.Obligation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+obligationColumns+` FROM obligations
		WHERE direction = $1 AND status NOT IN ('settled', 'canceled') AND settled_amount < original_amount
		ORDER BY due_date`, direction)
	if err != nil {
		return nil, fmt.Errorf("list open obligations: %w", err)
	}
	defer rows.Close()
	return collectObligations(rows)
}

func (r *ObligationRepository) CancelObligation(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE obligations SET status = 'canceled', cancel_reason = $2, canceled_at = $3, updated_at = $3
		WHERE id = $1 AND status NOT IN ('settled', 'canceled')`, id, reason, at)
	if err != nil {
		return fmt.Errorf("cancel obligation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return concurrentModification(id)
	}
	return nil
}

// WithTx runs fn in a single database transaction; any error rolls back.
func (r *ObligationRepository) WithTx(ctx context.Context, fn func(context.Context, LedgerTx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &pgLedgerTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ledger transaction: %w", err)
	}
	return nil
}

func (r *ObligationRepository) list(ctx context.Context, where string, args []any, limit, offset int) ([]model.Obligation, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM obligations`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count obligations: %w", err)
	}

	query := `SELECT ` + obligationColumns + ` FROM obligations` + where + ` ORDER BY due_date, created_at`
	if limit > 0 {
		args = append(args, limit, offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list obligations: %w", err)
	}
	defer rows.Close()

	out, err := collectObligations(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

type pgLedgerTx struct {
	tx pgx.Tx
}

func (t *pgLedgerTx) LockObligation(ctx context.Context, id uuid.UUID) (*model.Obligation, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+obligationColumns+` FROM obligations WHERE id = $1 FOR UPDATE`, id)
	o, err := scanObligation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, obligationNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("lock obligation: %w", err)
	}
	return o, nil
}

func (t *pgLedgerTx) AppendSettlement(ctx context.Context, ev *model.SettlementEvent) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO settlement_events (id, obligation_id, idempotency_key, requested_amount, method_type, installments,
			fee_percent_applied, gross_amount_charged, installment_amount, last_installment_amount,
			applied_to_principal, remaining_principal, resulting_status, settled_at, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		ev.ID, ev.ObligationID, ev.IdempotencyKey, ev.RequestedAmount, ev.MethodType, ev.Installments,
		ev.FeePercentApplied, ev.GrossAmountCharged, ev.InstallmentAmount, ev.LastInstallmentAmount,
		ev.AppliedToPrincipal, ev.RemainingPrincipal, ev.ResultingStatus, ev.SettledAt, ev.Note,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("append settlement: %w", err)
	}
	return nil
}

func (t *pgLedgerTx) ApplySettlement(ctx context.Context, id uuid.UUID, previous, settled decimal.Decimal, status model.ObligationStatus, at time.Time) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE obligations SET settled_amount = $3, status = $4, updated_at = $5
		WHERE id = $1 AND settled_amount = $2 AND status NOT IN ('settled', 'canceled')`,
		id, previous, settled, status, at)
	if err != nil {
		return fmt.Errorf("apply settlement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return concurrentModification(id)
	}
	return nil
}

func scanObligation(row pgx.Row) (*model.Obligation, error) {
	o := &model.Obligation{}
	err := row.Scan(&o.ID, &o.Direction, &o.CounterpartyRef, &o.Description, &o.OriginalAmount, &o.SettledAmount,
		&o.DueDate, &o.Status, &o.CancelReason, &o.CanceledAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func collectObligations(rows pgx.Rows) ([]model.Obligation, error) {
	var out []model.Obligation
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan obligation: %w", err)
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate obligations: %w", err)
	}
	return out, nil
}
