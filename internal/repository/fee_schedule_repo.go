package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
)

type FeeScheduleRepository struct {
	pool *pgxpool.Pool
}

func NewFeeScheduleRepository(pool *pgxpool.Pool) *FeeScheduleRepository {
	return &FeeScheduleRepository{pool: pool}
}

// GetFeeSchedule returns nil, nil when the method is not configured.
func (r *FeeScheduleRepository) GetFeeSchedule(ctx context.Context, method model.PaymentMethodType) (*model.FeeSchedule, error) {
	var out *model.FeeSchedule
	err := r.snapshot(ctx, func(tx pgx.Tx) error {
		s := &model.FeeSchedule{}
		err := tx.QueryRow(ctx,
			`SELECT method_type, flat_fee_percent, updated_at FROM fee_schedules WHERE method_type = $1`, method).
			Scan(&s.MethodType, &s.FlatFeePercent, &s.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get fee schedule: %w", err)
		}
		if s.Tiers, err = queryTiers(ctx, tx, method); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *FeeScheduleRepository) ListFeeSchedules(ctx context.Context) ([]model.FeeSchedule, error) {
	var out []model.FeeSchedule
	err := r.snapshot(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT method_type, flat_fee_percent, updated_at FROM fee_schedules ORDER BY method_type`)
		if err != nil {
			return fmt.Errorf("list fee schedules: %w", err)
		}
		for rows.Next() {
			var s model.FeeSchedule
			if err := rows.Scan(&s.MethodType, &s.FlatFeePercent, &s.UpdatedAt); err != nil {
				rows.Close()
				return fmt.Errorf("scan fee schedule: %w", err)
			}
			out = append(out, s)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate fee schedules: %w", err)
		}

		for i := range out {
			if out[i].Tiers, err = queryTiers(ctx, tx, out[i].MethodType); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// snapshot runs fn in a read-only repeatable-read transaction so a schedule
// and its tiers are never read across a concurrent save.
func (r *FeeScheduleRepository) snapshot(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("begin fee schedule read: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SaveFeeSchedule replaces the schedule and its tiers in one transaction.
func (r *FeeScheduleRepository) SaveFeeSchedule(ctx context.Context, s *model.FeeSchedule) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin fee schedule transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := upsertFeeSchedule(ctx, tx, s); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// upsertFeeSchedule is shared with seeding.
func upsertFeeSchedule(ctx context.Context, tx pgx.Tx, s *model.FeeSchedule) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO fee_schedules (method_type, flat_fee_percent, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (method_type) DO UPDATE SET flat_fee_percent = EXCLUDED.flat_fee_percent, updated_at = EXCLUDED.updated_at`,
		s.MethodType, s.FlatFeePercent, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert fee schedule %s: %w", s.MethodType, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM fee_tiers WHERE method_type = $1`, s.MethodType); err != nil {
		return fmt.Errorf("clear fee tiers %s: %w", s.MethodType, err)
	}

	batch := &pgx.Batch{}
	for _, t := range s.Tiers {
		batch.Queue(`INSERT INTO fee_tiers (method_type, installments, fee_percent, active) VALUES ($1, $2, $3, $4)`,
			s.MethodType, t.Installments, t.FeePercent, t.Active)
	}
	if batch.Len() == 0 {
		return nil
	}
	br := tx.SendBatch(ctx, batch)
	for i := range s.Tiers {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert fee tier %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}
	return nil
}

// SeedFeeSchedules writes schedules inside an existing transaction.
func SeedFeeSchedules(ctx context.Context, tx pgx.Tx, schedules []model.FeeSchedule) error {
	for i := range schedules {
		if err := upsertFeeSchedule(ctx, tx, &schedules[i]); err != nil {
			return err
		}
	}
	return nil
}

func queryTiers(ctx context.Context, tx pgx.Tx, method model.PaymentMethodType) ([]model.FeeTier, error) {
	rows, err := tx.Query(ctx,
		`SELECT installments, fee_percent, active FROM fee_tiers WHERE method_type = $1 ORDER BY installments`, method)
	if err != nil {
		return nil, fmt.Errorf("query fee tiers: %w", err)
	}
	defer rows.Close()

	tiers := []model.FeeTier{}
	for rows.Next() {
		var t model.FeeTier
		if err := rows.Scan(&t.Installments, &t.FeePercent, &t.Active); err != nil {
			return nil, fmt.Errorf("scan fee tier: %w", err)
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}
