package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/repository"
)

// SeedData writes the named default fee schedules when no fee configuration
// exists yet. Existing configuration is never touched.
func SeedData(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM fee_schedules").Scan(&count)
	if err != nil {
		return fmt.Errorf("check existing fee schedules: %w", err)
	}
	if count > 0 {
		log.Info().Int("count", count).Msg("fee schedules already configured, skipping seed")
		return nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	schedules := model.DefaultFeeSchedules()
	now := time.Now().UTC()
	for i := range schedules {
		schedules[i].UpdatedAt = now
	}
	if err := repository.SeedFeeSchedules(ctx, tx, schedules); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	log.Info().
		Str("schedule", model.DefaultScheduleName).
		Int("methods", len(schedules)).
		Msg("seeded default fee schedules")
	return nil
}
