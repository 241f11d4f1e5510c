package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/lock"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/repository"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	store       *repository.MemoryStore
	settlements *SettlementService
	ledger      *LedgerService
	fees        *FeeScheduleService
	clock       *fakeClock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	for _, s := range model.DefaultFeeSchedules() {
		s := s
		require.NoError(t, store.SaveFeeSchedule(context.Background(), &s))
	}
	return newTestEnvWith(store, store, lock.NewKeyedMutex(5 * time.Second))
}

func newTestEnvWith(store *repository.MemoryStore, obligations ObligationStore, locker lock.Locker) *testEnv {
	clock := &fakeClock{now: testNow}
	resolver := NewFeeResolver(store)
	return &testEnv{
		store:       store,
		settlements: NewSettlementService(obligations, store, resolver, locker, clock),
		ledger:      NewLedgerService(obligations, store, locker, clock),
		fees:        NewFeeScheduleService(store, clock),
		clock:       clock,
	}
}

func (e *testEnv) createObligation(t *testing.T, amount string, due time.Time) *model.Obligation {
	t.Helper()
	o, err := e.ledger.CreateObligation(context.Background(), CreateObligationCommand{
		Direction:       model.DirectionReceivable,
		CounterpartyRef: "customer-42",
		OriginalAmount:  dec(amount),
		DueDate:         due,
	})
	require.NoError(t, err)
	return o
}

func (e *testEnv) settle(ctx context.Context, id uuid.UUID, amount string, method model.PaymentMethodType, installments *int) (*model.SettlementEvent, error) {
	return e.settlements.Settle(ctx, SettleCommand{
		ObligationID:    id,
		RequestedAmount: dec(amount),
		Method:          method,
		Installments:    installments,
		IdempotencyKey:  uuid.NewString(),
	})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(n int) *int { return &n }

func requireKind(t *testing.T, err error, kind model.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, model.KindOf(err), "unexpected error: %v", err)
}

func decimalsEqual(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

// timeoutLocker never grants a lock.
type timeoutLocker struct{}

func (timeoutLocker) Lock(ctx context.Context, key string) (func(), error) {
	return nil, lock.ErrLockTimeout
}

// noopLocker grants every lock immediately, leaving only the commit-time check.
type noopLocker struct{}

func (noopLocker) Lock(ctx context.Context, key string) (func(), error) {
	return func() {}, nil
}
