package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zaleoz1/Kontrolla-SaaS-Multtenanti-sub002/internal/model"
)

// MemoryStore keeps obligations, settlement history and fee schedules in
// process memory. It backs STORE_DRIVER=memory and the service tests, and
// gives the same guarantees as the Postgres repositories: the event append and
// balance update of a ledger transaction become visible together or not at all.
type MemoryStore struct {
	// txMu serializes ledger writers; mu guards the maps.
	txMu        sync.Mutex
	mu          sync.Mutex
	obligations map[uuid.UUID]model.Obligation
	events      map[uuid.UUID][]model.SettlementEvent
	schedules   map[model.PaymentMethodType]model.FeeSchedule
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		obligations: make(map[uuid.UUID]model.Obligation),
		events:      make(map[uuid.UUID][]model.SettlementEvent),
		schedules:   make(map[model.PaymentMethodType]model.FeeSchedule),
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) InsertObligation(ctx context.Context, o *model.Obligation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.obligations[o.ID]; exists {
		return model.Errorf(model.KindInvalidInput, "id", "obligation %s already exists", o.ID)
	}
	s.obligations[o.ID] = *o
	return nil
}

func (s *MemoryStore) GetObligation(ctx context.Context, id uuid.UUID) (*model.Obligation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.obligations[id]
	if !ok {
		return nil, obligationNotFound(id)
	}
	return &o, nil
}

func (s *MemoryStore) ListObligations(ctx context.Context, f ObligationFilter) ([]model.Obligation, int, error) {
	return s.list(func(o *model.Obligation) bool {
		if f.Status != "" && o.Status != f.Status {
			return false
		}
		if f.Direction != "" && o.Direction != f.Direction {
			return false
		}
		if f.OpenAt != nil && o.IsOverdue(*f.OpenAt) {
			return false
		}
		return true
	}, f.Limit, f.Offset)
}

func (s *MemoryStore) ListOverdueObligations(ctx context.Context, now time.Time, limit, offset int) ([]model.Obligation, int, error) {
	return s.list(func(o *model.Obligation) bool { return o.IsOverdue(now) }, limit, offset)
}

func (s *MemoryStore) ListOpenObligations(ctx context.Context, direction model.Direction) ([]model.Obligation, error) {
	out, _, err := s.list(func(o *model.Obligation) bool {
		return o.Direction == direction && !o.Status.Terminal() && o.SettledAmount.LessThan(o.OriginalAmount)
	}, 0, 0)
	return out, err
}

func (s *MemoryStore) CancelObligation(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.obligations[id]
	if !ok {
		return obligationNotFound(id)
	}
	if o.Status.Terminal() {
		return concurrentModification(id)
	}
	o.Status = model.StatusCanceled
	o.CancelReason = &reason
	o.CanceledAt = &at
	o.UpdatedAt = at
	s.obligations[id] = o
	return nil
}

func (s *MemoryStore) HistoryFor(ctx context.Context, obligationID uuid.UUID) ([]model.SettlementEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.SettlementEvent(nil), s.events[obligationID]...), nil
}

func (s *MemoryStore) FindSettlementByKey(ctx context.Context, obligationID uuid.UUID, key string) (*model.SettlementEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findByKey(obligationID, key), nil
}

func (s *MemoryStore) GetFeeSchedule(ctx context.Context, method model.PaymentMethodType) (*model.FeeSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched, ok := s.schedules[method]
	if !ok {
		return nil, nil
	}
	sched.Tiers = append([]model.FeeTier{}, sched.Tiers...)
	return &sched, nil
}

func (s *MemoryStore) ListFeeSchedules(ctx context.Context) ([]model.FeeSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.FeeSchedule, 0, len(s.schedules))
	for _, sched := range s.schedules {
		sched.Tiers = append([]model.FeeTier{}, sched.Tiers...)
		out = append(out, sched)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MethodType < out[j].MethodType })
	return out, nil
}

func (s *MemoryStore) SaveFeeSchedule(ctx context.Context, sched *model.FeeSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *sched
	stored.Tiers = append([]model.FeeTier{}, sched.Tiers...)
	s.schedules[sched.MethodType] = stored
	return nil
}

// WithTx serializes ledger writers for the duration of fn and applies the
// staged writes only if fn succeeds.
func (s *MemoryStore) WithTx(ctx context.Context, fn func(context.Context, LedgerTx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &memoryLedgerTx{store: s, obligations: make(map[uuid.UUID]model.Obligation)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, o := range tx.obligations {
		s.obligations[id] = o
	}
	for _, ev := range tx.events {
		s.events[ev.ObligationID] = append(s.events[ev.ObligationID], ev)
	}
	return nil
}

func (s *MemoryStore) findByKey(obligationID uuid.UUID, key string) *model.SettlementEvent {
	for _, ev := range s.events[obligationID] {
		if ev.IdempotencyKey == key {
			found := ev
			return &found
		}
	}
	return nil
}

func (s *MemoryStore) list(match func(*model.Obligation) bool, limit, offset int) ([]model.Obligation, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Obligation
	for _, o := range s.obligations {
		if match(&o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	total := len(out)
	if offset > 0 {
		if offset >= len(out) {
			return nil, total, nil
		}
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

type memoryLedgerTx struct {
	store       *MemoryStore
	obligations map[uuid.UUID]model.Obligation
	events      []model.SettlementEvent
}

func (t *memoryLedgerTx) current(id uuid.UUID) (model.Obligation, bool) {
	if o, ok := t.obligations[id]; ok {
		return o, true
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	o, ok := t.store.obligations[id]
	return o, ok
}

func (t *memoryLedgerTx) LockObligation(ctx context.Context, id uuid.UUID) (*model.Obligation, error) {
	o, ok := t.current(id)
	if !ok {
		return nil, obligationNotFound(id)
	}
	return &o, nil
}

func (t *memoryLedgerTx) AppendSettlement(ctx context.Context, ev *model.SettlementEvent) error {
	t.store.mu.Lock()
	dup := t.store.findByKey(ev.ObligationID, ev.IdempotencyKey) != nil
	t.store.mu.Unlock()
	if dup {
		return ErrDuplicateIdempotencyKey
	}
	for _, staged := range t.events {
		if staged.ObligationID == ev.ObligationID && staged.IdempotencyKey == ev.IdempotencyKey {
			return ErrDuplicateIdempotencyKey
		}
	}
	t.events = append(t.events, *ev)
	return nil
}

func (t *memoryLedgerTx) ApplySettlement(ctx context.Context, id uuid.UUID, previous, settled decimal.Decimal, status model.ObligationStatus, at time.Time) error {
	o, ok := t.current(id)
	if !ok {
		return obligationNotFound(id)
	}
	if !o.SettledAmount.Equal(previous) || o.Status.Terminal() {
		return concurrentModification(id)
	}
	o.SettledAmount = settled
	o.Status = status
	o.UpdatedAt = at
	t.obligations[id] = o
	return nil
}
