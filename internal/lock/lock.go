package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrLockTimeout is returned when a lock could not be acquired in time.
var ErrLockTimeout = errors.New("lock: timed out waiting for lock")

// Locker provides mutual exclusion per key. The returned function releases
// the lock and is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// ObligationKey builds the lock key guarding settlement of one obligation.
func ObligationKey(id uuid.UUID) string {
	return fmt.Sprintf("settlement:obligation:%s:lock", id)
}

// KeyedMutex is an in-process Locker. Entries are dropped once no goroutine
// holds or waits on them. A waiter gives up after wait; zero waits for the
// context alone.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyEntry
	wait    time.Duration
}

type keyEntry struct {
	slot chan struct{}
	refs int
}

func NewKeyedMutex(wait time.Duration) *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*keyEntry), wait: wait}
}

func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &keyEntry{slot: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	var expired <-chan time.Time
	if m.wait > 0 {
		timer := time.NewTimer(m.wait)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case e.slot <- struct{}{}:
	case <-expired:
		m.release(key, e)
		return nil, ErrLockTimeout
	case <-ctx.Done():
		m.release(key, e)
		return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.slot
			m.release(key, e)
		})
	}, nil
}

func (m *KeyedMutex) release(key string, e *keyEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
}
