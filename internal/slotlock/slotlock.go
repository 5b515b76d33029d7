// Package slotlock serializes reservation commits that target the same
// restaurant slot. Locks are keyed by (restaurantID, slotStart), created
// lazily on first use and dropped once the last waiter releases, so the
// arena stays proportional to the number of actively contended slots.
package slotlock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kaeky/Yum-Yum-sub001/internal/domain"
)

// Arena hands out per-slot locks with a bounded acquisition wait.
type Arena struct {
	mu      sync.Mutex
	entries map[string]*entry
	timeout time.Duration
}

type entry struct {
	sem  chan struct{} // capacity 1; holding a token means holding the lock
	refs int
}

const defaultTimeout = 200 * time.Millisecond

// New creates an arena. timeout bounds how long Acquire blocks behind
// another holder before giving up with ErrSlotLockTimeout.
func New(timeout time.Duration) *Arena {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Arena{
		entries: make(map[string]*entry),
		timeout: timeout,
	}
}

func slotKey(restaurantID string, slotStart time.Time) string {
	return fmt.Sprintf("%s:%d", restaurantID, slotStart.UTC().Unix())
}

// Acquire takes the lock for one restaurant slot. It returns a release
// function on success. Waiting is bounded by the arena timeout and by
// ctx; a waiter that gives up returns domain.ErrSlotLockTimeout or the
// context error without ever holding the lock.
func (a *Arena) Acquire(ctx context.Context, restaurantID string, slotStart time.Time) (func(), error) {
	key := slotKey(restaurantID, slotStart)

	a.mu.Lock()
	e, ok := a.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		a.entries[key] = e
	}
	e.refs++
	a.mu.Unlock()

	timer := time.NewTimer(a.timeout)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		var once sync.Once
		release := func() {
			once.Do(func() {
				<-e.sem
				a.unref(key, e)
			})
		}
		return release, nil
	case <-timer.C:
		a.unref(key, e)
		return nil, domain.ErrSlotLockTimeout
	case <-ctx.Done():
		a.unref(key, e)
		return nil, ctx.Err()
	}
}

func (a *Arena) unref(key string, e *entry) {
	a.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(a.entries, key)
	}
	a.mu.Unlock()
}

// Len reports how many slot locks currently exist. Exposed for
// observability and tests.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}
