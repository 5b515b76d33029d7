package slotlock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaeky/Yum-Yum-sub001/internal/domain"
)

var slotStart = time.Date(2026, 9, 4, 23, 0, 0, 0, time.UTC)

func TestArena_AcquireRelease(t *testing.T) {
	a := New(100 * time.Millisecond)

	release, err := a.Acquire(context.Background(), "rest-001", slotStart)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Len())

	release()
	assert.Equal(t, 0, a.Len(), "entry must be dropped after last release")

	// Release is idempotent
	release()
	assert.Equal(t, 0, a.Len())
}

func TestArena_TimeoutIsBounded(t *testing.T) {
	a := New(50 * time.Millisecond)

	release, err := a.Acquire(context.Background(), "rest-001", slotStart)
	require.NoError(t, err)
	defer release()

	begin := time.Now()
	_, err = a.Acquire(context.Background(), "rest-001", slotStart)
	assert.ErrorIs(t, err, domain.ErrSlotLockTimeout)
	assert.Less(t, time.Since(begin), time.Second, "timed-out waiter must not block unbounded")
}

func TestArena_DifferentSlotsDoNotContend(t *testing.T) {
	a := New(50 * time.Millisecond)

	r1, err := a.Acquire(context.Background(), "rest-001", slotStart)
	require.NoError(t, err)
	defer r1()

	r2, err := a.Acquire(context.Background(), "rest-001", slotStart.Add(time.Hour))
	require.NoError(t, err)
	defer r2()

	r3, err := a.Acquire(context.Background(), "rest-002", slotStart)
	require.NoError(t, err)
	defer r3()

	assert.Equal(t, 3, a.Len())
}

func TestArena_ContextCancellation(t *testing.T) {
	a := New(time.Minute)

	release, err := a.Acquire(context.Background(), "rest-001", slotStart)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = a.Acquire(ctx, "rest-001", slotStart)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestArena_SerializesWaiters(t *testing.T) {
	a := New(5 * time.Second)

	const waiters = 32
	var inCritical, maxInCritical int
	var mu sync.Mutex
	var wg sync.WaitGroup

	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			defer wg.Done()
			release, err := a.Acquire(context.Background(), "rest-001", slotStart)
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInCritical, "only one holder at a time")
	assert.Equal(t, 0, a.Len(), "arena must be empty once everyone released")
}
