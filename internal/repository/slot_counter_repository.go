package repository

import (
	"context"
	"time"
)

// HoldResult is the outcome of a compare-and-increment hold attempt.
type HoldResult struct {
	Acquired bool
	Held     int64
}

// SlotCounterRepository tracks how many reservations hold capacity for a
// slot, as an atomic counter shared across instances. The counter backs
// up the in-process slot lock: an increment past capacity is refused in
// one round trip, so two instances can never oversell the same slot.
type SlotCounterRepository interface {
	// TryHold atomically increments the slot counter unless it already
	// reached capacity. ttl bounds how long a counter outlives its slot.
	TryHold(ctx context.Context, restaurantID string, slotStart time.Time, capacity int64, ttl time.Duration) (*HoldResult, error)

	// Release decrements the slot counter, never below zero
	Release(ctx context.Context, restaurantID string, slotStart time.Time) error

	// Held returns the current counter value for a slot
	Held(ctx context.Context, restaurantID string, slotStart time.Time) (int64, error)
}
