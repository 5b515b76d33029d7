package repository

import (
	"context"
	"time"

	"github.com/kaeky/Yum-Yum-sub001/internal/domain"
)

// ReservationRepository defines persistence for reservations.
type ReservationRepository interface {
	// Create persists a new reservation
	Create(ctx context.Context, reservation *domain.Reservation) error

	// GetByID retrieves a reservation by its ID
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)

	// GetByIdempotencyKey retrieves a reservation by idempotency key.
	// Returns (nil, nil) when no reservation carries the key.
	GetByIdempotencyKey(ctx context.Context, restaurantID, key string) (*domain.Reservation, error)

	// ListHoldingBySlot returns the reservations holding capacity for
	// one slot of a restaurant (status in PENDING, CONFIRMED, SEATED)
	ListHoldingBySlot(ctx context.Context, restaurantID string, slotStart time.Time) ([]*domain.Reservation, error)

	// ListHoldingByDate returns the capacity-holding reservations whose
	// slot starts inside [dayStart, dayEnd)
	ListHoldingByDate(ctx context.Context, restaurantID string, dayStart, dayEnd time.Time) ([]*domain.Reservation, error)

	// ListByCustomer returns a customer's reservations, newest first
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*domain.Reservation, error)

	// Update persists a state transition, guarded by the status the
	// caller read: the write applies only if the stored row still has
	// that status. A lost race surfaces as ErrInvalidTransition.
	Update(ctx context.Context, reservation *domain.Reservation, expected domain.ReservationStatus) error

	// ListNoShowCandidates returns reservations still in PENDING or
	// CONFIRMED whose slot ended at or before cutoff
	ListNoShowCandidates(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Reservation, error)
}
