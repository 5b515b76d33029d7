package domain

import (
	"strings"
	"time"
)

// ReservationStatus represents the lifecycle state of a reservation
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusSeated    ReservationStatus = "SEATED"
	ReservationStatusCompleted ReservationStatus = "COMPLETED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
	ReservationStatusNoShow    ReservationStatus = "NO_SHOW"
)

// IsValid checks the status value
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusSeated,
		ReservationStatusCompleted, ReservationStatusCancelled, ReservationStatusNoShow:
		return true
	}
	return false
}

// String returns the string representation
func (s ReservationStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are allowed
func (s ReservationStatus) IsTerminal() bool {
	switch s {
	case ReservationStatusCompleted, ReservationStatusCancelled, ReservationStatusNoShow:
		return true
	}
	return false
}

// HoldsCapacity reports whether a reservation in this status counts
// against slot capacity. The availability calculator must use exactly
// this set.
func (s ReservationStatus) HoldsCapacity() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusSeated:
		return true
	}
	return false
}

// allowedTransitions is the full transition graph. NO_SHOW applies only
// to un-seated reservations; a seated party ends via COMPLETED.
var allowedTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationStatusPending:   {ReservationStatusConfirmed, ReservationStatusCancelled, ReservationStatusNoShow},
	ReservationStatusConfirmed: {ReservationStatusSeated, ReservationStatusCancelled, ReservationStatusNoShow},
	ReservationStatusSeated:    {ReservationStatusCompleted},
}

// CanTransitionTo checks the transition graph
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Reservation is one claim on a table for one slot. Reservations are
// never physically deleted; cancellation is a terminal state.
type Reservation struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	// TableID is empty until allocation succeeds and is cleared again if
	// the reservation is cancelled before seating
	TableID    string `json:"table_id,omitempty"`
	CustomerID string `json:"customer_id"`

	// SlotStart/SlotEnd are absolute UTC instants; local wall-clock time
	// is derived through the restaurant's timezone at the edges only
	SlotStart time.Time `json:"slot_start"`
	SlotEnd   time.Time `json:"slot_end"`

	PartySize       int               `json:"party_size"`
	Status          ReservationStatus `json:"status"`
	SpecialRequests string            `json:"special_requests,omitempty"`
	IdempotencyKey  string            `json:"idempotency_key,omitempty"`

	// Deposit markers are opaque to this core
	DepositRequired bool   `json:"deposit_required"`
	DepositRef      string `json:"deposit_ref,omitempty"`

	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	SeatedAt    *time.Time `json:"seated_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	NoShowAt    *time.Time `json:"no_show_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate validates reservation fields
func (r *Reservation) Validate() error {
	if strings.TrimSpace(r.RestaurantID) == "" {
		return ErrInvalidRestaurantID
	}
	if strings.TrimSpace(r.CustomerID) == "" {
		return ErrInvalidCustomerID
	}
	if r.PartySize < 1 {
		return ErrInvalidPartySize
	}
	if !r.Status.IsValid() {
		return ErrInvalidTransition
	}
	if !r.SlotEnd.After(r.SlotStart) {
		return ErrInvalidSlotStart
	}
	return nil
}

// HoldsCapacity reports whether this reservation currently counts
// against its slot's capacity
func (r *Reservation) HoldsCapacity() bool {
	return r.Status.HoldsCapacity()
}

// Overlaps reports whether this reservation's window overlaps [start, end)
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.SlotStart.Before(end) && start.Before(r.SlotEnd)
}

// Confirm moves PENDING to CONFIRMED. Allocation must have assigned a
// table already; the confirmation timestamp feeds the notification hook.
func (r *Reservation) Confirm(now time.Time) error {
	if !r.Status.CanTransitionTo(ReservationStatusConfirmed) {
		return ErrInvalidTransition
	}
	if r.TableID == "" {
		return ErrInvalidTransition
	}
	r.Status = ReservationStatusConfirmed
	r.ConfirmedAt = &now
	r.UpdatedAt = now
	return nil
}

// Seat moves CONFIRMED to SEATED, valid only at or after the slot start
func (r *Reservation) Seat(now time.Time) error {
	if !r.Status.CanTransitionTo(ReservationStatusSeated) {
		return ErrInvalidTransition
	}
	if now.Before(r.SlotStart) {
		return ErrSeatBeforeSlot
	}
	r.Status = ReservationStatusSeated
	r.SeatedAt = &now
	r.UpdatedAt = now
	return nil
}

// Complete moves SEATED to COMPLETED, releasing slot capacity
func (r *Reservation) Complete(now time.Time) error {
	if !r.Status.CanTransitionTo(ReservationStatusCompleted) {
		return ErrInvalidTransition
	}
	r.Status = ReservationStatusCompleted
	r.CompletedAt = &now
	r.UpdatedAt = now
	return nil
}

// Cancel moves PENDING or CONFIRMED to CANCELLED, releasing capacity.
// The assigned table (if any) is detached and its id returned so the
// caller can free it.
func (r *Reservation) Cancel(now time.Time) (freedTableID string, err error) {
	if !r.Status.CanTransitionTo(ReservationStatusCancelled) {
		return "", ErrInvalidTransition
	}
	freedTableID = r.TableID
	r.TableID = ""
	r.Status = ReservationStatusCancelled
	r.CancelledAt = &now
	r.UpdatedAt = now
	return freedTableID, nil
}

// MarkNoShow moves PENDING or CONFIRMED to NO_SHOW once the slot window
// has passed without seating
func (r *Reservation) MarkNoShow(now time.Time) (freedTableID string, err error) {
	if !r.Status.CanTransitionTo(ReservationStatusNoShow) {
		return "", ErrInvalidTransition
	}
	if now.Before(r.SlotEnd) {
		return "", ErrInvalidTransition
	}
	freedTableID = r.TableID
	r.TableID = ""
	r.Status = ReservationStatusNoShow
	r.NoShowAt = &now
	r.UpdatedAt = now
	return freedTableID, nil
}
