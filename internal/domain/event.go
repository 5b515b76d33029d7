package domain

import "time"

// ReservationEventType identifies a notification-worthy transition
type ReservationEventType string

const (
	ReservationEventConfirmed ReservationEventType = "reservation.confirmed"
	ReservationEventCancelled ReservationEventType = "reservation.cancelled"
	ReservationEventNoShow    ReservationEventType = "reservation.no_show"
)

// ReservationEvent is the payload handed to the notification collaborator.
// Delivery is fire-and-forget: a failed publish never rolls back the
// state transition that produced it.
type ReservationEvent struct {
	EventID       string               `json:"event_id"`
	Type          ReservationEventType `json:"type"`
	ReservationID string               `json:"reservation_id"`
	RestaurantID  string               `json:"restaurant_id"`
	CustomerID    string               `json:"customer_id"`
	Status        ReservationStatus    `json:"status"`
	SlotStart     time.Time            `json:"slot_start"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// Key returns the partition key so events for one reservation stay ordered
func (e *ReservationEvent) Key() string {
	return e.ReservationID
}

// NewReservationEvent builds an event from a reservation's current state
func NewReservationEvent(eventType ReservationEventType, r *Reservation, eventID string) *ReservationEvent {
	return &ReservationEvent{
		EventID:       eventID,
		Type:          eventType,
		ReservationID: r.ID,
		RestaurantID:  r.RestaurantID,
		CustomerID:    r.CustomerID,
		Status:        r.Status,
		SlotStart:     r.SlotStart,
		OccurredAt:    time.Now().UTC(),
	}
}
