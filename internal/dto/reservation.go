package dto

import (
	"time"

	"github.com/kaeky/Yum-Yum-sub001/internal/domain"
)

// CreateReservationRequest represents request to book a slot
type CreateReservationRequest struct {
	RestaurantID    string `json:"restaurant_id" binding:"required"`
	SlotStart       string `json:"slot_start" binding:"required"` // RFC 3339
	PartySize       int    `json:"party_size" binding:"required,min=1"`
	SpecialRequests string `json:"special_requests,omitempty"`
	IdempotencyKey  string `json:"idempotency_key,omitempty"`
}

// ReservationResponse represents a reservation in API responses
type ReservationResponse struct {
	ID              string     `json:"id"`
	RestaurantID    string     `json:"restaurant_id"`
	TableID         string     `json:"table_id,omitempty"`
	CustomerID      string     `json:"customer_id"`
	SlotStart       time.Time  `json:"slot_start"`
	SlotEnd         time.Time  `json:"slot_end"`
	PartySize       int        `json:"party_size"`
	Status          string     `json:"status"`
	SpecialRequests string     `json:"special_requests,omitempty"`
	DepositRequired bool       `json:"deposit_required"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	SeatedAt        *time.Time `json:"seated_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	NoShowAt        *time.Time `json:"no_show_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// AvailabilityResponse lists the bookable slot starts for one date
type AvailabilityResponse struct {
	RestaurantID string      `json:"restaurant_id"`
	Date         string      `json:"date"`
	PartySize    int         `json:"party_size"`
	Timezone     string      `json:"timezone"`
	Slots        []SlotEntry `json:"slots"`
}

// SlotEntry is one bookable slot start
type SlotEntry struct {
	SlotStart time.Time `json:"slot_start"`
	LocalTime string    `json:"local_time"`
}

// PaginatedResponse wraps a page of results
type PaginatedResponse struct {
	Items    interface{} `json:"items"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// FromDomain converts domain Reservation to ReservationResponse
func FromDomain(r *domain.Reservation) *ReservationResponse {
	return &ReservationResponse{
		ID:              r.ID,
		RestaurantID:    r.RestaurantID,
		TableID:         r.TableID,
		CustomerID:      r.CustomerID,
		SlotStart:       r.SlotStart,
		SlotEnd:         r.SlotEnd,
		PartySize:       r.PartySize,
		Status:          r.Status.String(),
		SpecialRequests: r.SpecialRequests,
		DepositRequired: r.DepositRequired,
		ConfirmedAt:     r.ConfirmedAt,
		SeatedAt:        r.SeatedAt,
		CompletedAt:     r.CompletedAt,
		CancelledAt:     r.CancelledAt,
		NoShowAt:        r.NoShowAt,
		CreatedAt:       r.CreatedAt,
	}
}

// FromDomainList converts a list of reservations
func FromDomainList(reservations []*domain.Reservation) []*ReservationResponse {
	out := make([]*ReservationResponse, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, FromDomain(r))
	}
	return out
}
