package domain

import (
	"time"
)

// Restaurant holds the booking configuration for one restaurant.
// Opening hours live in WeeklyOpeningRule; table inventory in Table.
type Restaurant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"` // IANA name, empty means UTC

	// SlotDurationMinutes is the length of one bookable slot
	SlotDurationMinutes int `json:"slot_duration_minutes"`
	// AdvanceBookingDays is how far ahead (calendar days, restaurant-local)
	// reservations may be made
	AdvanceBookingDays int `json:"advance_booking_days"`
	// AutoConfirm waives manual confirmation: new reservations are created
	// CONFIRMED instead of PENDING
	AutoConfirm bool `json:"auto_confirm"`

	// Deposit and pre-order flags are carried for the payment and menu
	// collaborators; this core never interprets them
	RequireDeposit  bool `json:"require_deposit"`
	RequirePreOrder bool `json:"require_pre_order"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Location resolves the restaurant's timezone, defaulting to UTC
func (r *Restaurant) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(r.Timezone)
}

// SlotDuration returns the slot duration as a time.Duration
func (r *Restaurant) SlotDuration() time.Duration {
	return time.Duration(r.SlotDurationMinutes) * time.Minute
}

// WeeklyOpeningRule is one recurring open interval on a weekday, in
// restaurant-local wall-clock minutes since midnight. A weekday may carry
// several disjoint rules (lunch and dinner). Rules are soft-deleted via
// RetiredAt and never physically removed.
type WeeklyOpeningRule struct {
	ID           string       `json:"id"`
	RestaurantID string       `json:"restaurant_id"`
	Weekday      time.Weekday `json:"weekday"`
	OpenMinute   int          `json:"open_minute"`
	CloseMinute  int          `json:"close_minute"`
	IsActive     bool         `json:"is_active"`
	Notes        string       `json:"notes,omitempty"`
	RetiredAt    *time.Time   `json:"retired_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Active reports whether the rule currently contributes open hours
func (w *WeeklyOpeningRule) Active() bool {
	return w.IsActive && w.RetiredAt == nil
}

// Validate checks the rule interval
func (w *WeeklyOpeningRule) Validate() error {
	if w.OpenMinute < 0 || w.CloseMinute > 24*60 || w.OpenMinute >= w.CloseMinute {
		return ErrRuleInterval
	}
	return nil
}

// ValidateRuleSet verifies that active rules for the same weekday do not
// overlap. The rule store enforces this on write; the calendar relies on it.
func ValidateRuleSet(rules []WeeklyOpeningRule) error {
	byDay := make(map[time.Weekday][]WeeklyOpeningRule)
	for _, r := range rules {
		if !r.Active() {
			continue
		}
		if err := r.Validate(); err != nil {
			return err
		}
		for _, other := range byDay[r.Weekday] {
			if r.OpenMinute < other.CloseMinute && other.OpenMinute < r.CloseMinute {
				return ErrRuleOverlap
			}
		}
		byDay[r.Weekday] = append(byDay[r.Weekday], r)
	}
	return nil
}

// TableStatus represents the present state of a physical table
type TableStatus string

const (
	TableStatusAvailable TableStatus = "AVAILABLE"
	TableStatusOccupied  TableStatus = "OCCUPIED"
	TableStatusReserved  TableStatus = "RESERVED"
	TableStatusBlocked   TableStatus = "BLOCKED"
)

// IsValid checks the status value
func (s TableStatus) IsValid() bool {
	switch s {
	case TableStatusAvailable, TableStatusOccupied, TableStatusReserved, TableStatusBlocked:
		return true
	}
	return false
}

// Table is one physical table belonging to exactly one restaurant
type Table struct {
	ID           string      `json:"id"`
	RestaurantID string      `json:"restaurant_id"`
	Number       int         `json:"number"`
	Capacity     int         `json:"capacity"`
	Section      string      `json:"section,omitempty"`
	Status       TableStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Validate checks table fields
func (t *Table) Validate() error {
	if t.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if t.Number <= 0 {
		return ErrInvalidTableNumber
	}
	return nil
}

// CanSeat reports whether this single table can hold the party.
// Combining tables for one party is deliberately out of scope.
func (t *Table) CanSeat(partySize int) bool {
	return t.Status == TableStatusAvailable && t.Capacity >= partySize
}
