package service

import (
	"github.com/kaeky/Yum-Yum-sub001/internal/domain"
)

// AllocateTable picks a table for a party among the free tables of one
// slot: the smallest table that fits, and on equal capacity the lowest
// table number. occupied holds the IDs of tables already taken by a
// capacity-holding reservation for the slot.
func AllocateTable(tables []domain.Table, occupied map[string]bool, partySize int) (*domain.Table, error) {
	var best *domain.Table
	for i := range tables {
		t := &tables[i]
		if !t.CanSeat(partySize) || occupied[t.ID] {
			continue
		}
		if best == nil ||
			t.Capacity < best.Capacity ||
			(t.Capacity == best.Capacity && t.Number < best.Number) {
			best = t
		}
	}

	if best == nil {
		return nil, domain.ErrNoTableAvailable
	}

	chosen := *best
	return &chosen, nil
}

// FreeTableCount reports how many free tables could seat the party.
// Availability derivation uses it: a slot is bookable exactly when the
// count is positive.
func FreeTableCount(tables []domain.Table, occupied map[string]bool, partySize int) int {
	count := 0
	for i := range tables {
		if tables[i].CanSeat(partySize) && !occupied[tables[i].ID] {
			count++
		}
	}
	return count
}

// SeatableTableCount reports how many tables could ever seat the party,
// ignoring current occupancy.
func SeatableTableCount(tables []domain.Table, partySize int) int {
	count := 0
	for i := range tables {
		if tables[i].CanSeat(partySize) {
			count++
		}
	}
	return count
}
