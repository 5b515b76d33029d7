package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kaeky/Yum-Yum-sub001/internal/domain"
)

// MemoryRestaurantRepository implements RestaurantRepository using in-memory storage
// This is useful for testing and development
type MemoryRestaurantRepository struct {
	restaurants map[string]*domain.Restaurant
	rules       map[string][]domain.WeeklyOpeningRule
	tables      map[string][]domain.Table
	mu          sync.RWMutex
}

// NewMemoryRestaurantRepository creates a new in-memory restaurant repository
func NewMemoryRestaurantRepository() *MemoryRestaurantRepository {
	return &MemoryRestaurantRepository{
		restaurants: make(map[string]*domain.Restaurant),
		rules:       make(map[string][]domain.WeeklyOpeningRule),
		tables:      make(map[string][]domain.Table),
	}
}

// Seed registers a restaurant with its rules and tables
func (r *MemoryRestaurantRepository) Seed(restaurant *domain.Restaurant, rules []domain.WeeklyOpeningRule, tables []domain.Table) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rest := *restaurant
	r.restaurants[restaurant.ID] = &rest
	r.rules[restaurant.ID] = append([]domain.WeeklyOpeningRule(nil), rules...)

	sorted := append([]domain.Table(nil), tables...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })
	r.tables[restaurant.ID] = sorted
}

// GetByID retrieves a restaurant by its ID
func (r *MemoryRestaurantRepository) GetByID(ctx context.Context, id string) (*domain.Restaurant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	restaurant, exists := r.restaurants[id]
	if !exists {
		return nil, domain.ErrRestaurantNotFound
	}

	rest := *restaurant
	return &rest, nil
}

// ListActiveRules returns the active weekly opening rules for a restaurant
func (r *MemoryRestaurantRepository) ListActiveRules(ctx context.Context, restaurantID string) ([]domain.WeeklyOpeningRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.restaurants[restaurantID]; !exists {
		return nil, domain.ErrRestaurantNotFound
	}

	var active []domain.WeeklyOpeningRule
	for _, rule := range r.rules[restaurantID] {
		if rule.Active() {
			active = append(active, rule)
		}
	}
	return active, nil
}

// ListTables returns the table inventory for a restaurant ordered by table number
func (r *MemoryRestaurantRepository) ListTables(ctx context.Context, restaurantID string) ([]domain.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.restaurants[restaurantID]; !exists {
		return nil, domain.ErrRestaurantNotFound
	}

	return append([]domain.Table(nil), r.tables[restaurantID]...), nil
}

// UpdateTableStatus changes the present state of a single table
func (r *MemoryRestaurantRepository) UpdateTableStatus(ctx context.Context, tableID string, status domain.TableStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for restaurantID, tables := range r.tables {
		for i := range tables {
			if tables[i].ID == tableID {
				tables[i].Status = status
				tables[i].UpdatedAt = time.Now().UTC()
				r.tables[restaurantID] = tables
				return nil
			}
		}
	}
	return domain.ErrTableNotFound
}

// MemoryReservationRepository implements ReservationRepository using in-memory storage
type MemoryReservationRepository struct {
	reservations map[string]*domain.Reservation
	mu           sync.RWMutex
}

// NewMemoryReservationRepository creates a new in-memory reservation repository
func NewMemoryReservationRepository() *MemoryReservationRepository {
	return &MemoryReservationRepository{
		reservations: make(map[string]*domain.Reservation),
	}
}

// Create persists a new reservation
func (r *MemoryReservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Clone to avoid external modifications
	res := *reservation
	r.reservations[reservation.ID] = &res
	return nil
}

// GetByID retrieves a reservation by its ID
func (r *MemoryReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reservation, exists := r.reservations[id]
	if !exists {
		return nil, domain.ErrReservationNotFound
	}

	res := *reservation
	return &res, nil
}

// GetByIdempotencyKey retrieves a reservation by idempotency key
func (r *MemoryReservationRepository) GetByIdempotencyKey(ctx context.Context, restaurantID, key string) (*domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, reservation := range r.reservations {
		if reservation.RestaurantID == restaurantID && reservation.IdempotencyKey == key {
			res := *reservation
			return &res, nil
		}
	}
	return nil, nil
}

// ListHoldingBySlot returns the reservations holding capacity for one slot
func (r *MemoryReservationRepository) ListHoldingBySlot(ctx context.Context, restaurantID string, slotStart time.Time) ([]*domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var holding []*domain.Reservation
	for _, reservation := range r.reservations {
		if reservation.RestaurantID == restaurantID &&
			reservation.SlotStart.Equal(slotStart) &&
			reservation.HoldsCapacity() {
			res := *reservation
			holding = append(holding, &res)
		}
	}

	sort.Slice(holding, func(i, j int) bool { return holding[i].CreatedAt.Before(holding[j].CreatedAt) })
	return holding, nil
}

// ListHoldingByDate returns the capacity-holding reservations of one service day
func (r *MemoryReservationRepository) ListHoldingByDate(ctx context.Context, restaurantID string, dayStart, dayEnd time.Time) ([]*domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var holding []*domain.Reservation
	for _, reservation := range r.reservations {
		if reservation.RestaurantID == restaurantID &&
			!reservation.SlotStart.Before(dayStart) &&
			reservation.SlotStart.Before(dayEnd) &&
			reservation.HoldsCapacity() {
			res := *reservation
			holding = append(holding, &res)
		}
	}

	sort.Slice(holding, func(i, j int) bool { return holding[i].SlotStart.Before(holding[j].SlotStart) })
	return holding, nil
}

// ListByCustomer returns a customer's reservations, newest first
func (r *MemoryReservationRepository) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var owned []*domain.Reservation
	for _, reservation := range r.reservations {
		if reservation.CustomerID == customerID {
			res := *reservation
			owned = append(owned, &res)
		}
	}

	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })

	if offset >= len(owned) {
		return []*domain.Reservation{}, nil
	}
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], nil
}

// Update persists state changes to an existing reservation
func (r *MemoryReservationRepository) Update(ctx context.Context, reservation *domain.Reservation, expected domain.ReservationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.reservations[reservation.ID]
	if !exists {
		return domain.ErrReservationNotFound
	}
	if stored.Status != expected {
		return domain.ErrInvalidTransition
	}

	res := *reservation
	r.reservations[reservation.ID] = &res
	return nil
}

// ListNoShowCandidates returns stale PENDING/CONFIRMED reservations whose slot has ended
func (r *MemoryReservationRepository) ListNoShowCandidates(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []*domain.Reservation
	for _, reservation := range r.reservations {
		if (reservation.Status == domain.ReservationStatusPending || reservation.Status == domain.ReservationStatusConfirmed) &&
			!reservation.SlotEnd.After(cutoff) {
			res := *reservation
			candidates = append(candidates, &res)
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].SlotEnd.Before(candidates[j].SlotEnd) })
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// Count returns the total number of reservations (for testing)
func (r *MemoryReservationRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.reservations)
}

// MemorySlotCounterRepository implements SlotCounterRepository using in-memory counters
type MemorySlotCounterRepository struct {
	counters map[string]int64
	mu       sync.Mutex
}

// NewMemorySlotCounterRepository creates a new in-memory slot counter repository
func NewMemorySlotCounterRepository() *MemorySlotCounterRepository {
	return &MemorySlotCounterRepository{counters: make(map[string]int64)}
}

// TryHold atomically takes one unit of slot capacity
func (r *MemorySlotCounterRepository) TryHold(ctx context.Context, restaurantID string, slotStart time.Time, capacity int64, ttl time.Duration) (*HoldResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := slotCounterKey(restaurantID, slotStart)
	held := r.counters[key]
	if held >= capacity {
		return &HoldResult{Acquired: false, Held: held}, nil
	}

	held++
	r.counters[key] = held
	return &HoldResult{Acquired: true, Held: held}, nil
}

// Release returns one unit of slot capacity
func (r *MemorySlotCounterRepository) Release(ctx context.Context, restaurantID string, slotStart time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := slotCounterKey(restaurantID, slotStart)
	if r.counters[key] > 0 {
		r.counters[key]--
	}
	return nil
}

// Held returns the current counter value for a slot
func (r *MemorySlotCounterRepository) Held(ctx context.Context, restaurantID string, slotStart time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[slotCounterKey(restaurantID, slotStart)], nil
}

var (
	_ RestaurantRepository  = (*MemoryRestaurantRepository)(nil)
	_ ReservationRepository = (*MemoryReservationRepository)(nil)
	_ SlotCounterRepository = (*MemorySlotCounterRepository)(nil)
)
