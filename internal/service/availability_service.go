package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kaeky/Yum-Yum-sub001/internal/calendar"
	"github.com/kaeky/Yum-Yum-sub001/internal/domain"
	"github.com/kaeky/Yum-Yum-sub001/internal/dto"
	"github.com/kaeky/Yum-Yum-sub001/internal/repository"
	"github.com/kaeky/Yum-Yum-sub001/pkg/telemetry"
)

// AvailabilityService derives the bookable slot starts for a restaurant,
// date and party size.
type AvailabilityService interface {
	// GetAvailability returns the bookable slots for one calendar date
	GetAvailability(ctx context.Context, restaurantID, date string, partySize int) (*dto.AvailabilityResponse, error)
}

// availabilityService implements AvailabilityService
type availabilityService struct {
	restaurantRepo  repository.RestaurantRepository
	reservationRepo repository.ReservationRepository
	minLeadTime     time.Duration
	now             func() time.Time
}

// AvailabilityServiceConfig contains configuration for the availability service
type AvailabilityServiceConfig struct {
	MinLeadTime time.Duration
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(
	restaurantRepo repository.RestaurantRepository,
	reservationRepo repository.ReservationRepository,
	cfg *AvailabilityServiceConfig,
) AvailabilityService {
	minLeadTime := 30 * time.Minute
	if cfg != nil && cfg.MinLeadTime > 0 {
		minLeadTime = cfg.MinLeadTime
	}
	return &availabilityService{
		restaurantRepo:  restaurantRepo,
		reservationRepo: reservationRepo,
		minLeadTime:     minLeadTime,
		now:             time.Now,
	}
}

// GetAvailability returns the bookable slots for one calendar date
func (s *availabilityService) GetAvailability(ctx context.Context, restaurantID, date string, partySize int) (*dto.AvailabilityResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.availability.get")
	defer span.End()

	if restaurantID == "" {
		span.SetStatus(codes.Error, "invalid restaurant_id")
		return nil, domain.ErrInvalidRestaurantID
	}
	if partySize < 1 {
		span.SetStatus(codes.Error, "invalid party_size")
		return nil, domain.ErrInvalidPartySize
	}

	span.SetAttributes(
		attribute.String("restaurant_id", restaurantID),
		attribute.String("date", date),
		attribute.Int("party_size", partySize),
	)

	restaurant, err := s.restaurantRepo.GetByID(ctx, restaurantID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	loc, err := restaurant.Location()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	day, err := calendar.ParseDate(date, loc)
	if err != nil {
		span.SetStatus(codes.Error, "invalid date")
		return nil, err
	}

	if err := s.checkBookingWindow(day, restaurant, loc); err != nil {
		span.SetStatus(codes.Error, "date out of window")
		return nil, err
	}

	resp := &dto.AvailabilityResponse{
		RestaurantID: restaurantID,
		Date:         date,
		PartySize:    partySize,
		Timezone:     loc.String(),
		Slots:        []dto.SlotEntry{},
	}

	rules, err := s.restaurantRepo.ListActiveRules(ctx, restaurantID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	windows := calendar.OpenWindows(rules, day, loc)
	if len(windows) == 0 {
		// Closed that day
		span.SetStatus(codes.Ok, "")
		return resp, nil
	}

	starts := calendar.SlotStarts(windows, restaurant.SlotDuration())
	if len(starts) == 0 {
		span.SetStatus(codes.Ok, "")
		return resp, nil
	}

	tables, err := s.restaurantRepo.ListTables(ctx, restaurantID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if SeatableTableCount(tables, partySize) == 0 {
		// No table in the room could ever seat this party
		span.SetStatus(codes.Ok, "")
		return resp, nil
	}

	holding, err := s.reservationRepo.ListHoldingByDate(ctx, restaurantID, windows[0].Open, windows[len(windows)-1].Close)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	occupiedBySlot, unassignedBySlot := groupOccupancy(holding)

	earliest := s.now().UTC().Add(s.minLeadTime)
	for _, start := range starts {
		if start.Before(earliest) {
			continue
		}

		key := start.Unix()
		free := FreeTableCount(tables, occupiedBySlot[key], partySize)

		// Holders without an assigned table still consume a table each
		free -= unassignedBySlot[key]
		if free <= 0 {
			continue
		}

		resp.Slots = append(resp.Slots, dto.SlotEntry{
			SlotStart: start,
			LocalTime: start.In(loc).Format("15:04"),
		})
	}

	span.SetAttributes(attribute.Int("slot_count", len(resp.Slots)))
	span.SetStatus(codes.Ok, "")
	return resp, nil
}

// checkBookingWindow verifies the date is between today and the
// restaurant's advance booking horizon, in the restaurant's timezone.
func (s *availabilityService) checkBookingWindow(day time.Time, restaurant *domain.Restaurant, loc *time.Location) error {
	now := s.now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	if day.Before(today) {
		return domain.ErrDateOutOfWindow
	}
	if restaurant.AdvanceBookingDays > 0 {
		horizon := today.AddDate(0, 0, restaurant.AdvanceBookingDays)
		if day.After(horizon) {
			return domain.ErrDateOutOfWindow
		}
	}
	return nil
}

// groupOccupancy indexes capacity-holding reservations by slot start:
// occupied table IDs, plus the count of holders with no table yet.
func groupOccupancy(holding []*domain.Reservation) (map[int64]map[string]bool, map[int64]int) {
	occupied := make(map[int64]map[string]bool)
	unassigned := make(map[int64]int)

	for _, r := range holding {
		key := r.SlotStart.Unix()
		if r.TableID == "" {
			unassigned[key]++
			continue
		}
		if occupied[key] == nil {
			occupied[key] = make(map[string]bool)
		}
		occupied[key][r.TableID] = true
	}
	return occupied, unassigned
}
