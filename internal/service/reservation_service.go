package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kaeky/Yum-Yum-sub001/internal/calendar"
	"github.com/kaeky/Yum-Yum-sub001/internal/domain"
	"github.com/kaeky/Yum-Yum-sub001/internal/dto"
	"github.com/kaeky/Yum-Yum-sub001/internal/metrics"
	"github.com/kaeky/Yum-Yum-sub001/internal/repository"
	"github.com/kaeky/Yum-Yum-sub001/internal/slotlock"
	"github.com/kaeky/Yum-Yum-sub001/pkg/logger"
	"github.com/kaeky/Yum-Yum-sub001/pkg/retry"
	"github.com/kaeky/Yum-Yum-sub001/pkg/telemetry"
)

// ReservationService defines the interface for reservation business logic
type ReservationService interface {
	// Create books a slot for a customer with idempotency support
	Create(ctx context.Context, customerID string, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error)

	// Confirm moves a pending reservation to CONFIRMED
	Confirm(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error)

	// Seat marks the party as arrived and seated
	Seat(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error)

	// Complete closes out a seated reservation
	Complete(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error)

	// Cancel cancels a pending or confirmed reservation
	Cancel(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error)

	// Get retrieves a reservation by ID for its owner
	Get(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error)

	// ListByCustomer retrieves a customer's reservations
	ListByCustomer(ctx context.Context, customerID string, page, pageSize int) (*dto.PaginatedResponse, error)

	// SweepNoShows marks stale reservations whose slot has ended as NO_SHOW
	SweepNoShows(ctx context.Context, limit int) (int, error)
}

// reservationService implements ReservationService
type reservationService struct {
	restaurantRepo  repository.RestaurantRepository
	reservationRepo repository.ReservationRepository
	slotCounter     repository.SlotCounterRepository
	locks           *slotlock.Arena
	publisher       NotificationPublisher
	retrier         *retry.Retrier
	minLeadTime     time.Duration
	counterTTL      time.Duration
	now             func() time.Time
}

// ReservationServiceConfig contains configuration for the reservation service
type ReservationServiceConfig struct {
	SlotLockTimeout  time.Duration
	CommitMaxRetries int
	MinLeadTime      time.Duration
}

// NewReservationService creates a new reservation service
func NewReservationService(
	restaurantRepo repository.RestaurantRepository,
	reservationRepo repository.ReservationRepository,
	slotCounter repository.SlotCounterRepository,
	publisher NotificationPublisher,
	cfg *ReservationServiceConfig,
) ReservationService {
	lockTimeout := 200 * time.Millisecond
	maxRetries := 3
	minLeadTime := 30 * time.Minute
	if cfg != nil {
		if cfg.SlotLockTimeout > 0 {
			lockTimeout = cfg.SlotLockTimeout
		}
		if cfg.CommitMaxRetries > 0 {
			maxRetries = cfg.CommitMaxRetries
		}
		if cfg.MinLeadTime > 0 {
			minLeadTime = cfg.MinLeadTime
		}
	}
	if publisher == nil {
		publisher = NewNoOpNotificationPublisher()
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = maxRetries

	return &reservationService{
		restaurantRepo:  restaurantRepo,
		reservationRepo: reservationRepo,
		slotCounter:     slotCounter,
		locks:           slotlock.New(lockTimeout),
		publisher:       publisher,
		retrier:         retry.New(retryCfg),
		minLeadTime:     minLeadTime,
		counterTTL:      48 * time.Hour,
		now:             time.Now,
	}
}

// Create books a slot for a customer with idempotency support
func (s *reservationService) Create(ctx context.Context, customerID string, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.create")
	defer span.End()

	begin := s.now()

	if customerID == "" {
		span.SetStatus(codes.Error, "invalid customer_id")
		return nil, domain.ErrInvalidCustomerID
	}
	if req == nil || req.RestaurantID == "" {
		span.SetStatus(codes.Error, "invalid restaurant_id")
		return nil, domain.ErrInvalidRestaurantID
	}
	if req.PartySize < 1 {
		span.SetStatus(codes.Error, "invalid party_size")
		return nil, domain.ErrInvalidPartySize
	}

	slotStart, err := time.Parse(time.RFC3339, req.SlotStart)
	if err != nil {
		span.SetStatus(codes.Error, "invalid slot_start")
		return nil, domain.ErrInvalidSlotStart
	}
	slotStart = slotStart.UTC()

	span.SetAttributes(
		attribute.String("restaurant_id", req.RestaurantID),
		attribute.String("customer_id", customerID),
		attribute.String("slot_start", slotStart.Format(time.RFC3339)),
		attribute.Int("party_size", req.PartySize),
	)

	restaurant, err := s.restaurantRepo.GetByID(ctx, req.RestaurantID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Replay of an already-committed request returns the original reservation
	if req.IdempotencyKey != "" {
		existing, err := s.reservationRepo.GetByIdempotencyKey(ctx, req.RestaurantID, req.IdempotencyKey)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if existing != nil {
			span.SetAttributes(attribute.Bool("idempotent_replay", true))
			span.SetStatus(codes.Ok, "")
			return dto.FromDomain(existing), nil
		}
	}

	if err := s.checkSlotOffered(ctx, restaurant, slotStart); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	tables, err := s.restaurantRepo.ListTables(ctx, req.RestaurantID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	slotCapacity := int64(SeatableTableCount(tables, 1))
	if slotCapacity == 0 || SeatableTableCount(tables, req.PartySize) == 0 {
		span.SetStatus(codes.Error, "no table available")
		return nil, domain.ErrNoTableAvailable
	}

	var reservation *domain.Reservation
	commit := func(ctx context.Context) error {
		r, err := s.commitReservation(ctx, restaurant, tables, slotCapacity, customerID, slotStart, req)
		if err != nil {
			if !domain.IsRetryableError(err) {
				return retry.Permanent(err)
			}
			return err
		}
		reservation = r
		return nil
	}

	result := s.retrier.Do(ctx, commit)
	if result.Err != nil {
		err := result.Err
		if errors.Is(err, retry.ErrMaxRetriesExceeded) && result.LastError != nil {
			err = result.LastError
		}
		s.recordCommitFailure(ctx, req.RestaurantID, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if reservation.Status == domain.ReservationStatusConfirmed {
		s.publish(ctx, s.publisher.PublishConfirmed, reservation)
	}

	metrics.RecordCreated(ctx, reservation.RestaurantID, reservation.PartySize)
	metrics.RecordCommitDuration(ctx, reservation.RestaurantID, s.now().Sub(begin).Seconds())

	span.AddEvent("reservation_created", trace.WithAttributes(
		attribute.String("reservation_id", reservation.ID),
		attribute.String("table_id", reservation.TableID),
		attribute.String("status", reservation.Status.String()),
		attribute.Int("attempts", result.Attempts),
	))

	span.SetAttributes(attribute.String("reservation_id", reservation.ID))
	span.SetStatus(codes.Ok, "")
	return dto.FromDomain(reservation), nil
}

// commitReservation is the critical section of Create: it runs under the
// per-slot lock, takes a unit of the distributed slot counter, re-checks
// occupancy and persists the reservation. The counter unit is returned
// on any failure after the hold.
func (s *reservationService) commitReservation(
	ctx context.Context,
	restaurant *domain.Restaurant,
	tables []domain.Table,
	slotCapacity int64,
	customerID string,
	slotStart time.Time,
	req *dto.CreateReservationRequest,
) (*domain.Reservation, error) {
	release, err := s.locks.Acquire(ctx, restaurant.ID, slotStart)
	if err != nil {
		return nil, err
	}
	defer release()

	hold, err := s.slotCounter.TryHold(ctx, restaurant.ID, slotStart, slotCapacity, s.counterTTL)
	if err != nil {
		return nil, err
	}
	if !hold.Acquired {
		return nil, domain.ErrCapacityConflict
	}

	reservation, err := s.buildReservation(ctx, restaurant, tables, customerID, slotStart, req)
	if err != nil {
		s.releaseCounter(ctx, restaurant.ID, slotStart)
		return nil, err
	}

	if err := s.reservationRepo.Create(ctx, reservation); err != nil {
		s.releaseCounter(ctx, restaurant.ID, slotStart)
		return nil, err
	}

	return reservation, nil
}

// buildReservation allocates a table against current occupancy and
// assembles the new reservation. Caller holds the slot lock.
func (s *reservationService) buildReservation(
	ctx context.Context,
	restaurant *domain.Restaurant,
	tables []domain.Table,
	customerID string,
	slotStart time.Time,
	req *dto.CreateReservationRequest,
) (*domain.Reservation, error) {
	holding, err := s.reservationRepo.ListHoldingBySlot(ctx, restaurant.ID, slotStart)
	if err != nil {
		return nil, err
	}

	occupied := make(map[string]bool, len(holding))
	unassigned := 0
	for _, r := range holding {
		if r.TableID == "" {
			unassigned++
			continue
		}
		occupied[r.TableID] = true
	}

	if FreeTableCount(tables, occupied, req.PartySize)-unassigned <= 0 {
		return nil, domain.ErrNoTableAvailable
	}

	table, err := AllocateTable(tables, occupied, req.PartySize)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	reservation := &domain.Reservation{
		ID:              uuid.New().String(),
		RestaurantID:    restaurant.ID,
		TableID:         table.ID,
		CustomerID:      customerID,
		SlotStart:       slotStart,
		SlotEnd:         slotStart.Add(restaurant.SlotDuration()),
		PartySize:       req.PartySize,
		Status:          domain.ReservationStatusPending,
		SpecialRequests: req.SpecialRequests,
		IdempotencyKey:  req.IdempotencyKey,
		DepositRequired: restaurant.RequireDeposit,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if restaurant.AutoConfirm {
		reservation.Status = domain.ReservationStatusConfirmed
		reservation.ConfirmedAt = &now
	}

	return reservation, nil
}

// checkSlotOffered verifies the instant is a slot the calendar actually
// offers, inside the booking window and past the minimum lead time.
func (s *reservationService) checkSlotOffered(ctx context.Context, restaurant *domain.Restaurant, slotStart time.Time) error {
	loc, err := restaurant.Location()
	if err != nil {
		return err
	}

	now := s.now()
	if slotStart.Before(now.Add(s.minLeadTime)) {
		return domain.ErrInvalidSlotStart
	}
	if restaurant.AdvanceBookingDays > 0 {
		local := now.In(loc)
		today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		horizon := today.AddDate(0, 0, restaurant.AdvanceBookingDays+1)
		if !slotStart.Before(horizon.UTC()) {
			return domain.ErrDateOutOfWindow
		}
	}

	rules, err := s.restaurantRepo.ListActiveRules(ctx, restaurant.ID)
	if err != nil {
		return err
	}

	// The slot may belong to the service day before midnight local time
	localStart := slotStart.In(loc)
	for _, dayOffset := range []int{0, -1} {
		day := localStart.AddDate(0, 0, dayOffset)
		starts := calendar.SlotStartsForDate(rules, day, loc, restaurant.SlotDuration())
		if calendar.ContainsSlot(starts, slotStart) {
			return nil
		}
	}
	return domain.ErrInvalidSlotStart
}

// Confirm moves a pending reservation to CONFIRMED
func (s *reservationService) Confirm(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.confirm")
	defer span.End()

	reservation, err := s.getOwned(ctx, span, reservationID, customerID)
	if err != nil {
		return nil, err
	}

	prior := reservation.Status
	if err := reservation.Confirm(s.now().UTC()); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.reservationRepo.Update(ctx, reservation, prior); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.publish(ctx, s.publisher.PublishConfirmed, reservation)
	metrics.RecordConfirmed(ctx, reservation.RestaurantID)

	span.SetStatus(codes.Ok, "")
	return dto.FromDomain(reservation), nil
}

// Seat marks the party as arrived and seated
func (s *reservationService) Seat(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.seat")
	defer span.End()

	reservation, err := s.getOwned(ctx, span, reservationID, customerID)
	if err != nil {
		return nil, err
	}

	prior := reservation.Status
	if err := reservation.Seat(s.now().UTC()); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.reservationRepo.Update(ctx, reservation, prior); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.setTableStatus(ctx, reservation.TableID, domain.TableStatusOccupied)
	metrics.RecordSeated(ctx, reservation.RestaurantID)

	span.SetStatus(codes.Ok, "")
	return dto.FromDomain(reservation), nil
}

// Complete closes out a seated reservation
func (s *reservationService) Complete(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.complete")
	defer span.End()

	reservation, err := s.getOwned(ctx, span, reservationID, customerID)
	if err != nil {
		return nil, err
	}

	prior := reservation.Status
	if err := reservation.Complete(s.now().UTC()); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.reservationRepo.Update(ctx, reservation, prior); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.setTableStatus(ctx, reservation.TableID, domain.TableStatusAvailable)
	s.releaseCounter(ctx, reservation.RestaurantID, reservation.SlotStart)
	metrics.RecordCompleted(ctx, reservation.RestaurantID)

	span.SetStatus(codes.Ok, "")
	return dto.FromDomain(reservation), nil
}

// Cancel cancels a pending or confirmed reservation
func (s *reservationService) Cancel(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.cancel")
	defer span.End()

	reservation, err := s.getOwned(ctx, span, reservationID, customerID)
	if err != nil {
		return nil, err
	}

	prior := reservation.Status
	freedTableID, err := reservation.Cancel(s.now().UTC())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.reservationRepo.Update(ctx, reservation, prior); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.releaseCounter(ctx, reservation.RestaurantID, reservation.SlotStart)
	if reservation.ConfirmedAt != nil {
		s.publish(ctx, s.publisher.PublishCancelled, reservation)
	}
	metrics.RecordCancelled(ctx, reservation.RestaurantID)

	span.AddEvent("table_freed", trace.WithAttributes(
		attribute.String("table_id", freedTableID),
	))
	span.SetStatus(codes.Ok, "")
	return dto.FromDomain(reservation), nil
}

// Get retrieves a reservation by ID for its owner
func (s *reservationService) Get(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.get")
	defer span.End()

	reservation, err := s.getOwned(ctx, span, reservationID, customerID)
	if err != nil {
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.FromDomain(reservation), nil
}

// ListByCustomer retrieves a customer's reservations
func (s *reservationService) ListByCustomer(ctx context.Context, customerID string, page, pageSize int) (*dto.PaginatedResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.list_by_customer")
	defer span.End()

	if customerID == "" {
		span.SetStatus(codes.Error, "invalid customer_id")
		return nil, domain.ErrInvalidCustomerID
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	span.SetAttributes(
		attribute.String("customer_id", customerID),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	)

	reservations, err := s.reservationRepo.ListByCustomer(ctx, customerID, pageSize, (page-1)*pageSize)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(reservations)))
	span.SetStatus(codes.Ok, "")
	return &dto.PaginatedResponse{
		Items:    dto.FromDomainList(reservations),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// SweepNoShows marks stale reservations whose slot has ended as NO_SHOW
func (s *reservationService) SweepNoShows(ctx context.Context, limit int) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.reservation.sweep_no_shows")
	defer span.End()

	if limit < 1 {
		limit = 100
	}

	now := s.now().UTC()
	candidates, err := s.reservationRepo.ListNoShowCandidates(ctx, now, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	swept := 0
	for _, reservation := range candidates {
		prior := reservation.Status
		if _, err := reservation.MarkNoShow(now); err != nil {
			continue
		}
		if err := s.reservationRepo.Update(ctx, reservation, prior); err != nil {
			if !errors.Is(err, domain.ErrInvalidTransition) {
				logger.Get().Warn("failed to mark no-show",
					zap.String("reservation_id", reservation.ID),
					zap.Error(err),
				)
			}
			continue
		}

		s.releaseCounter(ctx, reservation.RestaurantID, reservation.SlotStart)
		if reservation.ConfirmedAt != nil {
			s.publish(ctx, s.publisher.PublishNoShow, reservation)
		}
		swept++
	}

	if swept > 0 {
		metrics.RecordNoShow(ctx, int64(swept))
	}

	span.SetAttributes(attribute.Int("swept", swept))
	span.SetStatus(codes.Ok, "")
	return swept, nil
}

// getOwned loads a reservation and verifies ownership. Reservations of
// other customers surface as not found.
func (s *reservationService) getOwned(ctx context.Context, span trace.Span, reservationID, customerID string) (*domain.Reservation, error) {
	if reservationID == "" || customerID == "" {
		span.SetStatus(codes.Error, "not found")
		return nil, domain.ErrReservationNotFound
	}

	span.SetAttributes(
		attribute.String("reservation_id", reservationID),
		attribute.String("customer_id", customerID),
	)

	reservation, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if reservation.CustomerID != customerID {
		span.SetStatus(codes.Error, "not found")
		return nil, domain.ErrReservationNotFound
	}

	return reservation, nil
}

// releaseCounter gives a slot counter unit back, logging on failure.
// The counter TTL cleans up anything a failed release leaves behind.
func (s *reservationService) releaseCounter(ctx context.Context, restaurantID string, slotStart time.Time) {
	if err := s.slotCounter.Release(ctx, restaurantID, slotStart); err != nil {
		logger.Get().Warn("failed to release slot counter",
			zap.String("restaurant_id", restaurantID),
			zap.Time("slot_start", slotStart),
			zap.Error(err),
		)
	}
}

// setTableStatus flips the floor view of a table best-effort. The
// reservation row remains the source of truth.
func (s *reservationService) setTableStatus(ctx context.Context, tableID string, status domain.TableStatus) {
	if tableID == "" {
		return
	}
	if err := s.restaurantRepo.UpdateTableStatus(ctx, tableID, status); err != nil {
		logger.Get().Warn("failed to update table status",
			zap.String("table_id", tableID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}

// publish delivers a notification best-effort
func (s *reservationService) publish(ctx context.Context, fn func(context.Context, *domain.Reservation) error, reservation *domain.Reservation) {
	if err := fn(ctx, reservation); err != nil {
		logger.Get().Warn("failed to publish reservation event",
			zap.String("reservation_id", reservation.ID),
			zap.Error(err),
		)
	}
}

func (s *reservationService) recordCommitFailure(ctx context.Context, restaurantID string, err error) {
	switch {
	case errors.Is(err, domain.ErrSlotLockTimeout):
		metrics.RecordSlotLockTimeout(ctx, restaurantID)
		metrics.RecordFailure(ctx, restaurantID, "slot_lock_timeout")
	case errors.Is(err, domain.ErrCapacityConflict):
		metrics.RecordCapacityConflict(ctx, restaurantID)
		metrics.RecordFailure(ctx, restaurantID, "capacity_conflict")
	case errors.Is(err, domain.ErrNoTableAvailable):
		metrics.RecordFailure(ctx, restaurantID, "no_table_available")
	default:
		metrics.RecordFailure(ctx, restaurantID, "internal")
	}
}
