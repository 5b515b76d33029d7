package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaeky/Yum-Yum-sub001/internal/domain"
	"github.com/kaeky/Yum-Yum-sub001/internal/dto"
	"github.com/kaeky/Yum-Yum-sub001/internal/repository"
)

// 20:00 Bogota on the fixture Friday
var fridaySlot = time.Date(2026, 9, 5, 1, 0, 0, 0, time.UTC)

type reservationFixtures struct {
	restaurantRepo  *repository.MemoryRestaurantRepository
	reservationRepo *repository.MemoryReservationRepository
	slotCounter     *repository.MemorySlotCounterRepository
	publisher       *recordingPublisher
	svc             ReservationService
}

// recordingPublisher captures published notifications for assertions
type recordingPublisher struct {
	mu        sync.Mutex
	confirmed []string
	cancelled []string
	noShows   []string
}

func (p *recordingPublisher) PublishConfirmed(ctx context.Context, r *domain.Reservation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmed = append(p.confirmed, r.ID)
	return nil
}

func (p *recordingPublisher) PublishCancelled(ctx context.Context, r *domain.Reservation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, r.ID)
	return nil
}

func (p *recordingPublisher) PublishNoShow(ctx context.Context, r *domain.Reservation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.noShows = append(p.noShows, r.ID)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func newReservationFixtures(t *testing.T, restaurant *domain.Restaurant, tables []domain.Table) *reservationFixtures {
	t.Helper()

	fx := &reservationFixtures{
		restaurantRepo:  repository.NewMemoryRestaurantRepository(),
		reservationRepo: repository.NewMemoryReservationRepository(),
		slotCounter:     repository.NewMemorySlotCounterRepository(),
		publisher:       &recordingPublisher{},
	}
	fx.restaurantRepo.Seed(restaurant, []domain.WeeklyOpeningRule{fridayDinnerRule()}, tables)

	fx.svc = NewReservationService(
		fx.restaurantRepo,
		fx.reservationRepo,
		fx.slotCounter,
		fx.publisher,
		&ReservationServiceConfig{
			SlotLockTimeout:  200 * time.Millisecond,
			CommitMaxRetries: 3,
			MinLeadTime:      30 * time.Minute,
		},
	)
	fx.svc.(*reservationService).now = func() time.Time { return testNow }
	return fx
}

func singleTable() []domain.Table {
	return []domain.Table{
		{ID: "t1", RestaurantID: "rest-001", Number: 1, Capacity: 4, Status: domain.TableStatusAvailable},
	}
}

func createRequest() *dto.CreateReservationRequest {
	return &dto.CreateReservationRequest{
		RestaurantID: "rest-001",
		SlotStart:    fridaySlot.Format(time.RFC3339),
		PartySize:    2,
	}
}

func TestCreate_HappyPath(t *testing.T) {
	fx := newReservationFixtures(t, bogotaRestaurant(), singleTable())

	resp, err := fx.svc.Create(context.Background(), "cust-001", createRequest())
	require.NoError(t, err)

	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, "t1", resp.TableID)
	assert.Equal(t, fridaySlot, resp.SlotStart)
	assert.Equal(t, fridaySlot.Add(time.Hour), resp.SlotEnd)
	assert.Empty(t, fx.publisher.confirmed, "pending reservations are not announced")

	held, err := fx.slotCounter.Held(context.Background(), "rest-001", fridaySlot)
	require.NoError(t, err)
	assert.Equal(t, int64(1), held)
}

func TestCreate_AutoConfirm(t *testing.T) {
	restaurant := bogotaRestaurant()
	restaurant.AutoConfirm = true
	fx := newReservationFixtures(t, restaurant, singleTable())

	resp, err := fx.svc.Create(context.Background(), "cust-001", createRequest())
	require.NoError(t, err)

	assert.Equal(t, "CONFIRMED", resp.Status)
	assert.NotNil(t, resp.ConfirmedAt)
	assert.Equal(t, []string{resp.ID}, fx.publisher.confirmed)
}

func TestCreate_SmallestSufficientTable(t *testing.T) {
	tables := []domain.Table{
		{ID: "t1", RestaurantID: "rest-001", Number: 1, Capacity: 2, Status: domain.TableStatusAvailable},
		{ID: "t2", RestaurantID: "rest-001", Number: 2, Capacity: 4, Status: domain.TableStatusAvailable},
		{ID: "t3", RestaurantID: "rest-001", Number: 3, Capacity: 8, Status: domain.TableStatusAvailable},
	}
	fx := newReservationFixtures(t, bogotaRestaurant(), tables)

	req := createRequest()
	req.PartySize = 3
	resp, err := fx.svc.Create(context.Background(), "cust-001", req)
	require.NoError(t, err)
	assert.Equal(t, "t2", resp.TableID)

	// Second party of 3 at the same slot gets the eight-top
	resp2, err := fx.svc.Create(context.Background(), "cust-002", req)
	require.NoError(t, err)
	assert.Equal(t, "t3", resp2.TableID)

	// Third party finds nothing
	_, err = fx.svc.Create(context.Background(), "cust-003", req)
	assert.Error(t, err)
}

func TestCreate_IdempotentReplay(t *testing.T) {
	fx := newReservationFixtures(t, bogotaRestaurant(), singleTable())

	req := createRequest()
	req.IdempotencyKey = "key-123"

	first, err := fx.svc.Create(context.Background(), "cust-001", req)
	require.NoError(t, err)

	second, err := fx.svc.Create(context.Background(), "cust-001", req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, fx.reservationRepo.Count(), "replay must not create a second reservation")
}

func TestCreate_Validation(t *testing.T) {
	fx := newReservationFixtures(t, bogotaRestaurant(), singleTable())
	ctx := context.Background()

	_, err := fx.svc.Create(ctx, "", createRequest())
	assert.ErrorIs(t, err, domain.ErrInvalidCustomerID)

	_, err = fx.svc.Create(ctx, "cust-001", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRestaurantID)

	req := createRequest()
	req.PartySize = 0
	_, err = fx.svc.Create(ctx, "cust-001", req)
	assert.ErrorIs(t, err, domain.ErrInvalidPartySize)

	req = createRequest()
	req.SlotStart = "friday at eight"
	_, err = fx.svc.Create(ctx, "cust-001", req)
	assert.ErrorIs(t, err, domain.ErrInvalidSlotStart)

	// An instant the calendar never offers (half past the hour)
	req = createRequest()
	req.SlotStart = fridaySlot.Add(30 * time.Minute).Format(time.RFC3339)
	_, err = fx.svc.Create(ctx, "cust-001", req)
	assert.ErrorIs(t, err, domain.ErrInvalidSlotStart)

	// A past slot
	req = createRequest()
	req.SlotStart = testNow.Add(-time.Hour).Format(time.RFC3339)
	_, err = fx.svc.Create(ctx, "cust-001", req)
	assert.ErrorIs(t, err, domain.ErrInvalidSlotStart)
}

func TestCreate_PartyTooLargeForRoom(t *testing.T) {
	fx := newReservationFixtures(t, bogotaRestaurant(), singleTable())

	req := createRequest()
	req.PartySize = 6
	_, err := fx.svc.Create(context.Background(), "cust-001", req)
	assert.ErrorIs(t, err, domain.ErrNoTableAvailable)
}

func TestCreate_ConcurrentCommitsSingleWinner(t *testing.T) {
	fx := newReservationFixtures(t, bogotaRestaurant(), singleTable())

	const parties = 16
	var wg sync.WaitGroup
	errs := make([]error, parties)

	wg.Add(parties)
	for i := 0; i < parties; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.svc.Create(context.Background(), "cust-"+string(rune('a'+i)), createRequest())
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		ok := errors.Is(err, domain.ErrCapacityConflict) ||
			errors.Is(err, domain.ErrNoTableAvailable) ||
			errors.Is(err, domain.ErrSlotLockTimeout)
		assert.True(t, ok, "unexpected loser error: %v", err)
	}

	assert.Equal(t, 1, winners, "exactly one commit wins a capacity-1 slot")
	assert.Equal(t, 1, fx.reservationRepo.Count())

	held, err := fx.slotCounter.Held(context.Background(), "rest-001", fridaySlot)
	require.NoError(t, err)
	assert.Equal(t, int64(1), held, "losers must return their counter units")
}

func TestLifecycle_ConfirmSeatComplete(t *testing.T) {
	fx := newReservationFixtures(t, bogotaRestaurant(), singleTable())
	ctx := context.Background()

	created, err := fx.svc.Create(ctx, "cust-001", createRequest())
	require.NoError(t, err)

	confirmed, err := fx.svc.Confirm(ctx, created.ID, "cust-001")
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", confirmed.Status)
	assert.Equal(t, []string{created.ID}, fx.publisher.confirmed)

	// Seating before the slot start is refused
	_, err = fx.svc.Seat(ctx, created.ID, "cust-001")
	assert.ErrorIs(t, err, domain.ErrSeatBeforeSlot)

	// Move the clock to the slot start
	fx.svc.(*reservationService).now = func() time.Time { return fridaySlot }

	seated, err := fx.svc.Seat(ctx, created.ID, "cust-001")
	require.NoError(t, err)
	assert.Equal(t, "SEATED", seated.Status)

	completed, err := fx.svc.Complete(ctx, created.ID, "cust-001")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", completed.Status)

	held, err := fx.slotCounter.Held(ctx, "rest-001", fridaySlot)
	require.NoError(t, err)
	assert.Equal(t, int64(0), held)
}

func TestCancel_FreesCapacity(t *testing.T) {
	fx := newReservationFixtures(t, bogotaRestaurant(), singleTable())
	ctx := context.Background()

	created, err := fx.svc.Create(ctx, "cust-001", createRequest())
	require.NoError(t, err)

	// The only table is taken
	_, err = fx.svc.Create(ctx, "cust-002", createRequest())
	require.Error(t, err)

	cancelled, err := fx.svc.Cancel(ctx, created.ID, "cust-001")
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	assert.Empty(t, cancelled.TableID)

	// The slot can be booked again
	resp, err := fx.svc.Create(ctx, "cust-002", createRequest())
	require.NoError(t, err)
	assert.Equal(t, "t1", resp.TableID)
}

func TestCancel_NotificationOnlyAfterConfirm(t *testing.T) {
	fx := newReservationFixtures(t, bogotaRestaurant(), []domain.Table{
		{ID: "t1", RestaurantID: "rest-001", Number: 1, Capacity: 4, Status: domain.TableStatusAvailable},
		{ID: "t2", RestaurantID: "rest-001", Number: 2, Capacity: 4, Status: domain.TableStatusAvailable},
	})
	ctx := context.Background()

	// Cancelling a reservation that was never confirmed stays silent
	pending, err := fx.svc.Create(ctx, "cust-001", createRequest())
	require.NoError(t, err)
	_, err = fx.svc.Cancel(ctx, pending.ID, "cust-001")
	require.NoError(t, err)
	assert.Empty(t, fx.publisher.cancelled)

	// A confirmed reservation announces its cancellation
	confirmed, err := fx.svc.Create(ctx, "cust-002", createRequest())
	require.NoError(t, err)
	_, err = fx.svc.Confirm(ctx, confirmed.ID, "cust-002")
	require.NoError(t, err)
	_, err = fx.svc.Cancel(ctx, confirmed.ID, "cust-002")
	require.NoError(t, err)
	assert.Equal(t, []string{confirmed.ID}, fx.publisher.cancelled)
}

// rendezvousRepo delays GetByID returns until both racing callers have
// read, so two transitions start from the same stored snapshot.
type rendezvousRepo struct {
	repository.ReservationRepository
	barrier *sync.WaitGroup
}

func (r *rendezvousRepo) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	res, err := r.ReservationRepository.GetByID(ctx, id)
	r.barrier.Done()
	r.barrier.Wait()
	return res, err
}

func TestCancel_ConcurrentDoubleCancelReleasesOnce(t *testing.T) {
	fx := newReservationFixtures(t, bogotaRestaurant(), []domain.Table{
		{ID: "t1", RestaurantID: "rest-001", Number: 1, Capacity: 4, Status: domain.TableStatusAvailable},
		{ID: "t2", RestaurantID: "rest-001", Number: 2, Capacity: 4, Status: domain.TableStatusAvailable},
	})
	ctx := context.Background()

	target, err := fx.svc.Create(ctx, "cust-001", createRequest())
	require.NoError(t, err)
	_, err = fx.svc.Create(ctx, "cust-002", createRequest())
	require.NoError(t, err)

	held, err := fx.slotCounter.Held(ctx, "rest-001", fridaySlot)
	require.NoError(t, err)
	require.Equal(t, int64(2), held)

	barrier := &sync.WaitGroup{}
	barrier.Add(2)
	fx.svc.(*reservationService).reservationRepo = &rendezvousRepo{
		ReservationRepository: fx.reservationRepo,
		barrier:               barrier,
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.svc.Cancel(ctx, target.ID, "cust-001")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		}
	}
	assert.Equal(t, 1, winners, "only one of the racing cancels may apply")

	held, err = fx.slotCounter.Held(ctx, "rest-001", fridaySlot)
	require.NoError(t, err)
	assert.Equal(t, int64(1), held, "the other customer's unit must survive the race")
}

func TestCancel_SeatedIsRefused(t *testing.T) {
	fx := newReservationFixtures(t, bogotaRestaurant(), singleTable())
	ctx := context.Background()

	created, err := fx.svc.Create(ctx, "cust-001", createRequest())
	require.NoError(t, err)
	_, err = fx.svc.Confirm(ctx, created.ID, "cust-001")
	require.NoError(t, err)

	fx.svc.(*reservationService).now = func() time.Time { return fridaySlot }
	_, err = fx.svc.Seat(ctx, created.ID, "cust-001")
	require.NoError(t, err)

	_, err = fx.svc.Cancel(ctx, created.ID, "cust-001")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSeatAndComplete_FlipTableStatus(t *testing.T) {
	fx := newReservationFixtures(t, bogotaRestaurant(), singleTable())
	ctx := context.Background()

	created, err := fx.svc.Create(ctx, "cust-001", createRequest())
	require.NoError(t, err)
	_, err = fx.svc.Confirm(ctx, created.ID, "cust-001")
	require.NoError(t, err)
	assert.Equal(t, domain.TableStatusAvailable, tableStatus(t, fx, "t1"))

	fx.svc.(*reservationService).now = func() time.Time { return fridaySlot }

	_, err = fx.svc.Seat(ctx, created.ID, "cust-001")
	require.NoError(t, err)
	assert.Equal(t, domain.TableStatusOccupied, tableStatus(t, fx, "t1"))

	_, err = fx.svc.Complete(ctx, created.ID, "cust-001")
	require.NoError(t, err)
	assert.Equal(t, domain.TableStatusAvailable, tableStatus(t, fx, "t1"))
}

func tableStatus(t *testing.T, fx *reservationFixtures, tableID string) domain.TableStatus {
	t.Helper()
	tables, err := fx.restaurantRepo.ListTables(context.Background(), "rest-001")
	require.NoError(t, err)
	for _, table := range tables {
		if table.ID == tableID {
			return table.Status
		}
	}
	t.Fatalf("table %s not found", tableID)
	return ""
}

func TestOwnership(t *testing.T) {
	fx := newReservationFixtures(t, bogotaRestaurant(), singleTable())
	ctx := context.Background()

	created, err := fx.svc.Create(ctx, "cust-001", createRequest())
	require.NoError(t, err)

	// Another customer cannot see or mutate the reservation
	_, err = fx.svc.Get(ctx, created.ID, "cust-999")
	assert.ErrorIs(t, err, domain.ErrReservationNotFound)

	_, err = fx.svc.Cancel(ctx, created.ID, "cust-999")
	assert.ErrorIs(t, err, domain.ErrReservationNotFound)

	got, err := fx.svc.Get(ctx, created.ID, "cust-001")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestListByCustomer(t *testing.T) {
	fx := newReservationFixtures(t, bogotaRestaurant(), []domain.Table{
		{ID: "t1", RestaurantID: "rest-001", Number: 1, Capacity: 4, Status: domain.TableStatusAvailable},
		{ID: "t2", RestaurantID: "rest-001", Number: 2, Capacity: 4, Status: domain.TableStatusAvailable},
	})
	ctx := context.Background()

	_, err := fx.svc.Create(ctx, "cust-001", createRequest())
	require.NoError(t, err)

	req := createRequest()
	req.SlotStart = fridaySlot.Add(time.Hour).Format(time.RFC3339)
	_, err = fx.svc.Create(ctx, "cust-001", req)
	require.NoError(t, err)

	page, err := fx.svc.ListByCustomer(ctx, "cust-001", 1, 20)
	require.NoError(t, err)
	assert.Len(t, page.Items.([]*dto.ReservationResponse), 2)
}

func TestSweepNoShows(t *testing.T) {
	fx := newReservationFixtures(t, bogotaRestaurant(), singleTable())
	ctx := context.Background()

	created, err := fx.svc.Create(ctx, "cust-001", createRequest())
	require.NoError(t, err)
	_, err = fx.svc.Confirm(ctx, created.ID, "cust-001")
	require.NoError(t, err)

	// Well past the slot end
	fx.svc.(*reservationService).now = func() time.Time { return fridaySlot.Add(2 * time.Hour) }

	swept, err := fx.svc.SweepNoShows(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	got, err := fx.reservationRepo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusNoShow, got.Status)
	assert.Empty(t, got.TableID)
	assert.Equal(t, []string{created.ID}, fx.publisher.noShows)

	held, err := fx.slotCounter.Held(ctx, "rest-001", fridaySlot)
	require.NoError(t, err)
	assert.Equal(t, int64(0), held)

	// Idempotent: nothing left to sweep
	swept, err = fx.svc.SweepNoShows(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, swept)
}

func TestSweepNoShows_SkipsSeatedAndFuture(t *testing.T) {
	fx := newReservationFixtures(t, bogotaRestaurant(), []domain.Table{
		{ID: "t1", RestaurantID: "rest-001", Number: 1, Capacity: 4, Status: domain.TableStatusAvailable},
		{ID: "t2", RestaurantID: "rest-001", Number: 2, Capacity: 4, Status: domain.TableStatusAvailable},
	})
	ctx := context.Background()

	past, err := fx.svc.Create(ctx, "cust-001", createRequest())
	require.NoError(t, err)
	_, err = fx.svc.Confirm(ctx, past.ID, "cust-001")
	require.NoError(t, err)

	futureReq := createRequest()
	futureReq.SlotStart = fridaySlot.Add(2 * time.Hour).Format(time.RFC3339)
	future, err := fx.svc.Create(ctx, "cust-002", futureReq)
	require.NoError(t, err)

	// Seat the first party, then advance past its slot end
	fx.svc.(*reservationService).now = func() time.Time { return fridaySlot }
	_, err = fx.svc.Seat(ctx, past.ID, "cust-001")
	require.NoError(t, err)

	fx.svc.(*reservationService).now = func() time.Time { return fridaySlot.Add(90 * time.Minute) }

	swept, err := fx.svc.SweepNoShows(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, swept, "seated parties and future slots are never swept")

	got, err := fx.reservationRepo.GetByID(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusPending, got.Status)
}
