package metrics

import (
	"context"
	"sync"

	"github.com/kaeky/Yum-Yum-sub001/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// Reservation counters
	ReservationsCreated   *telemetry.Counter
	ReservationsConfirmed *telemetry.Counter
	ReservationsSeated    *telemetry.Counter
	ReservationsCompleted *telemetry.Counter
	ReservationsCancelled *telemetry.Counter
	ReservationsNoShow    *telemetry.Counter
	ReservationsFailed    *telemetry.Counter

	// Contention counters
	SlotLockTimeouts  *telemetry.Counter
	CapacityConflicts *telemetry.Counter

	// Histograms
	CommitDuration  *telemetry.Histogram
	RequestDuration *telemetry.Histogram

	// Gauges
	HoldingReservations *telemetry.UpDownCounter

	initOnce sync.Once
	initErr  error
)

// Init initializes all reservation metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	ReservationsCreated, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "reservation_created_total",
		Description: "Total number of reservations created",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ReservationsConfirmed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "reservation_confirmed_total",
		Description: "Total number of reservations confirmed",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ReservationsSeated, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "reservation_seated_total",
		Description: "Total number of parties seated",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ReservationsCompleted, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "reservation_completed_total",
		Description: "Total number of reservations completed",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ReservationsCancelled, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "reservation_cancelled_total",
		Description: "Total number of reservations cancelled",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ReservationsNoShow, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "reservation_no_show_total",
		Description: "Total number of reservations marked as no-show",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ReservationsFailed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "reservation_failures_total",
		Description: "Total number of failed reservation attempts",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	SlotLockTimeouts, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "reservation_slot_lock_timeouts_total",
		Description: "Total number of bounded slot lock waits that timed out",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	CapacityConflicts, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "reservation_capacity_conflicts_total",
		Description: "Total number of slot capacity conflicts detected at commit",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	CommitDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "reservation_commit_duration_seconds",
		Description: "Duration of reservation commit including lock wait",
		Unit:        "s",
	}, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}) // 5ms to 2.5s
	if err != nil {
		return err
	}

	RequestDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "reservation_request_duration_seconds",
		Description: "HTTP request duration in seconds",
		Unit:        "s",
	}, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}) // 5ms to 10s
	if err != nil {
		return err
	}

	HoldingReservations, err = telemetry.NewUpDownCounter(telemetry.MetricOpts{
		Name:        "reservation_holding_current",
		Description: "Current number of capacity-holding reservations",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	return nil
}

// RecordCreated records a created reservation
func RecordCreated(ctx context.Context, restaurantID string, partySize int) {
	if ReservationsCreated != nil {
		ReservationsCreated.Inc(ctx,
			attribute.String("restaurant_id", restaurantID),
			attribute.Int("party_size", partySize),
		)
	}
	if HoldingReservations != nil {
		HoldingReservations.Inc(ctx)
	}
}

// RecordConfirmed records a confirmed reservation
func RecordConfirmed(ctx context.Context, restaurantID string) {
	if ReservationsConfirmed != nil {
		ReservationsConfirmed.Inc(ctx,
			attribute.String("restaurant_id", restaurantID),
		)
	}
}

// RecordSeated records a seated party
func RecordSeated(ctx context.Context, restaurantID string) {
	if ReservationsSeated != nil {
		ReservationsSeated.Inc(ctx,
			attribute.String("restaurant_id", restaurantID),
		)
	}
}

// RecordCompleted records a completed reservation
func RecordCompleted(ctx context.Context, restaurantID string) {
	if ReservationsCompleted != nil {
		ReservationsCompleted.Inc(ctx,
			attribute.String("restaurant_id", restaurantID),
		)
	}
	if HoldingReservations != nil {
		HoldingReservations.Dec(ctx)
	}
}

// RecordCancelled records a cancelled reservation
func RecordCancelled(ctx context.Context, restaurantID string) {
	if ReservationsCancelled != nil {
		ReservationsCancelled.Inc(ctx,
			attribute.String("restaurant_id", restaurantID),
		)
	}
	if HoldingReservations != nil {
		HoldingReservations.Dec(ctx)
	}
}

// RecordNoShow records reservations swept as no-show
func RecordNoShow(ctx context.Context, count int64) {
	if ReservationsNoShow != nil {
		ReservationsNoShow.Add(ctx, count)
	}
	if HoldingReservations != nil {
		HoldingReservations.Add(ctx, -count)
	}
}

// RecordFailure records a failed reservation attempt
func RecordFailure(ctx context.Context, restaurantID, reason string) {
	if ReservationsFailed != nil {
		ReservationsFailed.Inc(ctx,
			attribute.String("restaurant_id", restaurantID),
			attribute.String("reason", reason),
		)
	}
}

// RecordSlotLockTimeout records a lock wait that gave up
func RecordSlotLockTimeout(ctx context.Context, restaurantID string) {
	if SlotLockTimeouts != nil {
		SlotLockTimeouts.Inc(ctx,
			attribute.String("restaurant_id", restaurantID),
		)
	}
}

// RecordCapacityConflict records a commit refused by the slot counter
func RecordCapacityConflict(ctx context.Context, restaurantID string) {
	if CapacityConflicts != nil {
		CapacityConflicts.Inc(ctx,
			attribute.String("restaurant_id", restaurantID),
		)
	}
}

// RecordCommitDuration records how long a commit took end to end
func RecordCommitDuration(ctx context.Context, restaurantID string, durationSeconds float64) {
	if CommitDuration != nil {
		CommitDuration.Record(ctx, durationSeconds,
			attribute.String("restaurant_id", restaurantID),
		)
	}
}

// RecordRequestDuration records HTTP request duration
func RecordRequestDuration(ctx context.Context, operation string, durationSeconds float64) {
	if RequestDuration != nil {
		RequestDuration.Record(ctx, durationSeconds,
			attribute.String("operation", operation),
		)
	}
}
