package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kaeky/Yum-Yum-sub001/internal/domain"
	"github.com/kaeky/Yum-Yum-sub001/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const reservationColumns = `
	id, restaurant_id, table_id, customer_id, slot_start, slot_end,
	party_size, status, special_requests, idempotency_key,
	deposit_required, deposit_ref,
	confirmed_at, seated_at, completed_at, cancelled_at, no_show_at,
	created_at, updated_at
`

// holdingStatuses is the SQL set of statuses that occupy a table
const holdingStatuses = `('PENDING', 'CONFIRMED', 'SEATED')`

// PostgresReservationRepository implements ReservationRepository using PostgreSQL with pgxpool
type PostgresReservationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresReservationRepository creates a new PostgresReservationRepository
func NewPostgresReservationRepository(pool *pgxpool.Pool) *PostgresReservationRepository {
	return &PostgresReservationRepository{pool: pool}
}

// Create persists a new reservation
func (r *PostgresReservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.create")
	defer span.End()

	span.SetAttributes(
		attribute.String("reservation_id", reservation.ID),
		attribute.String("restaurant_id", reservation.RestaurantID),
		attribute.String("customer_id", reservation.CustomerID),
	)

	query := `
		INSERT INTO reservations (
			id, restaurant_id, table_id, customer_id, slot_start, slot_end,
			party_size, status, special_requests, idempotency_key,
			deposit_required, deposit_ref, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13, $14
		)
	`

	_, err := r.pool.Exec(ctx, query,
		reservation.ID,
		reservation.RestaurantID,
		nullString(reservation.TableID),
		reservation.CustomerID,
		reservation.SlotStart,
		reservation.SlotEnd,
		reservation.PartySize,
		reservation.Status.String(),
		nullString(reservation.SpecialRequests),
		nullString(reservation.IdempotencyKey),
		reservation.DepositRequired,
		nullString(reservation.DepositRef),
		reservation.CreatedAt,
		reservation.UpdatedAt,
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves a reservation by its ID
func (r *PostgresReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("reservation_id", id))

	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	reservation, err := scanReservationRow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrReservationNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return reservation, nil
}

// GetByIdempotencyKey retrieves a reservation by idempotency key
func (r *PostgresReservationRepository) GetByIdempotencyKey(ctx context.Context, restaurantID, key string) (*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.get_by_idempotency_key")
	defer span.End()

	span.SetAttributes(
		attribute.String("restaurant_id", restaurantID),
		attribute.String("idempotency_key", key),
	)

	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE restaurant_id = $1 AND idempotency_key = $2`

	reservation, err := scanReservationRow(r.pool.QueryRow(ctx, query, restaurantID, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "not found")
			return nil, nil // Not found, but not an error
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get reservation by idempotency key: %w", err)
	}

	span.SetAttributes(attribute.String("reservation_id", reservation.ID))
	span.SetStatus(codes.Ok, "")
	return reservation, nil
}

// ListHoldingBySlot returns the reservations holding capacity for one slot
func (r *PostgresReservationRepository) ListHoldingBySlot(ctx context.Context, restaurantID string, slotStart time.Time) ([]*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.list_holding_by_slot")
	defer span.End()

	span.SetAttributes(
		attribute.String("restaurant_id", restaurantID),
		attribute.String("slot_start", slotStart.UTC().Format(time.RFC3339)),
	)

	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE restaurant_id = $1
			AND slot_start = $2
			AND status IN ` + holdingStatuses + `
		ORDER BY created_at
	`

	return r.queryReservations(ctx, span, query, restaurantID, slotStart)
}

// ListHoldingByDate returns the capacity-holding reservations of one service day
func (r *PostgresReservationRepository) ListHoldingByDate(ctx context.Context, restaurantID string, dayStart, dayEnd time.Time) ([]*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.list_holding_by_date")
	defer span.End()

	span.SetAttributes(
		attribute.String("restaurant_id", restaurantID),
		attribute.String("day_start", dayStart.UTC().Format(time.RFC3339)),
	)

	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE restaurant_id = $1
			AND slot_start >= $2
			AND slot_start < $3
			AND status IN ` + holdingStatuses + `
		ORDER BY slot_start
	`

	return r.queryReservations(ctx, span, query, restaurantID, dayStart, dayEnd)
}

// ListByCustomer returns a customer's reservations, newest first
func (r *PostgresReservationRepository) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.list_by_customer")
	defer span.End()

	span.SetAttributes(
		attribute.String("customer_id", customerID),
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
	)

	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	return r.queryReservations(ctx, span, query, customerID, limit, offset)
}

// Update persists a state transition with a compare-and-set on the
// status the caller read, so concurrent transitions from the same
// state cannot both apply.
func (r *PostgresReservationRepository) Update(ctx context.Context, reservation *domain.Reservation, expected domain.ReservationStatus) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.update")
	defer span.End()

	span.SetAttributes(
		attribute.String("reservation_id", reservation.ID),
		attribute.String("status", reservation.Status.String()),
		attribute.String("expected_status", expected.String()),
	)

	query := `
		UPDATE reservations SET
			table_id = $2,
			status = $3,
			special_requests = $4,
			deposit_ref = $5,
			confirmed_at = $6,
			seated_at = $7,
			completed_at = $8,
			cancelled_at = $9,
			no_show_at = $10,
			updated_at = $11
		WHERE id = $1 AND status = $12
	`

	result, err := r.pool.Exec(ctx, query,
		reservation.ID,
		nullString(reservation.TableID),
		reservation.Status.String(),
		nullString(reservation.SpecialRequests),
		nullString(reservation.DepositRef),
		reservation.ConfirmedAt,
		reservation.SeatedAt,
		reservation.CompletedAt,
		reservation.CancelledAt,
		reservation.NoShowAt,
		time.Now().UTC(),
		expected.String(),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to update reservation: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Either the row is gone or another transition won the race.
		exists, err := r.exists(ctx, reservation.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to update reservation: %w", err)
		}
		if !exists {
			span.SetStatus(codes.Error, "not found")
			return domain.ErrReservationNotFound
		}
		span.SetStatus(codes.Error, "status changed concurrently")
		return domain.ErrInvalidTransition
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (r *PostgresReservationRepository) exists(ctx context.Context, id string) (bool, error) {
	var found bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM reservations WHERE id = $1)`, id).Scan(&found)
	if err != nil {
		return false, err
	}
	return found, nil
}

// ListNoShowCandidates returns stale PENDING/CONFIRMED reservations whose slot has ended
func (r *PostgresReservationRepository) ListNoShowCandidates(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.reservation.list_no_show_candidates")
	defer span.End()

	span.SetAttributes(
		attribute.String("cutoff", cutoff.UTC().Format(time.RFC3339)),
		attribute.Int("limit", limit),
	)

	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status IN ('PENDING', 'CONFIRMED')
			AND slot_end <= $1
		ORDER BY slot_end
		LIMIT $2
	`

	return r.queryReservations(ctx, span, query, cutoff, limit)
}

func (r *PostgresReservationRepository) queryReservations(ctx context.Context, span trace.Span, query string, args ...interface{}) ([]*domain.Reservation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*domain.Reservation
	for rows.Next() {
		reservation, err := scanReservationRow(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, reservation)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("error iterating reservations: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(reservations)))
	span.SetStatus(codes.Ok, "")
	return reservations, nil
}

// scanReservationRow scans a row into a Reservation struct
func scanReservationRow(row pgx.Row) (*domain.Reservation, error) {
	reservation := &domain.Reservation{}
	var (
		status          string
		tableID         *string
		specialRequests *string
		idempotencyKey  *string
		depositRef      *string
	)

	err := row.Scan(
		&reservation.ID,
		&reservation.RestaurantID,
		&tableID,
		&reservation.CustomerID,
		&reservation.SlotStart,
		&reservation.SlotEnd,
		&reservation.PartySize,
		&status,
		&specialRequests,
		&idempotencyKey,
		&reservation.DepositRequired,
		&depositRef,
		&reservation.ConfirmedAt,
		&reservation.SeatedAt,
		&reservation.CompletedAt,
		&reservation.CancelledAt,
		&reservation.NoShowAt,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	reservation.Status = domain.ReservationStatus(status)
	if tableID != nil {
		reservation.TableID = *tableID
	}
	if specialRequests != nil {
		reservation.SpecialRequests = *specialRequests
	}
	if idempotencyKey != nil {
		reservation.IdempotencyKey = *idempotencyKey
	}
	if depositRef != nil {
		reservation.DepositRef = *depositRef
	}

	// Instants are stored in UTC
	reservation.SlotStart = reservation.SlotStart.UTC()
	reservation.SlotEnd = reservation.SlotEnd.UTC()

	return reservation, nil
}

// Helper function to convert empty string to nil pointer
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Ensure PostgresReservationRepository implements ReservationRepository
var _ ReservationRepository = (*PostgresReservationRepository)(nil)
