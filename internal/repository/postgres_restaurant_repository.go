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
)

// PostgresRestaurantRepository implements RestaurantRepository using PostgreSQL with pgxpool
type PostgresRestaurantRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRestaurantRepository creates a new PostgresRestaurantRepository
func NewPostgresRestaurantRepository(pool *pgxpool.Pool) *PostgresRestaurantRepository {
	return &PostgresRestaurantRepository{pool: pool}
}

// GetByID retrieves a restaurant by its ID
func (r *PostgresRestaurantRepository) GetByID(ctx context.Context, id string) (*domain.Restaurant, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.restaurant.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("restaurant_id", id))

	query := `
		SELECT
			id, name, timezone, slot_duration_minutes, advance_booking_days,
			auto_confirm, require_deposit, require_pre_order,
			created_at, updated_at
		FROM restaurants
		WHERE id = $1
	`

	restaurant := &domain.Restaurant{}
	var timezone *string

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&restaurant.ID,
		&restaurant.Name,
		&timezone,
		&restaurant.SlotDurationMinutes,
		&restaurant.AdvanceBookingDays,
		&restaurant.AutoConfirm,
		&restaurant.RequireDeposit,
		&restaurant.RequirePreOrder,
		&restaurant.CreatedAt,
		&restaurant.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrRestaurantNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get restaurant: %w", err)
	}

	if timezone != nil {
		restaurant.Timezone = *timezone
	}

	span.SetStatus(codes.Ok, "")
	return restaurant, nil
}

// ListActiveRules returns the active weekly opening rules for a restaurant
func (r *PostgresRestaurantRepository) ListActiveRules(ctx context.Context, restaurantID string) ([]domain.WeeklyOpeningRule, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.restaurant.list_active_rules")
	defer span.End()

	span.SetAttributes(attribute.String("restaurant_id", restaurantID))

	query := `
		SELECT
			id, restaurant_id, weekday, open_minute, close_minute,
			is_active, notes, retired_at, created_at, updated_at
		FROM weekly_opening_rules
		WHERE restaurant_id = $1
			AND is_active = true
			AND retired_at IS NULL
		ORDER BY weekday, open_minute
	`

	rows, err := r.pool.Query(ctx, query, restaurantID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list opening rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.WeeklyOpeningRule
	for rows.Next() {
		var rule domain.WeeklyOpeningRule
		var weekday int
		var notes *string

		err := rows.Scan(
			&rule.ID,
			&rule.RestaurantID,
			&weekday,
			&rule.OpenMinute,
			&rule.CloseMinute,
			&rule.IsActive,
			&notes,
			&rule.RetiredAt,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan opening rule: %w", err)
		}

		rule.Weekday = time.Weekday(weekday)
		if notes != nil {
			rule.Notes = *notes
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("error iterating opening rules: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(rules)))
	span.SetStatus(codes.Ok, "")
	return rules, nil
}

// ListTables returns the table inventory for a restaurant ordered by table number
func (r *PostgresRestaurantRepository) ListTables(ctx context.Context, restaurantID string) ([]domain.Table, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.restaurant.list_tables")
	defer span.End()

	span.SetAttributes(attribute.String("restaurant_id", restaurantID))

	query := `
		SELECT
			id, restaurant_id, table_number, capacity, section, status,
			created_at, updated_at
		FROM tables
		WHERE restaurant_id = $1
		ORDER BY table_number
	`

	rows, err := r.pool.Query(ctx, query, restaurantID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []domain.Table
	for rows.Next() {
		var table domain.Table
		var status string
		var section *string

		err := rows.Scan(
			&table.ID,
			&table.RestaurantID,
			&table.Number,
			&table.Capacity,
			&section,
			&status,
			&table.CreatedAt,
			&table.UpdatedAt,
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}

		table.Status = domain.TableStatus(status)
		if section != nil {
			table.Section = *section
		}
		tables = append(tables, table)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(tables)))
	span.SetStatus(codes.Ok, "")
	return tables, nil
}

// UpdateTableStatus changes the present state of a single table
func (r *PostgresRestaurantRepository) UpdateTableStatus(ctx context.Context, tableID string, status domain.TableStatus) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.restaurant.update_table_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("table_id", tableID),
		attribute.String("status", string(status)),
	)

	query := `UPDATE tables SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, tableID, string(status), time.Now().UTC())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to update table status: %w", err)
	}

	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrTableNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Ensure PostgresRestaurantRepository implements RestaurantRepository
var _ RestaurantRepository = (*PostgresRestaurantRepository)(nil)
