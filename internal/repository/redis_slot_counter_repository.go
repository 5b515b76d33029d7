package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	pkgredis "github.com/kaeky/Yum-Yum-sub001/pkg/redis"
	"github.com/kaeky/Yum-Yum-sub001/pkg/telemetry"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

//go:embed scripts/hold_slot.lua
var holdSlotScript string

//go:embed scripts/release_slot.lua
var releaseSlotScript string

// Script names for caching
const (
	scriptHoldSlot    = "hold_slot"
	scriptReleaseSlot = "release_slot"
)

// RedisSlotCounterRepository implements SlotCounterRepository on Redis
// with Lua scripts, so the check-then-increment is a single atomic step.
type RedisSlotCounterRepository struct {
	client *pkgredis.Client
}

// NewRedisSlotCounterRepository creates a new RedisSlotCounterRepository
func NewRedisSlotCounterRepository(client *pkgredis.Client) *RedisSlotCounterRepository {
	return &RedisSlotCounterRepository{client: client}
}

// LoadScripts loads the Lua scripts into Redis
func (r *RedisSlotCounterRepository) LoadScripts(ctx context.Context) error {
	scripts := map[string]string{
		scriptHoldSlot:    holdSlotScript,
		scriptReleaseSlot: releaseSlotScript,
	}

	for name, script := range scripts {
		if _, err := r.client.LoadScript(ctx, name, script); err != nil {
			return fmt.Errorf("failed to load script %s: %w", name, err)
		}
	}

	return nil
}

func slotCounterKey(restaurantID string, slotStart time.Time) string {
	return fmt.Sprintf("slot:held:%s:%d", restaurantID, slotStart.UTC().Unix())
}

// TryHold atomically takes one unit of slot capacity
func (r *RedisSlotCounterRepository) TryHold(ctx context.Context, restaurantID string, slotStart time.Time, capacity int64, ttl time.Duration) (*HoldResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.slot_counter.try_hold")
	defer span.End()

	span.SetAttributes(
		attribute.String("restaurant_id", restaurantID),
		attribute.String("slot_start", slotStart.UTC().Format(time.RFC3339)),
		attribute.Int64("capacity", capacity),
	)

	keys := []string{slotCounterKey(restaurantID, slotStart)}
	args := []interface{}{
		capacity,               // ARGV[1]: capacity
		int(ttl / time.Second), // ARGV[2]: ttl_seconds
	}

	result := r.client.EvalWithFallback(ctx, scriptHoldSlot, holdSlotScript, keys, args...)
	if result.Err() != nil {
		span.RecordError(result.Err())
		span.SetStatus(codes.Error, result.Err().Error())
		return nil, fmt.Errorf("failed to execute hold_slot script: %w", result.Err())
	}

	values, err := result.Slice()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to parse script result: %w", err)
	}

	if len(values) < 2 {
		span.SetStatus(codes.Error, "unexpected result length")
		return nil, fmt.Errorf("unexpected script result length: %d", len(values))
	}

	acquired, _ := toInt64(values[0])
	held, _ := toInt64(values[1])

	span.SetAttributes(
		attribute.Bool("acquired", acquired == 1),
		attribute.Int64("held", held),
	)
	span.SetStatus(codes.Ok, "")
	return &HoldResult{Acquired: acquired == 1, Held: held}, nil
}

// Release returns one unit of slot capacity
func (r *RedisSlotCounterRepository) Release(ctx context.Context, restaurantID string, slotStart time.Time) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.slot_counter.release")
	defer span.End()

	span.SetAttributes(
		attribute.String("restaurant_id", restaurantID),
		attribute.String("slot_start", slotStart.UTC().Format(time.RFC3339)),
	)

	keys := []string{slotCounterKey(restaurantID, slotStart)}

	result := r.client.EvalWithFallback(ctx, scriptReleaseSlot, releaseSlotScript, keys)
	if result.Err() != nil {
		span.RecordError(result.Err())
		span.SetStatus(codes.Error, result.Err().Error())
		return fmt.Errorf("failed to execute release_slot script: %w", result.Err())
	}

	held, err := result.Int64()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to parse script result: %w", err)
	}

	span.SetAttributes(attribute.Int64("held", held))
	span.SetStatus(codes.Ok, "")
	return nil
}

// Held returns the current counter value for a slot
func (r *RedisSlotCounterRepository) Held(ctx context.Context, restaurantID string, slotStart time.Time) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.slot_counter.held")
	defer span.End()

	span.SetAttributes(
		attribute.String("restaurant_id", restaurantID),
		attribute.String("slot_start", slotStart.UTC().Format(time.RFC3339)),
	)

	result, err := r.client.Get(ctx, slotCounterKey(restaurantID, slotStart)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			span.SetStatus(codes.Ok, "no holds")
			return 0, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to get slot counter: %w", err)
	}

	held, err := strconv.ParseInt(result, 10, 64)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to parse slot counter: %w", err)
	}

	span.SetAttributes(attribute.Int64("held", held))
	span.SetStatus(codes.Ok, "")
	return held, nil
}

// Helper function to convert interface{} to int64
func toInt64(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	case float64:
		return int64(val), true
	case string:
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// Ensure RedisSlotCounterRepository implements SlotCounterRepository
var _ SlotCounterRepository = (*RedisSlotCounterRepository)(nil)
