package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/redis/go-redis/v9"
)

// Each script runs atomically on the Redis server, so the check and the
// decrement can never interleave with another client. Both keys of a ticket
// type share a hash tag, which keeps them in one cluster slot.

// KEYS[1] remaining, KEYS[2] total; ARGV[1] capacity, ARGV[2] remaining.
// Returns 1 when the counter was created, 0 when it already existed.
const provisionScript = `
if redis.call('SETNX', KEYS[2], ARGV[1]) == 1 then
	redis.call('SET', KEYS[1], ARGV[2])
	return 1
end
return 0
`

// KEYS[1] remaining; ARGV[1] units. Returns {ok, remaining}; remaining is -1
// for an unknown ticket type.
const reserveScript = `
local remaining = tonumber(redis.call('GET', KEYS[1]))
if remaining == nil then
	return {0, -1}
end
local units = tonumber(ARGV[1])
if remaining < units then
	return {0, remaining}
end
return {1, redis.call('DECRBY', KEYS[1], units)}
`

// KEYS[1] remaining, KEYS[2] total; ARGV[1] units. Returns -1 for an unknown
// ticket type.
const releaseScript = `
local total = tonumber(redis.call('GET', KEYS[2]))
if total == nil then
	return -1
end
local remaining = tonumber(redis.call('GET', KEYS[1])) or 0
local updated = math.min(total, remaining + tonumber(ARGV[1]))
redis.call('SET', KEYS[1], updated)
return updated
`

// Redis keeps capacity counters in Redis so every service instance shares
// one serialization point per ticket type.
type Redis struct {
	rdb redis.Cmdable
}

// NewRedis wraps a go-redis client.
func NewRedis(rdb redis.Cmdable) *Redis {
	return &Redis{rdb: rdb}
}

func remainingKey(ticketTypeID string) string {
	return fmt.Sprintf("capacity:{%s}:remaining", ticketTypeID)
}

func totalKey(ticketTypeID string) string {
	return fmt.Sprintf("capacity:{%s}:total", ticketTypeID)
}

func (r *Redis) Provision(ctx context.Context, ticketTypeID string, capacity int) error {
	if _, err := r.Restore(ctx, ticketTypeID, capacity, capacity); err != nil {
		return fmt.Errorf("provision %s: %w", ticketTypeID, err)
	}
	return nil
}

// Restore creates the ticket type's counter with remaining units left,
// unless a counter already exists.
func (r *Redis) Restore(ctx context.Context, ticketTypeID string, capacity, remaining int) (bool, error) {
	if capacity <= 0 {
		return false, fmt.Errorf("capacity must be positive, got %d", capacity)
	}
	if remaining < 0 || remaining > capacity {
		return false, fmt.Errorf("remaining %d outside 0..%d", remaining, capacity)
	}
	keys := []string{remainingKey(ticketTypeID), totalKey(ticketTypeID)}
	created, err := r.rdb.Eval(ctx, provisionScript, keys, capacity, remaining).Int64()
	if err != nil {
		return false, err
	}
	return created == 1, nil
}

func (r *Redis) Reserve(ctx context.Context, ticketTypeID string, units int) error {
	if units <= 0 {
		return fmt.Errorf("reserve %s: units must be positive, got %d", ticketTypeID, units)
	}
	res, err := r.rdb.Eval(ctx, reserveScript, []string{remainingKey(ticketTypeID)}, units).Int64Slice()
	if err != nil {
		return fmt.Errorf("reserve %s: %w", ticketTypeID, err)
	}
	if len(res) != 2 {
		return fmt.Errorf("reserve %s: unexpected script reply %v", ticketTypeID, res)
	}
	ok, remaining := res[0], res[1]
	switch {
	case ok == 1:
		return nil
	case remaining < 0:
		return fmt.Errorf("reserve %s: %w", ticketTypeID, model.ErrNotFound)
	default:
		return &model.CapacityError{TicketTypeID: ticketTypeID, Requested: units, Remaining: int(remaining)}
	}
}

func (r *Redis) Release(ctx context.Context, ticketTypeID string, units int) error {
	if units <= 0 {
		return fmt.Errorf("release %s: units must be positive, got %d", ticketTypeID, units)
	}
	keys := []string{remainingKey(ticketTypeID), totalKey(ticketTypeID)}
	next, err := r.rdb.Eval(ctx, releaseScript, keys, units).Int64()
	if err != nil {
		return fmt.Errorf("release %s: %w", ticketTypeID, err)
	}
	if next < 0 {
		return fmt.Errorf("release %s: %w", ticketTypeID, model.ErrNotFound)
	}
	return nil
}

func (r *Redis) Remaining(ctx context.Context, ticketTypeID string) (int, error) {
	n, err := r.rdb.Get(ctx, remainingKey(ticketTypeID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("remaining %s: %w", ticketTypeID, model.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("remaining %s: %w", ticketTypeID, err)
	}
	return n, nil
}
