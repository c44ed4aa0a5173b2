package repository

import (
    "context"
    "strconv"
    "strings"

    "github.com/redis/go-redis/v9"
)

// seatKeyPrefix namespaces the cached seat counters in Redis.  A key
// "leftseats:42" holds the remaining seats of ticket offering 42.
const seatKeyPrefix = "leftseats:"

// decrSeatsScript rejects a decrement that would drive the counter
// negative.  The check and the DECRBY run as one script, so concurrent
// reservations for the same offering serialize inside Redis exactly
// like the conditional UPDATE does inside MySQL.  A reply of -1 means
// the guard fired.
var decrSeatsScript = redis.NewScript(`
    local left = redis.call('GET', KEYS[1])
    if left and tonumber(left) >= tonumber(ARGV[1]) then
        return redis.call('DECRBY', KEYS[1], ARGV[1])
    end
    return -1
`)

// SeatCacheRepo is the Redis adapter for the seat counter cache.  An
// entry only exists while an administrator has seeded it; absence of a
// key means the durable store is authoritative for that offering.
// Entries have no TTL — their lifetime is admin-controlled through
// seed and evict.
type SeatCacheRepo struct {
    rdb *redis.Client
}

// NewSeatCacheRepo returns a SeatCacheRepo using the given client.
func NewSeatCacheRepo(rdb *redis.Client) *SeatCacheRepo {
    return &SeatCacheRepo{rdb: rdb}
}

func seatKey(ticketInfoID uint64) string {
    return seatKeyPrefix + strconv.FormatUint(ticketInfoID, 10)
}

// GetLeftSeats reads the cached counter for an offering.  The second
// return value reports presence: (0, false, nil) is a clean miss and
// callers fall back to the durable store.
func (r *SeatCacheRepo) GetLeftSeats(ctx context.Context, ticketInfoID uint64) (uint32, bool, error) {
    n, err := r.rdb.Get(ctx, seatKey(ticketInfoID)).Int64()
    if err == redis.Nil {
        return 0, false, nil
    }
    if err != nil {
        return 0, false, err
    }
    if n < 0 {
        n = 0
    }
    return uint32(n), true, nil
}

// SetLeftSeats writes the counter for an offering, overwriting any
// existing value.  Used by the admin seed operation only.
func (r *SeatCacheRepo) SetLeftSeats(ctx context.Context, ticketInfoID uint64, leftSeats uint32) error {
    return r.rdb.Set(ctx, seatKey(ticketInfoID), int64(leftSeats), 0).Err()
}

// DecrLeftSeats atomically takes count seats from the cached counter.
// It returns ErrInsufficientSeats when the counter is absent or too
// small; the caller decides the miss-versus-hit question with
// GetLeftSeats beforehand, so absence here only happens when the entry
// was evicted mid-request, and failing closed is the safe answer.
func (r *SeatCacheRepo) DecrLeftSeats(ctx context.Context, ticketInfoID uint64, count uint32) (uint32, error) {
    n, err := decrSeatsScript.Run(ctx, r.rdb, []string{seatKey(ticketInfoID)}, int64(count)).Int64()
    if err != nil {
        return 0, err
    }
    if n < 0 {
        return 0, ErrInsufficientSeats
    }
    return uint32(n), nil
}

// IncrLeftSeats returns count seats to the cached counter.  It is used
// for cancellation reversal and for compensating a failed ledger
// insert after a cache decrement.
func (r *SeatCacheRepo) IncrLeftSeats(ctx context.Context, ticketInfoID uint64, count uint32) (uint32, error) {
    n, err := r.rdb.IncrBy(ctx, seatKey(ticketInfoID), int64(count)).Result()
    if err != nil {
        return 0, err
    }
    return uint32(n), nil
}

// DeleteLeftSeats removes the counter and returns its final value.
// The presence flag is false when there was nothing to delete.  GETDEL
// makes the read-and-remove a single step, so the eviction flush
// cannot race a reservation between reading the counter and deleting
// the key.
func (r *SeatCacheRepo) DeleteLeftSeats(ctx context.Context, ticketInfoID uint64) (uint32, bool, error) {
    n, err := r.rdb.GetDel(ctx, seatKey(ticketInfoID)).Int64()
    if err == redis.Nil {
        return 0, false, nil
    }
    if err != nil {
        return 0, false, err
    }
    if n < 0 {
        n = 0
    }
    return uint32(n), true, nil
}

// ListLeftSeatIDs scans the cache and returns the ticket offering IDs
// of all currently cached counters.  SCAN is used instead of KEYS so
// the operation stays safe on a busy instance.
func (r *SeatCacheRepo) ListLeftSeatIDs(ctx context.Context) ([]uint64, error) {
    var ids []uint64
    iter := r.rdb.Scan(ctx, 0, seatKeyPrefix+"*", 100).Iterator()
    for iter.Next(ctx) {
        raw := strings.TrimPrefix(iter.Val(), seatKeyPrefix)
        id, err := strconv.ParseUint(raw, 10, 64)
        if err != nil {
            continue
        }
        ids = append(ids, id)
    }
    if err := iter.Err(); err != nil {
        return nil, err
    }
    return ids, nil
}
