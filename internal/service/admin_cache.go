package service

import (
    "context"
    "fmt"

    "github.com/iliyamo/event-ticket-reservation/internal/model"
)

// AdminCache carries the administrative cache operations: seeding a
// counter from the store, evicting it back out, and listing what is
// cached.  Seed and evict are the only transitions between the
// Uncached and Cached states of an offering, so they are the only
// places where both sides are touched in one operation.
type AdminCache struct {
    store SeatStore
    cache SeatCache // nil when Redis is unavailable
}

// NewAdminCache constructs the cache manager.  cache may be nil, in
// which case every operation reports ErrCacheUnavailable.
func NewAdminCache(store SeatStore, cache SeatCache) *AdminCache {
    if store == nil {
        panic("nil store passed to NewAdminCache")
    }
    return &AdminCache{store: store, cache: cache}
}

// isAdmin is the capability check guarding every operation in this
// file.  The role string comes from the caller's JWT claim.
func isAdmin(role string) bool {
    return role == model.RoleAdmin
}

// Seed reads the current left_seats of an offering from the store and
// writes it into the cache, overwriting any existing entry.  This is
// the only way a cache entry is created; from here on the cache is
// authoritative for the offering until Evict runs.
func (s *AdminCache) Seed(ctx context.Context, ticketInfoID uint64, role string) error {
    if !isAdmin(role) {
        return ErrUnauthorized
    }
    if s.cache == nil {
        return ErrCacheUnavailable
    }
    info, err := s.store.GetTicketInfo(ctx, ticketInfoID)
    if err != nil {
        return err
    }
    if err := s.cache.SetLeftSeats(ctx, ticketInfoID, info.LeftSeats); err != nil {
        return fmt.Errorf("seed seat cache: %w", err)
    }
    return nil
}

// Evict removes the cached counter and flushes its final value back
// into the store, so decrements that only ever happened in Redis are
// not lost and the store is authoritative again after eviction.  The
// GETDEL in the cache layer makes read-and-remove one step; evicting
// an uncached offering is a no-op.
func (s *AdminCache) Evict(ctx context.Context, ticketInfoID uint64, role string) error {
    if !isAdmin(role) {
        return ErrUnauthorized
    }
    if s.cache == nil {
        return ErrCacheUnavailable
    }
    left, cached, err := s.cache.DeleteLeftSeats(ctx, ticketInfoID)
    if err != nil {
        return fmt.Errorf("evict seat cache: %w", err)
    }
    if !cached {
        return nil
    }
    if err := s.store.SetLeftSeats(ctx, ticketInfoID, left); err != nil {
        return fmt.Errorf("flush evicted seats to store: %w", err)
    }
    return nil
}

// ListCachedIDs returns the offering IDs currently present in the
// cache, for operational visibility.
func (s *AdminCache) ListCachedIDs(ctx context.Context, role string) ([]uint64, error) {
    if !isAdmin(role) {
        return nil, ErrUnauthorized
    }
    if s.cache == nil {
        return nil, ErrCacheUnavailable
    }
    ids, err := s.cache.ListLeftSeatIDs(ctx)
    if err != nil {
        return nil, fmt.Errorf("list cached seats: %w", err)
    }
    if ids == nil {
        ids = []uint64{}
    }
    return ids, nil
}
