// Package service contains the seat-inventory consistency engine.  The
// Inventory service decides, for every reservation and cancellation,
// whether the Redis counter cache or the MySQL store is authoritative
// for an offering, performs the atomic seat adjustment against that
// side only, and keeps the reservation ledger in step with it.
package service

import (
    "context"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/iliyamo/event-ticket-reservation/internal/clock"
    "github.com/iliyamo/event-ticket-reservation/internal/model"
    "github.com/iliyamo/event-ticket-reservation/internal/repository"
)

// SeatStore is the durable side of the inventory: the store of record
// plus the reservation ledger, with the two transactional composites
// the reservation flow needs.  *repository.InventoryStore implements
// it.
type SeatStore interface {
    GetTicketInfo(ctx context.Context, id uint64) (*repository.TicketInfoRecord, error)
    SetLeftSeats(ctx context.Context, id uint64, leftSeats uint32) error
    GetReservation(ctx context.Context, id uint64) (*model.Reservation, error)
    CreateReservation(ctx context.Context, res *model.Reservation) error
    ListReservationsByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
    ReserveSeats(ctx context.Context, ticketInfoID, userID uint64, count uint32) (*model.Reservation, error)
    CancelReservation(ctx context.Context, res *model.Reservation, restoreSeats bool) (bool, error)
}

// SeatCache is the fast counter cache.  *repository.SeatCacheRepo
// implements it.  The Inventory service never assumes the cache is
// present: a nil SeatCache or an empty cache degrades every path to
// store-only mode with identical outcomes.
type SeatCache interface {
    GetLeftSeats(ctx context.Context, ticketInfoID uint64) (uint32, bool, error)
    SetLeftSeats(ctx context.Context, ticketInfoID uint64, leftSeats uint32) error
    DecrLeftSeats(ctx context.Context, ticketInfoID uint64, count uint32) (uint32, error)
    IncrLeftSeats(ctx context.Context, ticketInfoID uint64, count uint32) (uint32, error)
    DeleteLeftSeats(ctx context.Context, ticketInfoID uint64) (uint32, bool, error)
    ListLeftSeatIDs(ctx context.Context) ([]uint64, error)
}

// Inventory coordinates reservations and cancellations across the
// cache and the store.  While an offering is cached, all of its seat
// traffic mutates the cache only; while uncached, the store only.
// Seed and evict (see AdminCache) are the only transition points.
type Inventory struct {
    store SeatStore
    cache SeatCache // nil when Redis is unavailable
    clk   clock.Clock
}

// NewInventory constructs the coordinator.  cache may be nil.
func NewInventory(store SeatStore, cache SeatCache, clk clock.Clock) *Inventory {
    if store == nil {
        panic("nil store passed to NewInventory")
    }
    if clk == nil {
        clk = clock.NewSystem()
    }
    return &Inventory{store: store, cache: cache, clk: clk}
}

// Reserve takes count seats of an offering for a user and records the
// reservation in the ledger.  The authoritative side is resolved by a
// single cache lookup: a present counter routes the decrement to
// Redis, an absent one to MySQL.  Exactly one of the two is mutated.
func (s *Inventory) Reserve(ctx context.Context, ticketInfoID, userID uint64, count uint32) (uint64, error) {
    if count == 0 {
        return 0, ErrInvalidCount
    }
    if s.cache != nil {
        left, cached, err := s.cache.GetLeftSeats(ctx, ticketInfoID)
        if err != nil {
            return 0, fmt.Errorf("seat cache lookup: %w", err)
        }
        if cached {
            return s.reserveFromCache(ctx, ticketInfoID, userID, count, left)
        }
    }
    return s.reserveFromStore(ctx, ticketInfoID, userID, count)
}

// reserveFromStore validates the offering and lets the conditional
// decrement plus the ledger insert run as one MySQL transaction.
func (s *Inventory) reserveFromStore(ctx context.Context, ticketInfoID, userID uint64, count uint32) (uint64, error) {
    info, err := s.store.GetTicketInfo(ctx, ticketInfoID)
    if err != nil {
        return 0, err
    }
    if !info.Available {
        return 0, ErrReservationUnavailable
    }
    res, err := s.store.ReserveSeats(ctx, ticketInfoID, userID, count)
    if err != nil {
        if errors.Is(err, repository.ErrInsufficientSeats) {
            return 0, &InsufficientSeatsError{Available: info.LeftSeats}
        }
        return 0, err
    }
    return res.ID, nil
}

// reserveFromCache decrements the Redis counter, then inserts the
// ledger row.  The read value is only an early exit; the Lua guard in
// the cache makes the real decision.  A failed insert is compensated
// by returning the seats to the counter so no seat goes missing.
func (s *Inventory) reserveFromCache(ctx context.Context, ticketInfoID, userID uint64, count, left uint32) (uint64, error) {
    if left < count {
        return 0, &InsufficientSeatsError{Available: left}
    }
    if _, err := s.cache.DecrLeftSeats(ctx, ticketInfoID, count); err != nil {
        if errors.Is(err, repository.ErrInsufficientSeats) {
            // The guard fired on a concurrent decrement; report the
            // value read just above rather than racing another read.
            return 0, &InsufficientSeatsError{Available: left}
        }
        return 0, err
    }
    res := &model.Reservation{
        UserID:       userID,
        TicketInfoID: ticketInfoID,
        Count:        count,
    }
    if err := s.store.CreateReservation(ctx, res); err != nil {
        if _, cerr := s.cache.IncrLeftSeats(ctx, ticketInfoID, count); cerr != nil {
            log.Printf("inventory: compensating increment failed for ticket_info %d: %v", ticketInfoID, cerr)
        }
        return 0, err
    }
    return res.ID, nil
}

// TicketInfoView is the read-only projection of an offering for the
// in-progress reservation screen.  Slight staleness is fine for
// display, so handlers may serve it through the response cache; the
// decrement decision never uses it.
type TicketInfoView struct {
    ID         uint64    `json:"id"`
    EventID    uint64    `json:"event_id"`
    Title      string    `json:"title"`
    Place      string    `json:"place"`
    Date       time.Time `json:"date"`
    Available  bool      `json:"available"`
    LeftSeats  uint32    `json:"left_seats"`
    TotalSeats uint32    `json:"total_seats"`
}

// ViewTicketInfo returns the display snapshot of an offering.
func (s *Inventory) ViewTicketInfo(ctx context.Context, ticketInfoID uint64) (*TicketInfoView, error) {
    info, err := s.store.GetTicketInfo(ctx, ticketInfoID)
    if err != nil {
        return nil, err
    }
    return &TicketInfoView{
        ID:         info.ID,
        EventID:    info.EventID,
        Title:      info.EventTitle,
        Place:      info.EventPlace,
        Date:       info.EventDate,
        Available:  info.Available,
        LeftSeats:  info.LeftSeats,
        TotalSeats: info.TotalSeats,
    }, nil
}

// Cancel reverses a reservation: ownership and deadline are checked,
// the ledger row is deleted, and the seats return to whichever side is
// authoritative.  Cancellation is blocked from the event day onward
// (today >= event day, dates compared in UTC).
//
// The ledger delete is the serialization point for concurrent cancels
// of the same reservation: only the caller whose delete removed the
// row performs the seat increment, so a double cancel can never
// double-restock.
func (s *Inventory) Cancel(ctx context.Context, reservationID, userID uint64) error {
    res, err := s.store.GetReservation(ctx, reservationID)
    if err != nil {
        return err
    }
    if res.UserID != userID {
        return ErrOwnershipMismatch
    }
    info, err := s.store.GetTicketInfo(ctx, res.TicketInfoID)
    if err != nil {
        return err
    }
    today := dateOnly(s.clk.Now())
    eventDay := dateOnly(info.EventDate)
    if !today.Before(eventDay) {
        return ErrCancelDeadlinePassed
    }
    if s.cache != nil {
        _, cached, err := s.cache.GetLeftSeats(ctx, res.TicketInfoID)
        if err != nil {
            return fmt.Errorf("seat cache lookup: %w", err)
        }
        if cached {
            deleted, err := s.store.CancelReservation(ctx, res, false)
            if err != nil {
                return err
            }
            if !deleted {
                return repository.ErrReservationNotFound
            }
            if _, err := s.cache.IncrLeftSeats(ctx, res.TicketInfoID, res.Count); err != nil {
                // The ledger row is already gone; the counter is now
                // short res.Count seats until the next seed or evict
                // reconciles it against the store.
                log.Printf("inventory: cancel restock failed for ticket_info %d (count %d): %v", res.TicketInfoID, res.Count, err)
                return fmt.Errorf("seat cache increment: %w", err)
            }
            return nil
        }
    }
    deleted, err := s.store.CancelReservation(ctx, res, true)
    if err != nil {
        return err
    }
    if !deleted {
        return repository.ErrReservationNotFound
    }
    return nil
}

// ReservationDetail combines a ledger row with the offering snapshot
// for the reservation-complete screen.  Only the owner may read it.
type ReservationDetail struct {
    ID           uint64    `json:"id"`
    TicketInfoID uint64    `json:"ticket_info_id"`
    Count        uint32    `json:"count"`
    CreatedAt    time.Time `json:"created_at"`
    EventTitle   string    `json:"event_title"`
    EventPlace   string    `json:"event_place"`
    EventDate    time.Time `json:"event_date"`
}

// Detail returns the ownership-checked reservation detail.
func (s *Inventory) Detail(ctx context.Context, reservationID, userID uint64) (*ReservationDetail, error) {
    res, err := s.store.GetReservation(ctx, reservationID)
    if err != nil {
        return nil, err
    }
    if res.UserID != userID {
        return nil, ErrOwnershipMismatch
    }
    info, err := s.store.GetTicketInfo(ctx, res.TicketInfoID)
    if err != nil {
        return nil, err
    }
    return &ReservationDetail{
        ID:           res.ID,
        TicketInfoID: res.TicketInfoID,
        Count:        res.Count,
        CreatedAt:    res.CreatedAt,
        EventTitle:   info.EventTitle,
        EventPlace:   info.EventPlace,
        EventDate:    info.EventDate,
    }, nil
}

// ListByUser returns all reservations of the calling user.
func (s *Inventory) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
    return s.store.ListReservationsByUser(ctx, userID)
}

// dateOnly truncates an instant to its UTC calendar day.
func dateOnly(t time.Time) time.Time {
    y, m, d := t.UTC().Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
