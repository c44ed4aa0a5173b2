package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/event-ticket-reservation/internal/model"
)

// InventoryStore bundles the ticket inventory and the reservation
// ledger behind the two transactional composites the reservation flow
// needs: decrement-and-record and delete-and-restock.  Keeping the
// transaction boundaries here means the service layer never sees a
// *sql.Tx and can be unit tested against an in-memory fake.
type InventoryStore struct {
    db           *sql.DB
    tickets      *TicketInfoRepo
    reservations *ReservationRepo
}

// NewInventoryStore returns an InventoryStore over the given database.
func NewInventoryStore(db *sql.DB) *InventoryStore {
    return &InventoryStore{
        db:           db,
        tickets:      NewTicketInfoRepo(db),
        reservations: NewReservationRepo(db),
    }
}

// GetTicketInfo loads an offering with its event fields.
func (s *InventoryStore) GetTicketInfo(ctx context.Context, id uint64) (*TicketInfoRecord, error) {
    return s.tickets.GetByID(ctx, id)
}

// SetLeftSeats overwrites the stored seat counter.  Used by the cache
// eviction flush.
func (s *InventoryStore) SetLeftSeats(ctx context.Context, id uint64, leftSeats uint32) error {
    return s.tickets.SetLeftSeats(ctx, id, leftSeats)
}

// GetReservation loads one ledger row.
func (s *InventoryStore) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
    return s.reservations.GetByID(ctx, id)
}

// CreateReservation inserts a ledger row on its own.  This is the
// cache-path insert: the seat decrement already happened in Redis and
// the service compensates the cache if this fails.
func (s *InventoryStore) CreateReservation(ctx context.Context, res *model.Reservation) error {
    return s.reservations.Create(ctx, res)
}

// ListReservationsByUser returns the caller's ledger rows, newest first.
func (s *InventoryStore) ListReservationsByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
    return s.reservations.ListByUser(ctx, userID)
}

// ReserveSeats performs the store-path reservation: the conditional
// seat decrement and the ledger insert commit or roll back together,
// so a failed insert can never leave seats missing and a failed
// decrement never leaves a dangling ledger row.
func (s *InventoryStore) ReserveSeats(ctx context.Context, ticketInfoID, userID uint64, count uint32) (*model.Reservation, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := s.tickets.DecrementSeatsTx(ctx, tx, ticketInfoID, count); err != nil {
        return nil, err
    }
    res := &model.Reservation{
        UserID:       userID,
        TicketInfoID: ticketInfoID,
        Count:        count,
    }
    if err := s.reservations.CreateTx(ctx, tx, res); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return res, nil
}

// CancelReservation deletes a ledger row and, when restoreSeats is
// set, returns its seats to the stored counter in the same
// transaction.  The returned bool reports whether this call deleted
// the row; a concurrent cancel of the same reservation makes exactly
// one caller observe true, so the seat count is restored exactly once.
func (s *InventoryStore) CancelReservation(ctx context.Context, res *model.Reservation, restoreSeats bool) (bool, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return false, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    deleted, err := s.reservations.DeleteTx(ctx, tx, res.ID)
    if err != nil {
        return false, err
    }
    if deleted && restoreSeats {
        if err := s.tickets.IncrementSeatsTx(ctx, tx, res.TicketInfoID, res.Count); err != nil {
            return false, err
        }
    }
    if err := tx.Commit(); err != nil {
        return false, err
    }
    committed = true
    return deleted, nil
}
