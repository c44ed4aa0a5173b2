package repository

import (
    "context"
    "database/sql"
    "time"
)

// TicketInfoRepo is the durable store of record for seat inventory.
// Every seat count must eventually reconcile into the ticket_infos
// table; the Redis counter cache only shadows left_seats while an
// administrator has seeded it.  All timestamp fields are stored in
// UTC.
type TicketInfoRepo struct {
    db *sql.DB
}

// NewTicketInfoRepo returns a new TicketInfoRepo bound to the given database.
func NewTicketInfoRepo(db *sql.DB) *TicketInfoRepo { return &TicketInfoRepo{db: db} }

// TicketInfoRecord mirrors a ticket_infos row joined with the event
// date needed for the cancellation deadline check.  Business logic
// should treat LeftSeats as a snapshot only; the decrement decision is
// always made by the conditional UPDATE, never by comparing this value.
type TicketInfoRecord struct {
    ID         uint64
    EventID    uint64
    Available  bool
    LeftSeats  uint32
    TotalSeats uint32
    EventTitle string
    EventPlace string
    EventDate  time.Time
}

const ticketInfoSelect = `SELECT t.id, t.event_id, t.is_available, t.left_seats, t.total_seats,
                                 e.title, e.place, e.date
                          FROM ticket_infos t
                          JOIN events e ON e.id = t.event_id
                          WHERE t.id = ?`

// GetByID loads a ticket offering together with its event fields.  It
// returns ErrTicketInfoNotFound when no row exists.
func (r *TicketInfoRepo) GetByID(ctx context.Context, id uint64) (*TicketInfoRecord, error) {
    rec, err := scanTicketInfo(r.db.QueryRowContext(ctx, ticketInfoSelect, id))
    if err == sql.ErrNoRows {
        return nil, ErrTicketInfoNotFound
    }
    return rec, err
}

func scanTicketInfo(row *sql.Row) (*TicketInfoRecord, error) {
    var rec TicketInfoRecord
    err := row.Scan(
        &rec.ID, &rec.EventID, &rec.Available, &rec.LeftSeats, &rec.TotalSeats,
        &rec.EventTitle, &rec.EventPlace, &rec.EventDate,
    )
    if err != nil {
        return nil, err
    }
    return &rec, nil
}

// DecrementSeatsTx atomically takes count seats from the offering
// inside the caller's transaction.  The UPDATE is conditional on
// left_seats >= count, so concurrent reservations for the same
// offering serialize on the row and the counter can never go
// negative.  When zero rows are affected the offering either does not
// exist (ErrTicketInfoNotFound) or has too few seats left
// (ErrInsufficientSeats); a follow-up existence check distinguishes
// the two.
func (r *TicketInfoRepo) DecrementSeatsTx(ctx context.Context, tx *sql.Tx, id uint64, count uint32) error {
    const q = `UPDATE ticket_infos SET left_seats = left_seats - ? WHERE id = ? AND left_seats >= ?`
    res, err := tx.ExecContext(ctx, q, count, id, count)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        var exists bool
        if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM ticket_infos WHERE id = ?)`, id).Scan(&exists); err != nil {
            return err
        }
        if !exists {
            return ErrTicketInfoNotFound
        }
        return ErrInsufficientSeats
    }
    return nil
}

// IncrementSeatsTx returns count seats to the offering inside the
// caller's transaction.  The increment is capped at total_seats so a
// stray double reversal cannot inflate capacity.  RowsAffected counts
// matched rows (clientFoundRows in the DSN), so a LEAST-capped no-op
// update on an existing row does not read as not-found.
func (r *TicketInfoRepo) IncrementSeatsTx(ctx context.Context, tx *sql.Tx, id uint64, count uint32) error {
    const q = `UPDATE ticket_infos SET left_seats = LEAST(left_seats + ?, total_seats) WHERE id = ?`
    res, err := tx.ExecContext(ctx, q, count, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrTicketInfoNotFound
    }
    return nil
}

// SetLeftSeats overwrites left_seats with an absolute value.  It is
// used by the cache eviction flush, which writes the last cached
// counter back into the store before the cache entry disappears.
// RowsAffected counts matched rows (clientFoundRows in the DSN), so
// flushing a value equal to the stored one is not mistaken for a
// missing row.
func (r *TicketInfoRepo) SetLeftSeats(ctx context.Context, id uint64, leftSeats uint32) error {
    const q = `UPDATE ticket_infos SET left_seats = ? WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, leftSeats, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrTicketInfoNotFound
    }
    return nil
}

// CreateTx inserts a new ticket_infos row for an event within the
// scope of an existing transaction.  left_seats starts equal to
// total_seats.  The generated ID is populated on the record.
func (r *TicketInfoRepo) CreateTx(ctx context.Context, tx *sql.Tx, eventID uint64, totalSeats uint32, available bool) (uint64, error) {
    const q = `INSERT INTO ticket_infos (event_id, is_available, left_seats, total_seats) VALUES (?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, eventID, available, totalSeats, totalSeats)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}
