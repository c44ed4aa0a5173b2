package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/event-ticket-reservation/internal/model"
)

// ReservationRepo is the durable ledger of individual reservations.
// Each row records who reserved how many seats of which offering and
// is the basis for ownership checks and for reversing the seat count
// on cancellation.  All timestamp fields are stored in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// CreateTx inserts a new reservation within the scope of an existing
// transaction.  It populates the generated ID and creation timestamp
// on the provided record.  The caller must commit or roll back the
// transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    const q = `INSERT INTO reservations (user_id, ticket_info_id, count) VALUES (?, ?, ?)`
    result, err := tx.ExecContext(ctx, q, res.UserID, res.TicketInfoID, res.Count)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    // Query back the row to populate the DB-assigned timestamp.
    const sel = `SELECT created_at FROM reservations WHERE id = ?`
    return tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt)
}

// Create inserts a reservation outside any caller-managed transaction.
// It is used on the cache path, where the seat decrement already
// happened in Redis and a failed insert is compensated by the service
// with a cache increment.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    if err := r.CreateTx(ctx, tx, res); err != nil {
        _ = tx.Rollback()
        return err
    }
    return tx.Commit()
}

// GetByID returns a single reservation.  It returns
// ErrReservationNotFound when no row with the given ID exists.
// Ownership is not checked here; the service compares UserID itself so
// that a mismatch can be reported distinctly from absence.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    const q = `SELECT id, user_id, ticket_info_id, count, created_at FROM reservations WHERE id = ?`
    var res model.Reservation
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &res.ID, &res.UserID, &res.TicketInfoID, &res.Count, &res.CreatedAt,
    )
    if err == sql.ErrNoRows {
        return nil, ErrReservationNotFound
    }
    if err != nil {
        return nil, err
    }
    return &res, nil
}

// DeleteTx removes a reservation inside the caller's transaction and
// reports whether a row was actually deleted.  The rows-affected
// result is the serialization point for concurrent cancellations of
// the same reservation: exactly one caller observes true and is the
// one allowed to reverse the seat count.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
    const q = `DELETE FROM reservations WHERE id = ?`
    res, err := tx.ExecContext(ctx, q, id)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// ListByUser returns all reservations created by the given user,
// newest first.  When no reservations exist an empty slice is
// returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
    const q = `SELECT id, user_id, ticket_info_id, count, created_at
               FROM reservations
               WHERE user_id = ?
               ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Reservation, 0)
    for rows.Next() {
        var res model.Reservation
        if err := rows.Scan(&res.ID, &res.UserID, &res.TicketInfoID, &res.Count, &res.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, res)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
