// Package repository contains data access logic for the event catalog.
// This file defines repository methods for events. An Event represents
// a scheduled performance; its seat inventory lives in the paired
// ticket_infos row managed by TicketInfoRepo.
package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"
)

// EventRepo manages persistence for events.
type EventRepo struct {
    db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning the events and ticket_infos tables.
func (r *EventRepo) DB() *sql.DB {
    return r.db
}

// EventSummary is the listing projection of an event joined with its
// offering state.  It is returned by List and Search for the main and
// search pages.
type EventSummary struct {
    ID        uint64    `json:"id"`
    Title     string    `json:"title"`
    Place     string    `json:"place"`
    Date      time.Time `json:"date"`
    Available bool      `json:"available"`
    LeftSeats uint32    `json:"left_seats"`
}

// pageSize matches the four-per-page layout of the front end.
const pageSize = 4

// List returns a page of events whose offering is open for
// reservation, ordered by the soonest event date.  Pages are
// zero-based.
func (r *EventRepo) List(ctx context.Context, page int) ([]EventSummary, error) {
    if page < 0 {
        page = 0
    }
    const q = `SELECT e.id, e.title, e.place, e.date, t.is_available, t.left_seats
               FROM events e
               JOIN ticket_infos t ON t.event_id = e.id
               WHERE t.is_available = TRUE
               ORDER BY e.date ASC
               LIMIT ? OFFSET ?`
    return r.querySummaries(ctx, q, pageSize, page*pageSize)
}

// Search returns a page of events whose title or place contains the
// keyword.  sortBy is restricted to a known column set to keep the
// ORDER BY injection-safe; unknown values fall back to the event date.
func (r *EventRepo) Search(ctx context.Context, keyword string, page int, sortBy string, asc bool) ([]EventSummary, error) {
    if page < 0 {
        page = 0
    }
    col := "e.date"
    switch strings.ToLower(sortBy) {
    case "title":
        col = "e.title"
    case "place":
        col = "e.place"
    case "date", "":
        col = "e.date"
    }
    dir := "DESC"
    if asc {
        dir = "ASC"
    }
    q := `SELECT e.id, e.title, e.place, e.date, t.is_available, t.left_seats
          FROM events e
          JOIN ticket_infos t ON t.event_id = e.id
          WHERE e.title LIKE ? OR e.place LIKE ?
          ORDER BY ` + col + ` ` + dir + `
          LIMIT ? OFFSET ?`
    pattern := "%" + keyword + "%"
    return r.querySummaries(ctx, q, pattern, pattern, pageSize, page*pageSize)
}

func (r *EventRepo) querySummaries(ctx context.Context, q string, args ...interface{}) ([]EventSummary, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]EventSummary, 0)
    for rows.Next() {
        var s EventSummary
        if err := rows.Scan(&s.ID, &s.Title, &s.Place, &s.Date, &s.Available, &s.LeftSeats); err != nil {
            return nil, err
        }
        out = append(out, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// EventDetail is the full projection of an event and its offering,
// used by the detail page and the in-progress reservation screen.
type EventDetail struct {
    ID           uint64    `json:"id"`
    Title        string    `json:"title"`
    Place        string    `json:"place"`
    Date         time.Time `json:"date"`
    TicketInfoID uint64    `json:"ticket_info_id"`
    Available    bool      `json:"available"`
    LeftSeats    uint32    `json:"left_seats"`
    TotalSeats   uint32    `json:"total_seats"`
}

// GetDetail loads one event with its offering.  It returns
// ErrEventNotFound when the event does not exist.
func (r *EventRepo) GetDetail(ctx context.Context, eventID uint64) (*EventDetail, error) {
    const q = `SELECT e.id, e.title, e.place, e.date, t.id, t.is_available, t.left_seats, t.total_seats
               FROM events e
               JOIN ticket_infos t ON t.event_id = e.id
               WHERE e.id = ?`
    var d EventDetail
    err := r.db.QueryRowContext(ctx, q, eventID).Scan(
        &d.ID, &d.Title, &d.Place, &d.Date,
        &d.TicketInfoID, &d.Available, &d.LeftSeats, &d.TotalSeats,
    )
    if err == sql.ErrNoRows {
        return nil, ErrEventNotFound
    }
    if err != nil {
        return nil, err
    }
    return &d, nil
}

// CreateTx inserts a new event within the caller's transaction and
// returns its generated ID.  The paired ticket_infos row is inserted
// by TicketInfoRepo.CreateTx in the same transaction.
func (r *EventRepo) CreateTx(ctx context.Context, tx *sql.Tx, title, place string, date time.Time) (uint64, error) {
    const q = `INSERT INTO events (title, place, date) VALUES (?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, title, place, date.UTC())
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// DeleteTx removes an event inside the caller's transaction.  The
// ticket_infos and reservations rows cascade via foreign keys.  It
// returns ErrEventNotFound when no row was deleted.
func (r *EventRepo) DeleteTx(ctx context.Context, tx *sql.Tx, eventID uint64) error {
    res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, eventID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrEventNotFound
    }
    return nil
}
