package model

import "time"

// TicketInfo tracks the seat inventory of a single event.  LeftSeats
// is the remaining unreserved capacity and is the only contended
// mutable value in the system: it is only ever changed through the
// conditional atomic update in the repository layer or through the
// Redis counter when the entry has been seeded into the cache.
//
// Fields:
//  ID         – primary key identifier.
//  EventID    – event this inventory belongs to.
//  Available  – whether the offering is open for reservation.
//  LeftSeats  – remaining unreserved seats (never negative).
//  TotalSeats – original capacity when the offering was created.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type TicketInfo struct {
    ID         uint64    // ticket_infos.id
    EventID    uint64    // ticket_infos.event_id
    Available  bool      // ticket_infos.is_available
    LeftSeats  uint32    // ticket_infos.left_seats
    TotalSeats uint32    // ticket_infos.total_seats
    CreatedAt  time.Time // ticket_infos.created_at
    UpdatedAt  time.Time // ticket_infos.updated_at
}
