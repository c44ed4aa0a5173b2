package model

import "time"

// Reservation records a user's booking of seats for one ticket
// offering.  It is created atomically with a successful seat
// decrement and deleted (with the seat count reversed) when the user
// cancels.  This struct corresponds to a row in the `reservations`
// table.
//
// Fields:
//  ID           – primary key identifier.
//  UserID       – user who made the reservation.
//  TicketInfoID – ticket offering the seats were taken from.
//  Count        – number of seats reserved (positive).
//  CreatedAt    – creation timestamp.
type Reservation struct {
    ID           uint64    `json:"id"`             // reservations.id
    UserID       uint64    `json:"user_id"`        // reservations.user_id
    TicketInfoID uint64    `json:"ticket_info_id"` // reservations.ticket_info_id
    Count        uint32    `json:"count"`          // reservations.count
    CreatedAt    time.Time `json:"created_at"`     // reservations.created_at
}
