// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published when a reservation commits.
// It carries enough information for downstream consumers to log,
// notify, or feed analytics without querying the primary database.
type ReservationConfirmedEvent struct {
    ReservationID uint64 `json:"reservation_id"`
    UserID        uint64 `json:"user_id"`
    TicketInfoID  uint64 `json:"ticket_info_id"`
    EventTitle    string `json:"event_title"`
    EventPlace    string `json:"event_place"`
    EventDate     string `json:"event_date"`
    Count         uint32 `json:"count"`
    ConfirmedAt   string `json:"confirmed_at"`
}
