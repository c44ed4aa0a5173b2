package model

import "time"

// Event represents a scheduled performance or concert that tickets can
// be sold for.  Each event owns exactly one TicketInfo row describing
// its seat inventory.  This struct corresponds to a row in the
// `events` table.
//
// Fields:
//  ID        – primary key identifier.
//  Title     – name of the performance.
//  Place     – venue where the event takes place.
//  Date      – when the event starts.
//  Image     – optional key of a poster image (managed elsewhere).
//  CreatedAt – timestamp when the event was created.
//  UpdatedAt – timestamp of last update.
type Event struct {
    ID        uint64    // events.id
    Title     string    // events.title
    Place     string    // events.place
    Date      time.Time // events.date
    Image     *string   // events.image (nullable)
    CreatedAt time.Time // events.created_at
    UpdatedAt time.Time // events.updated_at
}
