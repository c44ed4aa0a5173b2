// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// inventory service and handlers to distinguish between different
// failure scenarios with errors.Is. Anything that is not one of these
// sentinels is an infrastructure failure (store or cache unreachable,
// malformed row) and must be propagated as-is, never collapsed into a
// business error such as "no seats left".
package repository

import "errors"

// ErrTicketInfoNotFound is returned when the referenced ticket
// offering does not exist in the durable store. Handlers should
// translate this into an HTTP 404 response.
var ErrTicketInfoNotFound = errors.New("ticket info not found")

// ErrReservationNotFound is returned when the referenced reservation
// does not exist, or was already cancelled by a concurrent request.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrEventNotFound is returned when the referenced event does not
// exist in the catalog.
var ErrEventNotFound = errors.New("event not found")

// ErrInsufficientSeats is returned when a requested seat count exceeds
// the remaining seats in the authoritative source, whether that is the
// durable store or the counter cache. The conditional decrement never
// lets left_seats go negative; a rejected decrement surfaces as this
// error.
var ErrInsufficientSeats = errors.New("insufficient seats")
