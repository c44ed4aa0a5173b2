package service

import (
    "errors"
    "fmt"

    "github.com/iliyamo/event-ticket-reservation/internal/repository"
)

// Business failures raised by the inventory and cache-admin services.
// They complement the repository sentinels and are surfaced to the
// transport layer unchanged; anything else coming out of a service is
// an infrastructure failure and maps to an opaque 500.
var (
    // ErrReservationUnavailable means the offering exists but is not
    // open for reservation.
    ErrReservationUnavailable = errors.New("reservation unavailable")

    // ErrOwnershipMismatch means the acting user is not the owner of
    // the reservation.
    ErrOwnershipMismatch = errors.New("reservation belongs to another user")

    // ErrCancelDeadlinePassed means cancellation was attempted on or
    // after the event date.
    ErrCancelDeadlinePassed = errors.New("cancel deadline passed")

    // ErrUnauthorized means an admin-only operation was attempted by a
    // non-admin user.
    ErrUnauthorized = errors.New("admin role required")

    // ErrInvalidCount means the requested seat count is not a positive
    // integer.
    ErrInvalidCount = errors.New("count must be positive")

    // ErrCacheUnavailable means a cache administration operation was
    // requested while no Redis connection is configured.  This is an
    // infrastructure condition, not a business failure; handlers map
    // it to 503.
    ErrCacheUnavailable = errors.New("seat cache unavailable")
)

// InsufficientSeatsError decorates repository.ErrInsufficientSeats
// with the seats still available when the request was rejected, so the
// transport layer can report it alongside the requested count.
// errors.Is keeps matching the repository sentinel through Unwrap.
type InsufficientSeatsError struct {
    Available uint32
}

func (e *InsufficientSeatsError) Error() string {
    return fmt.Sprintf("insufficient seats: %d available", e.Available)
}

func (e *InsufficientSeatsError) Unwrap() error {
    return repository.ErrInsufficientSeats
}
