package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticket-reservation/internal/queue"
    "github.com/iliyamo/event-ticket-reservation/internal/repository"
    "github.com/iliyamo/event-ticket-reservation/internal/service"
)

// ReservationHandler exposes the reservation flow over HTTP.  All
// decisions about cache-versus-store routing, atomicity and ownership
// live in the Inventory service; this layer only binds requests,
// extracts the authenticated user and maps business errors to status
// codes.  JWT authentication is performed by middleware.
type ReservationHandler struct {
    Inventory *service.Inventory
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(inv *service.Inventory) *ReservationHandler {
    if inv == nil {
        panic("nil inventory passed to NewReservationHandler")
    }
    return &ReservationHandler{Inventory: inv}
}

// Reserve handles POST /v1/reservations.  The body carries the ticket
// offering and the requested seat count.  On success a 201 response
// returns the new reservation ID and a reservation.confirmed event is
// published best-effort; a publish failure never fails the request.
func (h *ReservationHandler) Reserve(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        TicketInfoID uint64 `json:"ticket_info_id"`
        Count        uint32 `json:"count"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.TicketInfoID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_info_id is required"})
    }
    ctx := c.Request().Context()
    resID, err := h.Inventory.Reserve(ctx, body.TicketInfoID, userID, body.Count)
    if err != nil {
        switch {
        case errors.Is(err, service.ErrInvalidCount):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "count must be positive"})
        case errors.Is(err, repository.ErrTicketInfoNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket info not found"})
        case errors.Is(err, service.ErrReservationUnavailable):
            return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not open"})
        case errors.Is(err, repository.ErrInsufficientSeats):
            resp := echo.Map{
                "error":          "not enough seats left",
                "ticket_info_id": body.TicketInfoID,
                "requested":      body.Count,
            }
            var insufficient *service.InsufficientSeatsError
            if errors.As(err, &insufficient) {
                resp["available"] = insufficient.Available
            }
            return c.JSON(http.StatusConflict, resp)
        }
        c.Logger().Errorf("reserve failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation failed"})
    }

    h.publishConfirmed(ctx, resID, userID)

    return c.JSON(http.StatusCreated, echo.Map{
        "reservation_id": resID,
    })
}

// publishConfirmed emits the reservation.confirmed event.  The detail
// lookup and the publish are both best-effort.
func (h *ReservationHandler) publishConfirmed(ctx context.Context, resID, userID uint64) {
    det, err := h.Inventory.Detail(ctx, resID, userID)
    if err != nil {
        return
    }
    _ = queue.PublishReservationConfirmed(ctx, queue.ReservationConfirmedEvent{
        ReservationID: det.ID,
        UserID:        userID,
        TicketInfoID:  det.TicketInfoID,
        EventTitle:    det.EventTitle,
        EventPlace:    det.EventPlace,
        EventDate:     det.EventDate.Format(time.RFC3339),
        Count:         det.Count,
        ConfirmedAt:   det.CreatedAt.UTC().Format(time.RFC3339),
    })
}

// ViewTicketInfo handles GET /v1/ticket-infos/:id.  It serves the
// display snapshot used by the in-progress reservation screen.  The
// route is wrapped by the Redis response cache with a short TTL, which
// is safe because this projection is never used for the decrement
// decision.
func (h *ReservationHandler) ViewTicketInfo(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket info id"})
    }
    view, err := h.Inventory.ViewTicketInfo(c.Request().Context(), id)
    if err != nil {
        if errors.Is(err, repository.ErrTicketInfoNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket info not found"})
        }
        c.Logger().Errorf("view ticket info failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load ticket info"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": view})
}

// GetReservation handles GET /v1/reservations/:id.  It returns the
// ownership-checked reservation detail: 404 when absent, 403 when the
// reservation belongs to another user.
func (h *ReservationHandler) GetReservation(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    resID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    det, err := h.Inventory.Detail(c.Request().Context(), resID, userID)
    if err != nil {
        switch {
        case errors.Is(err, repository.ErrReservationNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        case errors.Is(err, service.ErrOwnershipMismatch):
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
        c.Logger().Errorf("get reservation failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": det})
}

// ListReservations handles GET /v1/my-reservations.  It returns all
// reservations created by the current user, newest first.
func (h *ReservationHandler) ListReservations(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    items, err := h.Inventory.ListByUser(c.Request().Context(), userID)
    if err != nil {
        c.Logger().Errorf("list reservations failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CancelReservation handles DELETE /v1/reservations/:id.  Cancellation
// is blocked from the event day onward (409) and only the owner may
// cancel (403).  A repeated cancel of the same reservation returns 404
// because the ledger row is already gone.
func (h *ReservationHandler) CancelReservation(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    resID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    if err := h.Inventory.Cancel(c.Request().Context(), resID, userID); err != nil {
        switch {
        case errors.Is(err, repository.ErrReservationNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        case errors.Is(err, service.ErrOwnershipMismatch):
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        case errors.Is(err, service.ErrCancelDeadlinePassed):
            return c.JSON(http.StatusConflict, echo.Map{"error": "cancellation is closed from the event day"})
        case errors.Is(err, repository.ErrTicketInfoNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket info not found"})
        }
        c.Logger().Errorf("cancel reservation failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancellation failed"})
    }
    return c.NoContent(http.StatusNoContent)
}
