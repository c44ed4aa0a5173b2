package handler

import (
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticket-reservation/internal/repository"
)

// EventHandler serves the event catalog: public browsing and search
// plus the admin-only create and delete operations.  Catalog writes
// span the events and ticket_infos tables, so they run inside a
// transaction started here, following the repository Tx methods.
type EventHandler struct {
    Events  *repository.EventRepo
    Tickets *repository.TicketInfoRepo
}

// NewEventHandler constructs an EventHandler with the provided
// repositories.  All dependencies must be non-nil.
func NewEventHandler(events *repository.EventRepo, tickets *repository.TicketInfoRepo) *EventHandler {
    if events == nil || tickets == nil {
        panic("nil repository passed to NewEventHandler")
    }
    return &EventHandler{Events: events, Tickets: tickets}
}

// ListEvents handles GET /v1/events.  It returns a page of events that
// are open for reservation, ordered by the soonest event date.  The
// optional ?page query parameter is zero-based.
func (h *EventHandler) ListEvents(c echo.Context) error {
    page, _ := strconv.Atoi(c.QueryParam("page"))
    items, err := h.Events.List(c.Request().Context(), page)
    if err != nil {
        c.Logger().Errorf("list events failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load events"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items, "page": page})
}

// SearchEvents handles GET /v1/events/search.  The keyword matches
// title or place; ?sort selects the order column (date, title, place)
// and ?asc=true flips the direction.
func (h *EventHandler) SearchEvents(c echo.Context) error {
    keyword := strings.TrimSpace(c.QueryParam("keyword"))
    if keyword == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "keyword is required"})
    }
    page, _ := strconv.Atoi(c.QueryParam("page"))
    asc := c.QueryParam("asc") == "true"
    items, err := h.Events.Search(c.Request().Context(), keyword, page, c.QueryParam("sort"), asc)
    if err != nil {
        c.Logger().Errorf("search events failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items, "page": page})
}

// GetEvent handles GET /v1/events/:id.  It returns the event detail
// together with its offering state.
func (h *EventHandler) GetEvent(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    det, err := h.Events.GetDetail(c.Request().Context(), id)
    if err != nil {
        if errors.Is(err, repository.ErrEventNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
        }
        c.Logger().Errorf("get event failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load event"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": det})
}

// CreateEvent handles POST /v1/admin/events.  It inserts the event and
// its ticket_infos row in one transaction so a half-created catalog
// entry can never be observed.  The route requires the ADMIN role.
func (h *EventHandler) CreateEvent(c echo.Context) error {
    var body struct {
        Title      string    `json:"title"`
        Place      string    `json:"place"`
        Date       time.Time `json:"date"`
        TotalSeats uint32    `json:"total_seats"`
        Available  bool      `json:"available"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    body.Title = strings.TrimSpace(body.Title)
    body.Place = strings.TrimSpace(body.Place)
    if body.Title == "" || body.Place == "" || body.Date.IsZero() {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "title, place and date are required"})
    }
    if body.TotalSeats == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_seats must be positive"})
    }
    ctx := c.Request().Context()
    tx, err := h.Events.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    eventID, err := h.Events.CreateTx(ctx, tx, body.Title, body.Place, body.Date)
    if err != nil {
        c.Logger().Errorf("create event failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create event"})
    }
    ticketInfoID, err := h.Tickets.CreateTx(ctx, tx, eventID, body.TotalSeats, body.Available)
    if err != nil {
        c.Logger().Errorf("create ticket info failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create ticket info"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true
    return c.JSON(http.StatusCreated, echo.Map{
        "event_id":       eventID,
        "ticket_info_id": ticketInfoID,
    })
}

// DeleteEvent handles DELETE /v1/admin/events/:id.  The ticket_infos
// and reservations rows cascade with the event.  The route requires
// the ADMIN role.
func (h *EventHandler) DeleteEvent(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    ctx := c.Request().Context()
    tx, err := h.Events.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := h.Events.DeleteTx(ctx, tx, id); err != nil {
        if errors.Is(err, repository.ErrEventNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
        }
        c.Logger().Errorf("delete event failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete event"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true
    return c.NoContent(http.StatusNoContent)
}
