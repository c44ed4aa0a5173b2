package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticket-reservation/internal/repository"
    "github.com/iliyamo/event-ticket-reservation/internal/service"
)

// AdminCacheHandler exposes the cache administration endpoints.  The
// routes are already guarded by the ADMIN role middleware; the service
// checks the role claim again so the capability check cannot be
// bypassed by wiring mistakes.
type AdminCacheHandler struct {
    Cache *service.AdminCache
}

// NewAdminCacheHandler constructs an AdminCacheHandler.
func NewAdminCacheHandler(cache *service.AdminCache) *AdminCacheHandler {
    if cache == nil {
        panic("nil admin cache passed to NewAdminCacheHandler")
    }
    return &AdminCacheHandler{Cache: cache}
}

// mapAdminErr translates the shared admin-cache failures.  The zero
// status means the error was not recognized here.
func mapAdminErr(c echo.Context, err error) (int, echo.Map) {
    switch {
    case errors.Is(err, service.ErrUnauthorized):
        return http.StatusForbidden, echo.Map{"error": "admin role required"}
    case errors.Is(err, service.ErrCacheUnavailable):
        return http.StatusServiceUnavailable, echo.Map{"error": "seat cache unavailable"}
    case errors.Is(err, repository.ErrTicketInfoNotFound):
        return http.StatusNotFound, echo.Map{"error": "ticket info not found"}
    }
    return 0, nil
}

// Seed handles POST /v1/admin/ticket-infos/:id/cache.  It copies the
// stored left_seats of the offering into Redis, making the cache the
// authoritative side for subsequent reservations.
func (h *AdminCacheHandler) Seed(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket info id"})
    }
    if err := h.Cache.Seed(c.Request().Context(), id, getRole(c)); err != nil {
        if code, body := mapAdminErr(c, err); code != 0 {
            return c.JSON(code, body)
        }
        c.Logger().Errorf("seed cache failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "seed failed"})
    }
    return c.JSON(http.StatusCreated, echo.Map{"message": "left seats cached"})
}

// Evict handles DELETE /v1/admin/ticket-infos/:id/cache.  The cached
// counter is flushed back into the durable store before the entry is
// removed, so the store is authoritative again afterwards.
func (h *AdminCacheHandler) Evict(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket info id"})
    }
    if err := h.Cache.Evict(c.Request().Context(), id, getRole(c)); err != nil {
        if code, body := mapAdminErr(c, err); code != 0 {
            return c.JSON(code, body)
        }
        c.Logger().Errorf("evict cache failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "evict failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "cache entry removed"})
}

// ListKeys handles GET /v1/admin/cache/keys.  It returns the ticket
// offering IDs currently cached, for operational visibility.
func (h *AdminCacheHandler) ListKeys(c echo.Context) error {
    ids, err := h.Cache.ListCachedIDs(c.Request().Context(), getRole(c))
    if err != nil {
        if code, body := mapAdminErr(c, err); code != 0 {
            return c.JSON(code, body)
        }
        c.Logger().Errorf("list cache keys failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"ticket_info_ids": ids})
}
