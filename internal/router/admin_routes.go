package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-reservation/internal/handler"
	"github.com/iliyamo/event-ticket-reservation/internal/middleware"
	"github.com/iliyamo/event-ticket-reservation/internal/model"
)

// RegisterAdmin registers the ADMIN-scoped endpoints under /v1/admin:
// catalog management and the seat-cache controls.  All routes require
// a valid JWT and the ADMIN role; the cache service re-checks the role
// claim on every call.
func RegisterAdmin(e *echo.Echo, ev *handler.EventHandler, ac *handler.AdminCacheHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Catalog ----
	g.POST("/events", ev.CreateEvent)
	g.DELETE("/events/:id", ev.DeleteEvent)

	// ---- Seat cache ----
	g.POST("/ticket-infos/:id/cache", ac.Seed)
	g.DELETE("/ticket-infos/:id/cache", ac.Evict)
	g.GET("/cache/keys", ac.ListKeys)
}
