package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-reservation/internal/handler"
	"github.com/iliyamo/event-ticket-reservation/internal/middleware"
	"github.com/iliyamo/event-ticket-reservation/internal/model"
)

// RegisterCustomer registers the reservation endpoints under /v1.  All
// routes require a valid JWT and the CUSTOMER or ADMIN role.  The
// reserveLimit middleware rate-limits reservation attempts per user;
// pass nil middlewares to register the route unlimited.
func RegisterCustomer(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string, reserveLimit ...echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin),
	)
	g.POST("/reservations", h.Reserve, reserveLimit...)
	g.GET("/reservations/:id", h.GetReservation)
	g.DELETE("/reservations/:id", h.CancelReservation)
	g.GET("/my-reservations", h.ListReservations)
}
