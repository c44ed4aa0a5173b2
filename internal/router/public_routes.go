package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticket-reservation/internal/handler"
)

// RegisterPublic registers the unauthenticated browse endpoints: the
// event catalog and the ticket-info display view.  The viewCache
// middleware wraps the ticket-info route with the Redis response cache;
// pass nil middlewares to serve it uncached.  The projection behind
// that route is display-only, so a short-TTL stale read never affects
// the seat decrement decision.
func RegisterPublic(e *echo.Echo, ev *handler.EventHandler, res *handler.ReservationHandler, viewCache ...echo.MiddlewareFunc) {
	e.GET("/v1/events", ev.ListEvents)
	e.GET("/v1/events/search", ev.SearchEvents)
	e.GET("/v1/events/:id", ev.GetEvent)
	e.GET("/v1/ticket-infos/:id", res.ViewTicketInfo, viewCache...)
}
