package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-sync/internal/api/http/handlers"
	"github.com/spec-kit/ticket-sync/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Tickets *handlers.TicketsHandler
	People  *handlers.PeopleHandler
	Auth    *handlers.AuthHandler
	Sync    *handlers.SyncHandler
	Tokens  *auth.TokenManager
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/token", cfg.Auth.Token)
	app.Post("/people", cfg.People.Register)

	tickets := app.Group("/tickets", auth.OptionalMiddleware(cfg.Tokens))
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:ticketID", cfg.Tickets.GetTicket)
	tickets.Patch("/:externalKey", cfg.Tickets.UpdateTicket)

	protected := app.Group("/sync", auth.Middleware(cfg.Tokens), auth.RequireManager())
	protected.Post("/run", cfg.Sync.Run)
}
