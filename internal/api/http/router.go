package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/valorant-dhruv/FeathersUp.ai/internal/api/http/handlers"
	"github.com/valorant-dhruv/FeathersUp.ai/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Queue          *handlers.QueueHandler
	Agents         *handlers.AgentsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)

	queue := tickets.Group("/queue", auth.RequireAgent())
	queue.Get("/next", cfg.Queue.NextTicket)
	queue.Get("/system/stats", auth.RequireSuperAgent(), cfg.Queue.SystemStats)
	queue.Get("/agent/:agentId?", cfg.Queue.AgentQueue)

	tickets.Patch("/:id/complete", auth.RequireAgent(), cfg.Tickets.CompleteTicket)
	tickets.Patch("/:id/priority", auth.RequireAgent(), cfg.Tickets.UpdatePriority)

	agents := api.Group("/agents", auth.RequireAgent())
	agents.Post("/:id/categories", cfg.Agents.Subscribe)
	agents.Delete("/:id/categories/:categoryId", cfg.Agents.Unsubscribe)
}
