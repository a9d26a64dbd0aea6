package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-routing/internal/api/http/handlers"
	"github.com/spec-kit/ticket-routing/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Workflows      *handlers.WorkflowsHandler
	Employees      *handlers.EmployeesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Post("/auth/login", cfg.Auth.Login)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	api.Post("/tickets", cfg.Tickets.CreateTicket)
	api.Get("/tickets", cfg.Tickets.ListTickets)
	api.Get("/tickets/:id", cfg.Tickets.GetTicket)

	api.Post("/workflows", cfg.Workflows.Start)
	api.Get("/workflows", auth.RequireAdmin(), cfg.Workflows.List)
	api.Get("/workflows/:id", cfg.Workflows.GetStatus)
	api.Post("/workflows/:id/cancel", cfg.Workflows.Cancel)
	api.Post("/workflows/:id/call-ended", cfg.Workflows.CallEnded)

	api.Get("/employees", cfg.Employees.List)
	api.Put("/employees/:username/availability", cfg.Employees.UpdateAvailability)
	api.Get("/employees/:username/pending-calls", cfg.Employees.PendingCalls)
}
