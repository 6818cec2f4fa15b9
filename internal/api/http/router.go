package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Agents         *handlers.AgentsHandler
	Levels         *handlers.LevelsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	app.Post("/auth/agents/login", cfg.Agents.Login)

	// Customer tracking page, keyed by ticket number.
	app.Get("/track/:number", cfg.Tickets.Track)
	app.Post("/track/:number/replies", cfg.Tickets.CustomerReply)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAgent())

	tickets := protected.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/sla", cfg.Tickets.GetSLA)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Get("/:id/attachments", cfg.Tickets.Attachments)
	tickets.Post("/:id/status", cfg.Tickets.ChangeStatus)
	tickets.Post("/:id/priority", cfg.Tickets.ChangePriority)
	tickets.Post("/:id/due-date", cfg.Tickets.SetDueDate)
	tickets.Post("/:id/escalate", cfg.Tickets.Escalate)
	tickets.Post("/:id/assign", cfg.Tickets.Assign)
	tickets.Post("/:id/replies", cfg.Tickets.AddReply)
	tickets.Post("/:id/notes", cfg.Tickets.AddNote)

	protected.Get("/levels", cfg.Levels.ListLevels)
	protected.Delete("/levels/:id", auth.RequireAdmin(), cfg.Levels.DeleteLevel)
	protected.Get("/categories", cfg.Levels.ListCategories)

	protected.Get("/agents/me", cfg.Agents.Me)
	protected.Get("/agents", cfg.Agents.ListAgents)
	protected.Post("/agents", auth.RequireAdmin(), cfg.Agents.CreateAgent)
}
