package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/linguaflow/linguaflow-api/internal/config"
	"github.com/linguaflow/linguaflow-api/internal/handler"
	"github.com/linguaflow/linguaflow-api/internal/middleware"
	"github.com/linguaflow/linguaflow-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	LessonHandler   *handler.LessonHandler
	AttemptHandler  *handler.AttemptHandler
	RosterHandler   *handler.RosterHandler
	ReviewHandler   *handler.ReviewHandler
	MessageHandler  *handler.MessageHandler
	ScheduleHandler *handler.ScheduleHandler
	TutorHandler    *handler.TutorHandler
	JWTMiddleware   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Public marketplace directory; no auth required.
	if deps.TutorHandler != nil {
		deps.TutorHandler.Register(api.Group("/tutors"))
	}

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	tutorOnly := middleware.RequireRole(middleware.RoleTutor)
	studentOnly := middleware.RequireRole(middleware.RoleStudent)

	if deps.LessonHandler != nil {
		lessons := api.Group("/lessons", jwtMiddleware)
		deps.LessonHandler.Register(lessons, tutorOnly)
	}

	if deps.AttemptHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware, studentOnly)
		deps.AttemptHandler.Register(assignments)
	}

	if deps.RosterHandler != nil {
		roster := api.Group("/roster", jwtMiddleware, studentOnly)
		deps.RosterHandler.Register(roster)
	}

	if deps.ReviewHandler != nil {
		reviews := api.Group("/reviews", jwtMiddleware, tutorOnly)
		deps.ReviewHandler.Register(reviews)
	}

	if deps.MessageHandler != nil {
		messages := api.Group("/messages", jwtMiddleware, middleware.RateLimit("messages", 60, time.Minute))
		deps.MessageHandler.Register(messages)
	}

	if deps.ScheduleHandler != nil {
		schedule := api.Group("/schedule", jwtMiddleware)
		deps.ScheduleHandler.Register(schedule, tutorOnly, studentOnly)
	}
}
