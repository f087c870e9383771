package routes

import (
	"github.com/gofiber/fiber/v2"

	"FaithGive/internal/handlers"
	"FaithGive/internal/middleware"
)

func SetupPlanRoutes(app *fiber.App) {
	plans := app.Group("/api/plans", middleware.Protected())

	plans.Post("/", handlers.CreatePlan)
	plans.Get("/", handlers.GetMyPlans)
	plans.Put("/:id/pause", handlers.PausePlan)
	plans.Put("/:id/resume", handlers.ResumePlan)
	plans.Put("/:id/cancel", handlers.CancelPlan)
}
