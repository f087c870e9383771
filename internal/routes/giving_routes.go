package routes

import (
	"github.com/gofiber/fiber/v2"

	"FaithGive/internal/handlers"
	"FaithGive/internal/middleware"
)

func SetupGivingRoutes(app *fiber.App) {
	giving := app.Group("/api/giving", middleware.Protected())

	// One-off gifts
	giving.Post("/gift", handlers.InitiateGift)
	giving.Post("/:reference/cancel", handlers.CancelGift)

	// Staff settlement and refunds
	giving.Post("/:reference/confirm", middleware.AdminOnly(), handlers.ConfirmGift)
	giving.Post("/:reference/refund", middleware.AdminOnly(), handlers.RefundGift)

	// History
	giving.Get("/transactions", handlers.GetGivingHistory)
	giving.Get("/transactions/:reference", handlers.GetTransactionByReference)
}
