package routes

import (
	"github.com/gofiber/fiber/v2"

	"FaithGive/internal/handlers"
	"FaithGive/internal/middleware"
)

func SetupWebhookRoutes(app *fiber.App) {
	webhooks := app.Group("/api/webhooks")

	// Signed by the rail, not by a member token.
	webhooks.Post("/momo", middleware.VerifyGatewaySignature(), handlers.GatewayCallback)
}
