package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"FaithGive/internal/gateway"
	"FaithGive/internal/giving"
)

// GatewayCallback receives settlement reports from the mobile-money
// rail. Gateways redeliver webhooks aggressively, so every
// already-handled condition answers 200: returning an error here only
// invites another delivery of the same report.
func GatewayCallback(c *fiber.Ctx) error {
	var cb gateway.Callback
	if err := c.BodyParser(&cb); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid callback body",
		})
	}
	if cb.SessionID == "" || cb.Result == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_id and result are required",
		})
	}
	cb.RawPayload = string(c.Body())

	err := sessionManager.HandleCallback(cb)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"status": "ok"})

	case errors.Is(err, giving.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown session",
		})

	case errors.Is(err, giving.ErrDuplicateSettlement):
		// Data-integrity alert: the rail reported a second, different
		// settlement for an already-settled transaction. Keep our
		// state, acknowledge, and let a human look at the logs.
		log.Printf("ALERT: duplicate settlement on session %s: %v", cb.SessionID, err)
		return c.JSON(fiber.Map{"status": "ignored"})

	case errors.Is(err, giving.ErrInvalidTransition):
		// Late callback for a transaction that already reached a
		// terminal state (e.g. success reported after expiry).
		log.Printf("webhook: late callback on session %s: %v", cb.SessionID, err)
		return c.JSON(fiber.Map{"status": "ignored"})

	default:
		log.Printf("webhook: session %s: %v", cb.SessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process callback",
		})
	}
}
