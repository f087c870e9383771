package middleware

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"os"

	"github.com/gofiber/fiber/v2"
)

// VerifyGatewaySignature authenticates inbound gateway webhooks: the
// rail signs the raw body with HMAC-SHA512 using the shared webhook
// secret and sends the hex digest in X-Momo-Signature.
func VerifyGatewaySignature() fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := os.Getenv("MOMO_WEBHOOK_SECRET")
		if secret == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Webhook secret not configured",
			})
		}

		signature := c.Get("X-Momo-Signature")
		if signature == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing signature",
			})
		}

		mac := hmac.New(sha512.New, []byte(secret))
		mac.Write(c.Body())
		expected := hex.EncodeToString(mac.Sum(nil))

		if !hmac.Equal([]byte(expected), []byte(signature)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid signature",
			})
		}

		return c.Next()
	}
}
