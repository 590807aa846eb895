package middlewares

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	helper "academy_backend/internals/helpers"
)

const WebhookSecretHeader = "X-Webhook-Secret"

// WebhookSecret rejects calls whose X-Webhook-Secret does not match.
// An empty secret lets every call through.
func WebhookSecret(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}
		got := c.Get(WebhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			return helper.JsonError(c, fiber.StatusUnauthorized, "invalid webhook secret")
		}
		return c.Next()
	}
}
