// middleware/gateway.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// GatewayAuth validates the shared Bearer token the API gateway attaches to
// every request it forwards. Mounted on the /api group only; health and
// metrics stay open for probes and scrapers.
func GatewayAuth(expectedToken string, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.WithField("path", c.Path()).Warn("gateway token missing")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "gateway authentication token missing",
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")

		if token != expectedToken {
			log.WithField("path", c.Path()).Warn("gateway token rejected")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid gateway authentication token",
			})
		}

		return c.Next()
	}
}
