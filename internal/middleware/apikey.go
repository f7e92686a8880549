package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

const apiKeyHeader = "X-API-Key"

// APIKeyAuth validates the static shared-secret header. Absence and mismatch
// are indistinguishable to the caller: both yield the same 401.
func APIKeyAuth(expected string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := c.Get(apiKeyHeader)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			return fiber.NewError(http.StatusUnauthorized, "invalid API key")
		}
		return c.Next()
	}
}
