package middleware

import (
	"strings"

	fiber "github.com/gofiber/fiber/v2"
)

// CallerHeader carries the authenticated identity. It is set by the upstream
// authenticator; this service does not verify it.
const CallerHeader = "X-Caller-Identity"

const callerKey = "caller"

// Caller copies the caller identity header into the request locals
func Caller() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(callerKey, strings.TrimSpace(c.Get(CallerHeader)))
		return c.Next()
	}
}

// CallerFrom returns the caller identity of the request, or "" when absent
func CallerFrom(c *fiber.Ctx) string {
	caller, _ := c.Locals(callerKey).(string)
	return caller
}
