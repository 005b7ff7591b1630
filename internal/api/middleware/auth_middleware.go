package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nmehta6/socialdesk/internal/session"
)

type AuthMiddleware struct {
	b *session.Bootstrapper
}

func NewAuthMiddleware(b *session.Bootstrapper) *AuthMiddleware {
	return &AuthMiddleware{b: b}
}

// RequireSession gates a route on the bootstrapped operator session. While
// boot is still running callers get 503 so they can retry rather than being
// bounced to login.
func (m *AuthMiddleware) RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap := m.b.Snapshot()

		if !snap.Ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Session is still initializing",
			})
		}

		if snap.State != session.StateAuthenticated || snap.CurrentUser == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "No active session",
			})
		}

		c.Locals("user_id", snap.CurrentUser.ID)
		return c.Next()
	}
}

func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := m.b.CurrentUser()
		if user == nil || !user.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}
		return c.Next()
	}
}
