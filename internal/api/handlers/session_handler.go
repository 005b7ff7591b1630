package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	config "github.com/nmehta6/socialdesk/configs"
	"github.com/nmehta6/socialdesk/internal/session"
)

type SessionHandler struct {
	b   *session.Bootstrapper
	cfg config.Config
}

func NewSessionHandler(b *session.Bootstrapper, cfg config.Config) *SessionHandler {
	return &SessionHandler{b: b, cfg: cfg}
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	return c.JSON(h.b.Snapshot())
}

func (h *SessionHandler) Retry(c *fiber.Ctx) error {
	h.b.Retry()
	return c.SendStatus(fiber.StatusAccepted)
}

// Reset asks the bootstrapper to drop the current session and tells the
// caller where to sign in again.
func (h *SessionHandler) Reset(c *fiber.Ctx) error {
	h.b.RequestReset()
	return c.JSON(fiber.Map{
		"login_url": fmt.Sprintf("%s/login", h.cfg.FrontendURL),
	})
}

func (h *SessionHandler) Diagnostics(c *fiber.Ctx) error {
	return c.JSON(h.b.Diagnostics())
}
