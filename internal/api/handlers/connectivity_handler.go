package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nmehta6/socialdesk/internal/connectivity"
)

type ConnectivityHandler struct {
	m *connectivity.Monitor
}

func NewConnectivityHandler(m *connectivity.Monitor) *ConnectivityHandler {
	return &ConnectivityHandler{m: m}
}

func (h *ConnectivityHandler) GetStatus(c *fiber.Ctx) error {
	return c.JSON(h.m.Snapshot())
}

func (h *ConnectivityHandler) Retry(c *fiber.Ctx) error {
	h.m.Retry()
	return c.SendStatus(fiber.StatusAccepted)
}

func (h *ConnectivityHandler) Diagnostics(c *fiber.Ctx) error {
	return c.JSON(h.m.Diagnostics())
}
