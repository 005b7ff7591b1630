package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/nmehta6/socialdesk/configs"
	"github.com/nmehta6/socialdesk/internal/metrics"
	"github.com/nmehta6/socialdesk/internal/service"
	"github.com/nmehta6/socialdesk/pkg/utils"
)

const stateTokenLifetime = 10 * time.Minute

// settledDelay is how long the success page waits before navigating back to
// the dashboard, so the user can read the confirmation.
const settledDelay = 2 * time.Second

type CallbackHandler struct {
	cs  service.ConnectionService
	fb  service.FacebookService
	ig  service.InstagramService
	cfg config.Config
}

func NewCallbackHandler(cs service.ConnectionService, fb service.FacebookService, ig service.InstagramService, cfg config.Config) *CallbackHandler {
	return &CallbackHandler{
		cs:  cs,
		fb:  fb,
		ig:  ig,
		cfg: cfg,
	}
}

// StartAuth issues a signed state token for the current user and redirects
// to the provider's authorization dialog.
func (h *CallbackHandler) StartAuth(c *fiber.Ctx) error {
	provider := c.Params("provider")
	userID := GetUserID(c)

	state, err := utils.GenerateStateToken(h.cfg.SecretKey, userID, provider, stateTokenLifetime)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to start authorization",
		})
	}

	authURL := h.cs.GetAuthURL(c.Context(), provider, state)
	if authURL == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown provider",
		})
	}

	return c.Redirect(authURL)
}

// CallbackHandler finishes the provider redirect. The request runs the
// whole exchange-and-persist pipeline once and ends in either a success
// page or an error payload; there is no retry from here.
func (h *CallbackHandler) CallbackHandler(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	provider := c.Params("provider")

	claims, err := utils.ValidateStateToken(h.cfg.SecretKey, state)
	if err != nil || claims.Provider != provider {
		metrics.CallbacksTotal.WithLabelValues(provider, "error").Inc()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to validate user",
		})
	}

	switch provider {
	case "facebook":
		err = h.fb.Callback(c.Context(), code, claims.UserID)
	case "instagram":
		err = h.ig.Callback(c.Context(), code, claims.UserID)
	default:
		metrics.CallbacksTotal.WithLabelValues(provider, "error").Inc()
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown provider",
		})
	}

	if err != nil {
		metrics.CallbacksTotal.WithLabelValues(provider, "error").Inc()
		return c.Status(callbackStatusCode(err)).JSON(fiber.Map{
			"status":       "error",
			"error":        callbackMessage(err),
			"settings_url": fmt.Sprintf("%s/settings", h.cfg.FrontendURL),
		})
	}

	metrics.CallbacksTotal.WithLabelValues(provider, "success").Inc()
	return h.successPage(c, provider)
}

// successPage renders a small interstitial that navigates back to the
// settings page after settledDelay. location.replace keeps the callback URL
// (with its one-time code) out of the browser history.
func (h *CallbackHandler) successPage(c *fiber.Ctx, provider string) error {
	settingsURL := fmt.Sprintf("%s/settings", h.cfg.FrontendURL)
	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>Connected</title></head>
<body>
<p>Your %s account is connected. Returning to settings…</p>
<script>setTimeout(function(){location.replace(%q)}, %d);</script>
</body>
</html>`, provider, settingsURL, settledDelay.Milliseconds())

	c.Set("Content-Type", fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(page)
}

func callbackStatusCode(err error) int {
	switch {
	case errors.Is(err, service.ErrMissingCode):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusBadGateway
	}
}

// callbackMessage maps pipeline failures to the generic user-facing text.
// Exchange details stay in the logs.
func callbackMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrMissingCode):
		return "The provider did not return an authorization code"
	case errors.Is(err, service.ErrUnauthenticated):
		return "Sign in before connecting an account"
	default:
		return "Something went wrong while connecting the account"
	}
}
