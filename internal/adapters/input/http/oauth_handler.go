package http

import (
	"errors"

	"playlist-bot/internal/domain"
	"playlist-bot/internal/ports/input"
	"playlist-bot/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	authorizedPage = "Authorization successful! You can close this window and return to the chat."
	failedPage     = "Authorization failed. Please run /createplaylist again."
)

// OAuthHandler struct - Primary/Driving adapter for the music service OAuth redirect
type OAuthHandler struct {
	service   input.LineWebhookService
	validator validator.Validator
}

// NewOAuthHandler func - Creates new OAuth redirect handler
func NewOAuthHandler(service input.LineWebhookService) *OAuthHandler {
	return &OAuthHandler{
		service:   service,
		validator: validator.New(),
	}
}

// Callback func
// Callback godoc
// @Summary Spotify OAuth redirect
// @Description Completes the authorization started from a chat and notifies that chat
// @Tags OAUTH
// @Produce plain
// @param state query string true "signed state token"
// @param code query string true "authorization code"
// @Success 200 {string} string
// @Failure 400 {string} string
// @Failure 403 {string} string
// @Router /spotifyauth [get]
func (hdl *OAuthHandler) Callback(c *fiber.Ctx) error {
	var request AuthorizationCallbackRequest
	if err := c.QueryParser(&request); err != nil {
		logrus.Errorln(err)
		return c.Status(fiber.StatusBadRequest).SendString(failedPage)
	}
	if request.Error != "" {
		logrus.Warnf("Authorization was declined: %s", request.Error)
		return c.Status(fiber.StatusBadRequest).SendString(failedPage)
	}
	if err := hdl.validator.ValidateStruct(request); err != nil {
		logrus.Warnf("Invalid authorization callback: %v", err)
		return c.Status(fiber.StatusBadRequest).SendString(failedPage)
	}

	err := hdl.service.NotifyAuthorized(c.UserContext(), domain.AuthorizationCallback{
		State: request.State,
		Code:  request.Code,
	})
	switch {
	case err == nil:
		return c.Status(fiber.StatusOK).SendString(authorizedPage)
	case errors.Is(err, domain.ErrInvalidState):
		return c.Status(fiber.StatusBadRequest).SendString(failedPage)
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).SendString(failedPage)
	default:
		logrus.Errorf("Failed to complete authorization: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString(failedPage)
	}
}
