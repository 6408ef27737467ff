package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const healthCheckTimeout = 3 * time.Second

// Pinger is a backing store that can report its health
type Pinger interface {
	Ping(ctx context.Context) error
}

// HTTPHandler struct - Primary/Driving adapter for HTTP
type HTTPHandler struct {
	store Pinger
}

// New func - Creates new HTTP handler. store may be nil when the
// backing store has nothing to ping.
func New(store Pinger) *HTTPHandler {
	return &HTTPHandler{store: store}
}

// HealthCheck func
// HealthCheck godoc
// @Summary Health check
// @Description Reports whether the service and its storage are reachable
// @Tags HEALTH
// @Produce json
// @Success 200 {object} ResponseBody
// @Failure 500 {object} ResponseBody
// @Router /health [get]
func (hdl *HTTPHandler) HealthCheck(c *fiber.Ctx) error {
	if hdl.store != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
		defer cancel()
		if err := hdl.store.Ping(ctx); err != nil {
			logrus.Errorln(err)
			return c.Status(fiber.StatusInternalServerError).JSON(ResponseBody{Status: InternalServerError})
		}
	}
	return c.Status(fiber.StatusOK).JSON(ResponseBody{Status: Success, Data: ""})
}
