package http

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"playlist-bot/internal/domain"
	"playlist-bot/internal/ports/input"

	"github.com/gofiber/fiber/v2"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"github.com/sirupsen/logrus"
)

// LineWebhookHandler struct - Primary/Driving adapter for LINE webhook
type LineWebhookHandler struct {
	service       input.LineWebhookService
	channelSecret string
}

// NewLineWebhookHandler func - Creates new LINE webhook handler
func NewLineWebhookHandler(service input.LineWebhookService, channelSecret string) *LineWebhookHandler {
	return &LineWebhookHandler{
		service:       service,
		channelSecret: channelSecret,
	}
}

// HandleWebhook func - Handles incoming LINE webhook requests
// @Summary LINE Webhook
// @Description Handles webhook events from LINE Messaging API
// @Tags LINE
// @Accept application/json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /webhook/line [post]
func (h *LineWebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	// Convert Fiber request to http.Request for LINE SDK
	body := c.Body()
	httpReq, err := http.NewRequest(http.MethodPost, "/webhook/line", bytes.NewReader(body))
	if err != nil {
		logrus.Errorf("Failed to create http request: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Internal error",
		})
	}

	// Copy headers
	c.Request().Header.VisitAll(func(key, value []byte) {
		httpReq.Header.Set(string(key), string(value))
	})

	// Parse and validate webhook request
	cb, err := webhook.ParseRequest(h.channelSecret, httpReq)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			logrus.Warnf("Rejected LINE webhook with invalid signature")
		} else {
			logrus.Errorf("Failed to parse webhook request: %v", err)
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid signature or request",
		})
	}

	// Convert LINE SDK events to domain events
	domainEvents := make([]domain.LineWebhookEvent, 0, len(cb.Events))
	for _, event := range cb.Events {
		domainEvent := h.convertToDomainEvent(event)
		if domainEvent != nil {
			domainEvents = append(domainEvents, *domainEvent)
		}
	}

	webhookReq := domain.LineWebhookRequest{
		Events: domainEvents,
	}

	// LINE redelivers on non-2xx, so failures are logged and still acknowledged
	if err := h.service.HandleWebhook(c.UserContext(), webhookReq); err != nil {
		logrus.Errorf("Failed to handle webhook: %v", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "success",
	})
}

// convertToDomainEvent - Converts LINE SDK event to domain event
func (h *LineWebhookHandler) convertToDomainEvent(event webhook.EventInterface) *domain.LineWebhookEvent {
	switch e := event.(type) {
	case webhook.MessageEvent:
		return h.convertMessageEvent(e)
	case webhook.FollowEvent:
		return &domain.LineWebhookEvent{
			ID:           e.WebhookEventId,
			Type:         domain.LineEventTypeFollow,
			Timestamp:    toTime(e.Timestamp),
			ReplyToken:   e.ReplyToken,
			Source:       h.convertSource(e.Source),
			IsRedelivery: isRedelivery(e.DeliveryContext),
		}
	case webhook.JoinEvent:
		return &domain.LineWebhookEvent{
			ID:           e.WebhookEventId,
			Type:         domain.LineEventTypeJoin,
			Timestamp:    toTime(e.Timestamp),
			ReplyToken:   e.ReplyToken,
			Source:       h.convertSource(e.Source),
			IsRedelivery: isRedelivery(e.DeliveryContext),
		}
	default:
		logrus.Debugf("Unsupported event type: %T", event)
		return nil
	}
}

// convertMessageEvent - Converts message event
func (h *LineWebhookHandler) convertMessageEvent(event webhook.MessageEvent) *domain.LineWebhookEvent {
	domainEvent := &domain.LineWebhookEvent{
		ID:           event.WebhookEventId,
		Type:         domain.LineEventTypeMessage,
		Timestamp:    toTime(event.Timestamp),
		ReplyToken:   event.ReplyToken,
		Source:       h.convertSource(event.Source),
		IsRedelivery: isRedelivery(event.DeliveryContext),
	}

	switch msg := event.Message.(type) {
	case webhook.TextMessageContent:
		domainEvent.Message = &domain.LineMessage{
			ID:   msg.Id,
			Type: domain.LineMessageTypeText,
			Text: msg.Text,
		}
	case webhook.ImageMessageContent:
		domainEvent.Message = &domain.LineMessage{
			ID:   msg.Id,
			Type: domain.LineMessageTypeImage,
		}
	default:
		logrus.Debugf("Unsupported message type: %T", msg)
		return nil
	}

	return domainEvent
}

// convertSource - Converts event source
func (h *LineWebhookHandler) convertSource(source webhook.SourceInterface) domain.LineSource {
	switch s := source.(type) {
	case webhook.UserSource:
		return domain.LineSource{
			Type:   domain.LineSourceTypeUser,
			UserID: s.UserId,
		}
	case webhook.GroupSource:
		return domain.LineSource{
			Type:    domain.LineSourceTypeGroup,
			UserID:  s.UserId,
			GroupID: s.GroupId,
		}
	case webhook.RoomSource:
		return domain.LineSource{
			Type:   domain.LineSourceTypeRoom,
			UserID: s.UserId,
			RoomID: s.RoomId,
		}
	default:
		return domain.LineSource{}
	}
}

func isRedelivery(ctx *webhook.DeliveryContext) bool {
	return ctx != nil && ctx.IsRedelivery
}

// toTime converts a LINE millisecond timestamp
func toTime(millis int64) time.Time {
	if millis == 0 {
		return time.Time{}
	}
	return time.UnixMilli(millis)
}
