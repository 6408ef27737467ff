package input

import (
	"context"

	"playlist-bot/internal/domain"
)

// LineWebhookService interface - Input port (use case)
// Defines what the application can do with LINE webhook events
type LineWebhookService interface {
	// HandleWebhook processes incoming webhook events from LINE
	HandleWebhook(ctx context.Context, request domain.LineWebhookRequest) error

	// NotifyAuthorized completes an OAuth redirect and pushes the follow-up
	// prompt to the originating chat
	NotifyAuthorized(ctx context.Context, callback domain.AuthorizationCallback) error
}
