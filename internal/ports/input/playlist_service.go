package input

import (
	"context"

	"playlist-bot/internal/domain"
)

// PlaylistService interface - Input port (use case)
// The per-chat conversation state machine.
type PlaylistService interface {
	// HandleEvent processes one inbound chat event and returns the replies to send.
	// The outcome always carries the reply; the error is set for storage and
	// music API failures so the caller can log them.
	HandleEvent(ctx context.Context, event domain.ChatEvent) (*domain.Outcome, error)

	// CompleteAuthorization verifies the state token, exchanges the code and
	// returns the prompt addressed to the originating chat.
	CompleteAuthorization(ctx context.Context, callback domain.AuthorizationCallback) (*domain.Outcome, error)
}
