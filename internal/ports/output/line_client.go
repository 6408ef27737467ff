package output

import "playlist-bot/internal/domain"

// LineClient interface - Output port
// Defines what the application needs from LINE messaging platform
type LineClient interface {
	// ReplyMessage sends reply messages to a LINE chat via reply token
	ReplyMessage(request domain.LineReplyMessageRequest) (*domain.LineMessageResponse, error)

	// PushMessage sends push messages to a LINE user, group or room directly
	PushMessage(request domain.LinePushMessageRequest) (*domain.LineMessageResponse, error)
}
