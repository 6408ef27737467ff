package domain

import "time"

// LineEventType represents the type of webhook event from LINE
type LineEventType string

const (
	// LineEventTypeMessage - Message event
	LineEventTypeMessage LineEventType = "message"
	// LineEventTypeFollow - Follow event
	LineEventTypeFollow LineEventType = "follow"
	// LineEventTypeJoin - Join event (bot added to a group or room)
	LineEventTypeJoin LineEventType = "join"
)

// LineMessageType represents the type of message
type LineMessageType string

const (
	// LineMessageTypeText - Text message
	LineMessageTypeText LineMessageType = "text"
	// LineMessageTypeImage - Image message
	LineMessageTypeImage LineMessageType = "image"
)

// LineSourceType represents the source type of the event
type LineSourceType string

const (
	// LineSourceTypeUser - User source
	LineSourceTypeUser LineSourceType = "user"
	// LineSourceTypeGroup - Group source
	LineSourceTypeGroup LineSourceType = "group"
	// LineSourceTypeRoom - Room source
	LineSourceTypeRoom LineSourceType = "room"
)

// LineWebhookEvent represents a LINE webhook event (domain entity)
type LineWebhookEvent struct {
	ID           string // webhookEventId, stable across redeliveries
	Type         LineEventType
	Timestamp    time.Time
	Source       LineSource
	ReplyToken   string
	Message      *LineMessage
	IsRedelivery bool
}

// LineSource represents the source of the event
type LineSource struct {
	Type    LineSourceType
	UserID  string
	GroupID string
	RoomID  string
}

// ChatID returns the conversation identity: the group or room when the
// event came from one, otherwise the 1:1 user.
func (s LineSource) ChatID() string {
	switch s.Type {
	case LineSourceTypeGroup:
		return s.GroupID
	case LineSourceTypeRoom:
		return s.RoomID
	default:
		return s.UserID
	}
}

// LineMessage represents a message from LINE
type LineMessage struct {
	ID   string
	Type LineMessageType
	Text string
}

type (
	// LineWebhookRequest struct - Domain LINE webhook request DTO
	LineWebhookRequest struct {
		Events []LineWebhookEvent
	}

	// LineReplyMessageRequest struct - Domain LINE reply message request DTO
	LineReplyMessageRequest struct {
		ReplyToken string
		Messages   []LineOutgoingMessage
	}

	// LinePushMessageRequest struct - Domain LINE push message request DTO
	LinePushMessageRequest struct {
		To       string
		Messages []LineOutgoingMessage
	}

	// LineOutgoingMessage struct - Domain LINE outgoing message DTO
	LineOutgoingMessage struct {
		Type LineMessageType
		Text string
	}

	// LineMessageResponse struct - Domain LINE API response DTO
	LineMessageResponse struct {
		Status  string
		Message string
	}
)

// LineReplyLimit is the maximum number of messages in a single reply or push
const LineReplyLimit = 5
