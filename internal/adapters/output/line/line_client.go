package line

import (
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/sirupsen/logrus"

	"playlist-bot/internal/domain"
	"playlist-bot/internal/ports/output"
)

// Compile-time check to ensure LineClientAdapter implements LineClient interface
var _ output.LineClient = (*LineClientAdapter)(nil)

// LineClientAdapter struct - Output adapter for LINE messaging platform
type LineClientAdapter struct {
	client *messaging_api.MessagingApiAPI
}

// NewLineClientAdapter func - Creates new LINE client adapter
func NewLineClientAdapter(channelToken string, options ...messaging_api.MessagingApiAPIOption) (*LineClientAdapter, error) {
	client, err := messaging_api.NewMessagingApiAPI(channelToken, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE messaging API client: %w", err)
	}

	return &LineClientAdapter{
		client: client,
	}, nil
}

// ReplyMessage - Sends reply messages to a LINE chat via reply token
func (a *LineClientAdapter) ReplyMessage(request domain.LineReplyMessageRequest) (*domain.LineMessageResponse, error) {
	messages, err := a.convertMessages(request.Messages)
	if err != nil {
		return nil, err
	}

	req := &messaging_api.ReplyMessageRequest{
		ReplyToken: request.ReplyToken,
		Messages:   messages,
	}

	_, err = a.client.ReplyMessage(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send reply message: %w", err)
	}

	logrus.Infof("Successfully sent %d reply message(s)", len(messages))

	return &domain.LineMessageResponse{
		Status:  "success",
		Message: "Reply message sent successfully",
	}, nil
}

// PushMessage - Sends push messages to a LINE user, group or room directly
func (a *LineClientAdapter) PushMessage(request domain.LinePushMessageRequest) (*domain.LineMessageResponse, error) {
	messages, err := a.convertMessages(request.Messages)
	if err != nil {
		return nil, err
	}

	req := &messaging_api.PushMessageRequest{
		To:       request.To,
		Messages: messages,
	}

	_, err = a.client.PushMessage(req, "")
	if err != nil {
		return nil, fmt.Errorf("failed to send push message: %w", err)
	}

	logrus.Infof("Successfully sent push message to: %s", request.To)

	return &domain.LineMessageResponse{
		Status:  "success",
		Message: "Push message sent successfully",
	}, nil
}

// convertMessages - Converts domain messages, capped at the LINE per-request limit
func (a *LineClientAdapter) convertMessages(outgoing []domain.LineOutgoingMessage) ([]messaging_api.MessageInterface, error) {
	messages := make([]messaging_api.MessageInterface, 0, len(outgoing))
	for _, msg := range outgoing {
		lineMsg, err := a.convertToLineMessage(msg)
		if err != nil {
			logrus.Errorf("Failed to convert message: %v", err)
			continue
		}
		messages = append(messages, lineMsg)
	}

	if len(messages) == 0 {
		return nil, fmt.Errorf("no valid messages to send")
	}
	if len(messages) > domain.LineReplyLimit {
		logrus.Warnf("Dropping %d message(s) over the LINE limit", len(messages)-domain.LineReplyLimit)
		messages = messages[:domain.LineReplyLimit]
	}
	return messages, nil
}

// convertToLineMessage - Helper function to convert domain message to LINE SDK message
func (a *LineClientAdapter) convertToLineMessage(msg domain.LineOutgoingMessage) (messaging_api.MessageInterface, error) {
	switch msg.Type {
	case domain.LineMessageTypeText:
		if msg.Text == "" {
			return nil, fmt.Errorf("empty text message")
		}
		return &messaging_api.TextMessage{
			Text: msg.Text,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported message type: %s", msg.Type)
	}
}
