package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"playlist-bot/internal/domain"
	"playlist-bot/internal/ports/input"
	"playlist-bot/internal/ports/output"
	"playlist-bot/internal/telemetry"
)

const (
	eventDedupCacheSize = 2048
	eventDedupTTL       = 10 * time.Minute
)

// Compile-time check to ensure LineWebhookService implements the input port
var _ input.LineWebhookService = (*LineWebhookService)(nil)

// LineWebhookService struct - Application service implementing LINE webhook use cases
type LineWebhookService struct {
	lineClient output.LineClient
	playlist   input.PlaylistService

	dedupMu    sync.Mutex
	dedupCache *lru.Cache[string, time.Time]
	now        func() time.Time
}

// NewLineWebhookService func - Creates new LINE webhook service
func NewLineWebhookService(lineClient output.LineClient, playlist input.PlaylistService) (*LineWebhookService, error) {
	dedupCache, err := lru.New[string, time.Time](eventDedupCacheSize)
	if err != nil {
		return nil, fmt.Errorf("line event deduper init: %w", err)
	}
	return &LineWebhookService{
		lineClient: lineClient,
		playlist:   playlist,
		dedupCache: dedupCache,
		now:        time.Now,
	}, nil
}

// HandleWebhook func - Use case: Handle incoming webhook events from LINE.
// Events are handled independently; a failing event does not stop the rest.
func (s *LineWebhookService) HandleWebhook(ctx context.Context, request domain.LineWebhookRequest) error {
	var errs []error
	for _, event := range request.Events {
		logrus.Infof("Received LINE event: type=%s, source=%s, userID=%s",
			event.Type, event.Source.Type, event.Source.UserID)

		if s.isDuplicate(event) {
			logrus.Infof("Skipping redelivered LINE event %s", event.ID)
			telemetry.ObserveDuplicate()
			continue
		}

		var err error
		switch event.Type {
		case domain.LineEventTypeMessage:
			err = s.handleMessageEvent(ctx, event)
		case domain.LineEventTypeFollow, domain.LineEventTypeJoin:
			err = s.handleWelcomeEvent(ctx, event)
		default:
			logrus.Infof("Unhandled event type: %s", event.Type)
		}
		if err != nil {
			logrus.Errorf("Failed to handle %s event: %v", event.Type, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotifyAuthorized func - Use case: Completes OAuth and pushes the follow-up prompt
func (s *LineWebhookService) NotifyAuthorized(ctx context.Context, callback domain.AuthorizationCallback) error {
	outcome, err := s.playlist.CompleteAuthorization(ctx, callback)
	if err != nil {
		return err
	}
	messages := toLineMessages(outcome)
	if len(messages) == 0 {
		return nil
	}
	pushReq := domain.LinePushMessageRequest{
		To:       outcome.ChatID,
		Messages: messages,
	}
	// The account is linked at this point; a lost prompt must not fail the redirect
	if _, err = s.lineClient.PushMessage(pushReq); err != nil {
		logrus.Errorf("Failed to push authorization prompt to chat %s: %v", outcome.ChatID, err)
	}
	return nil
}

// handleMessageEvent - Converts a LINE message into a chat event and replies with the outcome
func (s *LineWebhookService) handleMessageEvent(ctx context.Context, event domain.LineWebhookEvent) error {
	chatEvent, ok := toChatEvent(event)
	if !ok {
		if event.Message != nil {
			logrus.Infof("Ignoring unsupported message: type=%s", event.Message.Type)
		}
		return nil
	}

	outcome, handleErr := s.playlist.HandleEvent(ctx, chatEvent)
	if outcome == nil {
		return handleErr
	}
	if err := s.deliver(event, outcome); err != nil {
		return errors.Join(handleErr, err)
	}
	return handleErr
}

// handleWelcomeEvent - Greets a user who followed the bot or a chat it joined
func (s *LineWebhookService) handleWelcomeEvent(ctx context.Context, event domain.LineWebhookEvent) error {
	outcome, err := s.playlist.HandleEvent(ctx, domain.ChatEvent{
		ChatID:  event.Source.ChatID(),
		UserID:  event.Source.UserID,
		Type:    domain.InboundCommand,
		Command: "start",
	})
	if err != nil || outcome == nil {
		return err
	}
	return s.deliver(event, outcome)
}

// deliver sends the outcome as a reply, or a push when there is no reply token
func (s *LineWebhookService) deliver(event domain.LineWebhookEvent, outcome *domain.Outcome) error {
	messages := toLineMessages(outcome)
	if len(messages) == 0 {
		return nil
	}

	if event.ReplyToken != "" {
		replyReq := domain.LineReplyMessageRequest{
			ReplyToken: event.ReplyToken,
			Messages:   messages,
		}
		if _, err := s.lineClient.ReplyMessage(replyReq); err != nil {
			return fmt.Errorf("failed to send reply: %w", err)
		}
		return nil
	}

	pushReq := domain.LinePushMessageRequest{
		To:       outcome.ChatID,
		Messages: messages,
	}
	if _, err := s.lineClient.PushMessage(pushReq); err != nil {
		return fmt.Errorf("failed to send push message: %w", err)
	}
	return nil
}

// isDuplicate reports whether the event was already handled within eventDedupTTL.
// A redelivery LINE flags but this process has not seen (for example after a
// restart) is handled once.
func (s *LineWebhookService) isDuplicate(event domain.LineWebhookEvent) bool {
	if event.ID == "" {
		return false
	}
	s.dedupMu.Lock()
	defer s.dedupMu.Unlock()

	now := s.now()
	if seen, ok := s.dedupCache.Get(event.ID); ok {
		if now.Sub(seen) <= eventDedupTTL {
			return true
		}
		s.dedupCache.Remove(event.ID)
	}
	if event.IsRedelivery {
		logrus.Warnf("Handling redelivered LINE event %s not seen before", event.ID)
	}
	s.dedupCache.Add(event.ID, now)
	return false
}

// toChatEvent - Maps a LINE message event onto the inbound event contract
func toChatEvent(event domain.LineWebhookEvent) (domain.ChatEvent, bool) {
	if event.Message == nil {
		return domain.ChatEvent{}, false
	}
	chatEvent := domain.ChatEvent{
		ChatID: event.Source.ChatID(),
		UserID: event.Source.UserID,
	}

	switch event.Message.Type {
	case domain.LineMessageTypeImage:
		chatEvent.Type = domain.InboundImage
		chatEvent.ImageMessageID = event.Message.ID
		return chatEvent, true

	case domain.LineMessageTypeText:
		text := strings.TrimSpace(event.Message.Text)
		if text == "" {
			return domain.ChatEvent{}, false
		}
		if strings.HasPrefix(text, "/") {
			parts := strings.Fields(text)
			command := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
			// "/cmd@botname" addresses one bot in a group
			if at := strings.Index(command, "@"); at >= 0 {
				command = command[:at]
			}
			chatEvent.Type = domain.InboundCommand
			chatEvent.Command = command
			chatEvent.Args = strings.TrimSpace(strings.TrimPrefix(text, parts[0]))
			return chatEvent, true
		}
		chatEvent.Type = domain.InboundText
		chatEvent.Text = text
		return chatEvent, true

	default:
		return domain.ChatEvent{}, false
	}
}

// toLineMessages - LINE has no message reactions, so reactions become short texts
func toLineMessages(outcome *domain.Outcome) []domain.LineOutgoingMessage {
	if outcome == nil {
		return nil
	}
	messages := make([]domain.LineOutgoingMessage, 0, len(outcome.Messages))
	for _, msg := range outcome.Messages {
		if msg.Text == "" {
			continue
		}
		messages = append(messages, domain.LineOutgoingMessage{
			Type: domain.LineMessageTypeText,
			Text: msg.Text,
		})
	}
	return messages
}
