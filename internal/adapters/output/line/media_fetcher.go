package line

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/sirupsen/logrus"

	"playlist-bot/internal/domain"
	"playlist-bot/internal/ports/output"
)

// Compile-time check to ensure MediaFetcher implements the MediaFetcher interface
var _ output.MediaFetcher = (*MediaFetcher)(nil)

// MediaFetcher struct - Output adapter downloading message content from the LINE blob API
type MediaFetcher struct {
	client   *messaging_api.MessagingApiBlobAPI
	maxBytes int64
}

// NewMediaFetcher creates a fetcher that reads at most maxBytes of content.
// Content past maxBytes is not read, so callers see an oversized body and can reject it.
func NewMediaFetcher(channelToken string, maxBytes int64, options ...messaging_api.MessagingApiBlobAPIOption) (*MediaFetcher, error) {
	client, err := messaging_api.NewMessagingApiBlobAPI(channelToken, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE blob API client: %w", err)
	}
	return &MediaFetcher{client: client, maxBytes: maxBytes}, nil
}

// FetchImage downloads the content of an image message
func (f *MediaFetcher) FetchImage(ctx context.Context, messageID string) ([]byte, error) {
	resp, err := f.client.WithContext(ctx).GetMessageContent(messageID)
	if err != nil {
		logrus.Errorf("Failed to fetch LINE message content %s: %v", messageID, err)
		return nil, fmt.Errorf("%w: fetch message content: %v", domain.ErrExternalAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch message content: status %d", domain.ErrExternalAPI, resp.StatusCode)
	}

	reader := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.maxBytes)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: read message content: %v", domain.ErrExternalAPI, err)
	}
	return content, nil
}
