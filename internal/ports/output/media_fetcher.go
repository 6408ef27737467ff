package output

import "context"

// MediaFetcher interface - Output port
// Downloads message content from the chat platform.
type MediaFetcher interface {
	// FetchImage returns the raw bytes of an image message.
	FetchImage(ctx context.Context, messageID string) ([]byte, error)
}
