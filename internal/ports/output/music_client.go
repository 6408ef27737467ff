package output

import (
	"context"

	"playlist-bot/internal/domain"

	"golang.org/x/oauth2"
)

// MusicClient interface - Output port
// Playlist operations against the music streaming account of one chat.
// Failures wrap domain.ErrExternalAPI; missing scopes additionally match
// domain.ErrInsufficientScope and expired deadlines domain.ErrTimeout.
type MusicClient interface {
	CreatePlaylist(ctx context.Context, name string) (string, error)
	RenamePlaylist(ctx context.Context, playlistID, name string) error
	AddTrack(ctx context.Context, playlistID, trackID string) error
	SetCoverImage(ctx context.Context, playlistID, base64Image string) error
}

// MusicAuthorizer interface - Output port
// Wraps the OAuth client of the music streaming service.
type MusicAuthorizer interface {
	// AuthCodeURL builds the URL a chat member opens to authorize the bot.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for a token and saves it through cache.
	Exchange(ctx context.Context, code string, cache TokenCache) (*oauth2.Token, error)

	// ValidateToken reports whether the cached token is usable, refreshing it
	// through cache when it has expired.
	ValidateToken(ctx context.Context, cache TokenCache) (domain.TokenStatus, error)

	// Client returns a music client acting with the token held in cache.
	Client(ctx context.Context, cache TokenCache) (MusicClient, error)
}
