package spotify

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sirupsen/logrus"
	spotifyapi "github.com/zmb3/spotify/v2"

	"playlist-bot/internal/domain"
	"playlist-bot/internal/ports/output"
)

// Compile-time check to ensure Client implements MusicClient interface
var _ output.MusicClient = (*Client)(nil)

// Client struct - Output adapter for the Spotify Web API
type Client struct {
	api *spotifyapi.Client
}

// NewClient wraps an authenticated Spotify API client
func NewClient(api *spotifyapi.Client) *Client {
	return &Client{api: api}
}

// CreatePlaylist creates a public playlist owned by the authorized account
func (c *Client) CreatePlaylist(ctx context.Context, name string) (string, error) {
	started := timeNow()
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		observe("current_user", started, err)
		return "", classifyError("current user", err)
	}
	playlist, err := c.api.CreatePlaylistForUser(ctx, user.ID, name, "", true, false)
	observe("create_playlist", started, err)
	if err != nil {
		return "", classifyError("create playlist", err)
	}
	logrus.Infof("Created Spotify playlist %s for user %s", playlist.ID, user.ID)
	return playlist.ID.String(), nil
}

// RenamePlaylist changes the playlist name
func (c *Client) RenamePlaylist(ctx context.Context, playlistID, name string) error {
	started := timeNow()
	err := c.api.ChangePlaylistName(ctx, spotifyapi.ID(playlistID), name)
	observe("rename_playlist", started, err)
	return classifyError("rename playlist", err)
}

// AddTrack appends a track to the playlist
func (c *Client) AddTrack(ctx context.Context, playlistID, trackID string) error {
	started := timeNow()
	_, err := c.api.AddTracksToPlaylist(ctx, spotifyapi.ID(playlistID), spotifyapi.ID(trackID))
	observe("add_track", started, err)
	return classifyError("add track", err)
}

// SetCoverImage uploads a base64 encoded JPEG as the playlist cover.
// The API client re-encodes the raw bytes on the wire.
func (c *Client) SetCoverImage(ctx context.Context, playlistID, base64Image string) error {
	raw, err := base64.StdEncoding.DecodeString(base64Image)
	if err != nil {
		return fmt.Errorf("%w: decode cover image: %v", domain.ErrExternalAPI, err)
	}
	started := timeNow()
	err = c.api.SetPlaylistImage(ctx, spotifyapi.ID(playlistID), bytes.NewReader(raw))
	observe("set_cover_image", started, err)
	return classifyError("set cover image", err)
}
