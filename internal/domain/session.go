package domain

import (
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// ConversationState is the step a chat's workflow is paused at
type ConversationState string

const (
	// NoState - no active flow; never persisted, the field is removed instead
	NoState ConversationState = ""
	// StateCreatingPlaylist - waiting for authorization and/or a playlist name
	StateCreatingPlaylist ConversationState = "creating_playlist"
	// StateAwaitingPlaylistImage - playlist created, waiting for the first cover image
	StateAwaitingPlaylistImage ConversationState = "awaiting_playlist_image"
	// StateChangingPlaylistName - waiting for a new playlist name
	StateChangingPlaylistName ConversationState = "changing_playlist_name"
	// StateChangingPlaylistImage - waiting for a replacement cover image
	StateChangingPlaylistImage ConversationState = "changing_playlist_image"
)

// ParseConversationState converts a persisted value back into a state.
// An empty value maps to NoState.
func ParseConversationState(value string) (ConversationState, error) {
	switch state := ConversationState(value); state {
	case NoState,
		StateCreatingPlaylist,
		StateAwaitingPlaylistImage,
		StateChangingPlaylistName,
		StateChangingPlaylistImage:
		return state, nil
	default:
		return NoState, fmt.Errorf("%w: unknown conversation state %q", ErrStorage, value)
	}
}

// String returns a printable name, NO_STATE for the empty state
func (s ConversationState) String() string {
	if s == NoState {
		return "NO_STATE"
	}
	return string(s)
}

// ChatSession is the per-chat conversation record
type ChatSession struct {
	ChatID       string
	OwnerUserID  string // empty until first bound
	CurrentState ConversationState
	PlaylistID   string // empty until created
}

// HasOwner reports whether an owner has been bound to the session
func (s *ChatSession) HasOwner() bool {
	return s != nil && s.OwnerUserID != ""
}

// HasPlaylist reports whether a playlist has been linked to the session
func (s *ChatSession) HasPlaylist() bool {
	return s != nil && s.PlaylistID != ""
}

// CredentialRecord holds the OAuth token material linked to a chat.
// It exists only after a completed authorization handshake.
type CredentialRecord struct {
	ChatID      string
	OwnerUserID string
	Token       *oauth2.Token
	Scope       string
	UpdatedAt   time.Time
}

// TokenStatus is the result of validating a cached token
type TokenStatus int

const (
	// TokenAbsent - no credential record for the chat
	TokenAbsent TokenStatus = iota
	// TokenInvalid - a token exists but is expired and cannot be refreshed
	TokenInvalid
	// TokenValid - the token can be used for API calls
	TokenValid
)
