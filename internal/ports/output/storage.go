package output

import (
	"context"

	"playlist-bot/internal/domain"
)

// Storage interface - Output port
// Storage is the single facade over the session store and the credential store.
// Every method is one round trip to the backing store; callers must not assume
// that a read followed by a write is atomic. Backend failures are returned
// wrapped in domain.ErrStorage.
type Storage interface {
	// SaveState upserts the conversation state. Saving domain.NoState removes
	// the field instead of storing an empty value.
	SaveState(ctx context.Context, chatID string, state domain.ConversationState) error

	// GetState returns the current state, domain.NoState when absent.
	GetState(ctx context.Context, chatID string) (domain.ConversationState, error)

	// SavePlaylist links a playlist to the chat. It also stamps the owner
	// from the credential record when the session has none yet.
	// Intended to be called at most once per chat lifetime.
	SavePlaylist(ctx context.Context, chatID, playlistID string) error

	// GetPlaylist returns the linked playlist ID, empty when absent.
	GetPlaylist(ctx context.Context, chatID string) (string, error)

	// BindOwner sets the session owner when unbound and returns the owner
	// that is bound after the call.
	BindOwner(ctx context.Context, chatID, userID string) (string, error)

	// GetOwner returns ChatSession.owner_user_id, empty when absent.
	GetOwner(ctx context.Context, chatID string) (string, error)

	// GetSession returns the whole session record, nil when absent.
	GetSession(ctx context.Context, chatID string) (*domain.ChatSession, error)

	// SaveCredentials upserts the credential record and propagates its owner
	// into the session record.
	SaveCredentials(ctx context.Context, record domain.CredentialRecord) error

	// GetCredentials returns the credential record, nil when absent.
	GetCredentials(ctx context.Context, chatID string) (*domain.CredentialRecord, error)

	// GetOwnerFromCredentials returns CredentialRecord.owner_user_id, empty when absent.
	GetOwnerFromCredentials(ctx context.Context, chatID string) (string, error)

	// DeleteSession removes the session record. Deleting an absent record is not an error.
	DeleteSession(ctx context.Context, chatID string) error

	// DeleteCredentials removes the credential record. Deleting an absent record is not an error.
	DeleteCredentials(ctx context.Context, chatID string) error

	// ExistsSession reports whether a session record exists.
	ExistsSession(ctx context.Context, chatID string) (bool, error)

	// ExistsCredentials reports whether a credential record exists.
	ExistsCredentials(ctx context.Context, chatID string) (bool, error)
}
