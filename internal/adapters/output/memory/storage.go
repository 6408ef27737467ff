package memory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"playlist-bot/internal/domain"
	"playlist-bot/internal/ports/output"
)

// Compile-time check to ensure Storage implements the Storage interface
var _ output.Storage = (*Storage)(nil)

// Storage struct - Output adapter for in-memory session and credential storage.
// Records are copied in and out so callers never share state with the store.
// Intended for tests and single-process development runs.
type Storage struct {
	mu          sync.RWMutex
	sessions    map[string]domain.ChatSession
	credentials map[string]domain.CredentialRecord
	now         func() time.Time
}

// NewStorage creates an empty in-memory store
func NewStorage() *Storage {
	return &Storage{
		sessions:    make(map[string]domain.ChatSession),
		credentials: make(map[string]domain.CredentialRecord),
		now:         time.Now,
	}
}

// Ping always succeeds
func (s *Storage) Ping(_ context.Context) error {
	return nil
}

// SaveState upserts the conversation state. NoState clears the field and
// never creates a record.
func (s *Storage) SaveState(_ context.Context, chatID string, state domain.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[chatID]
	if state == domain.NoState {
		if exists {
			session.CurrentState = domain.NoState
			s.sessions[chatID] = session
		}
		return nil
	}

	session.ChatID = chatID
	session.CurrentState = state
	s.stampOwnerLocked(&session)
	s.sessions[chatID] = session
	return nil
}

// GetState returns the current state
func (s *Storage) GetState(_ context.Context, chatID string) (domain.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[chatID].CurrentState, nil
}

// SavePlaylist links a playlist to the chat
func (s *Storage) SavePlaylist(_ context.Context, chatID, playlistID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.sessions[chatID]
	session.ChatID = chatID
	session.PlaylistID = playlistID
	s.stampOwnerLocked(&session)
	s.sessions[chatID] = session
	return nil
}

// GetPlaylist returns the linked playlist ID
func (s *Storage) GetPlaylist(_ context.Context, chatID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[chatID].PlaylistID, nil
}

// BindOwner sets the owner if the session has none and returns the bound owner
func (s *Storage) BindOwner(_ context.Context, chatID, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.sessions[chatID]
	session.ChatID = chatID
	if session.OwnerUserID == "" {
		session.OwnerUserID = userID
	}
	s.sessions[chatID] = session
	return session.OwnerUserID, nil
}

// GetOwner returns the session owner
func (s *Storage) GetOwner(_ context.Context, chatID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[chatID].OwnerUserID, nil
}

// GetSession returns a copy of the session record or nil
func (s *Storage) GetSession(_ context.Context, chatID string) (*domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[chatID]
	if !exists {
		return nil, nil
	}
	return &session, nil
}

// SaveCredentials upserts the credential record and propagates its owner
func (s *Storage) SaveCredentials(_ context.Context, record domain.CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.Token = copyToken(record.Token)
	record.UpdatedAt = s.now().UTC()
	s.credentials[record.ChatID] = record

	session := s.sessions[record.ChatID]
	session.ChatID = record.ChatID
	session.OwnerUserID = record.OwnerUserID
	s.sessions[record.ChatID] = session
	return nil
}

// GetCredentials returns a copy of the credential record or nil
func (s *Storage) GetCredentials(_ context.Context, chatID string) (*domain.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.credentials[chatID]
	if !exists {
		return nil, nil
	}
	record.Token = copyToken(record.Token)
	return &record, nil
}

// GetOwnerFromCredentials returns the credential owner
func (s *Storage) GetOwnerFromCredentials(_ context.Context, chatID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credentials[chatID].OwnerUserID, nil
}

// DeleteSession removes the session record
func (s *Storage) DeleteSession(_ context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
	return nil
}

// DeleteCredentials removes the credential record
func (s *Storage) DeleteCredentials(_ context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.credentials, chatID)
	return nil
}

// ExistsSession reports whether a session record exists
func (s *Storage) ExistsSession(_ context.Context, chatID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.sessions[chatID]
	return exists, nil
}

// ExistsCredentials reports whether a credential record exists
func (s *Storage) ExistsCredentials(_ context.Context, chatID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.credentials[chatID]
	return exists, nil
}

// stampOwnerLocked copies the credential owner into an unowned session.
// Must be called with mu held.
func (s *Storage) stampOwnerLocked(session *domain.ChatSession) {
	if session.OwnerUserID != "" {
		return
	}
	if record, ok := s.credentials[session.ChatID]; ok {
		session.OwnerUserID = record.OwnerUserID
	}
}

func copyToken(token *oauth2.Token) *oauth2.Token {
	if token == nil {
		return nil
	}
	clone := *token
	return &clone
}
