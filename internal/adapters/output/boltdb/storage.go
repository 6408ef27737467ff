package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"playlist-bot/internal/domain"
	"playlist-bot/internal/ports/output"
)

var (
	sessionsBucket    = []byte("chat_sessions")
	credentialsBucket = []byte("channel_credentials")
)

// Compile-time check to ensure Storage implements the Storage interface
var _ output.Storage = (*Storage)(nil)

// Storage struct - Output adapter backed by an embedded bbolt file.
// Each record is a JSON document keyed by chat ID; every operation runs in one
// bolt transaction.
type Storage struct {
	db  *bolt.DB
	now func() time.Time
}

// Open opens (or creates) the database file and its buckets
func Open(path string, timeout time.Duration) (*Storage, error) {
	if timeout <= 0 {
		timeout = time.Second
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrStorage, path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{sessionsBucket, credentialsBucket} {
			if _, errCreate := tx.CreateBucketIfNotExists(name); errCreate != nil {
				return errCreate
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create buckets: %v", domain.ErrStorage, err)
	}
	logrus.Infof("Opened bolt storage at %s", path)
	return &Storage{db: db, now: time.Now}, nil
}

// Close releases the database file lock
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ping reports whether the database handle is usable
func (s *Storage) Ping(_ context.Context) error {
	return s.view(func(tx *bolt.Tx) error { return nil })
}

// SaveState upserts the conversation state
func (s *Storage) SaveState(_ context.Context, chatID string, state domain.ConversationState) error {
	return s.update(func(tx *bolt.Tx) error {
		entity, exists, err := getSession(tx, chatID)
		if err != nil {
			return err
		}
		if state == domain.NoState {
			if !exists {
				return nil
			}
			entity.CurrentState = nil
			return s.putSession(tx, entity)
		}
		entity.CurrentState = domain.StringPtr(string(state))
		if err = stampOwner(tx, entity); err != nil {
			return err
		}
		return s.putSession(tx, entity)
	})
}

// GetState returns the current state
func (s *Storage) GetState(ctx context.Context, chatID string) (domain.ConversationState, error) {
	session, err := s.GetSession(ctx, chatID)
	if err != nil || session == nil {
		return domain.NoState, err
	}
	return session.CurrentState, nil
}

// SavePlaylist links a playlist to the chat
func (s *Storage) SavePlaylist(_ context.Context, chatID, playlistID string) error {
	return s.update(func(tx *bolt.Tx) error {
		entity, _, err := getSession(tx, chatID)
		if err != nil {
			return err
		}
		entity.PlaylistID = domain.StringPtr(playlistID)
		if err = stampOwner(tx, entity); err != nil {
			return err
		}
		return s.putSession(tx, entity)
	})
}

// GetPlaylist returns the linked playlist ID
func (s *Storage) GetPlaylist(ctx context.Context, chatID string) (string, error) {
	session, err := s.GetSession(ctx, chatID)
	if err != nil || session == nil {
		return "", err
	}
	return session.PlaylistID, nil
}

// BindOwner sets the owner if the session has none and returns the bound owner
func (s *Storage) BindOwner(_ context.Context, chatID, userID string) (string, error) {
	var owner string
	err := s.update(func(tx *bolt.Tx) error {
		entity, _, err := getSession(tx, chatID)
		if err != nil {
			return err
		}
		if entity.OwnerUserID == nil {
			entity.OwnerUserID = domain.StringPtr(userID)
		}
		if entity.OwnerUserID != nil {
			owner = *entity.OwnerUserID
		}
		return s.putSession(tx, entity)
	})
	return owner, err
}

// GetOwner returns the session owner
func (s *Storage) GetOwner(ctx context.Context, chatID string) (string, error) {
	session, err := s.GetSession(ctx, chatID)
	if err != nil || session == nil {
		return "", err
	}
	return session.OwnerUserID, nil
}

// GetSession returns the session record or nil
func (s *Storage) GetSession(_ context.Context, chatID string) (*domain.ChatSession, error) {
	var session *domain.ChatSession
	err := s.view(func(tx *bolt.Tx) error {
		entity, exists, err := getSession(tx, chatID)
		if err != nil || !exists {
			return err
		}
		session, err = entity.ToChatSession()
		return err
	})
	return session, err
}

// SaveCredentials upserts the credential record and propagates its owner
func (s *Storage) SaveCredentials(_ context.Context, record domain.CredentialRecord) error {
	return s.update(func(tx *bolt.Tx) error {
		now := s.now().UTC()
		entity := domain.NewChannelCredentialEntity(record)
		if previous, exists, err := getCredentials(tx, record.ChatID); err != nil {
			return err
		} else if exists {
			entity.CreatedAt = previous.CreatedAt
		} else {
			entity.CreatedAt = &now
		}
		entity.UpdatedAt = &now
		if err := putJSON(tx, credentialsBucket, entity.ChatID, entity); err != nil {
			return err
		}

		session, _, err := getSession(tx, record.ChatID)
		if err != nil {
			return err
		}
		session.OwnerUserID = domain.StringPtr(record.OwnerUserID)
		return s.putSession(tx, session)
	})
}

// GetCredentials returns the credential record or nil
func (s *Storage) GetCredentials(_ context.Context, chatID string) (*domain.CredentialRecord, error) {
	var record *domain.CredentialRecord
	err := s.view(func(tx *bolt.Tx) error {
		entity, exists, err := getCredentials(tx, chatID)
		if err != nil || !exists {
			return err
		}
		record = entity.ToCredentialRecord()
		return nil
	})
	return record, err
}

// GetOwnerFromCredentials returns the credential owner
func (s *Storage) GetOwnerFromCredentials(ctx context.Context, chatID string) (string, error) {
	record, err := s.GetCredentials(ctx, chatID)
	if err != nil || record == nil {
		return "", err
	}
	return record.OwnerUserID, nil
}

// DeleteSession removes the session record
func (s *Storage) DeleteSession(_ context.Context, chatID string) error {
	return s.update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete([]byte(chatID))
	})
}

// DeleteCredentials removes the credential record
func (s *Storage) DeleteCredentials(_ context.Context, chatID string) error {
	return s.update(func(tx *bolt.Tx) error {
		return tx.Bucket(credentialsBucket).Delete([]byte(chatID))
	})
}

// ExistsSession reports whether a session record exists
func (s *Storage) ExistsSession(_ context.Context, chatID string) (bool, error) {
	return s.exists(sessionsBucket, chatID)
}

// ExistsCredentials reports whether a credential record exists
func (s *Storage) ExistsCredentials(_ context.Context, chatID string) (bool, error) {
	return s.exists(credentialsBucket, chatID)
}

func (s *Storage) exists(bucket []byte, chatID string) (bool, error) {
	var found bool
	err := s.view(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucket).Get([]byte(chatID)) != nil
		return nil
	})
	return found, err
}

func (s *Storage) putSession(tx *bolt.Tx, entity *domain.ChatSessionEntity) error {
	now := s.now().UTC()
	if entity.CreatedAt == nil {
		entity.CreatedAt = &now
	}
	entity.UpdatedAt = &now
	return putJSON(tx, sessionsBucket, entity.ChatID, entity)
}

func (s *Storage) update(fn func(tx *bolt.Tx) error) error {
	if err := s.db.Update(fn); err != nil {
		logrus.Errorf("bolt update failed: %v", err)
		return wrapStorage(err)
	}
	return nil
}

func (s *Storage) view(fn func(tx *bolt.Tx) error) error {
	if err := s.db.View(fn); err != nil {
		logrus.Errorf("bolt view failed: %v", err)
		return wrapStorage(err)
	}
	return nil
}

// getSession loads the session entity, returning a fresh one when absent
func getSession(tx *bolt.Tx, chatID string) (*domain.ChatSessionEntity, bool, error) {
	entity := &domain.ChatSessionEntity{ChatID: chatID}
	raw := tx.Bucket(sessionsBucket).Get([]byte(chatID))
	if raw == nil {
		return entity, false, nil
	}
	if err := json.Unmarshal(raw, entity); err != nil {
		return nil, false, fmt.Errorf("%w: decode session %s: %v", domain.ErrStorage, chatID, err)
	}
	return entity, true, nil
}

func getCredentials(tx *bolt.Tx, chatID string) (*domain.ChannelCredentialEntity, bool, error) {
	raw := tx.Bucket(credentialsBucket).Get([]byte(chatID))
	if raw == nil {
		return nil, false, nil
	}
	entity := &domain.ChannelCredentialEntity{}
	if err := json.Unmarshal(raw, entity); err != nil {
		return nil, false, fmt.Errorf("%w: decode credentials %s: %v", domain.ErrStorage, chatID, err)
	}
	return entity, true, nil
}

// stampOwner copies the credential owner into an unowned session
func stampOwner(tx *bolt.Tx, entity *domain.ChatSessionEntity) error {
	if entity.OwnerUserID != nil {
		return nil
	}
	credentials, exists, err := getCredentials(tx, entity.ChatID)
	if err != nil || !exists {
		return err
	}
	entity.OwnerUserID = domain.StringPtr(credentials.OwnerUserID)
	return nil
}

func putJSON(tx *bolt.Tx, bucket []byte, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return tx.Bucket(bucket).Put([]byte(key), raw)
}
