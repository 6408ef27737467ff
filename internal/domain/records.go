package domain

import (
	"time"

	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// ChatSessionEntity struct - Persisted shape of a ChatSession.
// Absent fields are NULL (gorm) or omitted (JSON) rather than empty strings.
type ChatSessionEntity struct {
	ChatID       string     `gorm:"type:varchar(64);primaryKey" json:"chat_id"`
	OwnerUserID  *string    `gorm:"type:varchar(64)" json:"user_id,omitempty"`
	CurrentState *string    `gorm:"type:varchar(32)" json:"current_state,omitempty"`
	PlaylistID   *string    `gorm:"type:varchar(64)" json:"playlist_id,omitempty"`
	CreatedAt    *time.Time `gorm:"type:timestamp" json:"created_at,omitempty"`
	UpdatedAt    *time.Time `gorm:"type:timestamp" json:"updated_at,omitempty"`
}

// TableName func
func (e *ChatSessionEntity) TableName() string {
	return "chat_sessions"
}

// ToChatSession converts the persisted row into the domain record
func (e *ChatSessionEntity) ToChatSession() (*ChatSession, error) {
	session := &ChatSession{
		ChatID:      e.ChatID,
		OwnerUserID: deref(e.OwnerUserID),
		PlaylistID:  deref(e.PlaylistID),
	}
	state, err := ParseConversationState(deref(e.CurrentState))
	if err != nil {
		return nil, err
	}
	session.CurrentState = state
	return session, nil
}

// ChannelCredentialEntity struct - Persisted shape of a CredentialRecord
type ChannelCredentialEntity struct {
	ChatID       string     `gorm:"type:varchar(64);primaryKey" json:"chat_id"`
	OwnerUserID  string     `gorm:"type:varchar(64);not null" json:"user_id"`
	AccessToken  string     `gorm:"type:text;not null" json:"access_token"`
	RefreshToken string     `gorm:"type:text" json:"refresh_token,omitempty"`
	TokenType    string     `gorm:"type:varchar(32)" json:"token_type,omitempty"`
	Expiry       *time.Time `gorm:"type:timestamp" json:"expires_at,omitempty"`
	Scope        string     `gorm:"type:text" json:"scope,omitempty"`
	CreatedAt    *time.Time `gorm:"type:timestamp" json:"created_at,omitempty"`
	UpdatedAt    *time.Time `gorm:"type:timestamp" json:"updated_at,omitempty"`
}

// TableName func
func (e *ChannelCredentialEntity) TableName() string {
	return "channel_credentials"
}

// NewChannelCredentialEntity flattens a credential record for storage
func NewChannelCredentialEntity(record CredentialRecord) ChannelCredentialEntity {
	entity := ChannelCredentialEntity{
		ChatID:      record.ChatID,
		OwnerUserID: record.OwnerUserID,
		Scope:       record.Scope,
	}
	if record.Token != nil {
		entity.AccessToken = record.Token.AccessToken
		entity.RefreshToken = record.Token.RefreshToken
		entity.TokenType = record.Token.TokenType
		if !record.Token.Expiry.IsZero() {
			expiry := record.Token.Expiry.UTC()
			entity.Expiry = &expiry
		}
	}
	return entity
}

// ToCredentialRecord converts the persisted row into the domain record
func (e *ChannelCredentialEntity) ToCredentialRecord() *CredentialRecord {
	token := &oauth2.Token{
		AccessToken:  e.AccessToken,
		RefreshToken: e.RefreshToken,
		TokenType:    e.TokenType,
	}
	if e.Expiry != nil {
		token.Expiry = *e.Expiry
	}
	record := &CredentialRecord{
		ChatID:      e.ChatID,
		OwnerUserID: e.OwnerUserID,
		Token:       token,
		Scope:       e.Scope,
	}
	if e.UpdatedAt != nil {
		record.UpdatedAt = *e.UpdatedAt
	}
	return record
}

// MigrateDatabase func - Auto-migrate database schema
func MigrateDatabase(db *gorm.DB) error {
	if db == nil {
		return ErrStorage
	}
	return db.AutoMigrate(&ChatSessionEntity{}, &ChannelCredentialEntity{})
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// StringPtr returns nil for an empty value so absent fields stay absent
func StringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
