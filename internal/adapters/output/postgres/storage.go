package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"playlist-bot/internal/domain"
	"playlist-bot/internal/ports/output"
)

// Compile-time check to ensure Storage implements the Storage interface
var _ output.Storage = (*Storage)(nil)

var chatIDColumn = []clause.Column{{Name: "chat_id"}}

// Storage struct - Secondary/Driven adapter for PostgreSQL
type Storage struct {
	dbGorm *gorm.DB
	now    func() time.Time
}

// NewStorage func - Creates new PostgreSQL storage and migrates its tables
func NewStorage(dbGorm *gorm.DB) (*Storage, error) {
	logrus.Info("Migrate database ...")
	if err := domain.MigrateDatabase(dbGorm); err != nil {
		logrus.Errorln(err)
		return nil, fmt.Errorf("%w: migrate: %v", domain.ErrStorage, err)
	}
	return &Storage{
		dbGorm: dbGorm,
		now:    time.Now,
	}, nil
}

// Ping func - Checks the database connection
func (p *Storage) Ping(ctx context.Context) error {
	sqlDB, err := p.dbGorm.DB()
	if err != nil {
		return p.fail(err)
	}
	if err = sqlDB.PingContext(ctx); err != nil {
		return p.fail(err)
	}
	return nil
}

// SaveState func - Upserts the conversation state; NoState sets the column to NULL
func (p *Storage) SaveState(ctx context.Context, chatID string, state domain.ConversationState) error {
	now := p.now().UTC()
	db := p.dbGorm.WithContext(ctx)
	if state == domain.NoState {
		err := db.Table(sessionTable()).
			Where(p.condition(chatID)).
			Updates(map[string]interface{}{"current_state": gorm.Expr("NULL"), "updated_at": now}).Error
		if err != nil {
			return p.fail(err)
		}
		return nil
	}

	entity := domain.ChatSessionEntity{
		ChatID:       chatID,
		CurrentState: domain.StringPtr(string(state)),
		CreatedAt:    &now,
		UpdatedAt:    &now,
	}
	return p.upsertSession(ctx, &entity, map[string]interface{}{
		"current_state": entity.CurrentState,
		"updated_at":    now,
	})
}

// GetState func - Returns the current state
func (p *Storage) GetState(ctx context.Context, chatID string) (domain.ConversationState, error) {
	session, err := p.GetSession(ctx, chatID)
	if err != nil || session == nil {
		return domain.NoState, err
	}
	return session.CurrentState, nil
}

// SavePlaylist func - Links a playlist to the chat
func (p *Storage) SavePlaylist(ctx context.Context, chatID, playlistID string) error {
	now := p.now().UTC()
	entity := domain.ChatSessionEntity{
		ChatID:     chatID,
		PlaylistID: domain.StringPtr(playlistID),
		CreatedAt:  &now,
		UpdatedAt:  &now,
	}
	return p.upsertSession(ctx, &entity, map[string]interface{}{
		"playlist_id": entity.PlaylistID,
		"updated_at":  now,
	})
}

// GetPlaylist func - Returns the linked playlist ID
func (p *Storage) GetPlaylist(ctx context.Context, chatID string) (string, error) {
	session, err := p.GetSession(ctx, chatID)
	if err != nil || session == nil {
		return "", err
	}
	return session.PlaylistID, nil
}

// BindOwner func - Sets the owner when unbound and returns the bound owner
func (p *Storage) BindOwner(ctx context.Context, chatID, userID string) (string, error) {
	now := p.now().UTC()
	entity := domain.ChatSessionEntity{
		ChatID:      chatID,
		OwnerUserID: domain.StringPtr(userID),
		CreatedAt:   &now,
		UpdatedAt:   &now,
	}
	err := p.dbGorm.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: chatIDColumn,
		DoUpdates: clause.Assignments(map[string]interface{}{
			"owner_user_id": gorm.Expr("COALESCE(chat_sessions.owner_user_id, EXCLUDED.owner_user_id)"),
			"updated_at":    now,
		}),
	}).Create(&entity).Error
	if err != nil {
		return "", p.fail(err)
	}
	return p.GetOwner(ctx, chatID)
}

// GetOwner func - Returns the session owner
func (p *Storage) GetOwner(ctx context.Context, chatID string) (string, error) {
	session, err := p.GetSession(ctx, chatID)
	if err != nil || session == nil {
		return "", err
	}
	return session.OwnerUserID, nil
}

// GetSession func - Returns the session record or nil
func (p *Storage) GetSession(ctx context.Context, chatID string) (*domain.ChatSession, error) {
	var entity domain.ChatSessionEntity
	err := p.dbGorm.WithContext(ctx).Where(p.condition(chatID)).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, p.fail(err)
	}
	return entity.ToChatSession()
}

// SaveCredentials func - Upserts the credential record and propagates its owner
func (p *Storage) SaveCredentials(ctx context.Context, record domain.CredentialRecord) error {
	now := p.now().UTC()
	credential := domain.NewChannelCredentialEntity(record)
	credential.CreatedAt = &now
	credential.UpdatedAt = &now
	session := domain.ChatSessionEntity{
		ChatID:      record.ChatID,
		OwnerUserID: domain.StringPtr(record.OwnerUserID),
		CreatedAt:   &now,
		UpdatedAt:   &now,
	}

	tx := p.dbGorm.WithContext(ctx).Begin()
	defer func() {
		tx.Rollback()
	}()
	err := tx.Clauses(clause.OnConflict{
		Columns: chatIDColumn,
		DoUpdates: clause.AssignmentColumns([]string{
			"owner_user_id", "access_token", "refresh_token", "token_type", "expiry", "scope", "updated_at",
		}),
	}).Create(&credential).Error
	if err != nil {
		return p.fail(err)
	}
	err = tx.Clauses(clause.OnConflict{
		Columns:   chatIDColumn,
		DoUpdates: clause.AssignmentColumns([]string{"owner_user_id", "updated_at"}),
	}).Create(&session).Error
	if err != nil {
		return p.fail(err)
	}
	if err = tx.Commit().Error; err != nil {
		return p.fail(err)
	}
	return nil
}

// GetCredentials func - Returns the credential record or nil
func (p *Storage) GetCredentials(ctx context.Context, chatID string) (*domain.CredentialRecord, error) {
	var entity domain.ChannelCredentialEntity
	err := p.dbGorm.WithContext(ctx).Where(p.condition(chatID)).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, p.fail(err)
	}
	return entity.ToCredentialRecord(), nil
}

// GetOwnerFromCredentials func - Returns the credential owner
func (p *Storage) GetOwnerFromCredentials(ctx context.Context, chatID string) (string, error) {
	record, err := p.GetCredentials(ctx, chatID)
	if err != nil || record == nil {
		return "", err
	}
	return record.OwnerUserID, nil
}

// DeleteSession func - Removes the session record
func (p *Storage) DeleteSession(ctx context.Context, chatID string) error {
	if err := p.dbGorm.WithContext(ctx).Where(p.condition(chatID)).Delete(&domain.ChatSessionEntity{}).Error; err != nil {
		return p.fail(err)
	}
	return nil
}

// DeleteCredentials func - Removes the credential record
func (p *Storage) DeleteCredentials(ctx context.Context, chatID string) error {
	if err := p.dbGorm.WithContext(ctx).Where(p.condition(chatID)).Delete(&domain.ChannelCredentialEntity{}).Error; err != nil {
		return p.fail(err)
	}
	return nil
}

// ExistsSession func - Reports whether a session record exists
func (p *Storage) ExistsSession(ctx context.Context, chatID string) (bool, error) {
	return p.exists(ctx, &domain.ChatSessionEntity{}, chatID)
}

// ExistsCredentials func - Reports whether a credential record exists
func (p *Storage) ExistsCredentials(ctx context.Context, chatID string) (bool, error) {
	return p.exists(ctx, &domain.ChannelCredentialEntity{}, chatID)
}

func (p *Storage) exists(ctx context.Context, model interface{}, chatID string) (bool, error) {
	var count int64
	if err := p.dbGorm.WithContext(ctx).Model(model).Where(p.condition(chatID)).Count(&count).Error; err != nil {
		return false, p.fail(err)
	}
	return count > 0, nil
}

// upsertSession inserts or updates one session row, then stamps the owner
// from the credential record when the session is still unowned.
func (p *Storage) upsertSession(ctx context.Context, entity *domain.ChatSessionEntity, columns map[string]interface{}) error {
	tx := p.dbGorm.WithContext(ctx).Begin()
	defer func() {
		tx.Rollback()
	}()
	err := tx.Clauses(clause.OnConflict{
		Columns:   chatIDColumn,
		DoUpdates: clause.Assignments(columns),
	}).Create(entity).Error
	if err != nil {
		return p.fail(err)
	}
	err = tx.Exec(`UPDATE chat_sessions SET owner_user_id = c.owner_user_id
		FROM channel_credentials c
		WHERE chat_sessions.chat_id = ? AND chat_sessions.owner_user_id IS NULL AND c.chat_id = chat_sessions.chat_id`,
		entity.ChatID).Error
	if err != nil {
		return p.fail(err)
	}
	if err = tx.Commit().Error; err != nil {
		return p.fail(err)
	}
	return nil
}

func (p *Storage) condition(chatID string) map[string]interface{} {
	return map[string]interface{}{"chat_id": chatID}
}

func (p *Storage) fail(err error) error {
	logrus.Errorln(err)
	return fmt.Errorf("%w: %v", domain.ErrStorage, err)
}

func sessionTable() string {
	return (&domain.ChatSessionEntity{}).TableName()
}
