package application

import (
	"context"

	"golang.org/x/oauth2"

	"playlist-bot/internal/domain"
	"playlist-bot/internal/ports/output"
)

// Compile-time check to ensure CredentialCache implements TokenCache interface
var _ output.TokenCache = (*CredentialCache)(nil)

// CredentialCache struct - Bridges the OAuth token cache to the credential store
// for one (chat, owner) pair. Storage failures propagate unchanged.
type CredentialCache struct {
	chatID      string
	ownerUserID string
	storage     output.Storage
}

// NewCredentialCache creates a cache bound to chatID and ownerUserID.
// An empty ownerUserID keeps whatever owner the stored record already has.
func NewCredentialCache(chatID, ownerUserID string, storage output.Storage) *CredentialCache {
	return &CredentialCache{
		chatID:      chatID,
		ownerUserID: ownerUserID,
		storage:     storage,
	}
}

// GetCachedToken returns the stored token, nil when the chat has no credentials
func (c *CredentialCache) GetCachedToken(ctx context.Context) (*oauth2.Token, error) {
	record, err := c.storage.GetCredentials(ctx, c.chatID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	return record.Token, nil
}

// SaveTokenToCache stores token and propagates the owner into the session record
func (c *CredentialCache) SaveTokenToCache(ctx context.Context, token *oauth2.Token) error {
	owner := c.ownerUserID
	scope := tokenScope(token)
	if owner == "" || scope == "" {
		existing, err := c.storage.GetCredentials(ctx, c.chatID)
		if err != nil {
			return err
		}
		if existing != nil {
			if owner == "" {
				owner = existing.OwnerUserID
			}
			if scope == "" {
				scope = existing.Scope
			}
		}
	}
	return c.storage.SaveCredentials(ctx, domain.CredentialRecord{
		ChatID:      c.chatID,
		OwnerUserID: owner,
		Token:       token,
		Scope:       scope,
	})
}

// tokenScope reads the granted scope from the token response, when present
func tokenScope(token *oauth2.Token) string {
	if token == nil {
		return ""
	}
	scope, _ := token.Extra("scope").(string)
	return scope
}
