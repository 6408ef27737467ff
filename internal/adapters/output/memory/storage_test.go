package memory

import (
	"context"
	"sync"
	"testing"

	"golang.org/x/oauth2"

	"playlist-bot/internal/adapters/output/storagetest"
	"playlist-bot/internal/domain"
	"playlist-bot/internal/ports/output"
)

func TestStorageConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) output.Storage {
		return NewStorage()
	})
}

// TestGetCredentialsReturnsCopy tests that callers cannot mutate stored tokens
func TestGetCredentialsReturnsCopy(t *testing.T) {
	// Arrange
	store := NewStorage()
	ctx := context.Background()
	err := store.SaveCredentials(ctx, domain.CredentialRecord{
		ChatID:      "chat-1",
		OwnerUserID: "U1",
		Token:       &oauth2.Token{AccessToken: "original"},
	})
	if err != nil {
		t.Fatalf("SaveCredentials() error = %v", err)
	}

	// Act
	record, _ := store.GetCredentials(ctx, "chat-1")
	record.Token.AccessToken = "mutated"

	// Assert
	again, _ := store.GetCredentials(ctx, "chat-1")
	if again.Token.AccessToken != "original" {
		t.Errorf("Expected stored token to be unchanged, got %q", again.Token.AccessToken)
	}
}

// TestConcurrentAccess tests thread-safety with concurrent writers on different chats
func TestConcurrentAccess(t *testing.T) {
	store := NewStorage()
	ctx := context.Background()
	chatIDs := []string{"chat-a", "chat-b", "chat-c", "chat-d"}

	var wg sync.WaitGroup
	for _, chatID := range chatIDs {
		wg.Add(1)
		go func(chatID string) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = store.SaveState(ctx, chatID, domain.StateCreatingPlaylist)
				_, _ = store.GetSession(ctx, chatID)
				_ = store.SaveState(ctx, chatID, domain.NoState)
			}
			_ = store.SavePlaylist(ctx, chatID, "pl-"+chatID)
		}(chatID)
	}
	wg.Wait()

	for _, chatID := range chatIDs {
		playlistID, err := store.GetPlaylist(ctx, chatID)
		if err != nil {
			t.Fatalf("GetPlaylist() error = %v", err)
		}
		if playlistID != "pl-"+chatID {
			t.Errorf("Expected playlist pl-%s, got %q", chatID, playlistID)
		}
	}
}
