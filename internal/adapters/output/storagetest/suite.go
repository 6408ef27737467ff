// Package storagetest holds behaviour tests shared by every Storage backend.
package storagetest

import (
	"context"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"playlist-bot/internal/domain"
	"playlist-bot/internal/ports/output"
)

// Factory returns an empty store for one sub-test
type Factory func(t *testing.T) output.Storage

// Run executes the conformance suite against the backend built by newStorage
func Run(t *testing.T, newStorage Factory) {
	t.Helper()

	t.Run("SaveStateThenGetState", func(t *testing.T) {
		// Arrange
		store := newStorage(t)
		ctx := context.Background()

		// Act
		if err := store.SaveState(ctx, "chat-1", domain.StateCreatingPlaylist); err != nil {
			t.Fatalf("SaveState() error = %v", err)
		}
		state, err := store.GetState(ctx, "chat-1")

		// Assert
		if err != nil {
			t.Fatalf("GetState() error = %v", err)
		}
		if state != domain.StateCreatingPlaylist {
			t.Errorf("Expected state %s, got %s", domain.StateCreatingPlaylist, state)
		}
	})

	t.Run("SaveNoStateRemovesField", func(t *testing.T) {
		store := newStorage(t)
		ctx := context.Background()

		mustNoError(t, store.SaveState(ctx, "chat-1", domain.StateChangingPlaylistName))
		mustNoError(t, store.SavePlaylist(ctx, "chat-1", "pl-1"))
		mustNoError(t, store.SaveState(ctx, "chat-1", domain.NoState))

		state, err := store.GetState(ctx, "chat-1")
		mustNoError(t, err)
		if state != domain.NoState {
			t.Errorf("Expected NO_STATE after clearing, got %s", state)
		}
		// Other fields survive
		playlistID, err := store.GetPlaylist(ctx, "chat-1")
		mustNoError(t, err)
		if playlistID != "pl-1" {
			t.Errorf("Expected playlist pl-1 to survive, got %q", playlistID)
		}
	})

	t.Run("SaveNoStateOnAbsentSessionCreatesNothing", func(t *testing.T) {
		store := newStorage(t)
		ctx := context.Background()

		mustNoError(t, store.SaveState(ctx, "chat-1", domain.NoState))

		exists, err := store.ExistsSession(ctx, "chat-1")
		mustNoError(t, err)
		if exists {
			t.Error("Expected no session record to be created")
		}
	})

	t.Run("AbsentRecordsReadAsEmpty", func(t *testing.T) {
		store := newStorage(t)
		ctx := context.Background()

		state, err := store.GetState(ctx, "missing")
		mustNoError(t, err)
		playlistID, err := store.GetPlaylist(ctx, "missing")
		mustNoError(t, err)
		owner, err := store.GetOwner(ctx, "missing")
		mustNoError(t, err)
		credOwner, err := store.GetOwnerFromCredentials(ctx, "missing")
		mustNoError(t, err)
		session, err := store.GetSession(ctx, "missing")
		mustNoError(t, err)
		record, err := store.GetCredentials(ctx, "missing")
		mustNoError(t, err)

		if state != domain.NoState || playlistID != "" || owner != "" || credOwner != "" {
			t.Errorf("Expected empty reads, got state=%s playlist=%q owner=%q credOwner=%q", state, playlistID, owner, credOwner)
		}
		if session != nil {
			t.Errorf("Expected nil session, got %+v", session)
		}
		if record != nil {
			t.Errorf("Expected nil credentials, got %+v", record)
		}
	})

	t.Run("SavePlaylistThenGetPlaylist", func(t *testing.T) {
		store := newStorage(t)
		ctx := context.Background()

		mustNoError(t, store.SavePlaylist(ctx, "chat-1", "37i9dQZF1DXcBWIGoYBM5M"))

		playlistID, err := store.GetPlaylist(ctx, "chat-1")
		mustNoError(t, err)
		if playlistID != "37i9dQZF1DXcBWIGoYBM5M" {
			t.Errorf("Expected playlist ID to round trip, got %q", playlistID)
		}
	})

	t.Run("SavePlaylistStampsOwnerFromCredentials", func(t *testing.T) {
		store := newStorage(t)
		ctx := context.Background()

		mustNoError(t, store.SaveCredentials(ctx, sampleCredentials("chat-1", "U-owner")))
		mustNoError(t, store.DeleteSession(ctx, "chat-1"))
		mustNoError(t, store.SavePlaylist(ctx, "chat-1", "pl-1"))

		owner, err := store.GetOwner(ctx, "chat-1")
		mustNoError(t, err)
		if owner != "U-owner" {
			t.Errorf("Expected owner stamped from credentials, got %q", owner)
		}
	})

	t.Run("SavePlaylistKeepsBoundOwner", func(t *testing.T) {
		store := newStorage(t)
		ctx := context.Background()

		_, err := store.BindOwner(ctx, "chat-1", "U-first")
		mustNoError(t, err)
		mustNoError(t, store.SaveState(ctx, "chat-1", domain.StateCreatingPlaylist))
		mustNoError(t, store.SavePlaylist(ctx, "chat-1", "pl-1"))

		session, err := store.GetSession(ctx, "chat-1")
		mustNoError(t, err)
		if session == nil {
			t.Fatal("Expected session to exist")
		}
		if session.OwnerUserID != "U-first" {
			t.Errorf("Expected owner U-first, got %q", session.OwnerUserID)
		}
		if session.CurrentState != domain.StateCreatingPlaylist {
			t.Errorf("Expected state to be untouched, got %s", session.CurrentState)
		}
	})

	t.Run("BindOwnerOnlyBindsOnce", func(t *testing.T) {
		store := newStorage(t)
		ctx := context.Background()

		first, err := store.BindOwner(ctx, "chat-1", "U-first")
		mustNoError(t, err)
		second, err := store.BindOwner(ctx, "chat-1", "U-second")
		mustNoError(t, err)

		if first != "U-first" || second != "U-first" {
			t.Errorf("Expected owner to stay U-first, got %q then %q", first, second)
		}
	})

	t.Run("SaveCredentialsPropagatesOwner", func(t *testing.T) {
		store := newStorage(t)
		ctx := context.Background()

		mustNoError(t, store.SaveCredentials(ctx, sampleCredentials("chat-1", "U-owner")))

		owner, err := store.GetOwner(ctx, "chat-1")
		mustNoError(t, err)
		credOwner, err := store.GetOwnerFromCredentials(ctx, "chat-1")
		mustNoError(t, err)
		if owner != "U-owner" || credOwner != "U-owner" {
			t.Errorf("Expected both owners to be U-owner, got session=%q credentials=%q", owner, credOwner)
		}
	})

	t.Run("CredentialsRoundTrip", func(t *testing.T) {
		store := newStorage(t)
		ctx := context.Background()
		want := sampleCredentials("chat-1", "U-owner")

		mustNoError(t, store.SaveCredentials(ctx, want))
		got, err := store.GetCredentials(ctx, "chat-1")
		mustNoError(t, err)

		if got == nil || got.Token == nil {
			t.Fatalf("Expected credentials with a token, got %+v", got)
		}
		if got.Token.AccessToken != want.Token.AccessToken {
			t.Errorf("Expected access token %q, got %q", want.Token.AccessToken, got.Token.AccessToken)
		}
		if got.Token.RefreshToken != want.Token.RefreshToken {
			t.Errorf("Expected refresh token %q, got %q", want.Token.RefreshToken, got.Token.RefreshToken)
		}
		if !got.Token.Expiry.Equal(want.Token.Expiry) {
			t.Errorf("Expected expiry %v, got %v", want.Token.Expiry, got.Token.Expiry)
		}
		if got.Scope != want.Scope {
			t.Errorf("Expected scope %q, got %q", want.Scope, got.Scope)
		}
	})

	t.Run("SaveCredentialsReplacesToken", func(t *testing.T) {
		store := newStorage(t)
		ctx := context.Background()

		mustNoError(t, store.SaveCredentials(ctx, sampleCredentials("chat-1", "U-owner")))
		refreshed := sampleCredentials("chat-1", "U-owner")
		refreshed.Token.AccessToken = "access-2"
		mustNoError(t, store.SaveCredentials(ctx, refreshed))

		got, err := store.GetCredentials(ctx, "chat-1")
		mustNoError(t, err)
		if got == nil || got.Token.AccessToken != "access-2" {
			t.Errorf("Expected refreshed access token, got %+v", got)
		}
	})

	t.Run("DeleteAbsentIsIdempotent", func(t *testing.T) {
		store := newStorage(t)
		ctx := context.Background()
		mustNoError(t, store.SaveState(ctx, "other", domain.StateCreatingPlaylist))

		mustNoError(t, store.DeleteSession(ctx, "missing"))
		mustNoError(t, store.DeleteCredentials(ctx, "missing"))
		mustNoError(t, store.DeleteSession(ctx, "missing"))

		state, err := store.GetState(ctx, "other")
		mustNoError(t, err)
		if state != domain.StateCreatingPlaylist {
			t.Errorf("Expected unrelated chat untouched, got %s", state)
		}
	})

	t.Run("DeleteAndExists", func(t *testing.T) {
		store := newStorage(t)
		ctx := context.Background()

		mustNoError(t, store.SaveCredentials(ctx, sampleCredentials("chat-1", "U-owner")))
		assertExists(t, store, "chat-1", true, true)

		mustNoError(t, store.DeleteCredentials(ctx, "chat-1"))
		assertExists(t, store, "chat-1", true, false)

		mustNoError(t, store.DeleteSession(ctx, "chat-1"))
		assertExists(t, store, "chat-1", false, false)
	})

	t.Run("ChatsAreIsolated", func(t *testing.T) {
		store := newStorage(t)
		ctx := context.Background()

		mustNoError(t, store.SaveState(ctx, "chat-a", domain.StateCreatingPlaylist))
		mustNoError(t, store.SavePlaylist(ctx, "chat-b", "pl-b"))

		playlistA, err := store.GetPlaylist(ctx, "chat-a")
		mustNoError(t, err)
		stateB, err := store.GetState(ctx, "chat-b")
		mustNoError(t, err)
		if playlistA != "" || stateB != domain.NoState {
			t.Errorf("Expected chats to be isolated, got playlistA=%q stateB=%s", playlistA, stateB)
		}
	})
}

func sampleCredentials(chatID, ownerUserID string) domain.CredentialRecord {
	return domain.CredentialRecord{
		ChatID:      chatID,
		OwnerUserID: ownerUserID,
		Token: &oauth2.Token{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			TokenType:    "Bearer",
			Expiry:       time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		Scope: "playlist-modify-public ugc-image-upload",
	}
}

func assertExists(t *testing.T, store output.Storage, chatID string, wantSession, wantCredentials bool) {
	t.Helper()
	ctx := context.Background()
	session, err := store.ExistsSession(ctx, chatID)
	mustNoError(t, err)
	credentials, err := store.ExistsCredentials(ctx, chatID)
	mustNoError(t, err)
	if session != wantSession {
		t.Errorf("ExistsSession(%q) = %v, want %v", chatID, session, wantSession)
	}
	if credentials != wantCredentials {
		t.Errorf("ExistsCredentials(%q) = %v, want %v", chatID, credentials, wantCredentials)
	}
}

func mustNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
