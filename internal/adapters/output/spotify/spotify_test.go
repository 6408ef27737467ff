package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	spotifyapi "github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"playlist-bot/internal/domain"
)

// mockTokenCache is a mock implementation of TokenCache for testing
type mockTokenCache struct {
	token   *oauth2.Token
	saved   []*oauth2.Token
	getErr  error
	saveErr error
}

func (m *mockTokenCache) GetCachedToken(ctx context.Context) (*oauth2.Token, error) {
	return m.token, m.getErr
}

func (m *mockTokenCache) SaveTokenToCache(ctx context.Context, token *oauth2.Token) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, token)
	m.token = token
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func newFakeAPI(t *testing.T, handler http.HandlerFunc) (*Authorizer, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	authorizer := NewAuthorizer("client-id", "client-secret", "http://localhost/spotifyauth",
		WithHTTPClient(server.Client()),
		WithEndpoint(oauth2.Endpoint{AuthURL: server.URL + "/authorize", TokenURL: server.URL + "/api/token"}),
		WithAPIBaseURL(server.URL+"/v1/"),
	)
	return authorizer, server
}

func validCache() *mockTokenCache {
	return &mockTokenCache{token: &oauth2.Token{
		AccessToken: "access-1",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}}
}

func TestAuthCodeURL(t *testing.T) {
	authorizer := NewAuthorizer("client-id", "client-secret", "http://localhost/spotifyauth")

	raw := authorizer.AuthCodeURL("signed-state")

	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("url.Parse() error = %v", err)
	}
	query := parsed.Query()
	if query.Get("state") != "signed-state" {
		t.Errorf("Expected state in URL, got %q", query.Get("state"))
	}
	if query.Get("client_id") != "client-id" {
		t.Errorf("Expected client_id in URL, got %q", query.Get("client_id"))
	}
	if query.Get("scope") != "playlist-modify-public ugc-image-upload" {
		t.Errorf("Expected scopes in URL, got %q", query.Get("scope"))
	}
	if !strings.HasPrefix(raw, "https://accounts.spotify.com/authorize") {
		t.Errorf("Expected Spotify authorize endpoint, got %s", raw)
	}
}

func TestExchangeStoresToken(t *testing.T) {
	// Arrange
	authorizer, _ := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, `{"access_token":"fresh","refresh_token":"refresh","token_type":"Bearer","expires_in":3600}`)
	})
	cache := &mockTokenCache{}

	// Act
	token, err := authorizer.Exchange(context.Background(), "auth-code", cache)

	// Assert
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if token.AccessToken != "fresh" {
		t.Errorf("Expected access token fresh, got %q", token.AccessToken)
	}
	if len(cache.saved) != 1 || cache.saved[0].RefreshToken != "refresh" {
		t.Errorf("Expected token to be saved once, got %+v", cache.saved)
	}
}

func TestExchangeFailureIsExternalAPIError(t *testing.T) {
	authorizer, _ := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"error":"invalid_grant"}`)
	})
	cache := &mockTokenCache{}

	_, err := authorizer.Exchange(context.Background(), "bad-code", cache)

	if !errors.Is(err, domain.ErrExternalAPI) {
		t.Errorf("Expected ErrExternalAPI, got %v", err)
	}
	if len(cache.saved) != 0 {
		t.Error("Expected nothing to be cached on failure")
	}
}

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name       string
		cache      *mockTokenCache
		tokenReply int
		want       domain.TokenStatus
		wantSaved  int
	}{
		{
			name:  "absent",
			cache: &mockTokenCache{},
			want:  domain.TokenAbsent,
		},
		{
			name:  "valid",
			cache: validCache(),
			want:  domain.TokenValid,
		},
		{
			name:  "expired without refresh token",
			cache: &mockTokenCache{token: &oauth2.Token{AccessToken: "old", Expiry: time.Now().Add(-time.Hour)}},
			want:  domain.TokenInvalid,
		},
		{
			name:       "expired and refreshed",
			cache:      &mockTokenCache{token: &oauth2.Token{AccessToken: "old", RefreshToken: "r", Expiry: time.Now().Add(-time.Hour)}},
			tokenReply: http.StatusOK,
			want:       domain.TokenValid,
			wantSaved:  1,
		},
		{
			name:       "expired and refresh rejected",
			cache:      &mockTokenCache{token: &oauth2.Token{AccessToken: "old", RefreshToken: "r", Expiry: time.Now().Add(-time.Hour)}},
			tokenReply: http.StatusBadRequest,
			want:       domain.TokenInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authorizer, _ := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.tokenReply == http.StatusOK {
					writeJSON(w, http.StatusOK, `{"access_token":"refreshed","token_type":"Bearer","expires_in":3600}`)
					return
				}
				writeJSON(w, http.StatusBadRequest, `{"error":"invalid_grant"}`)
			})

			got, err := authorizer.ValidateToken(context.Background(), tt.cache)

			if err != nil {
				t.Fatalf("ValidateToken() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ValidateToken() = %v, want %v", got, tt.want)
			}
			if len(tt.cache.saved) != tt.wantSaved {
				t.Errorf("Expected %d saved tokens, got %d", tt.wantSaved, len(tt.cache.saved))
			}
		})
	}
}

func TestClientWithoutTokenIsNotFound(t *testing.T) {
	authorizer := NewAuthorizer("id", "secret", "http://localhost/cb")

	_, err := authorizer.Client(context.Background(), &mockTokenCache{})

	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCreatePlaylist(t *testing.T) {
	// Arrange
	var createdName string
	authorizer, _ := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			t.Errorf("Expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/me":
			writeJSON(w, http.StatusOK, `{"id":"spotify-user"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/users/spotify-user/playlists":
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			createdName, _ = body["name"].(string)
			writeJSON(w, http.StatusCreated, `{"id":"pl-123","name":"My Mix"}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	client, err := authorizer.Client(context.Background(), validCache())
	if err != nil {
		t.Fatalf("Client() error = %v", err)
	}

	// Act
	playlistID, err := client.CreatePlaylist(context.Background(), "My Mix")

	// Assert
	if err != nil {
		t.Fatalf("CreatePlaylist() error = %v", err)
	}
	if playlistID != "pl-123" {
		t.Errorf("Expected playlist pl-123, got %q", playlistID)
	}
	if createdName != "My Mix" {
		t.Errorf("Expected name My Mix to be sent, got %q", createdName)
	}
}

func TestAddTrackForbiddenIsInsufficientScope(t *testing.T) {
	authorizer, _ := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, `{"error":{"status":403,"message":"Insufficient client scope"}}`)
	})
	client, err := authorizer.Client(context.Background(), validCache())
	if err != nil {
		t.Fatalf("Client() error = %v", err)
	}

	err = client.AddTrack(context.Background(), "pl-123", "track-1")

	if !errors.Is(err, domain.ErrInsufficientScope) {
		t.Errorf("Expected ErrInsufficientScope, got %v", err)
	}
	if !errors.Is(err, domain.ErrExternalAPI) {
		t.Errorf("Expected ErrExternalAPI as well, got %v", err)
	}
}

func TestSetCoverImageSendsEncodedBody(t *testing.T) {
	raw := []byte{0xff, 0xd8, 0xff, 0xe0, 'j', 'p', 'g'}
	var received string
	authorizer, _ := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/v1/playlists/pl-123/images" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		received = string(body)
		w.WriteHeader(http.StatusAccepted)
	})
	client, err := authorizer.Client(context.Background(), validCache())
	if err != nil {
		t.Fatalf("Client() error = %v", err)
	}

	err = client.SetCoverImage(context.Background(), "pl-123", base64.StdEncoding.EncodeToString(raw))

	if err != nil {
		t.Fatalf("SetCoverImage() error = %v", err)
	}
	if received != base64.StdEncoding.EncodeToString(raw) {
		t.Errorf("Expected base64 body, got %q", received)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []error
	}{
		{"nil", nil, nil},
		{"forbidden", spotifyapi.Error{Status: http.StatusForbidden, Message: "nope"}, []error{domain.ErrInsufficientScope, domain.ErrExternalAPI}},
		{"not found", spotifyapi.Error{Status: http.StatusNotFound}, []error{domain.ErrExternalAPI, domain.ErrNotFound}},
		{"server", spotifyapi.Error{Status: http.StatusBadGateway}, []error{domain.ErrExternalAPI}},
		{"deadline", context.DeadlineExceeded, []error{domain.ErrTimeout}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError("op", tt.err)
			if tt.want == nil && got != nil {
				t.Fatalf("Expected nil, got %v", got)
			}
			for _, target := range tt.want {
				if !errors.Is(got, target) {
					t.Errorf("Expected %v to match %v", got, target)
				}
			}
		})
	}
}
