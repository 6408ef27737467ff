package spotify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	spotifyapi "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"playlist-bot/internal/domain"
	"playlist-bot/internal/ports/output"
)

// Scopes requested from the account owner
var Scopes = []string{spotifyauth.ScopePlaylistModifyPublic, spotifyauth.ScopeImageUpload}

// Compile-time check to ensure Authorizer implements MusicAuthorizer interface
var _ output.MusicAuthorizer = (*Authorizer)(nil)

// Authorizer struct - Output adapter for the Spotify OAuth handshake.
// Tokens are read from and written to the TokenCache passed to each call,
// so one Authorizer serves every chat.
type Authorizer struct {
	oauth      *oauth2.Config
	httpClient *http.Client
	apiBaseURL string
}

// Option configures an Authorizer
type Option func(*Authorizer)

// WithHTTPClient sets the client used for token and API calls
func WithHTTPClient(client *http.Client) Option {
	return func(a *Authorizer) { a.httpClient = client }
}

// WithEndpoint overrides the OAuth endpoint
func WithEndpoint(endpoint oauth2.Endpoint) Option {
	return func(a *Authorizer) { a.oauth.Endpoint = endpoint }
}

// WithAPIBaseURL overrides the Web API base URL; it must end with a slash
func WithAPIBaseURL(baseURL string) Option {
	return func(a *Authorizer) { a.apiBaseURL = baseURL }
}

// NewAuthorizer creates a new Spotify authorizer
func NewAuthorizer(clientID, clientSecret, redirectURL string, opts ...Option) *Authorizer {
	a := &Authorizer{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AuthCodeURL returns the consent page URL carrying state
func (a *Authorizer) AuthCodeURL(state string) string {
	return a.oauth.AuthCodeURL(state)
}

// Exchange trades the authorization code for a token and stores it in cache
func (a *Authorizer) Exchange(ctx context.Context, code string, cache output.TokenCache) (*oauth2.Token, error) {
	started := timeNow()
	token, err := a.oauth.Exchange(a.context(ctx), code)
	observe("exchange", started, err)
	if err != nil {
		logrus.Errorf("Spotify code exchange failed: %v", err)
		return nil, fmt.Errorf("%w: exchange: %v", domain.ErrExternalAPI, err)
	}
	if err = cache.SaveTokenToCache(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// ValidateToken reports whether the cached token can be used, refreshing it
// and writing the refreshed token back when it has expired.
func (a *Authorizer) ValidateToken(ctx context.Context, cache output.TokenCache) (domain.TokenStatus, error) {
	token, err := cache.GetCachedToken(ctx)
	if err != nil {
		return domain.TokenAbsent, err
	}
	if token == nil {
		return domain.TokenAbsent, nil
	}
	if token.Valid() {
		return domain.TokenValid, nil
	}
	if token.RefreshToken == "" {
		return domain.TokenInvalid, nil
	}

	started := timeNow()
	refreshed, err := a.oauth.TokenSource(a.context(ctx), token).Token()
	observe("refresh", started, err)
	if err != nil {
		logrus.Warnf("Spotify token refresh failed: %v", err)
		return domain.TokenInvalid, nil
	}
	if err = cache.SaveTokenToCache(ctx, refreshed); err != nil {
		return domain.TokenAbsent, err
	}
	return domain.TokenValid, nil
}

// Client returns an API client bound to the cached token. Refreshed tokens
// are written back to cache as they are minted.
func (a *Authorizer) Client(ctx context.Context, cache output.TokenCache) (output.MusicClient, error) {
	token, err := cache.GetCachedToken(ctx)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, fmt.Errorf("%w: no cached token", domain.ErrNotFound)
	}

	oauthCtx := a.context(ctx)
	source := newPersistingTokenSource(ctx, a.oauth.TokenSource(oauthCtx, token), cache, token)
	httpClient := oauth2.NewClient(oauthCtx, source)

	options := []spotifyapi.ClientOption{}
	if a.apiBaseURL != "" {
		options = append(options, spotifyapi.WithBaseURL(a.apiBaseURL))
	}
	return NewClient(spotifyapi.New(httpClient, options...)), nil
}

// context injects the configured HTTP client for the oauth2 package
func (a *Authorizer) context(ctx context.Context) context.Context {
	if a.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
}
