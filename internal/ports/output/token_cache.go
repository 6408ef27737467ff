package output

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenCache interface - Output port
// The token cache capability the OAuth layer reads and writes through.
type TokenCache interface {
	// GetCachedToken returns the cached token, nil when none is stored.
	GetCachedToken(ctx context.Context) (*oauth2.Token, error)

	// SaveTokenToCache persists a newly issued or refreshed token.
	SaveTokenToCache(ctx context.Context, token *oauth2.Token) error
}
