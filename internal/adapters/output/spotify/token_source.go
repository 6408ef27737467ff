package spotify

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"playlist-bot/internal/ports/output"
)

// persistingTokenSource writes every newly minted token back to the cache
type persistingTokenSource struct {
	ctx   context.Context
	base  oauth2.TokenSource
	cache output.TokenCache

	mu   sync.Mutex
	last string
}

func newPersistingTokenSource(ctx context.Context, base oauth2.TokenSource, cache output.TokenCache, current *oauth2.Token) *persistingTokenSource {
	return &persistingTokenSource{
		ctx:   ctx,
		base:  base,
		cache: cache,
		last:  current.AccessToken,
	}
}

// Token implements oauth2.TokenSource
func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken == s.last {
		return token, nil
	}
	if err = s.cache.SaveTokenToCache(s.ctx, token); err != nil {
		logrus.Errorf("Failed to persist refreshed Spotify token: %v", err)
		return nil, err
	}
	s.last = token.AccessToken
	return token, nil
}
