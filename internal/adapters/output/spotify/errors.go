package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	spotifyapi "github.com/zmb3/spotify/v2"

	"playlist-bot/internal/domain"
	"playlist-bot/internal/telemetry"
)

var timeNow = time.Now

// classifyError maps Spotify failures onto the domain error kinds.
// A 403 means the token lacks a scope the call needs.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", domain.ErrTimeout, op, err)
	}
	var apiErr spotifyapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusForbidden:
			return domain.NewInsufficientScopeError(fmt.Errorf("%s: %w", op, err))
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s: %w", domain.ErrExternalAPI, op, domain.ErrNotFound)
		}
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrExternalAPI, op, err)
}

func observe(operation string, started time.Time, err error) {
	telemetry.ObserveMusicCall(operation, started, err)
}
