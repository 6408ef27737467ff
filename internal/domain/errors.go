package domain

import "errors"

// Conversation and storage error types

var (
	// ErrStorage indicates the backing store is unavailable or returned malformed data
	ErrStorage = errors.New("storage error")

	// ErrUnauthorized indicates the acting identity does not match the bound owner
	ErrUnauthorized = errors.New("not authorized for this playlist process")

	// ErrNotFound indicates a playlist, session or credential record is missing
	ErrNotFound = errors.New("not found")

	// ErrExternalAPI indicates a music API call failed
	ErrExternalAPI = errors.New("music api error")

	// ErrInsufficientScope indicates the music API rejected the call for missing scopes.
	// It is always wrapped together with ErrExternalAPI.
	ErrInsufficientScope = errors.New("insufficient authorization scope")

	// ErrTimeout indicates a bounded external action exceeded its deadline
	ErrTimeout = errors.New("operation timed out")

	// ErrPayloadTooLarge indicates the encoded cover image exceeds the size limit
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrConflict indicates the chat is already in, or past, the requested flow
	ErrConflict = errors.New("conflicting conversation state")

	// ErrInvalidState indicates an OAuth state token could not be verified
	ErrInvalidState = errors.New("invalid authorization state")
)

// scopeError joins ErrInsufficientScope with ErrExternalAPI so both match errors.Is
type scopeError struct {
	cause error
}

// NewInsufficientScopeError wraps cause as an insufficient scope failure
func NewInsufficientScopeError(cause error) error {
	return &scopeError{cause: cause}
}

func (e *scopeError) Error() string {
	if e.cause == nil {
		return ErrInsufficientScope.Error()
	}
	return ErrInsufficientScope.Error() + ": " + e.cause.Error()
}

func (e *scopeError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrInsufficientScope, ErrExternalAPI}
	}
	return []error{ErrInsufficientScope, ErrExternalAPI, e.cause}
}
