package oauth

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedPlatform is returned when the registry has no entry for
	// the requested platform.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrMisconfiguredProvider is returned when a platform's client
	// credentials are missing or malformed.
	ErrMisconfiguredProvider = errors.New("provider not configured")

	// ErrProviderDenied is returned when the provider callback carries an
	// error, typically because the user declined consent.
	ErrProviderDenied = errors.New("provider denied authorization")

	// ErrInvalidCallback is returned when the callback query is missing
	// required parameters or the state cannot be verified.
	ErrInvalidCallback = errors.New("invalid oauth callback")

	// ErrNoCredential is returned when a connection has no stored access token.
	ErrNoCredential = errors.New("connection has no credential")

	// ErrConnectionInactive is returned when a soft-disabled connection is
	// asked for an access token.
	ErrConnectionInactive = errors.New("connection is inactive")

	// ErrUnrecoverable is returned when the access token is expired and no
	// refresh token is available. The user must reconnect.
	ErrUnrecoverable = errors.New("token expired and no refresh token available")

	// ErrRefreshFailed is returned when the provider rejects a refresh grant.
	ErrRefreshFailed = errors.New("token refresh failed")
)

// TokenExchangeError carries the provider's response when an authorization
// code exchange fails.
type TokenExchangeError struct {
	Platform   string
	StatusCode int
	Detail     string
}

func (e *TokenExchangeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("token exchange failed for %s: status %d: %s", e.Platform, e.StatusCode, e.Detail)
	}

	return fmt.Sprintf("token exchange failed for %s: %s", e.Platform, e.Detail)
}
