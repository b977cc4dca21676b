package oauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/qmarkhq/qmark/models"
)

// AccessToken returns a usable plaintext bearer token for the connection,
// transparently refreshing it first when expired. The plaintext is never
// persisted; callers must not store it.
//
// Concurrent callers for the same connection are collapsed to a single
// refresh: a singleflight group dedupes in-process callers and the lease
// serializes across instances.
func (m *Manager) AccessToken(ctx context.Context, connectionID string) (string, error) {
	conn, err := m.connections.GetByID(ctx, connectionID)
	if err != nil {
		return "", err
	}

	if !conn.IsActive {
		return "", ErrConnectionInactive
	}

	if conn.AccessToken == "" {
		return "", ErrNoCredential
	}

	if !m.expired(conn) {
		return m.cipher.Decrypt(conn.AccessToken)
	}

	token, err, _ := m.refreshGroup.Do(conn.ID, func() (any, error) {
		return m.refresh(ctx, conn.ID)
	})
	if err != nil {
		return "", err
	}

	return token.(string), nil
}

func (m *Manager) expired(conn models.Connection) bool {
	// A zero expiry means the token is assumed long-lived.
	return !conn.TokenExpiry.IsZero() && !m.now().Before(conn.TokenExpiry)
}

func (m *Manager) refresh(ctx context.Context, connectionID string) (string, error) {
	release, err := m.lease.Acquire(ctx, "oauth:refresh:"+connectionID)
	if err != nil {
		return "", fmt.Errorf("%w: acquire lease: %v", ErrRefreshFailed, err)
	}
	defer release()

	// Re-read under the lease: a racer on another instance may already have
	// refreshed and persisted a fresh token.
	conn, err := m.connections.GetByID(ctx, connectionID)
	if err != nil {
		return "", err
	}

	if !m.expired(conn) {
		return m.cipher.Decrypt(conn.AccessToken)
	}

	if conn.RefreshToken == "" {
		return "", ErrUnrecoverable
	}

	refreshToken, err := m.cipher.Decrypt(conn.RefreshToken)
	if err != nil {
		return "", err
	}

	p, err := m.registry.Config(conn.Platform)
	if err != nil {
		return "", err
	}

	src := m.registry.oauthConfig(p).TokenSource(m.httpContext(ctx), &oauth2.Token{RefreshToken: refreshToken})

	newToken, err := src.Token()
	if err != nil {
		return "", refreshError(conn.Platform, err)
	}

	encAccess, err := m.cipher.Encrypt(newToken.AccessToken)
	if err != nil {
		return "", err
	}

	// Keep the stored refresh token unless the provider rotated it.
	encRefresh := conn.RefreshToken
	if newToken.RefreshToken != "" && newToken.RefreshToken != refreshToken {
		if encRefresh, err = m.cipher.Encrypt(newToken.RefreshToken); err != nil {
			return "", err
		}
	}

	updated, err := m.connections.UpdateTokens(ctx, conn.ID, encAccess, encRefresh, newToken.Expiry, m.now().UTC())
	if err != nil {
		return "", fmt.Errorf("persist refreshed tokens: %w", err)
	}

	if !updated {
		// The connection was deleted mid-refresh. The row stays gone; the
		// fresh token is still valid for this caller.
		m.logger.Debug("refresh target deleted, skipping persist",
			zap.String("connection_id", connectionID),
		)
	} else {
		m.logger.Info("access token refreshed",
			zap.String("connection_id", connectionID),
			zap.String("platform", conn.Platform),
		)
	}

	return newToken.AccessToken, nil
}

func refreshError(platform string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %s: status %d: %s",
			ErrRefreshFailed, platform, retrieveErr.Response.StatusCode, strings.TrimSpace(string(retrieveErr.Body)))
	}

	return fmt.Errorf("%w: %s: %v", ErrRefreshFailed, platform, err)
}
