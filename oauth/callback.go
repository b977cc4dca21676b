package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/qmarkhq/qmark/models"
)

// CallbackResult reports a completed authorization.
type CallbackResult struct {
	Platform    string
	RedirectURL string
	Connection  models.Connection
}

// profile is the minimal snapshot fetched from the provider's userinfo
// endpoint. All fields are optional.
type profile struct {
	ID    string
	Name  string
	Email string
}

// HandleCallback consumes the provider redirect: it validates the signed
// state, exchanges the code for tokens, fetches a best-effort profile
// snapshot, and persists the encrypted connection. Authorization codes are
// single-use by provider contract, so a replayed callback fails at the
// exchange step with no special handling here.
func (m *Manager) HandleCallback(ctx context.Context, query url.Values) (*CallbackResult, error) {
	if errParam := query.Get("error"); errParam != "" {
		return nil, fmt.Errorf("%w: %s", ErrProviderDenied, errParam)
	}

	code := query.Get("code")
	rawState := query.Get("state")
	if code == "" || rawState == "" {
		return nil, fmt.Errorf("%w: missing code or state", ErrInvalidCallback)
	}

	state, err := DecodeState(m.stateSecret, rawState, m.stateMaxAge, m.now())
	if err != nil {
		return nil, err
	}

	p, err := m.registry.Config(state.Platform)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown platform %q", ErrInvalidCallback, state.Platform)
	}

	token, err := m.registry.oauthConfig(p).Exchange(m.httpContext(ctx), code)
	if err != nil {
		return nil, exchangeError(state.Platform, err)
	}

	// Profile enrichment is best-effort: a userinfo failure must not abort
	// the connection.
	prof := m.fetchProfile(ctx, p, token.AccessToken)

	encAccess, err := m.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return nil, err
	}

	var encRefresh string
	if token.RefreshToken != "" {
		if encRefresh, err = m.cipher.Encrypt(token.RefreshToken); err != nil {
			return nil, err
		}
	}

	scope := strings.Join(p.Scopes, " ")
	if granted, ok := token.Extra("scope").(string); ok && granted != "" {
		scope = granted
	}

	now := m.now().UTC()
	conn := models.Connection{
		ID:             uuid.New().String(),
		UserID:         state.UserID,
		Platform:       state.Platform,
		PlatformUserID: prof.ID,
		DisplayName:    prof.Name,
		Email:          prof.Email,
		AccessToken:    encAccess,
		RefreshToken:   encRefresh,
		TokenExpiry:    token.Expiry,
		Scope:          scope,
		IsActive:       true,
		LastSync:       now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := m.connections.Upsert(ctx, &conn); err != nil {
		return nil, fmt.Errorf("persist connection: %w", err)
	}

	m.recordConnected(ctx, conn)

	m.logger.Info("oauth connection established",
		zap.String("platform", conn.Platform),
		zap.String("user_id", conn.UserID),
	)

	return &CallbackResult{
		Platform:    state.Platform,
		RedirectURL: m.registry.PublicBaseURL() + "/?connected=" + url.QueryEscape(state.Platform),
		Connection:  conn,
	}, nil
}

func (m *Manager) fetchProfile(ctx context.Context, p ProviderConfig, accessToken string) profile {
	if p.UserinfoURL == "" {
		return profile{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserinfoURL, nil)
	if err != nil {
		return profile{}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		m.logger.Warn("userinfo fetch failed", zap.Error(err))
		return profile{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		m.logger.Warn("userinfo fetch failed", zap.Int("status", resp.StatusCode))
		return profile{}
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return profile{}
	}

	return profile{
		ID:    firstString(raw, "id", "sub"),
		Name:  firstString(raw, "name", "username"),
		Email: firstString(raw, "email"),
	}
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k].(string); ok && v != "" {
			return v
		}
	}

	return ""
}

func (m *Manager) recordConnected(ctx context.Context, conn models.Connection) {
	if m.activities == nil {
		return
	}

	meta, _ := json.Marshal(map[string]string{
		"platform":         conn.Platform,
		"platform_user_id": conn.PlatformUserID,
	})

	activity := models.Activity{
		ID:        uuid.New().String(),
		UserID:    conn.UserID,
		Type:      models.ActivityOAuthConnected,
		Title:     "Connected " + conn.Platform,
		Metadata:  meta,
		CreatedAt: m.now().UTC(),
	}

	if err := m.activities.Create(ctx, &activity); err != nil {
		m.logger.Warn("record connect activity", zap.Error(err))
	}
}

func exchangeError(platform string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return &TokenExchangeError{
			Platform:   platform,
			StatusCode: retrieveErr.Response.StatusCode,
			Detail:     strings.TrimSpace(string(retrieveErr.Body)),
		}
	}

	return &TokenExchangeError{Platform: platform, Detail: err.Error()}
}
