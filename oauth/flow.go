package oauth

import (
	"golang.org/x/oauth2"
)

// BeginAuthorization builds the provider authorization URL for a user. No
// state is persisted; everything needed to complete the flow travels in the
// signed state parameter.
func (m *Manager) BeginAuthorization(userID, platform string) (string, error) {
	p, err := m.registry.Config(platform)
	if err != nil {
		return "", err
	}

	if err := validateCredentials(platform, p); err != nil {
		return "", err
	}

	state := EncodeState(m.stateSecret, State{
		UserID:   userID,
		Platform: platform,
		IssuedAt: m.now(),
	})

	var opts []oauth2.AuthCodeOption
	if p.OfflineAccess {
		// Forced re-consent so a refresh token is issued even on repeat
		// authorizations.
		opts = append(opts, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	}

	return m.registry.oauthConfig(p).AuthCodeURL(state, opts...), nil
}
