// Package oauth implements the connection lifecycle for external platforms:
// authorization flows, code exchange, encrypted token storage, and transparent
// refresh.
package oauth

import (
	"fmt"
	"strings"

	"golang.org/x/oauth2"

	"github.com/qmarkhq/qmark/models"
)

// CallbackPath is the single callback endpoint shared by all providers.
// Flows are disambiguated by the state parameter.
const CallbackPath = "/api/oauth/callback"

// ProviderConfig describes one platform's OAuth endpoints and credentials.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserinfoURL  string
	Scopes       []string

	// OfflineAccess requests a refresh token via access_type=offline plus
	// forced re-consent, so one is issued even on repeat authorizations.
	OfflineAccess bool
}

// Registry maps platform identifiers to provider configurations. It is built
// once at startup from configuration and injected wherever needed.
type Registry struct {
	publicBaseURL string
	providers     map[string]ProviderConfig
}

func NewRegistry(publicBaseURL string, providers map[string]ProviderConfig) *Registry {
	return &Registry{
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		providers:     providers,
	}
}

// Config returns the provider entry for platform.
func (r *Registry) Config(platform string) (ProviderConfig, error) {
	p, ok := r.providers[platform]
	if !ok {
		return ProviderConfig{}, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, platform)
	}

	return p, nil
}

// PublicBaseURL returns the externally visible application root.
func (r *Registry) PublicBaseURL() string { return r.publicBaseURL }

// RedirectURL returns the callback URL registered with every provider.
func (r *Registry) RedirectURL() string { return r.publicBaseURL + CallbackPath }

func (r *Registry) oauthConfig(p ProviderConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURL:  r.RedirectURL(),
		Scopes:       p.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.AuthURL,
			TokenURL:  p.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// facebookFamily reports whether the platform uses Meta app credentials,
// which carry numeric app ids.
func facebookFamily(platform string) bool {
	switch platform {
	case models.PlatformFacebook, models.PlatformInstagram, models.PlatformWhatsApp:
		return true
	}

	return false
}

// validateCredentials checks that a platform's client credentials are usable.
// Called lazily at first use of the platform, not at startup.
func validateCredentials(platform string, p ProviderConfig) error {
	if p.ClientID == "" || p.ClientSecret == "" {
		return fmt.Errorf("%w: missing client credentials for %s", ErrMisconfiguredProvider, platform)
	}

	if facebookFamily(platform) {
		for _, c := range p.ClientID {
			if c < '0' || c > '9' {
				return fmt.Errorf("%w: %s app id must be numeric", ErrMisconfiguredProvider, platform)
			}
		}
	}

	return nil
}
