package oauth

import (
	"golang.org/x/oauth2/endpoints"

	"github.com/qmarkhq/qmark/models"
)

// Credentials holds the externally supplied client credentials for one
// platform. Secrets are never embedded in source.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// DefaultProviders returns the provider map for the supported platforms with
// well-known endpoints and the supplied credentials. Telegram has no standard
// OAuth deployment; it is modeled as an authorization-code provider with the
// endpoints of its login widget service so the registry stays uniform.
func DefaultProviders(creds map[string]Credentials) map[string]ProviderConfig {
	providers := map[string]ProviderConfig{
		models.PlatformGoogle: {
			AuthURL:       endpoints.Google.AuthURL,
			TokenURL:      endpoints.Google.TokenURL,
			UserinfoURL:   "https://openidconnect.googleapis.com/v1/userinfo",
			Scopes:        []string{"openid", "email", "profile"},
			OfflineAccess: true,
		},
		models.PlatformFacebook: {
			AuthURL:     endpoints.Facebook.AuthURL,
			TokenURL:    endpoints.Facebook.TokenURL,
			UserinfoURL: "https://graph.facebook.com/me?fields=id,name,email",
			Scopes:      []string{"email", "public_profile", "pages_show_list"},
		},
		models.PlatformInstagram: {
			AuthURL:     endpoints.Instagram.AuthURL,
			TokenURL:    endpoints.Instagram.TokenURL,
			UserinfoURL: "https://graph.instagram.com/me?fields=id,username",
			Scopes:      []string{"user_profile", "user_media"},
		},
		models.PlatformWhatsApp: {
			AuthURL:     endpoints.Facebook.AuthURL,
			TokenURL:    endpoints.Facebook.TokenURL,
			UserinfoURL: "https://graph.facebook.com/me?fields=id,name",
			Scopes:      []string{"whatsapp_business_management", "whatsapp_business_messaging"},
		},
		models.PlatformTelegram: {
			AuthURL:     "https://oauth.telegram.org/auth",
			TokenURL:    "https://oauth.telegram.org/access_token",
			UserinfoURL: "",
			Scopes:      []string{"bot"},
		},
	}

	for platform, c := range creds {
		p, ok := providers[platform]
		if !ok {
			continue
		}

		p.ClientID = c.ClientID
		p.ClientSecret = c.ClientSecret
		providers[platform] = p
	}

	return providers
}
