package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qmarkhq/qmark/models"
)

func TestRegistry_Config(t *testing.T) {
	r := NewRegistry("https://app.example.com/", testProviders("https://provider.example.com"))

	p, err := r.Config(models.PlatformGoogle)
	require.NoError(t, err)
	assert.Equal(t, "client-id", p.ClientID)

	_, err = r.Config("myspace")
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestRegistry_RedirectURL(t *testing.T) {
	// Trailing slashes on the base URL must not double up.
	r := NewRegistry("https://app.example.com/", nil)
	assert.Equal(t, "https://app.example.com/api/oauth/callback", r.RedirectURL())
}

func TestDefaultProviders(t *testing.T) {
	providers := DefaultProviders(map[string]Credentials{
		models.PlatformGoogle:   {ClientID: "gid", ClientSecret: "gsecret"},
		models.PlatformFacebook: {ClientID: "123", ClientSecret: "fsecret"},
	})

	assert.Len(t, providers, 5)
	assert.Equal(t, "gid", providers[models.PlatformGoogle].ClientID)
	assert.True(t, providers[models.PlatformGoogle].OfflineAccess)
	assert.Equal(t, "123", providers[models.PlatformFacebook].ClientID)
	assert.Empty(t, providers[models.PlatformTelegram].ClientID)
}
