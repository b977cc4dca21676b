package oauth

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qmarkhq/qmark/models"
	"github.com/qmarkhq/qmark/pkg/encryption"
)

// memConnRepo is an in-memory ConnectionRepository for tests.
type memConnRepo struct {
	mu    sync.Mutex
	conns map[string]models.Connection
}

func newMemConnRepo() *memConnRepo {
	return &memConnRepo{conns: make(map[string]models.Connection)}
}

func (r *memConnRepo) GetByID(_ context.Context, id string) (models.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[id]
	if !ok {
		return models.Connection{}, models.ErrNotFound
	}

	return conn, nil
}

func (r *memConnRepo) GetByUserAndPlatform(_ context.Context, userID, platform string) (models.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, conn := range r.conns {
		if conn.UserID == userID && conn.Platform == platform {
			return conn, nil
		}
	}

	return models.Connection{}, models.ErrNotFound
}

func (r *memConnRepo) ListByUser(_ context.Context, userID string) ([]models.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Connection
	for _, conn := range r.conns {
		if conn.UserID == userID {
			out = append(out, conn)
		}
	}

	return out, nil
}

func (r *memConnRepo) Upsert(_ context.Context, conn *models.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, existing := range r.conns {
		if existing.UserID == conn.UserID && existing.Platform == conn.Platform {
			conn.ID = id
			conn.CreatedAt = existing.CreatedAt
			r.conns[id] = *conn

			return nil
		}
	}

	r.conns[conn.ID] = *conn

	return nil
}

func (r *memConnRepo) UpdateTokens(_ context.Context, id, accessToken, refreshToken string, tokenExpiry, lastSync time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[id]
	if !ok {
		return false, nil
	}

	conn.AccessToken = accessToken
	conn.RefreshToken = refreshToken
	conn.TokenExpiry = tokenExpiry
	conn.LastSync = lastSync
	conn.UpdatedAt = lastSync
	r.conns[id] = conn

	return true, nil
}

func (r *memConnRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[id]; !ok {
		return models.ErrNotFound
	}

	delete(r.conns, id)

	return nil
}

// memActivityRepo is an in-memory ActivityRepository for tests.
type memActivityRepo struct {
	mu    sync.Mutex
	items []models.Activity
}

func (r *memActivityRepo) ListByUser(_ context.Context, userID string, _ int) ([]models.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Activity
	for _, a := range r.items {
		if a.UserID == userID {
			out = append(out, a)
		}
	}

	return out, nil
}

func (r *memActivityRepo) Create(_ context.Context, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, *activity)

	return nil
}

func testCipher(t *testing.T) *encryption.Cipher {
	t.Helper()

	key := make([]byte, encryption.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)

	c, err := encryption.New(key)
	require.NoError(t, err)

	return c
}

// testProviders returns a provider map whose endpoints point at base (usually
// an httptest server).
func testProviders(base string) map[string]ProviderConfig {
	return map[string]ProviderConfig{
		models.PlatformGoogle: {
			ClientID:      "client-id",
			ClientSecret:  "client-secret",
			AuthURL:       base + "/auth",
			TokenURL:      base + "/token",
			UserinfoURL:   base + "/userinfo",
			Scopes:        []string{"openid", "email", "profile"},
			OfflineAccess: true,
		},
		models.PlatformFacebook: {
			ClientID:     "123456789",
			ClientSecret: "fb-secret",
			AuthURL:      base + "/auth",
			TokenURL:     base + "/token",
			UserinfoURL:  base + "/userinfo",
			Scopes:       []string{"email", "public_profile"},
		},
	}
}

func newTestManager(t *testing.T, base string, mutate func(*Config)) (*Manager, *memConnRepo, *memActivityRepo) {
	t.Helper()

	conns := newMemConnRepo()
	activities := &memActivityRepo{}

	cfg := Config{
		Registry:    NewRegistry("https://app.example.com", testProviders(base)),
		Cipher:      testCipher(t),
		Connections: conns,
		Activities:  activities,
		StateSecret: []byte("test-state-secret"),
	}

	if mutate != nil {
		mutate(&cfg)
	}

	m, err := NewManager(cfg)
	require.NoError(t, err)

	return m, conns, activities
}

func seedConnection(t *testing.T, m *Manager, conns *memConnRepo, conn models.Connection, accessToken, refreshToken string) models.Connection {
	t.Helper()

	var err error
	if accessToken != "" {
		conn.AccessToken, err = m.cipher.Encrypt(accessToken)
		require.NoError(t, err)
	}

	if refreshToken != "" {
		conn.RefreshToken, err = m.cipher.Encrypt(refreshToken)
		require.NoError(t, err)
	}

	if conn.ID == "" {
		conn.ID = fmt.Sprintf("conn-%d", len(conns.conns)+1)
	}

	conns.mu.Lock()
	conns.conns[conn.ID] = conn
	conns.mu.Unlock()

	return conn
}
