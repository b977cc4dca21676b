package handlers

import (
	"context"
	"crypto/rand"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/qmarkhq/qmark/models"
	"github.com/qmarkhq/qmark/oauth"
	"github.com/qmarkhq/qmark/pkg/encryption"
	"github.com/qmarkhq/qmark/web/auth"
)

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

func (r *memActivityRepo) Create(_ context.Context, a *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, *a)

	return nil
}

type memLeadRepo struct {
	mu    sync.Mutex
	items map[string]models.Lead
}

func newMemLeadRepo() *memLeadRepo { return &memLeadRepo{items: map[string]models.Lead{}} }

func (r *memLeadRepo) ListByUser(_ context.Context, userID string, limit int) ([]models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Lead
	for _, l := range r.items {
		if l.UserID == userID {
			out = append(out, l)
		}
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (r *memLeadRepo) Create(_ context.Context, lead *models.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[lead.ID] = *lead

	return nil
}

func (r *memLeadRepo) UpdateStatus(_ context.Context, id, userID, status string) (models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.items[id]
	if !ok || l.UserID != userID {
		return models.Lead{}, models.ErrNotFound
	}

	l.Status = status
	r.items[id] = l

	return l, nil
}

type memAutomationRepo struct {
	mu    sync.Mutex
	items map[string]models.Automation
}

func newMemAutomationRepo() *memAutomationRepo {
	return &memAutomationRepo{items: map[string]models.Automation{}}
}

func (r *memAutomationRepo) ListByUser(_ context.Context, userID string) ([]models.Automation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Automation
	for _, a := range r.items {
		if a.UserID == userID {
			out = append(out, a)
		}
	}

	return out, nil
}

func (r *memAutomationRepo) GetByID(_ context.Context, id string) (models.Automation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]
	if !ok {
		return models.Automation{}, models.ErrNotFound
	}

	return a, nil
}

func (r *memAutomationRepo) Create(_ context.Context, a *models.Automation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[a.ID] = *a

	return nil
}

func (r *memAutomationRepo) Update(_ context.Context, a *models.Automation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[a.ID]; !ok {
		return models.ErrNotFound
	}

	r.items[a.ID] = *a

	return nil
}

func (r *memAutomationRepo) MarkRun(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]
	if !ok {
		return models.ErrNotFound
	}

	a.LastRun = at
	a.RunCount++
	r.items[id] = a

	return nil
}

type memUserRepo struct {
	mu    sync.Mutex
	items map[string]models.User
}

func newMemUserRepo() *memUserRepo { return &memUserRepo{items: map[string]models.User{}} }

func (r *memUserRepo) GetByID(_ context.Context, id string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return models.User{}, models.ErrNotFound
	}

	return u, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.items {
		if u.Email == email {
			return u, nil
		}
	}

	return models.User{}, models.ErrNotFound
}

func (r *memUserRepo) Upsert(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[u.ID] = *u

	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, id)

	return nil
}

type stubMetricRepo struct {
	stats models.DashboardStats
}

func (r *stubMetricRepo) ListByUser(context.Context, string, time.Time) ([]models.Metric, error) {
	return nil, nil
}

func (r *stubMetricRepo) Upsert(context.Context, *models.Metric) error { return nil }

func (r *stubMetricRepo) DashboardStats(context.Context, string) (models.DashboardStats, error) {
	return r.stats, nil
}

type testEnv struct {
	deps        Dependencies
	cipher      *encryption.Cipher
	conns       *memConnRepo
	activities  *memActivityRepo
	leads       *memLeadRepo
	automations *memAutomationRepo
	users       *memUserRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	key := make([]byte, encryption.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)

	cipher, err := encryption.New(key)
	require.NoError(t, err)

	conns := newMemConnRepo()
	activities := &memActivityRepo{}

	manager, err := oauth.NewManager(oauth.Config{
		Registry: oauth.NewRegistry("https://app.example.com", map[string]oauth.ProviderConfig{
			models.PlatformGoogle: {
				ClientID:      "client-id",
				ClientSecret:  "client-secret",
				AuthURL:       "https://provider.example.com/auth",
				TokenURL:      "https://provider.example.com/token",
				Scopes:        []string{"openid", "email"},
				OfflineAccess: true,
			},
		}),
		Cipher:      cipher,
		Connections: conns,
		Activities:  activities,
		StateSecret: []byte("state-secret"),
	})
	require.NoError(t, err)

	leads := newMemLeadRepo()
	automations := newMemAutomationRepo()
	users := newMemUserRepo()

	return &testEnv{
		deps: Dependencies{
			OAuth:       manager,
			Sessions:    auth.NewSessions([]byte("session-secret"), time.Hour),
			Users:       users,
			Connections: conns,
			Leads:       leads,
			Automations: automations,
			Activities:  activities,
			Metrics:     &stubMetricRepo{stats: models.DashboardStats{TotalLeads: 3, TotalRevenue: "120.00"}},
			Environment: "test",
			StartedAt:   time.Now(),
		},
		cipher:      cipher,
		conns:       conns,
		activities:  activities,
		leads:       leads,
		automations: automations,
		users:       users,
	}
}

// authedRequest builds a request whose context carries the user, as the auth
// middleware would.
func authedRequest(method, target, userID string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)

	return req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, userID))
}

func withVars(r *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(r, vars)
}
