package oauth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/qmarkhq/qmark/models"
	"github.com/qmarkhq/qmark/pkg/encryption"
)

const (
	defaultStateMaxAge    = 10 * time.Minute
	defaultRequestTimeout = 15 * time.Second
)

// Config collects the dependencies for a Manager.
type Config struct {
	Registry    *Registry
	Cipher      *encryption.Cipher
	Connections models.ConnectionRepository
	Activities  models.ActivityRepository
	Lease       Lease
	StateSecret []byte

	// StateMaxAge bounds how long an issued state remains valid. Zero uses a
	// 10 minute default.
	StateMaxAge time.Duration

	// HTTPClient is used for all provider calls. Its timeout bounds hanging
	// token endpoints. Nil uses a 15s-timeout client.
	HTTPClient *http.Client

	Logger *zap.Logger

	// Now is overridable for tests.
	Now func() time.Time
}

// Manager drives the OAuth connection lifecycle.
type Manager struct {
	registry    *Registry
	cipher      *encryption.Cipher
	connections models.ConnectionRepository
	activities  models.ActivityRepository
	lease       Lease
	stateSecret []byte
	stateMaxAge time.Duration
	httpClient  *http.Client
	logger      *zap.Logger
	now         func() time.Time

	refreshGroup singleflight.Group
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Registry == nil {
		return nil, errors.New("oauth: registry is required")
	}

	if cfg.Cipher == nil {
		return nil, errors.New("oauth: cipher is required")
	}

	if cfg.Connections == nil {
		return nil, errors.New("oauth: connection repository is required")
	}

	if len(cfg.StateSecret) == 0 {
		return nil, errors.New("oauth: state secret is required")
	}

	m := &Manager{
		registry:    cfg.Registry,
		cipher:      cfg.Cipher,
		connections: cfg.Connections,
		activities:  cfg.Activities,
		lease:       cfg.Lease,
		stateSecret: cfg.StateSecret,
		stateMaxAge: cfg.StateMaxAge,
		httpClient:  cfg.HTTPClient,
		logger:      cfg.Logger,
		now:         cfg.Now,
	}

	if m.lease == nil {
		m.lease = NewLocalLease()
	}

	if m.stateMaxAge <= 0 {
		m.stateMaxAge = defaultStateMaxAge
	}

	if m.httpClient == nil {
		m.httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}

	if m.logger == nil {
		m.logger = zap.NewNop()
	}

	if m.now == nil {
		m.now = time.Now
	}

	return m, nil
}

// PublicBaseURL returns the dashboard origin callbacks redirect back to.
func (m *Manager) PublicBaseURL() string {
	return m.registry.PublicBaseURL()
}

// httpContext routes all x/oauth2 calls through the manager's HTTP client.
func (m *Manager) httpContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}
