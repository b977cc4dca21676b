// Package handlers contains the HTTP handlers for the dashboard API.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qmarkhq/qmark/models"
	"github.com/qmarkhq/qmark/oauth"
	"github.com/qmarkhq/qmark/redis"
	"github.com/qmarkhq/qmark/web/auth"
)

// Dependencies aggregates shared services used by handlers.
type Dependencies struct {
	Logger      *zap.Logger
	OAuth       *oauth.Manager
	Sessions    *auth.Sessions
	Users       models.UserRepository
	Connections models.ConnectionRepository
	Leads       models.LeadRepository
	Automations models.AutomationRepository
	Activities  models.ActivityRepository
	Metrics     models.MetricRepository
	Tasks       *redis.Client
	Environment string
	StartedAt   time.Time
}

// HandlerGroup groups all handler categories for routing setup.
type HandlerGroup struct {
	OAuth     *OAuthHandlers
	Dashboard *DashboardHandlers
	Status    *StatusHandlers
}

// NewHandlerGroup constructs a HandlerGroup with initialized handlers.
func NewHandlerGroup(deps Dependencies) *HandlerGroup {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	if deps.StartedAt.IsZero() {
		deps.StartedAt = time.Now()
	}

	return &HandlerGroup{
		OAuth:     &OAuthHandlers{Deps: deps},
		Dashboard: &DashboardHandlers{Deps: deps},
		Status:    &StatusHandlers{Deps: deps},
	}
}

// OAuthHandlers contains routes for the connection lifecycle.
type OAuthHandlers struct{ Deps Dependencies }

// DashboardHandlers contains routes for leads, automations, activities, and stats.
type DashboardHandlers struct{ Deps Dependencies }

// StatusHandlers contains public health and environment endpoints.
type StatusHandlers struct{ Deps Dependencies }

func renderJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

func renderError(w http.ResponseWriter, code int, message string) {
	renderJSON(w, code, models.APIError{Code: code, Message: message})
}

func newID() string { return uuid.New().String() }

func timeNowUTC() time.Time { return time.Now().UTC() }
