// Package web assembles the HTTP API server.
package web

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/qmarkhq/qmark/oauth"
	"github.com/qmarkhq/qmark/web/handlers"
	"github.com/qmarkhq/qmark/web/middleware"
)

// NewRouter wires all routes. Public routes (status, callback) bypass
// authentication; everything else under /api requires a valid session.
func NewRouter(deps handlers.Dependencies, allowedOrigins []string) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	group := handlers.NewHandlerGroup(deps)

	r := mux.NewRouter()

	r.HandleFunc("/api/status", group.Status.Status).Methods(http.MethodGet)
	r.HandleFunc("/api/environment/check", group.Status.EnvironmentCheck).Methods(http.MethodGet)
	r.HandleFunc(oauth.CallbackPath, group.OAuth.Callback).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(deps.Sessions.Authenticate)

	api.HandleFunc("/oauth/initiate/{platform}", group.OAuth.Initiate).Methods(http.MethodGet)
	api.HandleFunc("/oauth/connections", group.OAuth.ListConnections).Methods(http.MethodGet)
	api.HandleFunc("/oauth/connections/{id}", group.OAuth.DeleteConnection).Methods(http.MethodDelete)
	api.HandleFunc("/oauth/connections/{id}/sync", group.OAuth.SyncConnection).Methods(http.MethodPost)

	api.HandleFunc("/user", group.Dashboard.CurrentUser).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/stats", group.Dashboard.Stats).Methods(http.MethodGet)
	api.HandleFunc("/activities", group.Dashboard.ListActivities).Methods(http.MethodGet)
	api.HandleFunc("/leads", group.Dashboard.ListLeads).Methods(http.MethodGet)
	api.HandleFunc("/leads", group.Dashboard.CreateLead).Methods(http.MethodPost)
	api.HandleFunc("/leads/{id}/status", group.Dashboard.UpdateLeadStatus).Methods(http.MethodPatch)
	api.HandleFunc("/automations", group.Dashboard.ListAutomations).Methods(http.MethodGet)
	api.HandleFunc("/automations", group.Dashboard.CreateAutomation).Methods(http.MethodPost)
	api.HandleFunc("/automations/{id}", group.Dashboard.UpdateAutomation).Methods(http.MethodPatch)
	api.HandleFunc("/automations/{id}/run", group.Dashboard.RunAutomation).Methods(http.MethodPost)

	return middleware.Chain(r,
		middleware.RequestLogger(deps.Logger),
		middleware.SecurityHeaders,
		middleware.CORS(allowedOrigins),
	)
}
