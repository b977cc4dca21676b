package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/qmarkhq/qmark/models"
)

// requiredEnvVars are checked by the environment endpoint. Only presence is
// reported, never values.
var requiredEnvVars = []string{
	"ENCRYPTION_KEY",
	"SESSION_SECRET",
	"DATABASE_URL",
	"GOOGLE_CLIENT_SECRET",
	"FACEBOOK_CLIENT_SECRET",
}

func (h *StatusHandlers) Status(w http.ResponseWriter, _ *http.Request) {
	renderJSON(w, http.StatusOK, models.StatusResponse{
		Status:      "operational",
		Uptime:      time.Since(h.Deps.StartedAt).Seconds(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Environment: h.Deps.Environment,
	})
}

func (h *StatusHandlers) EnvironmentCheck(w http.ResponseWriter, _ *http.Request) {
	var missing []string

	for _, name := range requiredEnvVars {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}

	if missing == nil {
		missing = []string{}
	}

	renderJSON(w, http.StatusOK, models.EnvCheckResponse{
		Configured:       len(missing) == 0,
		MissingVariables: missing,
		TotalRequired:    len(requiredEnvVars),
		TotalConfigured:  len(requiredEnvVars) - len(missing),
	})
}
