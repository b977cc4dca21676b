package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/qmarkhq/qmark/models"
	"github.com/qmarkhq/qmark/oauth"
	"github.com/qmarkhq/qmark/web/auth"
)

// Initiate starts the authorization flow for a platform and returns the
// provider URL for the frontend to redirect to.
func (h *OAuthHandlers) Initiate(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		renderError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	platform := mux.Vars(r)["platform"]

	authURL, err := h.Deps.OAuth.BeginAuthorization(userID, platform)
	if err != nil {
		switch {
		case errors.Is(err, oauth.ErrUnsupportedPlatform):
			renderError(w, http.StatusBadRequest, "Unsupported platform: "+platform)
		case errors.Is(err, oauth.ErrMisconfiguredProvider):
			renderError(w, http.StatusBadRequest, "OAuth is not configured for "+platform)
		default:
			h.Deps.Logger.Error("failed to begin authorization", zap.String("platform", platform), zap.Error(err))
			renderError(w, http.StatusInternalServerError, "Failed to initiate OAuth flow")
		}

		return
	}

	renderJSON(w, http.StatusOK, models.InitiateResponse{AuthURL: authURL})
}

// Callback completes the authorization flow. The provider redirects the
// browser here, so errors render a redirect back to the dashboard with an
// error marker rather than a JSON body.
func (h *OAuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	result, err := h.Deps.OAuth.HandleCallback(r.Context(), r.URL.Query())
	if err != nil {
		h.Deps.Logger.Warn("oauth callback failed", zap.Error(err))

		base := h.Deps.OAuth.PublicBaseURL()

		switch {
		case errors.Is(err, oauth.ErrProviderDenied):
			http.Redirect(w, r, base+"/?error=access_denied", http.StatusFound)
		case errors.Is(err, oauth.ErrInvalidCallback), errors.Is(err, oauth.ErrUnsupportedPlatform):
			renderError(w, http.StatusBadRequest, "Invalid OAuth callback")
		default:
			http.Redirect(w, r, base+"/?error=connection_failed", http.StatusFound)
		}

		return
	}

	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}

// ListConnections returns the caller's connections with token material
// stripped (the json tags on models.Connection omit them).
func (h *OAuthHandlers) ListConnections(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		renderError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	conns, err := h.Deps.Connections.ListByUser(r.Context(), userID)
	if err != nil {
		h.Deps.Logger.Error("failed to list connections", zap.Error(err))
		renderError(w, http.StatusInternalServerError, "Failed to list connections")

		return
	}

	if conns == nil {
		conns = []models.Connection{}
	}

	renderJSON(w, http.StatusOK, conns)
}

// DeleteConnection removes a connection owned by the caller.
func (h *OAuthHandlers) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		renderError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	id := mux.Vars(r)["id"]

	conn, err := h.Deps.Connections.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			renderError(w, http.StatusNotFound, "Connection not found")
			return
		}

		h.Deps.Logger.Error("failed to load connection", zap.Error(err))
		renderError(w, http.StatusInternalServerError, "Failed to delete connection")

		return
	}

	// Ownership mismatch reads the same as a missing row.
	if conn.UserID != userID {
		renderError(w, http.StatusNotFound, "Connection not found")
		return
	}

	if err := h.Deps.Connections.Delete(r.Context(), id); err != nil && !errors.Is(err, models.ErrNotFound) {
		h.Deps.Logger.Error("failed to delete connection", zap.Error(err))
		renderError(w, http.StatusInternalServerError, "Failed to delete connection")

		return
	}

	h.recordDisconnected(r, conn)

	renderJSON(w, http.StatusOK, map[string]any{"message": "Connection removed", "id": id})
}

// SyncConnection forces a token check for a connection, refreshing it when
// expired, and bumps last_sync. It is how the dashboard surfaces a broken
// grant before the next background sync would.
func (h *OAuthHandlers) SyncConnection(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		renderError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	id := mux.Vars(r)["id"]

	conn, err := h.Deps.Connections.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			renderError(w, http.StatusNotFound, "Connection not found")
			return
		}

		h.Deps.Logger.Error("failed to load connection", zap.Error(err))
		renderError(w, http.StatusInternalServerError, "Failed to sync connection")

		return
	}

	if conn.UserID != userID {
		renderError(w, http.StatusNotFound, "Connection not found")
		return
	}

	if _, err := h.Deps.OAuth.AccessToken(r.Context(), id); err != nil {
		var exchangeErr *oauth.TokenExchangeError

		switch {
		case errors.Is(err, models.ErrNotFound):
			renderError(w, http.StatusNotFound, "Connection not found")
		case errors.Is(err, oauth.ErrUnrecoverable),
			errors.Is(err, oauth.ErrConnectionInactive),
			errors.Is(err, oauth.ErrNoCredential):
			renderJSON(w, http.StatusConflict, map[string]any{
				"code":               http.StatusConflict,
				"message":            "Connection must be re-authorized",
				"reconnect_required": true,
			})
		case errors.Is(err, oauth.ErrRefreshFailed), errors.As(err, &exchangeErr):
			renderError(w, http.StatusBadGateway, "Platform rejected the token refresh")
		default:
			h.Deps.Logger.Error("failed to sync connection", zap.Error(err))
			renderError(w, http.StatusInternalServerError, "Failed to sync connection")
		}

		return
	}

	renderJSON(w, http.StatusOK, map[string]any{"message": "Connection healthy", "id": id})
}

func (h *OAuthHandlers) recordDisconnected(r *http.Request, conn models.Connection) {
	activity := models.Activity{
		ID:        newID(),
		UserID:    conn.UserID,
		Type:      models.ActivityOAuthDisconnected,
		Title:     "Disconnected " + conn.Platform,
		CreatedAt: timeNowUTC(),
	}

	if err := h.Deps.Activities.Create(r.Context(), &activity); err != nil {
		h.Deps.Logger.Warn("failed to record disconnect activity", zap.Error(err))
	}
}
