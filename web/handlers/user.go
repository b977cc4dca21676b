package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/qmarkhq/qmark/models"
	"github.com/qmarkhq/qmark/web/auth"
)

// CurrentUser returns the authenticated user's profile.
func (h *DashboardHandlers) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		renderError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	user, err := h.Deps.Users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			renderError(w, http.StatusNotFound, "User not found")
			return
		}

		h.Deps.Logger.Error("failed to load user", zap.Error(err))
		renderError(w, http.StatusInternalServerError, "Failed to load user")

		return
	}

	renderJSON(w, http.StatusOK, user)
}
