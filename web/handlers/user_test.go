package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qmarkhq/qmark/models"
)

func TestCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandlerGroup(env.deps).Dashboard

	require.NoError(t, env.users.Upsert(context.Background(), &models.User{
		ID:        "u1",
		Email:     "jane@example.com",
		FirstName: "Jane",
	}))

	t.Run("returns profile", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.CurrentUser(rec, authedRequest(http.MethodGet, "/api/user", "u1", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var user models.User
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
		assert.Equal(t, "jane@example.com", user.Email)
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.CurrentUser(rec, authedRequest(http.MethodGet, "/api/user", "ghost", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
