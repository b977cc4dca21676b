package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qmarkhq/qmark/models"
)

func testDB(t *testing.T) *ConnectionRepository {
	t.Helper()

	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("Skipping postgres repository test: PG_TEST_DSN not set")
	}

	db, err := Open(context.Background(), dsn)
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	users := NewUserRepository(db)
	err = users.Upsert(context.Background(), &models.User{
		ID:        "test-user",
		Email:     "test-user@example.com",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	return NewConnectionRepository(db)
}

func testConnection(userID string) models.Connection {
	now := time.Now().UTC().Truncate(time.Millisecond)

	return models.Connection{
		ID:           uuid.New().String(),
		UserID:       userID,
		Platform:     models.PlatformGoogle,
		AccessToken:  "ciphertext-a",
		RefreshToken: "ciphertext-r",
		TokenExpiry:  now.Add(time.Hour),
		Scope:        "openid email",
		IsActive:     true,
		LastSync:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestConnectionRepository(t *testing.T) {
	repo := testDB(t)
	ctx := context.Background()

	conn := testConnection("test-user")
	t.Cleanup(func() { _ = repo.Delete(ctx, conn.ID) })

	t.Run("Upsert inserts", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, &conn))
	})

	t.Run("GetByID", func(t *testing.T) {
		got, err := repo.GetByID(ctx, conn.ID)
		require.NoError(t, err)
		assert.Equal(t, conn.UserID, got.UserID)
		assert.Equal(t, "ciphertext-a", got.AccessToken)
		assert.WithinDuration(t, conn.TokenExpiry, got.TokenExpiry, time.Second)
	})

	t.Run("Upsert replaces keeping id", func(t *testing.T) {
		replacement := testConnection("test-user")
		replacement.AccessToken = "ciphertext-b"

		require.NoError(t, repo.Upsert(ctx, &replacement))
		assert.Equal(t, conn.ID, replacement.ID, "conflicting upsert keeps the original id")

		all, err := repo.ListByUser(ctx, "test-user")
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "ciphertext-b", all[0].AccessToken)
	})

	t.Run("UpdateTokens", func(t *testing.T) {
		now := time.Now().UTC()

		ok, err := repo.UpdateTokens(ctx, conn.ID, "ciphertext-c", "ciphertext-r2", now.Add(time.Hour), now)
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := repo.GetByID(ctx, conn.ID)
		require.NoError(t, err)
		assert.Equal(t, "ciphertext-c", got.AccessToken)
		assert.Equal(t, "ciphertext-r2", got.RefreshToken)
	})

	t.Run("UpdateTokens on missing row reports false", func(t *testing.T) {
		ok, err := repo.UpdateTokens(ctx, uuid.New().String(), "x", "y", time.Time{}, time.Now().UTC())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("zero expiry round-trips as zero", func(t *testing.T) {
		ok, err := repo.UpdateTokens(ctx, conn.ID, "ciphertext-d", "", time.Time{}, time.Now().UTC())
		require.NoError(t, err)
		require.True(t, ok)

		got, err := repo.GetByID(ctx, conn.ID)
		require.NoError(t, err)
		assert.True(t, got.TokenExpiry.IsZero())
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, conn.ID))

		_, err := repo.GetByID(ctx, conn.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)

		assert.ErrorIs(t, repo.Delete(ctx, conn.ID), models.ErrNotFound)
	})
}
