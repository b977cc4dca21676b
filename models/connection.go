package models

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// Supported connection platforms.
const (
	PlatformGoogle    = "google"
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
	PlatformWhatsApp  = "whatsapp"
	PlatformTelegram  = "telegram"
)

// Connection represents one user's authorization grant with an external
// platform. Token fields hold ciphertext only; plaintext tokens are never
// persisted or serialized.
type Connection struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Platform       string    `json:"platform"`
	PlatformUserID string    `json:"platform_user_id"`
	DisplayName    string    `json:"display_name"`
	Email          string    `json:"email"`
	AccessToken    string    `json:"-"` // encrypted
	RefreshToken   string    `json:"-"` // encrypted, may be empty
	TokenExpiry    time.Time `json:"token_expiry"` // zero means no expiry tracked
	Scope          string    `json:"scope"`
	IsActive       bool      `json:"is_active"`
	LastSync       time.Time `json:"last_sync"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ConnectionRepository manages connection persistence.
type ConnectionRepository interface {
	GetByID(ctx context.Context, id string) (Connection, error)
	GetByUserAndPlatform(ctx context.Context, userID, platform string) (Connection, error)
	ListByUser(ctx context.Context, userID string) ([]Connection, error)

	// Upsert inserts the connection or, when the user already has one for the
	// platform, replaces it in place keeping the original id.
	Upsert(ctx context.Context, conn *Connection) error

	// UpdateTokens persists rotated token material for an existing row. It
	// reports false when the row no longer exists, so a refresh racing a
	// delete never resurrects the record.
	UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, tokenExpiry, lastSync time.Time) (bool, error)

	Delete(ctx context.Context, id string) error
}
