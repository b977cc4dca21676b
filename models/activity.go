package models

import (
	"context"
	"encoding/json"
	"time"
)

// Activity types emitted into the dashboard feed.
const (
	ActivityOAuthConnected    = "oauth_connected"
	ActivityOAuthDisconnected = "oauth_disconnected"
	ActivityLeadCaptured      = "lead_captured"
	ActivityAutomationRun     = "automation_run"
)

// Activity is an append-only audit record shown in the dashboard feed.
type Activity struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ActivityRepository manages activity feed operations
type ActivityRepository interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]Activity, error)
	Create(ctx context.Context, activity *Activity) error
}
