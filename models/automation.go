package models

import (
	"context"
	"encoding/json"
	"time"
)

// Automation is a user-configured marketing automation.
type Automation struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Config      json.RawMessage `json:"config,omitempty"`
	IsActive    bool            `json:"is_active"`
	LastRun     time.Time       `json:"last_run"`
	RunCount    int             `json:"run_count"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AutomationRepository manages automation operations
type AutomationRepository interface {
	ListByUser(ctx context.Context, userID string) ([]Automation, error)
	GetByID(ctx context.Context, id string) (Automation, error)
	Create(ctx context.Context, automation *Automation) error
	Update(ctx context.Context, automation *Automation) error

	// MarkRun stamps last_run and increments run_count.
	MarkRun(ctx context.Context, id string, at time.Time) error
}
