// Package tasks defines the background task types processed by the worker.
package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task types
const (
	TypeAutomationRun  = "automation:run"
	TypeActivityRecord = "activity:record"
	TypeHealthCheck    = "health:check"
)

// AutomationRunPayload triggers a single run of a user's automation.
type AutomationRunPayload struct {
	AutomationID string `json:"automation_id"`
	UserID       string `json:"user_id"`
}

// ActivityRecordPayload appends an entry to a user's activity feed.
type ActivityRecordPayload struct {
	UserID      string          `json:"user_id"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

func NewAutomationRunTask(p AutomationRunPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal automation run payload: %w", err)
	}

	return asynq.NewTask(TypeAutomationRun, payload), nil
}

func NewActivityRecordTask(p ActivityRecordPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal activity record payload: %w", err)
	}

	return asynq.NewTask(TypeActivityRecord, payload), nil
}
