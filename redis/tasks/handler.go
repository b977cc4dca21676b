package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/qmarkhq/qmark/models"
)

// Handler processes background tasks against the repositories.
type Handler struct {
	automations models.AutomationRepository
	activities  models.ActivityRepository
	logger      *zap.Logger
}

func NewHandler(automations models.AutomationRepository, activities models.ActivityRepository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Handler{
		automations: automations,
		activities:  activities,
		logger:      logger,
	}
}

// Register attaches the handler's task types to the mux.
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeAutomationRun, h.HandleAutomationRun)
	mux.HandleFunc(TypeActivityRecord, h.HandleActivityRecord)
	mux.HandleFunc(TypeHealthCheck, func(context.Context, *asynq.Task) error { return nil })
}

func (h *Handler) HandleAutomationRun(ctx context.Context, task *asynq.Task) error {
	var p AutomationRunPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("invalid automation run payload: %w", asynq.SkipRetry)
	}

	automation, err := h.automations.GetByID(ctx, p.AutomationID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			h.logger.Warn("automation vanished before run", zap.String("automation_id", p.AutomationID))

			return nil
		}

		return err
	}

	if !automation.IsActive {
		h.logger.Debug("skipping inactive automation", zap.String("automation_id", automation.ID))

		return nil
	}

	now := time.Now().UTC()

	if err := h.automations.MarkRun(ctx, automation.ID, now); err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to mark automation run: %w", err)
	}

	activity := models.Activity{
		ID:          uuid.New().String(),
		UserID:      automation.UserID,
		Type:        models.ActivityAutomationRun,
		Title:       automation.Name,
		Description: "Automation executed",
		CreatedAt:   now,
	}

	if err := h.activities.Create(ctx, &activity); err != nil {
		h.logger.Warn("failed to record automation run activity", zap.Error(err))
	}

	h.logger.Info("automation run completed",
		zap.String("automation_id", automation.ID),
		zap.String("user_id", automation.UserID),
	)

	return nil
}

func (h *Handler) HandleActivityRecord(ctx context.Context, task *asynq.Task) error {
	var p ActivityRecordPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("invalid activity record payload: %w", asynq.SkipRetry)
	}

	activity := models.Activity{
		ID:          uuid.New().String(),
		UserID:      p.UserID,
		Type:        p.Type,
		Title:       p.Title,
		Description: p.Description,
		Metadata:    p.Metadata,
		CreatedAt:   time.Now().UTC(),
	}

	return h.activities.Create(ctx, &activity)
}
