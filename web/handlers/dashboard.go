package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/qmarkhq/qmark/models"
	"github.com/qmarkhq/qmark/redis/tasks"
	"github.com/qmarkhq/qmark/web/auth"
)

const defaultFeedLimit = 20

func listLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultFeedLimit
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 200 {
		return defaultFeedLimit
	}

	return limit
}

func (h *DashboardHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		renderError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	stats, err := h.Deps.Metrics.DashboardStats(r.Context(), userID)
	if err != nil {
		h.Deps.Logger.Error("failed to load dashboard stats", zap.Error(err))
		renderError(w, http.StatusInternalServerError, "Failed to load stats")

		return
	}

	renderJSON(w, http.StatusOK, stats)
}

func (h *DashboardHandlers) ListActivities(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		renderError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	activities, err := h.Deps.Activities.ListByUser(r.Context(), userID, listLimit(r))
	if err != nil {
		h.Deps.Logger.Error("failed to list activities", zap.Error(err))
		renderError(w, http.StatusInternalServerError, "Failed to list activities")

		return
	}

	if activities == nil {
		activities = []models.Activity{}
	}

	renderJSON(w, http.StatusOK, activities)
}

func (h *DashboardHandlers) ListLeads(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		renderError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	leads, err := h.Deps.Leads.ListByUser(r.Context(), userID, listLimit(r))
	if err != nil {
		h.Deps.Logger.Error("failed to list leads", zap.Error(err))
		renderError(w, http.StatusInternalServerError, "Failed to list leads")

		return
	}

	if leads == nil {
		leads = []models.Lead{}
	}

	renderJSON(w, http.StatusOK, leads)
}

type createLeadRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Source string `json:"source"`
	Notes  string `json:"notes"`
}

func (h *DashboardHandlers) CreateLead(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		renderError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req createLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	if req.Name == "" && req.Email == "" {
		renderError(w, http.StatusUnprocessableEntity, "A lead needs at least a name or an email")
		return
	}

	now := timeNowUTC()
	lead := models.Lead{
		ID:        newID(),
		UserID:    userID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Source:    req.Source,
		Status:    models.LeadStatusNew,
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Deps.Leads.Create(r.Context(), &lead); err != nil {
		h.Deps.Logger.Error("failed to create lead", zap.Error(err))
		renderError(w, http.StatusInternalServerError, "Failed to create lead")

		return
	}

	h.enqueueActivity(r, tasks.ActivityRecordPayload{
		UserID: userID,
		Type:   models.ActivityLeadCaptured,
		Title:  "New lead captured",
	})

	renderJSON(w, http.StatusCreated, lead)
}

type updateLeadStatusRequest struct {
	Status string `json:"status"`
}

func (h *DashboardHandlers) UpdateLeadStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		renderError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req updateLeadStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	if !models.ValidLeadStatus(req.Status) {
		renderError(w, http.StatusUnprocessableEntity, "Unknown lead status: "+req.Status)
		return
	}

	lead, err := h.Deps.Leads.UpdateStatus(r.Context(), mux.Vars(r)["id"], userID, req.Status)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			renderError(w, http.StatusNotFound, "Lead not found")
			return
		}

		h.Deps.Logger.Error("failed to update lead status", zap.Error(err))
		renderError(w, http.StatusInternalServerError, "Failed to update lead")

		return
	}

	renderJSON(w, http.StatusOK, lead)
}

func (h *DashboardHandlers) ListAutomations(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		renderError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	automations, err := h.Deps.Automations.ListByUser(r.Context(), userID)
	if err != nil {
		h.Deps.Logger.Error("failed to list automations", zap.Error(err))
		renderError(w, http.StatusInternalServerError, "Failed to list automations")

		return
	}

	if automations == nil {
		automations = []models.Automation{}
	}

	renderJSON(w, http.StatusOK, automations)
}

type createAutomationRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Config      json.RawMessage `json:"config"`
}

func (h *DashboardHandlers) CreateAutomation(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		renderError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req createAutomationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	if req.Name == "" {
		renderError(w, http.StatusUnprocessableEntity, "Automation name is required")
		return
	}

	now := timeNowUTC()
	automation := models.Automation{
		ID:          newID(),
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		Config:      req.Config,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Deps.Automations.Create(r.Context(), &automation); err != nil {
		h.Deps.Logger.Error("failed to create automation", zap.Error(err))
		renderError(w, http.StatusInternalServerError, "Failed to create automation")

		return
	}

	renderJSON(w, http.StatusCreated, automation)
}

type updateAutomationRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Type        *string         `json:"type"`
	Config      json.RawMessage `json:"config"`
	IsActive    *bool           `json:"is_active"`
}

func (h *DashboardHandlers) UpdateAutomation(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		renderError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	automation, ok := h.ownedAutomation(w, r, userID)
	if !ok {
		return
	}

	var req updateAutomationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	if req.Name != nil {
		automation.Name = *req.Name
	}

	if req.Description != nil {
		automation.Description = *req.Description
	}

	if req.Type != nil {
		automation.Type = *req.Type
	}

	if req.Config != nil {
		automation.Config = req.Config
	}

	if req.IsActive != nil {
		automation.IsActive = *req.IsActive
	}

	if err := h.Deps.Automations.Update(r.Context(), &automation); err != nil {
		h.Deps.Logger.Error("failed to update automation", zap.Error(err))
		renderError(w, http.StatusInternalServerError, "Failed to update automation")

		return
	}

	renderJSON(w, http.StatusOK, automation)
}

func (h *DashboardHandlers) RunAutomation(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		renderError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	automation, ok := h.ownedAutomation(w, r, userID)
	if !ok {
		return
	}

	if h.Deps.Tasks == nil {
		renderError(w, http.StatusServiceUnavailable, "Background processing is not configured")
		return
	}

	task, err := tasks.NewAutomationRunTask(tasks.AutomationRunPayload{
		AutomationID: automation.ID,
		UserID:       userID,
	})
	if err != nil {
		h.Deps.Logger.Error("failed to build automation run task", zap.Error(err))
		renderError(w, http.StatusInternalServerError, "Failed to enqueue run")

		return
	}

	if err := h.Deps.Tasks.Enqueue(r.Context(), task); err != nil {
		h.Deps.Logger.Error("failed to enqueue automation run", zap.Error(err))
		renderError(w, http.StatusInternalServerError, "Failed to enqueue run")

		return
	}

	renderJSON(w, http.StatusAccepted, map[string]any{"message": "Run queued", "id": automation.ID})
}

func (h *DashboardHandlers) ownedAutomation(w http.ResponseWriter, r *http.Request, userID string) (models.Automation, bool) {
	automation, err := h.Deps.Automations.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			renderError(w, http.StatusNotFound, "Automation not found")
			return models.Automation{}, false
		}

		h.Deps.Logger.Error("failed to load automation", zap.Error(err))
		renderError(w, http.StatusInternalServerError, "Failed to load automation")

		return models.Automation{}, false
	}

	if automation.UserID != userID {
		renderError(w, http.StatusNotFound, "Automation not found")
		return models.Automation{}, false
	}

	return automation, true
}

// enqueueActivity records the activity in the background when a task client is
// configured, falling back to a direct write.
func (h *DashboardHandlers) enqueueActivity(r *http.Request, p tasks.ActivityRecordPayload) {
	if h.Deps.Tasks != nil {
		if task, err := tasks.NewActivityRecordTask(p); err == nil {
			if err := h.Deps.Tasks.Enqueue(r.Context(), task); err == nil {
				return
			}
		}
	}

	activity := models.Activity{
		ID:        newID(),
		UserID:    p.UserID,
		Type:      p.Type,
		Title:     p.Title,
		Metadata:  p.Metadata,
		CreatedAt: timeNowUTC(),
	}

	if err := h.Deps.Activities.Create(r.Context(), &activity); err != nil {
		h.Deps.Logger.Warn("failed to record activity", zap.Error(err))
	}
}
