package models

import (
	"context"
	"time"
)

// Metric is a per-user daily metrics row.
type Metric struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Date             time.Time `json:"date"`
	LeadsCount       int       `json:"leads_count"`
	ConversionsCount int       `json:"conversions_count"`
	AutomationsCount int       `json:"automations_count"`
	Revenue          string    `json:"revenue"`
	CreatedAt        time.Time `json:"created_at"`
}

// DashboardStats aggregates headline numbers for the dashboard.
type DashboardStats struct {
	TotalLeads        int    `json:"total_leads"`
	TotalConversions  int    `json:"total_conversions"`
	ActiveAutomations int    `json:"active_automations"`
	TotalRevenue      string `json:"total_revenue"`
}

// MetricRepository manages metric operations
type MetricRepository interface {
	ListByUser(ctx context.Context, userID string, from time.Time) ([]Metric, error)
	Upsert(ctx context.Context, metric *Metric) error
	DashboardStats(ctx context.Context, userID string) (DashboardStats, error)
}
