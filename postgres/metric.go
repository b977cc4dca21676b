package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/qmarkhq/qmark/models"
)

type MetricRepository struct {
	db *sql.DB
}

func NewMetricRepository(db *sql.DB) *MetricRepository {
	return &MetricRepository{db: db}
}

func (r *MetricRepository) ListByUser(ctx context.Context, userID string, from time.Time) ([]models.Metric, error) {
	query := `
		SELECT id, user_id, date, leads_count, conversions_count, automations_count, revenue, created_at
		FROM metrics
		WHERE user_id = $1 AND date >= $2
		ORDER BY date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metrics []models.Metric

	for rows.Next() {
		var m models.Metric

		err := rows.Scan(
			&m.ID,
			&m.UserID,
			&m.Date,
			&m.LeadsCount,
			&m.ConversionsCount,
			&m.AutomationsCount,
			&m.Revenue,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		metrics = append(metrics, m)
	}

	return metrics, rows.Err()
}

func (r *MetricRepository) Upsert(ctx context.Context, metric *models.Metric) error {
	query := `
		INSERT INTO metrics (id, user_id, date, leads_count, conversions_count, automations_count, revenue, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, date) DO UPDATE SET
			leads_count = EXCLUDED.leads_count,
			conversions_count = EXCLUDED.conversions_count,
			automations_count = EXCLUDED.automations_count,
			revenue = EXCLUDED.revenue
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query,
		metric.ID,
		metric.UserID,
		metric.Date,
		metric.LeadsCount,
		metric.ConversionsCount,
		metric.AutomationsCount,
		metric.Revenue,
		metric.CreatedAt,
	).Scan(&metric.ID)
}

func (r *MetricRepository) DashboardStats(ctx context.Context, userID string) (models.DashboardStats, error) {
	var stats models.DashboardStats

	query := `
		SELECT
			(SELECT count(*) FROM leads WHERE user_id = $1),
			(SELECT count(*) FROM leads WHERE user_id = $1 AND status = 'converted'),
			(SELECT count(*) FROM automations WHERE user_id = $1 AND is_active),
			COALESCE((
				SELECT sum(revenue)
				FROM metrics
				WHERE user_id = $1 AND date >= date_trunc('month', now())
			), 0)::text
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.TotalLeads,
		&stats.TotalConversions,
		&stats.ActiveAutomations,
		&stats.TotalRevenue,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DashboardStats{TotalRevenue: "0"}, nil
		}

		return models.DashboardStats{}, err
	}

	return stats, nil
}
