package postgres

import (
	"context"
	"database/sql"

	"github.com/qmarkhq/qmark/models"
)

type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Activity, error) {
	query := `
		SELECT id, user_id, type, title, description, metadata, created_at
		FROM activities
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []models.Activity

	for rows.Next() {
		var (
			a        models.Activity
			metadata []byte
		)

		err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.Type,
			&a.Title,
			&a.Description,
			&metadata,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		a.Metadata = metadata

		activities = append(activities, a)
	}

	return activities, rows.Err()
}

func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	query := `
		INSERT INTO activities (id, user_id, type, title, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		activity.ID,
		activity.UserID,
		activity.Type,
		activity.Title,
		activity.Description,
		nullJSON(activity.Metadata),
		activity.CreatedAt,
	)

	return err
}
