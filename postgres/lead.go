package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/qmarkhq/qmark/models"
)

type LeadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Lead, error) {
	query := `
		SELECT id, user_id, name, email, phone, source, status, notes, created_at, updated_at
		FROM leads
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []models.Lead

	for rows.Next() {
		var l models.Lead

		err := rows.Scan(
			&l.ID,
			&l.UserID,
			&l.Name,
			&l.Email,
			&l.Phone,
			&l.Source,
			&l.Status,
			&l.Notes,
			&l.CreatedAt,
			&l.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		leads = append(leads, l)
	}

	return leads, rows.Err()
}

func (r *LeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	query := `
		INSERT INTO leads (id, user_id, name, email, phone, source, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		lead.ID,
		lead.UserID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Source,
		lead.Status,
		lead.Notes,
		lead.CreatedAt,
		lead.UpdatedAt,
	)

	return err
}

func (r *LeadRepository) UpdateStatus(ctx context.Context, id, userID, status string) (models.Lead, error) {
	query := `
		UPDATE leads
		SET status = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, name, email, phone, source, status, notes, created_at, updated_at
	`

	var l models.Lead

	err := r.db.QueryRowContext(ctx, query, id, userID, status).Scan(
		&l.ID,
		&l.UserID,
		&l.Name,
		&l.Email,
		&l.Phone,
		&l.Source,
		&l.Status,
		&l.Notes,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Lead{}, models.ErrNotFound
		}

		return models.Lead{}, err
	}

	return l, nil
}
