package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/qmarkhq/qmark/models"
)

type AutomationRepository struct {
	db *sql.DB
}

func NewAutomationRepository(db *sql.DB) *AutomationRepository {
	return &AutomationRepository{db: db}
}

func (r *AutomationRepository) ListByUser(ctx context.Context, userID string) ([]models.Automation, error) {
	query := `
		SELECT id, user_id, name, description, type, config, is_active, last_run, run_count, created_at, updated_at
		FROM automations
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var automations []models.Automation

	for rows.Next() {
		a, err := scanAutomation(rows)
		if err != nil {
			return nil, err
		}

		automations = append(automations, a)
	}

	return automations, rows.Err()
}

func (r *AutomationRepository) GetByID(ctx context.Context, id string) (models.Automation, error) {
	query := `
		SELECT id, user_id, name, description, type, config, is_active, last_run, run_count, created_at, updated_at
		FROM automations
		WHERE id = $1
	`

	a, err := scanAutomation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Automation{}, models.ErrNotFound
		}

		return models.Automation{}, err
	}

	return a, nil
}

func (r *AutomationRepository) Create(ctx context.Context, automation *models.Automation) error {
	query := `
		INSERT INTO automations (id, user_id, name, description, type, config, is_active, last_run, run_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		automation.ID,
		automation.UserID,
		automation.Name,
		automation.Description,
		automation.Type,
		nullJSON(automation.Config),
		automation.IsActive,
		nullTime(automation.LastRun),
		automation.RunCount,
		automation.CreatedAt,
		automation.UpdatedAt,
	)

	return err
}

func (r *AutomationRepository) Update(ctx context.Context, automation *models.Automation) error {
	query := `
		UPDATE automations
		SET name = $2, description = $3, type = $4, config = $5, is_active = $6, updated_at = $7
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		automation.ID,
		automation.Name,
		automation.Description,
		automation.Type,
		nullJSON(automation.Config),
		automation.IsActive,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *AutomationRepository) MarkRun(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE automations
		SET last_run = $2, run_count = run_count + 1, updated_at = $2
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return models.ErrNotFound
	}

	return nil
}

func scanAutomation(row rowScanner) (models.Automation, error) {
	var (
		a       models.Automation
		config  []byte
		lastRun sql.NullTime
	)

	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Name,
		&a.Description,
		&a.Type,
		&config,
		&a.IsActive,
		&lastRun,
		&a.RunCount,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return models.Automation{}, err
	}

	a.Config = config

	if lastRun.Valid {
		a.LastRun = lastRun.Time
	}

	return a, nil
}

func nullJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}

	return raw
}
