package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/qmarkhq/qmark/models"
)

type ConnectionRepository struct {
	db *sql.DB
}

func NewConnectionRepository(db *sql.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

const connectionColumns = `
	id, user_id, platform, platform_user_id, display_name, email,
	access_token, refresh_token, token_expiry, scope, is_active,
	last_sync, created_at, updated_at
`

func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM oauth_connections WHERE id = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *ConnectionRepository) GetByUserAndPlatform(ctx context.Context, userID, platform string) (models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM oauth_connections WHERE user_id = $1 AND platform = $2`

	return r.scanOne(r.db.QueryRowContext(ctx, query, userID, platform))
}

func (r *ConnectionRepository) ListByUser(ctx context.Context, userID string) ([]models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM oauth_connections WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []models.Connection

	for rows.Next() {
		conn, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}

		conns = append(conns, conn)
	}

	return conns, rows.Err()
}

func (r *ConnectionRepository) Upsert(ctx context.Context, conn *models.Connection) error {
	query := `
		INSERT INTO oauth_connections (
			id, user_id, platform, platform_user_id, display_name, email,
			access_token, refresh_token, token_expiry, scope, is_active,
			last_sync, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (user_id, platform) DO UPDATE SET
			platform_user_id = EXCLUDED.platform_user_id,
			display_name = EXCLUDED.display_name,
			email = EXCLUDED.email,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expiry = EXCLUDED.token_expiry,
			scope = EXCLUDED.scope,
			is_active = EXCLUDED.is_active,
			last_sync = EXCLUDED.last_sync,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		conn.ID,
		conn.UserID,
		conn.Platform,
		conn.PlatformUserID,
		conn.DisplayName,
		conn.Email,
		conn.AccessToken,
		conn.RefreshToken,
		nullTime(conn.TokenExpiry),
		conn.Scope,
		conn.IsActive,
		conn.LastSync,
		conn.CreatedAt,
		time.Now().UTC(),
	).Scan(&conn.ID, &conn.CreatedAt)

	return err
}

func (r *ConnectionRepository) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, tokenExpiry, lastSync time.Time) (bool, error) {
	query := `
		UPDATE oauth_connections
		SET access_token = $2, refresh_token = $3, token_expiry = $4,
			last_sync = $5, updated_at = $6
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		id,
		accessToken,
		refreshToken,
		nullTime(tokenExpiry),
		lastSync,
		time.Now().UTC(),
	)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *ConnectionRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM oauth_connections WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ConnectionRepository) scanOne(row *sql.Row) (models.Connection, error) {
	conn, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Connection{}, models.ErrNotFound
		}

		return models.Connection{}, err
	}

	return conn, nil
}

func (r *ConnectionRepository) scanRow(row rowScanner) (models.Connection, error) {
	var (
		conn   models.Connection
		expiry sql.NullTime
	)

	err := row.Scan(
		&conn.ID,
		&conn.UserID,
		&conn.Platform,
		&conn.PlatformUserID,
		&conn.DisplayName,
		&conn.Email,
		&conn.AccessToken,
		&conn.RefreshToken,
		&expiry,
		&conn.Scope,
		&conn.IsActive,
		&conn.LastSync,
		&conn.CreatedAt,
		&conn.UpdatedAt,
	)
	if err != nil {
		return models.Connection{}, err
	}

	if expiry.Valid {
		conn.TokenExpiry = expiry.Time
	}

	return conn, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}

	return sql.NullTime{Time: t, Valid: true}
}
