package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/nmehta6/socialdesk/internal/models"
)

type SocialConnectionRepository interface {
	Create(ctx context.Context, sc *models.SocialConnection) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.SocialConnection, bool, error)
	GetByUserAndPage(ctx context.Context, userID, pageID string) (*models.SocialConnection, bool, error)
	UpdateToken(ctx context.Context, id int64, accessToken string, tokenExpiry time.Time) error
	ListByUserID(ctx context.Context, userID string) ([]*models.SocialConnection, error)
	ListExpiring(ctx context.Context, from, to time.Time) ([]*models.SocialConnection, error)
}

type socialConnectionRepository struct {
	db *sql.DB
}

func NewSocialConnectionRepository(db *sql.DB) SocialConnectionRepository {
	return &socialConnectionRepository{db: db}
}

func (r *socialConnectionRepository) Create(ctx context.Context, sc *models.SocialConnection) (int64, error) {
	query := `
		INSERT INTO social_connections(
			user_id,
			fb_page_id,
			ig_account_id,
			access_token,
			token_expiry
		)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		sc.UserID,
		sc.FBPageID,
		sc.IGAccountID,
		sc.AccessToken,
		sc.TokenExpiry,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *socialConnectionRepository) GetByID(ctx context.Context, id int64) (*models.SocialConnection, bool, error) {
	query := `
		SELECT id, user_id, fb_page_id, ig_account_id, access_token, token_expiry, refreshed_at, created_at, updated_at
		FROM social_connections
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanConnection(row)
}

func (r *socialConnectionRepository) GetByUserAndPage(ctx context.Context, userID, pageID string) (*models.SocialConnection, bool, error) {
	query := `
		SELECT id, user_id, fb_page_id, ig_account_id, access_token, token_expiry, refreshed_at, created_at, updated_at
		FROM social_connections
		WHERE user_id = $1 AND fb_page_id = $2
	`
	row := r.db.QueryRowContext(ctx, query, userID, pageID)
	return scanConnection(row)
}

func (r *socialConnectionRepository) UpdateToken(ctx context.Context, id int64, accessToken string, tokenExpiry time.Time) error {
	query := `
		UPDATE social_connections
		SET access_token = $2,
			token_expiry = $3,
			refreshed_at = CURRENT_TIMESTAMP,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, accessToken, tokenExpiry)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *socialConnectionRepository) ListByUserID(ctx context.Context, userID string) ([]*models.SocialConnection, error) {
	query := `
		SELECT id, user_id, fb_page_id, ig_account_id, access_token, token_expiry, refreshed_at, created_at, updated_at
		FROM social_connections
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return scanConnections(rows)
}

func (r *socialConnectionRepository) ListExpiring(ctx context.Context, from, to time.Time) ([]*models.SocialConnection, error) {
	query := `
		SELECT id, user_id, fb_page_id, ig_account_id, access_token, token_expiry, refreshed_at, created_at, updated_at
		FROM social_connections
		WHERE token_expiry BETWEEN $1 AND $2
		OR token_expiry < $1
	`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return scanConnections(rows)
}

func scanConnection(row *sql.Row) (*models.SocialConnection, bool, error) {
	var sc models.SocialConnection
	err := row.Scan(&sc.ID, &sc.UserID, &sc.FBPageID, &sc.IGAccountID, &sc.AccessToken,
		&sc.TokenExpiry, &sc.RefreshedAt, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &sc, true, nil
}

func scanConnections(rows *sql.Rows) ([]*models.SocialConnection, error) {
	var connections []*models.SocialConnection
	for rows.Next() {
		var sc models.SocialConnection
		err := rows.Scan(&sc.ID, &sc.UserID, &sc.FBPageID, &sc.IGAccountID, &sc.AccessToken,
			&sc.TokenExpiry, &sc.RefreshedAt, &sc.CreatedAt, &sc.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		connections = append(connections, &sc)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return connections, nil
}
