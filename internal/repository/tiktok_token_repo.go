package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/book_api/internal/models"
)

// TikTokTokenRepository stores TikTok OAuth grants keyed by user id.
type TikTokTokenRepository struct {
	db *sqlx.DB
}

func NewTikTokTokenRepository(db *sqlx.DB) *TikTokTokenRepository {
	return &TikTokTokenRepository{db: db}
}

func (r *TikTokTokenRepository) GetByUserID(ctx context.Context, userID string) (*models.TikTokToken, error) {
	var t models.TikTokToken
	if err := r.db.GetContext(ctx, &t, `SELECT * FROM tiktok_oauth_tokens WHERE user_id = $1`, userID); err != nil {
		return nil, err
	}
	return &t, nil
}

// Upsert inserts or replaces the grant for t.UserID.
func (r *TikTokTokenRepository) Upsert(ctx context.Context, t *models.TikTokToken) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO tiktok_oauth_tokens (user_id, access_token, refresh_token, open_id, scope, expires_at, updated_at)
		VALUES (:user_id, :access_token, :refresh_token, :open_id, :scope, :expires_at, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			open_id = EXCLUDED.open_id,
			scope = EXCLUDED.scope,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
	`, t)
	return err
}
