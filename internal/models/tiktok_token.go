package models

import "time"

// TikTokToken stores a user's TikTok OAuth grant.
type TikTokToken struct {
	ID           int64     `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"userId"`
	AccessToken  string    `db:"access_token" json:"-"`
	RefreshToken *string   `db:"refresh_token" json:"-"`
	OpenID       string    `db:"open_id" json:"openId"`
	Scope        *string   `db:"scope" json:"scope,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Expired reports whether the access token is no longer usable at now.
func (t *TikTokToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
