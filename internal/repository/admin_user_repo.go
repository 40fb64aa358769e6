package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/book_api/internal/models"
)

// AdminUserRepository handles data access for dashboard operators.
type AdminUserRepository struct {
	db *sqlx.DB
}

func NewAdminUserRepository(db *sqlx.DB) *AdminUserRepository {
	return &AdminUserRepository{db: db}
}

func (r *AdminUserRepository) GetByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var user models.AdminUser
	err := r.db.GetContext(ctx, &user, `
		SELECT id, email, password_hash, name, is_active, last_login_at, created_at, updated_at
		FROM admin_users
		WHERE email = $1
	`, email)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *AdminUserRepository) TouchLastLogin(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE admin_users SET last_login_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *AdminUserRepository) Create(ctx context.Context, user *models.AdminUser) error {
	query := `
		INSERT INTO admin_users (email, password_hash, name, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowxContext(ctx, query, user.Email, user.PasswordHash, user.Name, user.IsActive).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}
