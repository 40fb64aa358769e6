package service

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/book_api/internal/models"
	"github.com/GTDGit/book_api/internal/utils"
)

// AdminUserStore loads and records dashboard operators.
type AdminUserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	TouchLastLogin(ctx context.Context, id int) error
	Create(ctx context.Context, user *models.AdminUser) error
}

type AdminAuthService struct {
	adminRepo AdminUserStore
}

func NewAdminAuthService(adminRepo AdminUserStore) *AdminAuthService {
	return &AdminAuthService{adminRepo: adminRepo}
}

// Login verifies credentials and returns a signed session token.
func (s *AdminAuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.adminRepo.GetByEmail(ctx, email)
	if err != nil {
		log.Warn().Err(err).Str("email", email).Msg("Login for unknown admin")
		return "", utils.ErrInvalidCredentials
	}

	if !user.IsActive {
		log.Warn().Str("email", email).Msg("Account is inactive")
		return "", utils.ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn().Str("email", email).Msg("Password verification failed")
		return "", utils.ErrInvalidCredentials
	}

	if err := s.adminRepo.TouchLastLogin(ctx, user.ID); err != nil {
		log.Warn().Err(err).Int("user_id", user.ID).Msg("Failed to record last login")
	}

	log.Info().Str("email", email).Msg("Login successful")
	return utils.GenerateJWT(user.ID, user.Email)
}

// CreateAdmin stores a new active operator with a bcrypt password hash.
func (s *AdminAuthService) CreateAdmin(ctx context.Context, email, password, name string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.AdminUser{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Name:         name,
		IsActive:     true,
	}
	return s.adminRepo.Create(ctx, user)
}
