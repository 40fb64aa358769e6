package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/book_api/internal/models"
	"github.com/GTDGit/book_api/internal/utils"
)

type fakeAdminStore struct {
	users   map[string]*models.AdminUser
	touched []int
}

func (s *fakeAdminStore) GetByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (s *fakeAdminStore) TouchLastLogin(ctx context.Context, id int) error {
	s.touched = append(s.touched, id)
	return nil
}

func (s *fakeAdminStore) Create(ctx context.Context, user *models.AdminUser) error {
	if s.users == nil {
		s.users = map[string]*models.AdminUser{}
	}
	user.ID = len(s.users) + 1
	s.users[user.Email] = user
	return nil
}

func TestAdminAuthService_Login(t *testing.T) {
	utils.InitJWT("test-secret", time.Hour)

	store := &fakeAdminStore{}
	svc := NewAdminAuthService(store)
	ctx := context.Background()

	require.NoError(t, svc.CreateAdmin(ctx, "ops@example.com", "s3cret", "Ops"))
	require.NoError(t, svc.CreateAdmin(ctx, "old@example.com", "s3cret", "Old"))
	store.users["old@example.com"].IsActive = false

	token, err := svc.Login(ctx, "ops@example.com", "s3cret")
	require.NoError(t, err)
	claims, err := utils.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Email)
	assert.Equal(t, []int{1}, store.touched)

	_, err = svc.Login(ctx, "ops@example.com", "wrong")
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "old@example.com", "s3cret")
	assert.ErrorIs(t, err, utils.ErrAccountInactive)
}
