package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidToken       = errors.New("INVALID_TOKEN")
	ErrInvalidCredentials = errors.New("INVALID_CREDENTIALS")
	ErrAccountInactive    = errors.New("ACCOUNT_INACTIVE")
	ErrBookNotFound       = errors.New("BOOK_NOT_FOUND")
	ErrAlreadyPublished   = errors.New("ALREADY_PUBLISHED")
	ErrSyncInProgress     = errors.New("SYNC_IN_PROGRESS")
	ErrNotConfigured      = errors.New("NOT_CONFIGURED")
	ErrTokenNotFound      = errors.New("TIKTOK_TOKEN_NOT_FOUND")
	ErrNoRefreshToken     = errors.New("TIKTOK_REFRESH_TOKEN_MISSING")
	ErrMissingMedia       = errors.New("MISSING_MEDIA")
)
