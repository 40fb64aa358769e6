package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/book_api/internal/utils"
)

// Authenticator checks dashboard credentials.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// LoginLimiter tracks failed logins per client IP.
type LoginLimiter interface {
	Blocked(ip string) bool
	RecordFailure(ip string)
}

type AuthHandler struct {
	authService Authenticator
	limiter     LoginLimiter
}

func NewAuthHandler(authService Authenticator, limiter LoginLimiter) *AuthHandler {
	return &AuthHandler{authService: authService, limiter: limiter}
}

// Login handles POST /v1/admin/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	ip := c.ClientIP()
	if h.limiter != nil && h.limiter.Blocked(ip) {
		utils.Error(c, 429, "TOO_MANY_ATTEMPTS", "Too many failed login attempts, try again later")
		return
	}

	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if h.limiter != nil {
			h.limiter.RecordFailure(ip)
		}
		if errors.Is(err, utils.ErrAccountInactive) {
			utils.Error(c, 403, "ACCOUNT_INACTIVE", err.Error())
			return
		}
		utils.Error(c, 401, "INVALID_CREDENTIALS", utils.ErrInvalidCredentials.Error())
		return
	}

	utils.Success(c, 200, "Login successful", gin.H{
		"token": token,
	})
}
