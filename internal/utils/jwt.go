package utils

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const jwtIssuer = "book-api"

var (
	jwtMu     sync.RWMutex
	jwtSecret []byte
	jwtTTL    = 24 * time.Hour
)

// Claims are the dashboard session claims.
type Claims struct {
	UserID int    `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// InitJWT sets the signing secret and token lifetime. Call once at startup.
func InitJWT(secret string, ttl time.Duration) {
	jwtMu.Lock()
	defer jwtMu.Unlock()
	jwtSecret = []byte(secret)
	if ttl > 0 {
		jwtTTL = ttl
	}
}

// GenerateJWT issues an HS256 token for an admin user.
func GenerateJWT(userID int, email string) (string, error) {
	jwtMu.RLock()
	secret, ttl := jwtSecret, jwtTTL
	jwtMu.RUnlock()

	if len(secret) == 0 {
		return "", errors.New("jwt secret not initialised")
	}

	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ValidateJWT parses and verifies a token produced by GenerateJWT.
func ValidateJWT(tokenString string) (*Claims, error) {
	jwtMu.RLock()
	secret := jwtSecret
	jwtMu.RUnlock()

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(jwtIssuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
