package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/book_api/internal/utils"
)

// JWTMiddleware guards dashboard routes with the admin session token.
type JWTMiddleware struct{}

func NewJWTMiddleware() *JWTMiddleware {
	return &JWTMiddleware{}
}

// Handle requires "Authorization: Bearer <jwt>".
func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return m.handle(false)
}

// HandleWithQueryToken also accepts ?token=<jwt>. EventSource cannot set
// headers, so the activity stream authenticates this way.
func (m *JWTMiddleware) HandleWithQueryToken() gin.HandlerFunc {
	return m.handle(true)
}

func (m *JWTMiddleware) handle(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, msg := bearerToken(c.GetHeader("Authorization"))
		if token == "" && allowQuery {
			if token = c.Query("token"); token == "" {
				msg = "Missing token"
			}
		}
		if token == "" {
			utils.Error(c, 401, "UNAUTHORIZED", msg)
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(token)
		if err != nil {
			utils.Error(c, 401, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header, or returns
// the reason it could not.
func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "Missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", "Invalid authorization header"
	}
	return token, ""
}
