package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kreaker/cnc-backend/internal/http/response"
	"github.com/kreaker/cnc-backend/internal/logger"
	"github.com/kreaker/cnc-backend/internal/services"
)

// ContextUserKey is the gin context key holding the authenticated username.
const ContextUserKey = "auth_username"

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		log:         log.With("middleware", "auth"),
		authService: authService,
	}
}

// RequireAuth validates the bearer token and stores the subject username
// in the request context. Browser-driven downloads cannot set headers, so
// a ?token= query param is accepted as a fallback.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			am.abort(c, "missing bearer token")
			return
		}

		username, err := am.authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			am.log.Warn("token rejected", "path", c.FullPath(), "error", err)
			am.abort(c, "invalid or expired token")
			return
		}

		c.Set(ContextUserKey, username)
		c.Next()
	}
}

func (am *AuthMiddleware) abort(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorEnvelope{
		Error: response.APIError{
			Message: msg,
			Code:    "unauthorized",
		},
	})
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}
