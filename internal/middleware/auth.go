package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"webformular/internal/pkg/jwt"
	"webformular/internal/pkg/response"
)

// AdminCookie carries the operator bearer token for browser sessions.
const AdminCookie = "admin_token"

// JWTAuth validates the bearer token from the Authorization header, falling
// back to the admin cookie, and stores subject and role in the context.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, code, msg := bearerToken(c)
		if tokenStr == "" {
			response.AbortError(c, http.StatusUnauthorized, code, msg)
			return
		}

		claims, err := jwtService.ValidateToken(tokenStr)
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set("subject", claims.Subject)
		c.Set("role", claims.Role)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (token, code, msg string) {
	h := c.GetHeader("Authorization")
	if h == "" {
		if cookie, err := c.Cookie(AdminCookie); err == nil && strings.TrimSpace(cookie) != "" {
			return strings.TrimSpace(cookie), "", ""
		}
		return "", "AUTH_HEADER_MISSING", "Missing Authorization header"
	}

	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'"
	}

	token = strings.TrimSpace(parts[1])
	if token == "" {
		return "", "INVALID_AUTH_FORMAT", "Empty token"
	}
	return token, "", ""
}
