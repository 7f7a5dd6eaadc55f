package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storyfairy-server/internal/model"
)

// GinContextUserKey is the gin context key the middleware stores the
// authenticated user ID under.
const GinContextUserKey = string(model.UserContextKey)

// TokenVerifier validates a raw token string and returns its claims.
type TokenVerifier func(ctx context.Context, tokenString string) (*Claims, error)

// Middleware extracts and verifies the bearer token, then stores the user ID
// in the gin context for handlers.
func Middleware(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.With(zap.String("path", c.Request.URL.Path))

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Missing token"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Malformed Authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Malformed token header"})
			return
		}

		claims, err := verifier(c.Request.Context(), parts[1])
		if err != nil {
			msg := "Unauthorized: Invalid token"
			if errors.Is(err, model.ErrTokenExpired) {
				msg = "Unauthorized: Token expired"
			}
			log.Warn("Token verification failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(GinContextUserKey, claims.UserID())
		c.Next()
	}
}

// UserIDFromContext returns the authenticated user ID set by Middleware.
func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(GinContextUserKey)
	if !ok {
		return "", false
	}
	userID, ok := v.(string)
	return userID, ok && userID != ""
}
