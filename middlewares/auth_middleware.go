package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pabloERSH/nutrition-service/models"
	"github.com/pabloERSH/nutrition-service/utils"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "userID"

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			unauthenticated(c)
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		user, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			if !errors.Is(err, utils.ErrInvalidToken) {
				slog.ErrorContext(c.Request.Context(), "authenticate request", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   "Internal Server Error",
					"message": "Something went wrong.",
				})
				return
			}
			unauthenticated(c)
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Next()
	}
}

func unauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "Unauthenticated",
		"message": "Unauthenticated.",
	})
}
