package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"LinkHub_Backend/internal/apperr"
	"LinkHub_Backend/internal/auth"
	"LinkHub_Backend/internal/models"
	"LinkHub_Backend/internal/storage"
)

const (
	// UserKey holds the authenticated *models.User in the gin context.
	UserKey = "user"
	// TokenKey holds the raw bearer token.
	TokenKey = "token"
)

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AuthMiddleware resolves the bearer token into a user. Every authentication failure,
// including a valid token for a deleted user, ends in 401.
func AuthMiddleware(tokens TokenVerifier, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenString) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}
		tokenString = strings.TrimSpace(tokenString)

		claims, err := tokens.Verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": authMessage(err)})
			return
		}

		user, err := users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
				return
			}
			log.Error("auth: failed to load user", "user_id", claims.UserID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong!"})
			return
		}

		if issuedBeforePasswordChange(claims, user) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked"})
			return
		}

		c.Set(UserKey, user)
		c.Set(TokenKey, tokenString)
		c.Next()
	}
}

// CurrentUser returns the user attached by AuthMiddleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// issuedBeforePasswordChange compares at second precision, the resolution of the iat claim.
func issuedBeforePasswordChange(claims *auth.Claims, user *models.User) bool {
	if claims.IssuedAt == nil || user.PasswordChangedAt.IsZero() {
		return false
	}
	return claims.IssuedAt.Time.Before(user.PasswordChangedAt.Truncate(time.Second))
}

func authMessage(err error) string {
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Kind == apperr.Authentication {
		return ae.Message
	}
	return "Invalid token"
}
