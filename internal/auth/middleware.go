package auth

import (
	"errors"
	"net/http"
	"strings"

	"miny/internal/api"

	"github.com/gin-gonic/gin"
)

const (
	contextKeyUserID = "user_id"
	contextKeyEmail  = "user_email"
	contextKeyRole   = "user_role"
)

// Caller is the authenticated host on whose behalf a mutating operation runs.
type Caller struct {
	UserID int
	Email  string
	Role   string
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// Owns reports whether the caller may mutate a resource owned by ownerID.
func (c Caller) Owns(ownerID int) bool {
	return c.UserID != 0 && c.UserID == ownerID
}

func AuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, msg := bearerToken(c.GetHeader("Authorization"))
		if msg != "" {
			abortUnauthorized(c, msg)
			return
		}

		caller, err := ParseAccessToken(tokenString, accessTokenSecret)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				abortUnauthorized(c, "Token expired")
			case errors.Is(err, ErrInvalidTokenType):
				abortUnauthorized(c, "Access token required")
			default:
				abortUnauthorized(c, "Invalid or malformed token")
			}
			return
		}

		c.Set(contextKeyUserID, caller.UserID)
		c.Set(contextKeyEmail, caller.Email)
		c.Set(contextKeyRole, caller.Role)

		c.Next()
	}
}

func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "Authorization header required"
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) != "Bearer" {
		return "", "Invalid authorization header format"
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", "Token is empty"
	}
	return token, ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: msg})
}

func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(contextKeyRole)
		if !exists {
			abortUnauthorized(c, "User role not found")
			return
		}

		roleStr, ok := role.(string)
		if !ok {
			abortUnauthorized(c, "Invalid role type")
			return
		}

		if roleStr != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, api.ErrorResponse{Error: "Insufficient permissions"})
			return
		}

		c.Next()
	}
}

func GetUserID(c *gin.Context) (int, bool) {
	userID, exists := c.Get(contextKeyUserID)
	if !exists {
		return 0, false
	}

	id, ok := userID.(int)
	if !ok {
		return 0, false
	}

	return id, true
}

// CallerFromContext builds the Caller set by AuthMiddleware.
func CallerFromContext(c *gin.Context) (Caller, bool) {
	id, ok := GetUserID(c)
	if !ok {
		return Caller{}, false
	}
	return Caller{
		UserID: id,
		Email:  c.GetString(contextKeyEmail),
		Role:   c.GetString(contextKeyRole),
	}, true
}
