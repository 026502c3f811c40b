package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/openassess/testing-service/internal/models"
	"github.com/openassess/testing-service/internal/repositories"
	"github.com/openassess/testing-service/internal/utils"
)

const (
	contextKeyUserID   = "user_id"
	contextKeyUserRole = "user_role"
)

// AuthMiddleware validates Casdoor-issued bearer tokens on the admin surface
// and keeps the local user record in sync with the token's claims. The
// candidate surface never goes through this middleware.
type AuthMiddleware struct {
	users  repositories.UserRepository
	logger utils.Logger
}

func NewAuthMiddleware(users repositories.UserRepository, logger utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		users:  users,
		logger: logger,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing or malformed Authorization header",
			})
			return
		}

		claims, err := casdoorsdk.ParseJwtToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or expired token",
			})
			return
		}

		user := m.syncUser(c, claims)

		c.Set(contextKeyUserID, user.ID)
		c.Set(contextKeyUserRole, string(user.Role))
		c.Next()
	}
}

// RequireRole gates a route group to the given roles. Must run after
// RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		current := models.UserRole(c.GetString(contextKeyUserRole))
		for _, role := range roles {
			if current == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: "Insufficient permissions",
		})
	}
}

// syncUser upserts the token's user into the local table. A sync failure is
// logged but does not block the request: the claims are still authoritative.
func (m *AuthMiddleware) syncUser(c *gin.Context, claims *casdoorsdk.Claims) *models.User {
	now := time.Now()
	user := &models.User{
		ID:          claims.User.Id,
		FullName:    claims.User.DisplayName,
		Email:       claims.User.Email,
		Role:        roleFromClaims(claims),
		IsActive:    true,
		LastLoginAt: &now,
	}

	if err := m.users.Upsert(c.Request.Context(), user); err != nil {
		m.logger.Warn("Failed to sync user from token",
			"user_id", user.ID,
			"error", err)
	}

	return user
}

func roleFromClaims(claims *casdoorsdk.Claims) models.UserRole {
	if claims.User.IsAdmin {
		return models.RoleOrgAdmin
	}
	switch models.UserRole(claims.User.Tag) {
	case models.RoleTestAdmin, models.RoleOrgAdmin, models.RoleSuperAdmin:
		return models.UserRole(claims.User.Tag)
	default:
		return models.RoleTestAdmin
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// currentUserID returns the authenticated user's IdP subject, or "system"
// outside an authenticated request (imports run from jobs, tests).
func currentUserID(c *gin.Context) string {
	if id := c.GetString(contextKeyUserID); id != "" {
		return id
	}
	return "system"
}
