package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/infracit/filetracker-api/internal/models"
	appErrors "github.com/infracit/filetracker-api/pkg/errors"
	"github.com/infracit/filetracker-api/pkg/response"
)

// RequireRoles enforces role-based access control for routes. An
// unauthenticated request is rejected with 401; an authenticated
// request whose role is not in the allowed set gets 403.
func RequireRoles(allowed ...models.UserRole) gin.HandlerFunc {
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedRoles[role] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if _, ok := allowedRoles[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
