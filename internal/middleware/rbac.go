package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-student-api/internal/models"
	appErrors "github.com/noah-isme/smart-student-api/pkg/errors"
	"github.com/noah-isme/smart-student-api/pkg/response"
)

// SelfParam lets a user reach a route whose :username parameter is their own.
const SelfParam = "SELF"

// RBAC enforces role-based access control for routes. Roles compare
// case-insensitively.
func RBAC(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		for _, a := range allowed {
			if a == SelfParam {
				if target := c.Param("username"); target != "" && target == claims.Username {
					c.Next()
					return
				}
				continue
			}
			if claims.Role.Equal(models.UserRole(a)) {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}
