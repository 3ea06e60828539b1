package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"poolcare/api/internal/models"
)

// RequireRoles gates staff routes by the role claim. Only meaningful behind
// Auth for the staff domain; the other domains carry no role.
func RequireRoles(roles ...models.StaffRole) gin.HandlerFunc {
	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		roleSet[string(role)] = struct{}{}
	}

	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if _, ok := roleSet[claims.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Next()
	}
}
