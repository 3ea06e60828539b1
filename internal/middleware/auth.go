package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"poolcare/api/internal/config"
	"poolcare/api/internal/models"
	"poolcare/api/internal/security"
	"poolcare/api/internal/service"
)

const (
	ContextClaims = "access_claims"
	ContextToken  = "access_token"
)

// Auth validates the bearer token against one identity domain. The token
// must be signed with that domain's secret and carry the matching domain
// claim; its session must still exist. Tokens from the other three domains
// never pass.
func Auth(domain models.AuthDomain, auth config.DomainAuthConfig, sessions service.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ParseAccessToken(tokenStr, auth.AccessSecret, domain)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		session, err := sessions.GetByID(c.Request.Context(), domain, claims.SessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_not_found"})
			return
		}

		if session.PrincipalID != claims.Subject {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_mismatch"})
			return
		}

		// Best-effort presence update; session eviction orders by
		// last_seen_at, so authenticated traffic keeps a session fresh.
		// A failed touch never blocks the request.
		_ = sessions.Touch(c.Request.Context(), session.ID, c.ClientIP(), c.Request.UserAgent())

		c.Set(ContextToken, tokenStr)
		c.Set(ContextClaims, *claims)

		c.Next()
	}
}

// Claims returns the access claims stored by Auth; second return is false
// on routes that skipped the middleware.
func Claims(c *gin.Context) (security.AccessClaims, bool) {
	val, exists := c.Get(ContextClaims)
	if !exists {
		return security.AccessClaims{}, false
	}
	claims, ok := val.(security.AccessClaims)
	return claims, ok
}
