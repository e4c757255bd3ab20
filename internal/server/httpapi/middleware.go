package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mkarpovs/crewtally/internal/server/auth"
	"github.com/mkarpovs/crewtally/internal/server/models"
)

const userCtxKey = "currentUser"

// requireAuth validates the bearer token and then re-checks the durable
// session document. The session is authoritative: a token for a user whose
// session has expired, been logged out, or whose account was disabled is
// rejected even while the token itself is still valid.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		username, err := auth.GetUsernameFromToken(token, s.jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		user, err := s.sessions.CurrentUser(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if user == nil || user.UserName != username {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}

		c.Set(userCtxKey, user)
		c.Next()
	}
}

func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c).Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}

// currentUser returns the authenticated user set by requireAuth. Only valid
// on routes behind the middleware.
func currentUser(c *gin.Context) *models.User {
	return c.MustGet(userCtxKey).(*models.User)
}
