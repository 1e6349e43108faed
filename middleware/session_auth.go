// middleware/session_auth.go

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/asinfra/adconsole/auth"
	logger "github.com/asinfra/adconsole/logging"
)

// SessionAuth resolves the bearer token into a live session and records the
// acting user on the request context. Requests without a valid session never
// reach the handlers.
func SessionAuth(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		session, err := authService.Resolve(c.Request.Context(), token)
		if err != nil {
			logger.Warn("Session resolution failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		c.Set("requestingUserID", session.Username)
		c.Set("sessionID", session.ID)
		c.Next()
	}
}
