package middleware

import (
	"crypto/subtle"
	"net/http"

	"zaanjob-backend/internal/delivery/http/response"
	"zaanjob-backend/internal/domain"
	"zaanjob-backend/pkg/apperror"
	"zaanjob-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

const SetupTokenHeader = "X-Setup-Token"

// SetupGuard protects the provisioning routes with a shared token. With no
// token configured the routes stay open.
func SetupGuard(token string, secLog *security.SecurityLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		supplied := c.GetHeader(SetupTokenHeader)
		if supplied == "" {
			supplied = c.Query("token")
		}
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) != 1 {
			secLog.LogUnauthorized(c.Request.Context(), c.ClientIP(), c.GetHeader("User-Agent"),
				domain.RequestIDFrom(c.Request.Context()), c.FullPath(), "invalid_setup_token")
			response.Error(c, http.StatusUnauthorized, apperror.KindUnauthorized, "Invalid or missing setup token", nil)
			c.Abort()
			return
		}

		secLog.LogSetupInvoked(c.Request.Context(), c.ClientIP(), c.FullPath())
		c.Next()
	}
}
