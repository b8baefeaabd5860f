package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"time"

	"zaanjob-backend/internal/delivery/http/response"
	"zaanjob-backend/internal/domain"
	"zaanjob-backend/pkg/apperror"
	"zaanjob-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

const (
	CSRFTokenCookieName = "csrf_token"
	CSRFTokenHeaderName = "X-CSRF-Token"
	// 32 bytes = 64 hex chars
	CSRFTokenLength = 32
	CSRFTokenExpiry = 24 * time.Hour
)

func generateCSRFToken() (string, error) {
	b := make([]byte, CSRFTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// CSRFMiddleware implements the double-submit cookie pattern for sessions
// carried in the auth_token cookie.
//
// Every response without a csrf_token cookie gets one. A mutating request
// authenticated by cookie must echo that value in X-CSRF-Token. Requests
// with an Authorization header are exempt: browsers never attach it on their
// own, so they cannot be forged cross-site.
func CSRFMiddleware(secureCookie bool, secLog *security.SecurityLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		csrfCookie, err := c.Cookie(CSRFTokenCookieName)
		if err != nil || csrfCookie == "" {
			token, err := generateCSRFToken()
			if err != nil {
				response.Error(c, http.StatusInternalServerError, apperror.KindInternal, "Failed to generate security token", nil)
				c.Abort()
				return
			}
			// Lax: sent on top-level navigations, not on cross-site subrequests.
			// Not HttpOnly, the frontend reads it.
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(CSRFTokenCookieName, token, int(CSRFTokenExpiry.Seconds()), "/", "", secureCookie, false)
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if c.GetHeader("Authorization") != "" {
			c.Next()
			return
		}
		if _, err := c.Cookie("auth_token"); err != nil {
			c.Next()
			return
		}

		headerToken := c.GetHeader(CSRFTokenHeaderName)
		reason := ""
		switch {
		case headerToken == "":
			reason = "Missing CSRF token"
		case csrfCookie == "" || subtle.ConstantTimeCompare([]byte(headerToken), []byte(csrfCookie)) != 1:
			reason = "Invalid CSRF token"
		}
		if reason != "" {
			secLog.LogCSRFViolation(c.Request.Context(), c.ClientIP(), c.GetHeader("User-Agent"),
				domain.RequestIDFrom(c.Request.Context()), c.FullPath())
			response.Error(c, http.StatusForbidden, apperror.KindForbidden, reason, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
