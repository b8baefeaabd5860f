package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"zaanjob-backend/internal/delivery/http/response"
	"zaanjob-backend/pkg/apperror"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error a handler attached with c.Error.
// Server-side failures are logged and reported to Sentry when a hub is bound.
func ErrorHandler(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			// SECURITY: untyped errors never reach the client verbatim.
			appErr = apperror.New(http.StatusInternalServerError, apperror.KindInternal,
				"An unexpected error occurred. Please try again later.", err)
		}

		if appErr.Code >= http.StatusInternalServerError {
			log.Error("request failed",
				"method", c.Request.Method,
				"path", c.FullPath(),
				"code", appErr.Kind,
				"error", err,
			)
			if hub := sentrygin.GetHubFromContext(c); hub != nil {
				hub.WithScope(func(scope *sentry.Scope) {
					scope.SetTag("error_code", appErr.Kind)
					hub.CaptureException(err)
				})
			}
		}

		response.AppError(c, appErr)
	}
}
