package middleware

import (
	"errors"
	"net/http"

	"inclusive-matching-api/internal/delivery/http/response"
	"inclusive-matching-api/pkg/apperror"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler renders the last error pushed with c.Error.
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Code >= http.StatusInternalServerError {
				log.Error("Request failed",
					zap.String("request_id", c.GetString("RequestID")),
					zap.String("path", c.Request.URL.Path),
					zap.Int("status", appErr.Code),
					zap.Error(err),
				)
			}
			if appErr.Code == http.StatusInternalServerError {
				// never expose internal details
				response.Error(c, appErr.Code, "An unexpected error occurred. Please try again later.", nil)
				return
			}
			response.AppError(c, appErr)
			return
		}

		log.Error("Internal Server Error",
			zap.String("request_id", c.GetString("RequestID")),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", nil)
	}
}
