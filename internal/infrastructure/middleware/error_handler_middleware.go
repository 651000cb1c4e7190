package middleware

import (
	"fmt"
	"net/http"

	"muxlive/pkg/errors"
	"muxlive/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandlerMiddleware renders the last error attached to the context.
// AppErrors become {error, code, details, ...context}; anything else is
// rendered as an internal error without its text.
func ErrorHandlerMiddleware(cl *logger.ContextLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		ctx := c.Request.Context()
		fields := []zap.Field{
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		}

		appErr := errors.GetAppError(err)
		if appErr == nil {
			cl.LogError(ctx, err, "unhandled error", fields...)
			appErr = errors.NewInternalError("Internal server error")
		} else {
			fields = append(fields,
				zap.String("code", string(appErr.Code)),
				zap.String("message", appErr.Message),
				zap.Int("status", appErr.HTTPStatus),
			)
			if appErr.HTTPStatus >= http.StatusInternalServerError && appErr.HTTPStatus != http.StatusServiceUnavailable {
				cl.LogError(ctx, err, "application error", fields...)
			} else {
				cl.WithContext(ctx).Debug("application error", append(fields, zap.Error(err))...)
			}
		}

		body := gin.H{
			"error": appErr.Message,
			"code":  string(appErr.Code),
		}
		if details := appErr.Details(); details != "" {
			body["details"] = details
		}
		for k, v := range appErr.Context {
			if _, taken := body[k]; !taken {
				body[k] = v
			}
		}
		c.JSON(appErr.HTTPStatus, body)
	}
}

// RecoveryMiddleware recovers from panics and returns proper error responses
func RecoveryMiddleware(cl *logger.ContextLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				cl.LogError(c.Request.Context(), fmt.Errorf("panic: %v", rec), "panic recovered",
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)

				appErr := errors.NewInternalError("Internal server error")
				c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{
					"error": appErr.Message,
					"code":  string(appErr.Code),
				})
			}
		}()

		c.Next()
	}
}

// NotFoundHandler renders unknown routes in the same error shape.
func NotFoundHandler(c *gin.Context) {
	c.Error(errors.NewNotFoundError("route").WithContext("path", c.Request.URL.Path))
}
