package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yasakei/xos/internal/infrastructure/tracing"
	"github.com/yasakei/xos/internal/shared/errs"
)

// statusFor maps an error kind to its HTTP status
func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.InvalidPath:
		return http.StatusBadRequest
	case errs.Unauthorized:
		return http.StatusUnauthorized
	case errs.AccessDenied:
		return http.StatusForbidden
	case errs.NotFound:
		return http.StatusNotFound
	case errs.Conflict:
		return http.StatusConflict
	case errs.DecryptionFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the client-safe form of err. The cause, which may
// hold disk paths, only goes to the log.
func (h *Handlers) respondError(c *gin.Context, err error) {
	kind := errs.KindOf(err)
	status := statusFor(kind)

	fields := []zap.Field{
		tracing.Field(c.Request.Context()),
		zap.String("route", c.FullPath()),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Debug("request rejected", fields...)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{
		"error": errs.Message(err),
		"kind":  kind.String(),
	})
}

// badRequest rejects malformed input before it reaches the domain
func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error": msg,
		"kind":  errs.InvalidPath.String(),
	})
}
