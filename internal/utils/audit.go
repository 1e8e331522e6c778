package utils

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LogAction writes an audit line for an admin change. before and after are
// logged as structured fields; failed actions carry the error.
func LogAction(logger *zap.Logger, c *gin.Context, action, resource, resourceID string, before, after interface{}, actionErr error) {
	fields := []zap.Field{
		zap.String("action", action),
		zap.String("resource", resource),
		zap.String("resource_id", resourceID),
		zap.String("actor_id", c.GetString("user_id")),
		zap.String("actor_email", c.GetString("email")),
		zap.String("ip", c.ClientIP()),
	}
	if before != nil {
		fields = append(fields, zap.Any("before", before))
	}
	if after != nil {
		fields = append(fields, zap.Any("after", after))
	}
	if actionErr != nil {
		logger.Warn("📝 audit: action refused", append(fields, zap.Error(actionErr))...)
		return
	}
	logger.Info("📝 audit", fields...)
}
