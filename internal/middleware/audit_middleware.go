package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nexusmart/internal/utils"
)

// AuditAdminAction logs the outcome of an admin request once the handler
// has run. Handlers may store the updated resource under "audit_after".
func AuditAdminAction(logger *zap.Logger, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		after, _ := c.Get("audit_after")
		var failure error
		if status := c.Writer.Status(); status >= 300 {
			failure = fmt.Errorf("status %d", status)
			if last := c.Errors.Last(); last != nil {
				failure = last.Err
			}
		}
		utils.LogAction(logger, c, action, resource, c.Param("id"), nil, after, failure)
	}
}
