package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nexusmart/internal/models"
)

// RequireAdmin must run after Auth.Required.
func RequireAdmin(c *gin.Context) {
	if c.GetString(CtxRole) != models.RoleAdmin {
		abort(c, http.StatusForbidden, "Admin access required")
		return
	}
	c.Next()
}
