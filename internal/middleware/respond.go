package middleware

import "github.com/gin-gonic/gin"

func abort(c *gin.Context, status int, message string, extra ...gin.H) {
	body := gin.H{"success": false, "message": message}
	for _, e := range extra {
		for k, v := range e {
			body[k] = v
		}
	}
	c.AbortWithStatusJSON(status, body)
}
