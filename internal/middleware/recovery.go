package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/gerrardelliot83-create/bankrecon/pkg/logger"
	"github.com/gerrardelliot83-create/bankrecon/pkg/response"
)

// Recovery turns handler panics into 500 responses instead of dropping
// the connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.GetLogger().WithField("panic", r).Error("Panic recovered")
				response.InternalError(c, "Internal server error", "An unexpected error occurred")
				c.Abort()
			}
		}()
		c.Next()
	}
}
