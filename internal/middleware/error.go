package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/eservice-api/internal/handler"
)

// ErrorHandler renders errors attached with c.Error when the handler wrote
// no response of its own.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		handler.RespondError(c, c.Errors.Last().Err)
	}
}
