package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/eservice-api/internal/handler"
)

// DefaultMaxBodySize bounds JSON request bodies; menu trees are the largest payloads.
const DefaultMaxBodySize int64 = 1 << 20

// BodyLimit rejects declared oversize bodies and caps the rest while they are read.
func BodyLimit(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > max {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, handler.NewErrorResponse("request body too large"))
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		}
		c.Next()
	}
}
