package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestID stores a request id under "RequestID" in the gin context and
// echoes it in the response header. A well-formed incoming X-Request-ID is
// reused; anything else is replaced by a fresh UUID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !validRequestID.MatchString(id) {
			id = uuid.NewString()
		}
		c.Set("RequestID", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
