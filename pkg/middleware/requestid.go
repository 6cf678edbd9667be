package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request identifier in both directions.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "requestID"

// Incoming IDs are echoed only when they are short and header-safe.
var requestIDRegex = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestID returns a Gin middleware that propagates X-Request-ID or
// generates a UUID when the client did not send a usable one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !requestIDRegex.MatchString(id) {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// RequestIDFromGinContext returns the identifier stored by RequestID.
func RequestIDFromGinContext(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
