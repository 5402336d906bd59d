package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderXRequestID = "X-Request-ID"
	ContextRequestID = "request_id"

	// Inbound IDs longer than this are replaced; clients shouldn't be able to
	// stuff arbitrary payloads into the audit trail.
	maxRequestIDLen = 64
)

// RequestID tags every request with an ID, honoring a reasonable inbound
// X-Request-ID so gateway traces line up, and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderXRequestID)
		if rid == "" || len(rid) > maxRequestIDLen {
			rid = uuid.New().String()
		}

		c.Set(ContextRequestID, rid)
		c.Header(HeaderXRequestID, rid)
		c.Next()
	}
}
