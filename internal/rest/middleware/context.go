package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/tradeflowhq/tradeflow/internal/types"
)

// RequestIDMiddleware ensures every request carries a request id, taken
// from the inbound header when present.
func RequestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REQUEST)
	}

	ctx := context.WithValue(c.Request.Context(), types.CtxRequestID, requestID)
	c.Request = c.Request.WithContext(ctx)
	c.Writer.Header().Set(types.HeaderRequestID, requestID)
	c.Next()
}
