package middleware

import (
	"github.com/gin-gonic/gin"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
	"github.com/tradeflowhq/tradeflow/internal/logger"
)

// ErrorHandlerMiddleware converts errors attached via c.Error into the
// standard error envelope. Handlers attach errors and return; this is the
// single place status codes and payloads are decided.
func ErrorHandlerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)
		if status >= 500 {
			log.Errorw("request failed",
				"path", c.Request.URL.Path,
				"status", status,
				"error", err,
			)
		}
		c.JSON(status, ierr.NewErrorResponse(err))
	}
}
