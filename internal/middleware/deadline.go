package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// Deadline bounds every request's context to deadlineMs. Handlers that pass
// c.Request.Context() down to store/embedding calls get it cancelled at the
// deadline; pgx and the embedding HTTP client both respect context
// cancellation, so in-flight I/O is aborted rather than left to complete
// after the caller has stopped waiting.
func Deadline(deadlineMs int64) gin.HandlerFunc {
	d := time.Duration(deadlineMs) * time.Millisecond

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
