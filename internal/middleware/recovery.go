package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"realty/api/internal/metrics"
)

// Recovery turns a handler panic into a 500 JSON body unless the handler had
// already started writing. The log line carries the route template and the
// caller when authenticated.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			metrics.ObservePanic(route)

			event := log.Error().
				Interface("panic", r).
				Str("method", c.Request.Method).
				Str("route", route).
				Str("request_id", RequestIDFrom(c)).
				Bytes("stack", debug.Stack())
			if user, ok := CurrentUser(c); ok {
				event = event.Int64("user_id", user.ID)
			}
			event.Msg("panic recovered")

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "internal_server_error",
				"requestId": RequestIDFrom(c),
			})
		}()
		c.Next()
	}
}
