package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"sentiment-backend/internal/shared/server/respond"
	"sentiment-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 internal_error envelope. The log line carries
// the caller and analysis so a crash during scoring can be traced to its input.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			fields := map[string]any{
				"request_id": RequestIDFromContext(c),
				"panic":      fmt.Sprint(rec),
				"stack":      string(debug.Stack()),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
				"user_id":    UserIDFromContext(c),
			}
			if id := c.GetString(AnalysisIDKey); id != "" {
				fields["analysis_id"] = id
			}
			if mode := c.GetString(ModeKey); mode != "" {
				fields["mode"] = mode
			}
			telemetry.Error("http.panic", fields)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Unexpected server error", nil)
		}()
		c.Next()
	}
}
