package callback

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clicafe/clicafe/internal/logging"
	"github.com/clicafe/clicafe/internal/metrics"
)

// requestLogger tags each request with an X-Request-ID, logs it and records
// HTTP metrics under the matched route.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := logging.WithRequestID(c.Request.Context(), c.GetHeader("X-Request-ID"))
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", logging.GetRequestID(ctx))

		logger := logging.WithContext(ctx)
		logger.Debug("request started",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("remote_addr", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		duration := time.Since(start)
		metrics.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), duration)
		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int("size", c.Writer.Size()),
			zap.Duration("duration", duration),
		)
	}
}
