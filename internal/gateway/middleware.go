package gateway

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pedidobot/internal/logging"
	"pedidobot/internal/services"
)

// bearerAuth validates bearer tokens. An empty token disables the check.
func bearerAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// correlation assigns request ids and stores them on the request context.
func correlation() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		requestid.New(requestid.WithGenerator(uuid.NewString)),
		func(c *gin.Context) {
			ctx := services.WithRequestID(c.Request.Context(), requestid.Get(c))
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		},
	}
}

// bodySizeLimit rejects bodies above maxSize.
func bodySizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":    "request body too large",
				"max_size": maxSize,
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// accessLog writes one line per request, at a level that follows the status.
func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		status := c.Writer.Status()
		attrs := []logging.Attr{
			logging.Int("status", status),
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.String("ip", c.ClientIP()),
			logging.Duration("latency", time.Since(start)),
			logging.String(logging.FieldCorrelationID, requestid.Get(c)),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, logging.String("errors", c.Errors.String()))
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request failed", logging.Args(append(attrs, logging.Event("http_server_error"))...)...)
		case status >= http.StatusBadRequest:
			logger.Warn("request rejected", logging.Args(append(attrs, logging.Event("http_client_error"))...)...)
		default:
			logger.Debug("request completed", logging.Args(attrs...)...)
		}
	}
}

// recovery turns handler panics into 500 responses.
func recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.ErrorWithContext(logger, "handler panic recovered", "http_panic",
			logging.Any("panic", recovered),
			logging.String("path", c.Request.URL.Path),
			logging.String(logging.FieldCorrelationID, requestid.Get(c)),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
}
