package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pfa/internal/logger"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	healthPath      = "/api/health"
)

// RequestLogging tags each request with an id (kept from X-Request-ID when
// the browser sent one) and logs it once it has been served. Health checks
// are logged at debug; 5xx responses at warn with the attached errors.
func RequestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		began := time.Now()

		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"request_id", id,
			"route", c.FullPath(),
			"method", c.Request.Method,
			"status", status,
			"took_ms", time.Since(began).Milliseconds(),
		}
		if uid, ok := c.Get(userIDKey); ok {
			fields = append(fields, "user_id", uid)
		}

		log := logger.Get()
		switch {
		case status >= 500:
			log.Warnw("bff request failed", append(fields, "errors", c.Errors.String())...)
		case c.Request.URL.Path == healthPath:
			log.Debugw("bff request", fields...)
		default:
			log.Infow("bff request", fields...)
		}
	}
}

// RequestID returns the id RequestLogging assigned to the request, or "".
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
