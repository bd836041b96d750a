package middleware

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"carpool/internal/utils"
	"carpool/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CORSMiddleware configures CORS headers for the given origins. "*" allows any
// origin without credentials; listed origins are echoed with credentials. An
// empty list emits no allow-origin header, leaving same-origin only.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := slices.Contains(allowedOrigins, "*")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case origin == "":
		case slices.Contains(allowedOrigins, origin):
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		}
		c.Header("Vary", "Origin")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Request-ID, Deprecation, Link")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestIDMiddleware adds a request ID to each request
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(utils.HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(utils.ContextRequestIDKey, requestID)
		c.Header(utils.HeaderRequestID, requestID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// LoggingMiddleware logs every request once it has been handled.
func LoggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}

		entry := log
		if requestID := c.GetString(utils.ContextRequestIDKey); requestID != "" {
			entry = entry.WithRequestID(requestID)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}
		entry.LogAPIRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start), c.GetString(utils.ContextUserIDKey))
	}
}

// Deprecated marks a route as a legacy alias of successor.
func Deprecated(successor string) gin.HandlerFunc {
	link := fmt.Sprintf("<%s>; rel=\"successor-version\"", successor)
	return func(c *gin.Context) {
		c.Header(utils.HeaderDeprecation, "true")
		c.Header(utils.HeaderLink, link)
		c.Next()
	}
}
