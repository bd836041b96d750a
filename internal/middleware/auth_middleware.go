package middleware

import (
	"net/http"
	"strings"

	"carpool/internal/session"
	"carpool/internal/utils"
	"carpool/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the bearer token and stores the caller's session in the context.
func AuthRequired(secretKey string, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, utils.CodeUnauthorized, "Bearer token required")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, secretKey)
		if err != nil {
			log.LogSecurityEvent("invalid_token", "low", map[string]interface{}{
				"path":  c.FullPath(),
				"ip":    c.ClientIP(),
				"error": err.Error(),
			})
			utils.ErrorResponse(c, http.StatusUnauthorized, utils.CodeUnauthorized, utils.ErrInvalidToken)
			c.Abort()
			return
		}

		sess := session.New(claims.UserID, session.ParseRole(claims.Role), claims.Name, tokenString)

		c.Set(utils.ContextSessionKey, sess)
		c.Set(utils.ContextUserIDKey, sess.UserID)
		c.Set(utils.ContextUserRoleKey, string(sess.Role))

		ctx := logger.ContextWithUserID(c.Request.Context(), sess.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// CurrentSession returns the session stored by AuthRequired, or the anonymous session.
func CurrentSession(c *gin.Context) *session.Session {
	if value, exists := c.Get(utils.ContextSessionKey); exists {
		if sess, ok := value.(*session.Session); ok && sess != nil {
			return sess
		}
	}
	return session.Anonymous()
}

// DriverRequired middleware ensures user is a driver. Admins pass as well.
func DriverRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		if !sess.Authenticated() {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		if !sess.IsDriver() && !sess.IsAdmin() {
			utils.ErrorResponse(c, http.StatusForbidden, utils.CodeForbidden, "Driver access required")
			c.Abort()
			return
		}

		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		if !strings.HasPrefix(authHeader, utils.BearerPrefix) {
			return ""
		}
		return strings.TrimSpace(strings.TrimPrefix(authHeader, utils.BearerPrefix))
	}

	// browsers cannot set headers on a websocket handshake
	if c.IsWebsocket() {
		return c.Query("access_token")
	}
	return ""
}
